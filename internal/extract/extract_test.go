package extract

import (
	"errors"
	"io"
	"testing"
)

const questionTable = `
<table>
<thead><tr><th>Frage</th><th>Autor</th></tr></thead>
<tbody>
<tr>
  <td class="questionname"><label>SW01F8-12 Lernziele</label> ignored</td>
  <td class="creatorname">Anna&nbsp;Muster <span class="date">12.03.2024</span> (Gast)</td>
  <td class="difficultylevel"><span data-difficultylevel="0,45">mittel</span></td>
  <td class="rates"><span data-rate="4.5">★★★★</span></td>
  <td class="comment"><a href="#"> 7 </a></td>
  <td class="editmenu">
    <a href="https://lms.example/editquestion.php?id=1&amp;cmid=9">edit</a>
    <a href="https://lms.example/preview.php?id=1">preview</a>
  </td>
</tr>
<tr>
  <td class="questionname">Ohne Label</td>
  <td class="creatorname">n.a.</td>
  <td class="difficultylevel">hard</td>
  <td class="rates"></td>
  <td class="comment">n.a.</td>
</tr>
<tr>
  <td class="questionname"></td>
  <td class="creatorname"></td>
  <td class="comment">n.a.</td>
  <td class="editmenu"><a href="https://lms.example/preview.php?id=3">preview</a></td>
</tr>
<tr><td>layout row</td></tr>
</tbody>
</table>`

func TestQuestions(t *testing.T) {
	rows, err := Questions(questionTable)
	if err != nil {
		t.Fatalf("Questions: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %+v", len(rows), rows)
	}

	r := rows[0]
	if r.QuestionName != "SW01F8-12 Lernziele" {
		t.Errorf("QuestionName = %q, want label text", r.QuestionName)
	}
	if r.CreatorName != "Anna Muster" {
		t.Errorf("CreatorName = %q, want %q", r.CreatorName, "Anna Muster")
	}
	if r.Difficulty != "0.45" {
		t.Errorf("Difficulty = %q, want %q", r.Difficulty, "0.45")
	}
	if r.Rating != "4.5" {
		t.Errorf("Rating = %q, want %q", r.Rating, "4.5")
	}
	if r.Comments != 7 {
		t.Errorf("Comments = %d, want 7", r.Comments)
	}
	if r.EditURL != "https://lms.example/editquestion.php?id=1&cmid=9" {
		t.Errorf("EditURL = %q", r.EditURL)
	}
	if r.PreviewURL != "https://lms.example/preview.php?id=1" {
		t.Errorf("PreviewURL = %q", r.PreviewURL)
	}

	r = rows[1]
	if r.QuestionName != "Ohne Label" {
		t.Errorf("QuestionName = %q, want %q", r.QuestionName, "Ohne Label")
	}
	if r.CreatorName != "" {
		t.Errorf("CreatorName = %q, want empty for n.a.", r.CreatorName)
	}
	if r.Difficulty != "" {
		t.Errorf("Difficulty = %q, want empty without data attribute", r.Difficulty)
	}
	if r.Comments != 0 {
		t.Errorf("Comments = %d, want 0 for n.a.", r.Comments)
	}
}

func TestQuestionsFallbackWithoutTbody(t *testing.T) {
	html := `<tr><td class="questionname">Q</td><td class="creatorname">Bert</td></tr>`
	rows, err := Questions(html)
	if err != nil {
		t.Fatalf("Questions: %v", err)
	}
	if len(rows) != 1 || rows[0].CreatorName != "Bert" {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestQuestionsEmptyInput(t *testing.T) {
	rows, err := Questions("")
	if err != nil {
		t.Fatalf("Questions: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestExtractUnreadableInput(t *testing.T) {
	rows, err := extractFrom(failingReader{}, QuestionSchema)
	if !errors.Is(err, ErrParse) {
		t.Fatalf("err = %v, want ErrParse", err)
	}
	if rows != nil {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestRanking(t *testing.T) {
	html := `<table><tbody>
<tr>
  <td class="cell c1">Anna Muster (anm)</td>
  <td class="cell c3">1</td>
  <td class="cell c5">4,5</td>
  <td class="cell c6">3</td>
  <td class="cell c7">0</td>
</tr>
<tr>
  <td class="cell c1">Bert Beispiel</td>
  <td class="cell c3">-</td>
  <td class="cell c5"></td>
  <td class="cell c6">2</td>
  <td class="cell c7">n/a</td>
</tr>
<tr>
  <td class="cell c1"></td>
  <td class="cell c3"></td>
</tr>
</tbody></table>`

	rows, err := Ranking(html)
	if err != nil {
		t.Fatalf("Ranking: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	a := rows[0]
	if a.StudentName != "Anna Muster" {
		t.Errorf("StudentName = %q, want %q", a.StudentName, "Anna Muster")
	}
	if a.RatingPoints == nil || *a.RatingPoints != 4.5 {
		t.Errorf("RatingPoints = %v, want 4.5", a.RatingPoints)
	}
	if a.FalseAnswerPoints == nil || *a.FalseAnswerPoints != 0 {
		t.Errorf("FalseAnswerPoints = %v, want earned zero", a.FalseAnswerPoints)
	}

	b := rows[1]
	if b.PublishedQuestionPoints != nil {
		t.Errorf("PublishedQuestionPoints = %v, want nil", *b.PublishedQuestionPoints)
	}
	if b.RatingPoints != nil {
		t.Errorf("RatingPoints = %v, want nil", *b.RatingPoints)
	}
	if b.FalseAnswerPoints != nil {
		t.Errorf("FalseAnswerPoints = %v, want nil", *b.FalseAnswerPoints)
	}
	if b.CorrectAnswerPoints == nil || *b.CorrectAnswerPoints != 2 {
		t.Errorf("CorrectAnswerPoints = %v, want 2", b.CorrectAnswerPoints)
	}
}

func TestNormalizeNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"  3 ", "3"},
		{"4,5", "4.5"},
		{"-2.25 Punkte", "-2.25"},
		{" 12", "12"},
		{"abc", ""},
		{"1,5,7", "1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeNumber(tt.in); got != tt.want {
				t.Errorf("NormalizeNumber(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNumberOrNil(t *testing.T) {
	if v := NumberOrNil("x"); v != nil {
		t.Errorf("NumberOrNil(x) = %v, want nil", *v)
	}
	if v := NumberOrNil("0"); v == nil || *v != 0 {
		t.Errorf("NumberOrNil(0) = %v, want 0", v)
	}
}

func TestRemoveParentheses(t *testing.T) {
	if got := RemoveParentheses("Anna (anm) Muster"); got != "Anna" {
		t.Errorf("RemoveParentheses = %q, want %q", got, "Anna")
	}
}
