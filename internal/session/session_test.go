package session

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/pavelanni/quizgrader/internal/grading"
	"github.com/pavelanni/quizgrader/internal/model"
	"github.com/pavelanni/quizgrader/internal/store"
)

const questionsHTML = `<table><tbody>
<tr>
  <td class="questionname"><label>SW01F13-17 Lernziele</label></td>
  <td class="creatorname">Anna Muster</td>
  <td class="difficultylevel"><span data-difficultylevel="0.4"></span></td>
  <td class="rates"><span data-rate="3"></span></td>
  <td class="comment"><a>1</a></td>
</tr>
<tr>
  <td class="questionname"><label>SW02F2-6 Ableitungen</label></td>
  <td class="creatorname">Bert Beispiel</td>
  <td class="difficultylevel"><span data-difficultylevel="0.7"></span></td>
  <td class="rates"><span data-rate="5"></span></td>
  <td class="comment"><a>4</a></td>
</tr>
</tbody></table>`

const rankingHTML = `<table><tbody>
<tr><td class="cell c1">Anna Muster</td><td class="cell c3">1</td><td class="cell c5">3</td><td class="cell c6">4</td><td class="cell c7">1</td></tr>
<tr><td class="cell c1">Bert Beispiel</td><td class="cell c3">1</td><td class="cell c5">5</td><td class="cell c6">5</td><td class="cell c7">0</td></tr>
</tbody></table>`

func newTestState(t *testing.T) *store.State {
	t.Helper()
	kv, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	return store.NewState(kv)
}

// seeded returns a session for "T1" with both extracts and side tables.
func seeded(t *testing.T, state *store.State) *Session {
	t.Helper()
	ctx := context.Background()
	if err := state.SaveHelper(ctx, []model.HelperEntry{
		{Code: "anm", FullName: "Anna Muster"},
		{Code: "bbe", FullName: "Bert Beispiel"},
	}); err != nil {
		t.Fatal(err)
	}
	if err := state.SaveAssignments(ctx, "T1", []model.AssignmentEntry{
		{Code: "anm", CreateBlock: "SW01F8-12"},
		{Code: "bbe", CreateBlock: "SW02F2-6"},
	}); err != nil {
		t.Fatal(err)
	}
	s, err := Open(ctx, state, "T1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if n, err := s.LoadQuestionsHTML(ctx, questionsHTML); err != nil || n != 2 {
		t.Fatalf("LoadQuestionsHTML = %d, %v", n, err)
	}
	if n, err := s.LoadRankingHTML(ctx, rankingHTML); err != nil || n != 2 {
		t.Fatalf("LoadRankingHTML = %d, %v", n, err)
	}
	return s
}

func TestOpenWithoutTest(t *testing.T) {
	_, err := Open(context.Background(), newTestState(t), " ")
	if !errors.Is(err, ErrNoTest) {
		t.Errorf("err = %v, want ErrNoTest", err)
	}
}

func TestOpenUsesCurrentTest(t *testing.T) {
	state := newTestState(t)
	ctx := context.Background()
	if err := state.SetCurrentTest(ctx, "T9"); err != nil {
		t.Fatal(err)
	}
	s, err := Open(ctx, state, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.Name() != "T9" {
		t.Errorf("Name = %q, want T9", s.Name())
	}
}

func TestGradeRequiresInputs(t *testing.T) {
	state := newTestState(t)
	s, err := Open(context.Background(), state, "T1")
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Grade(context.Background())
	if !errors.Is(err, ErrMissingInput) {
		t.Fatalf("err = %v, want ErrMissingInput", err)
	}
	want := "missing input: assignment table, question extract, ranking extract"
	if err.Error() != want {
		t.Errorf("err = %q, want %q", err, want)
	}
}

func TestGradeFromStoredSnapshots(t *testing.T) {
	state := newTestState(t)
	ctx := context.Background()
	seeded(t, state)

	// A fresh session re-extracts the stored pages.
	s, err := Open(ctx, state, "T1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(s.Questions()) != 2 || len(s.Ranking()) != 2 {
		t.Fatalf("snapshots not restored: %d questions, %d ranking", len(s.Questions()), len(s.Ranking()))
	}
	records, err := s.Grade(ctx)
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records", len(records))
	}
	anna, bert := records[0], records[1]
	if anna.StudentName != "Anna Muster" || anna.WrongBlock != model.WrongBlockYes || anna.AutomaticGrade != 63 {
		t.Errorf("anna = %s %q %d", anna.StudentName, anna.WrongBlock, anna.AutomaticGrade)
	}
	if !anna.HasFlag(model.FlagWrongBlock) || !anna.RequiresManualReview {
		t.Errorf("anna flags = %v", anna.ReviewFlags)
	}
	if bert.AutomaticGrade != 100 || bert.WrongBlock != "" {
		t.Errorf("bert = %d %q", bert.AutomaticGrade, bert.WrongBlock)
	}
}

func TestOverrideSaveAndRegrade(t *testing.T) {
	state := newTestState(t)
	ctx := context.Background()
	s := seeded(t, state)
	if _, err := s.Grade(ctx); err != nil {
		t.Fatal(err)
	}

	grade, text, review := "+5", "* geprüft", false
	r, err := s.SetOverride("Anna Muster", Override{ManualGrade: &grade, Justification: &text, Review: &review})
	if err != nil {
		t.Fatalf("SetOverride: %v", err)
	}
	if r.ManualGrade != "5%" || r.TotalGrade != 68 {
		t.Errorf("override = %q total %d, want 5%% 68", r.ManualGrade, r.TotalGrade)
	}
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}

	again, err := Open(ctx, state, "")
	if err != nil {
		t.Fatal(err)
	}
	records, err := again.Grade(ctx)
	if err != nil {
		t.Fatal(err)
	}
	anna := records[0]
	if anna.ManualGrade != "5%" || anna.TotalGrade != 68 || anna.Justification != "* geprüft" {
		t.Errorf("regraded anna = %q %d %q", anna.ManualGrade, anna.TotalGrade, anna.Justification)
	}
	if !anna.RequiresManualReview || !anna.HasFlag(model.FlagWrongBlock) {
		t.Errorf("wrong block still needs review: %v %v", anna.RequiresManualReview, anna.ReviewFlags)
	}
}

// Anna now authors in her assigned block with a good rating, but answers
// only one question correctly.
const regradedQuestionsHTML = `<table><tbody>
<tr>
  <td class="questionname"><label>SW01F8-12 Lernziele</label></td>
  <td class="creatorname">Anna Muster</td>
  <td class="difficultylevel"><span data-difficultylevel="0.4"></span></td>
  <td class="rates"><span data-rate="5"></span></td>
  <td class="comment"><a>4</a></td>
</tr>
<tr>
  <td class="questionname"><label>SW02F2-6 Ableitungen</label></td>
  <td class="creatorname">Bert Beispiel</td>
  <td class="difficultylevel"><span data-difficultylevel="0.7"></span></td>
  <td class="rates"><span data-rate="5"></span></td>
  <td class="comment"><a>4</a></td>
</tr>
</tbody></table>`

const regradedRankingHTML = `<table><tbody>
<tr><td class="cell c1">Anna Muster</td><td class="cell c3">1</td><td class="cell c5">3</td><td class="cell c6">1</td><td class="cell c7">0</td></tr>
<tr><td class="cell c1">Bert Beispiel</td><td class="cell c3">1</td><td class="cell c5">5</td><td class="cell c6">5</td><td class="cell c7">0</td></tr>
</tbody></table>`

func TestRegradeRecomputesGeneratedText(t *testing.T) {
	state := newTestState(t)
	ctx := context.Background()
	s := seeded(t, state)
	if _, err := s.Grade(ctx); err != nil {
		t.Fatal(err)
	}
	review := true
	if _, err := s.SetOverride("Bert Beispiel", Override{Review: &review}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}

	stored, err := state.LoadTestData(ctx, "T1")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := stored.ManualGrades["Anna Muster"]; ok || len(stored.ManualGrades) != 1 {
		t.Fatalf("only the human review mark may be stored, got %+v", stored.ManualGrades)
	}
	if bert := stored.ManualGrades["Bert Beispiel"]; bert.Justification != "" || !bert.RequiresManualReview {
		t.Errorf("stored bert = %+v", bert)
	}

	if _, err := s.LoadQuestionsHTML(ctx, regradedQuestionsHTML); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadRankingHTML(ctx, regradedRankingHTML); err != nil {
		t.Fatal(err)
	}
	records, err := s.Grade(ctx)
	if err != nil {
		t.Fatal(err)
	}

	anna := records[0]
	if anna.Justification != grading.Justification(&anna) {
		t.Errorf("justification is stale: %q", anna.Justification)
	}
	if !strings.Contains(anna.Justification, "Fragen beantwortet 1 Punkte") {
		t.Errorf("justification lacks the answer deduction: %q", anna.Justification)
	}
	if anna.RequiresManualReview || len(anna.ReviewFlags) != 0 {
		t.Errorf("heuristic mark must clear: review=%v flags=%v", anna.RequiresManualReview, anna.ReviewFlags)
	}
	if bert := records[1]; !bert.RequiresManualReview {
		t.Error("human review mark must survive a regrade")
	}
}

func TestEmptyJustificationRestoresGenerated(t *testing.T) {
	s := seeded(t, newTestState(t))
	if _, err := s.Grade(context.Background()); err != nil {
		t.Fatal(err)
	}
	text := ""
	r, err := s.SetOverride("Anna Muster", Override{Justification: &text})
	if err != nil {
		t.Fatal(err)
	}
	if r.JustificationEdited || r.Justification != grading.Justification(r) {
		t.Errorf("justification = %q edited=%v", r.Justification, r.JustificationEdited)
	}
}

func TestReviewOperationsNeedGrades(t *testing.T) {
	s, err := Open(context.Background(), newTestState(t), "T1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.SetOverride("Anna Muster", Override{}); !errors.Is(err, ErrNotGraded) {
		t.Errorf("SetOverride err = %v", err)
	}
	if _, _, err := s.ApplyBonusFilter(grading.DefaultBonusFilter()); !errors.Is(err, ErrNotGraded) {
		t.Errorf("ApplyBonusFilter err = %v", err)
	}
	if err := s.Save(context.Background()); !errors.Is(err, ErrNotGraded) {
		t.Errorf("Save err = %v", err)
	}
}

func TestBonusWorkflow(t *testing.T) {
	state := newTestState(t)
	ctx := context.Background()
	s := seeded(t, state)
	if _, err := s.Grade(ctx); err != nil {
		t.Fatal(err)
	}

	if _, ok, err := s.CycleBonus("Bert Beispiel"); err != nil || ok {
		t.Errorf("cycling an unset bonus = %v, %v", ok, err)
	}
	if _, _, err := s.CycleBonus("Nobody"); !errors.Is(err, ErrUnknownStudent) {
		t.Errorf("err = %v, want ErrUnknownStudent", err)
	}

	f := grading.BonusFilter{MinTotalGrade: 90, MinRating: 4, MinComments: 3, MinDifficulty: 0, MaxDifficulty: 1}
	matched, marked, err := s.ApplyBonusFilter(f)
	if err != nil || matched != 1 || marked != 1 {
		t.Fatalf("ApplyBonusFilter = %d, %d, %v; want 1, 1", matched, marked, err)
	}
	if got := FilterBonus.Apply(s.Records()); len(got) != 1 || got[0].StudentName != "Bert Beispiel" {
		t.Errorf("bonus filter view = %v", got)
	}

	b, ok, err := s.CycleBonus("Bert Beispiel")
	if err != nil || !ok || b != model.Bonus0 {
		t.Errorf("CycleBonus = %q, %v, %v; want 0", b, ok, err)
	}

	raw, err := s.Export(ctx)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	var env struct {
		TestName string `json:"testName"`
		Data     struct {
			ManualGrades map[string]json.RawMessage `json:"manualGrades"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if env.TestName != "T1" || len(env.Data.ManualGrades) != 1 {
		t.Errorf("export = %s", raw)
	}
	if _, ok := env.Data.ManualGrades["Bert Beispiel"]; !ok {
		t.Errorf("export misses the bonus entry: %s", raw)
	}
}

func TestFilter(t *testing.T) {
	records := []model.StudentRecord{
		{StudentName: "a", RequiresManualReview: true},
		{StudentName: "b", Bonus: model.BonusPending},
		{StudentName: "c", Bonus: model.Bonus1},
	}
	tests := []struct {
		in   string
		want int
	}{
		{"", 3},
		{"manual", 1},
		{" Bonus ", 1},
	}
	for _, tt := range tests {
		f, err := ParseFilter(tt.in)
		if err != nil {
			t.Fatalf("ParseFilter(%q): %v", tt.in, err)
		}
		if got := f.Apply(records); len(got) != tt.want {
			t.Errorf("%q: got %d records, want %d", tt.in, len(got), tt.want)
		}
	}
	if _, err := ParseFilter("all"); err == nil {
		t.Error("ParseFilter(all) must fail")
	}
}

func TestExportBeforeGradeUsesStoredEntries(t *testing.T) {
	state := newTestState(t)
	ctx := context.Background()
	five := "5%"
	if err := state.SaveTestData(ctx, "T1", model.TestData{ManualGrades: map[string]model.ManualGrade{
		"Anna Muster":   {ManualGrade: &five},
		"Bert Beispiel": {Justification: "* nur Text", RequiresManualReview: true},
	}}); err != nil {
		t.Fatal(err)
	}
	s, err := Open(ctx, state, "T1")
	if err != nil {
		t.Fatal(err)
	}
	raw, err := s.Export(ctx)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	_, data, err := state.ImportJSON(ctx, raw)
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if len(data.ManualGrades) != 1 {
		t.Errorf("exported %d entries, want only the manual grade", len(data.ManualGrades))
	}
}
