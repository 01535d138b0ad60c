package sheet

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/pavelanni/quizgrader/internal/model"
	"github.com/pavelanni/quizgrader/internal/names"
)

// Missing is written for values that could not be determined.
const Missing = "MISSING"

// placeholder marks a count or rating that does not apply.
const placeholder = "-"

// Assignment workbook columns.
const (
	colCode         = "Kürzel"
	colClass        = "Klasse"
	colCreateBlock  = "Frage erstellen in Block"
	colAnswerBlocks = "Fragen beantworten in Blöcken"
)

// Default workbook names.
const (
	TemplateFileName  = "3PMo_Helper_Studierenden_Template.xlsx"
	QuestionsFileBase = "3PMo_Helper_StudentQuiz_Extrakt"
	RankingFileBase   = "3PMo_Helper_Rangliste_Extrakt"
)

var gradeHeaders = []string{
	colCode, "Bew. tot.", "Bew. aut.", "Bew. man.", "Begründung",
	"Fragen erstellt", "Erhaltene Bewertung", "Σ Komm.", "Ø Schw.",
	"Falscher Frageblock", "Beantw./Bew. Fragen",
}

// CodeResolver maps a display name to a student code, "" when unknown.
type CodeResolver interface {
	Code(displayName string) string
}

// GradesTable lays out graded records for students. Records whose code
// cannot be resolved are left out and counted in omitted. Rows are sorted
// by code.
func GradesTable(records []model.StudentRecord, codes CodeResolver, withBonus bool) (t Table, omitted int) {
	t = Table{
		Sheet:   "Bewertungen",
		Headers: append([]string(nil), gradeHeaders...),
		Widths:  map[int]float64{0: 10, 4: 60, 10: 22},
		Wrap:    []int{4},
	}
	if withBonus {
		t.Headers = append(t.Headers, "Bonus")
	}

	for i := range records {
		r := &records[i]
		code := codes.Code(r.StudentName)
		if code == "" {
			omitted++
			continue
		}
		row := []string{
			code,
			fmt.Sprintf("%d%%", r.TotalGrade),
			fmt.Sprintf("%d%%", r.AutomaticGrade),
			r.ManualGrade,
			r.Justification,
			intOr(r.QuestionCount, placeholder),
			receivedRating(r),
			intOr(r.TotalComments, Missing),
			floatOr(r.AvgDifficulty, Missing),
			wrongBlock(r.WrongBlock),
			answers(r),
		}
		if withBonus {
			row = append(row, string(r.Bonus))
		}
		t.Rows = append(t.Rows, row)
	}
	names.SortFunc(t.Rows, func(row []string) string { return row[0] })
	return t, omitted
}

// receivedRating is the average star rating per authored question. It does
// not apply without a question and is missing when the leaderboard has no
// rating points.
func receivedRating(r *model.StudentRecord) string {
	if r.QuestionCount == nil || *r.QuestionCount == 0 {
		return placeholder
	}
	if r.RatingPoints == nil {
		return Missing
	}
	return strconv.FormatFloat(*r.RatingPoints/float64(*r.QuestionCount), 'f', 2, 64)
}

// answers renders "total (R: correct / F: false)".
func answers(r *model.StudentRecord) string {
	if r.TotalAnswerPoints == nil {
		return Missing
	}
	return fmt.Sprintf("%s (R: %s / F: %s)",
		formatFloat(*r.TotalAnswerPoints),
		floatOr(r.CorrectAnswerPoints, Missing),
		floatOr(r.FalseAnswerPoints, Missing))
}

func wrongBlock(v string) string {
	if v == model.WrongBlockYes {
		return model.WrongBlockYes
	}
	return placeholder
}

func intOr(p *int, missing string) string {
	if p == nil {
		return missing
	}
	return strconv.Itoa(*p)
}

func floatOr(p *float64, missing string) string {
	if p == nil {
		return missing
	}
	return formatFloat(*p)
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// GradesFileBase returns the grades workbook name without extension.
func GradesFileBase(testName string) string {
	safe := whitespaceRun.ReplaceAllString(strings.TrimSpace(testName), "_")
	if safe == "" {
		safe = "Unbenannt"
	}
	return "Erhaltene_Bewertungen_für_" + safe
}

// AssignmentTable lays out balancer output.
func AssignmentTable(rows []model.AssignmentRow) Table {
	t := Table{
		Sheet:   "Zuteilung",
		Headers: []string{colCode, colClass, colCreateBlock, colAnswerBlocks},
		Widths:  map[int]float64{0: 10, 1: 10, 2: 24, 3: 30},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.StudentCode, r.ClassName, r.CreateBlock, r.AnswerBlocksLabel()})
	}
	return t
}

// TemplateTable is the empty roster workbook students are entered into.
func TemplateTable() Table {
	return Table{Sheet: "Studierende", Headers: []string{"Kuerzel", "Klasse"}}
}

// QuestionsTable lays out extracted question rows.
func QuestionsTable(rows []model.QuestionRow) Table {
	t := Table{
		Sheet:   "Daten",
		Headers: []string{"questionname", "creatorname", "difficultylevel", "rate", "comments", "editUrl", "previewUrl"},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.QuestionName, r.CreatorName, r.Difficulty, r.Rating,
			strconv.Itoa(r.Comments), r.EditURL, r.PreviewURL,
		})
	}
	return t
}

// RankingTable lays out extracted leaderboard rows. Absent points stay
// empty.
func RankingTable(rows []model.RankingRow) Table {
	t := Table{
		Sheet: "Rangliste",
		Headers: []string{
			"student_name", "published_question_points", "rating_points",
			"correct_answers_points", "false_answers_points",
		},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.StudentName,
			floatOr(r.PublishedQuestionPoints, ""),
			floatOr(r.RatingPoints, ""),
			floatOr(r.CorrectAnswerPoints, ""),
			floatOr(r.FalseAnswerPoints, ""),
		})
	}
	return t
}
