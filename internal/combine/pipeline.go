package combine

import (
	"log/slog"

	"github.com/pavelanni/quizgrader/internal/grading"
	"github.com/pavelanni/quizgrader/internal/model"
)

// ApplyOverrides merges stored manual grades into records by display name
// and recomputes their total grades. Stored justifications and review marks
// are human edits. Review flags are not recomputed.
func ApplyOverrides(records []model.StudentRecord, data *model.TestData) (applied int) {
	if data == nil || len(data.ManualGrades) == 0 {
		return 0
	}
	for i := range records {
		r := &records[i]
		stored, ok := data.ManualGrades[r.StudentName]
		if !ok {
			continue
		}
		r.ManualGrade = ""
		if stored.ManualGrade != nil {
			r.ManualGrade = *stored.ManualGrade
		}
		if stored.Justification != "" {
			r.Justification = stored.Justification
			r.JustificationEdited = true
		}
		r.ReviewMarked = stored.RequiresManualReview
		r.RequiresManualReview = stored.RequiresManualReview
		if stored.Bonus.IsSet() {
			r.Bonus = stored.Bonus
		}
		r.TotalGrade = grading.TotalGrade(r.AutomaticGrade, r.ManualGrade)
		applied++
	}
	return applied
}

// Inputs are the optional side tables of a grading run.
type Inputs struct {
	Roster *Roster
	Stored *model.TestData
}

// Run executes the whole grading pipeline: join, block validation, grading,
// stored overrides, then review flags. The result is deterministic for
// identical inputs.
func Run(questions []model.QuestionRow, ranking []model.RankingRow, in Inputs) []model.StudentRecord {
	records := Combine(questions, ranking)
	wrong := ValidateBlocks(records, in.Roster)
	Grade(records)
	applied := ApplyOverrides(records, in.Stored)

	flagged := 0
	for i := range records {
		r := &records[i]
		grading.ApplyReviewFlags(r)
		grading.MarkWrongBlock(r)
		if r.RequiresManualReview {
			flagged++
		}
	}
	slog.Info("graded students",
		"students", len(records),
		"wrong_block", wrong,
		"overrides", applied,
		"review", flagged,
	)
	return records
}
