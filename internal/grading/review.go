package grading

import (
	"github.com/pavelanni/quizgrader/internal/model"
)

// Thresholds of the manual-review heuristic.
const (
	reviewMaxRating   = 4.0
	reviewMinComments = 3
)

// ReviewFlags returns the heuristic flags raised by r, in a fixed order.
// Fields that are absent never raise a flag.
func ReviewFlags(r *model.StudentRecord) []string {
	var flags []string
	if r.QuestionCount != nil && *r.QuestionCount > 1 {
		flags = append(flags, model.FlagQuestionCount)
	}
	if r.AvgRating != nil && *r.AvgRating > 0 && *r.AvgRating < reviewMaxRating {
		flags = append(flags, model.FlagAvgRate)
	}
	if r.TotalComments != nil && *r.TotalComments >= 0 && *r.TotalComments < reviewMinComments {
		flags = append(flags, model.FlagTotalComments)
	}
	return flags
}

// ApplyReviewFlags runs the heuristic on r unless a manual grade is already
// recorded. Raised flags mark r for review; otherwise the flag list is
// cleared and the review mark is left as it was.
func ApplyReviewFlags(r *model.StudentRecord) {
	if r.ManualGrade != "" {
		return
	}
	flags := ReviewFlags(r)
	if len(flags) > 0 {
		r.RequiresManualReview = true
		r.ReviewFlags = flags
		return
	}
	r.ReviewFlags = []string{}
}

// MarkWrongBlock marks r for review and records the wrong_block flag once
// when its question was authored in the wrong block.
func MarkWrongBlock(r *model.StudentRecord) {
	if r.WrongBlock != model.WrongBlockYes {
		return
	}
	r.RequiresManualReview = true
	if !r.HasFlag(model.FlagWrongBlock) {
		r.ReviewFlags = append(r.ReviewFlags, model.FlagWrongBlock)
	}
}
