package grading

import (
	"github.com/pavelanni/quizgrader/internal/model"
)

// BonusFilter selects questions worth a bonus. The zero value matches
// nothing because MaxDifficulty is 0; start from DefaultBonusFilter.
type BonusFilter struct {
	MinTotalGrade float64
	MinRating     float64
	MinComments   int
	MinDifficulty float64
	MaxDifficulty float64
}

// DefaultBonusFilter accepts every record with a difficulty in [0,1].
func DefaultBonusFilter() BonusFilter {
	return BonusFilter{MaxDifficulty: 1}
}

// Matches reports whether r meets every criterion. The rating is the
// leaderboard rating points per authored question. A missing difficulty
// never matches.
func (f BonusFilter) Matches(r *model.StudentRecord) bool {
	var avgRating float64
	if r.RatingPoints != nil && r.QuestionCount != nil && *r.QuestionCount > 0 {
		avgRating = *r.RatingPoints / float64(*r.QuestionCount)
	}
	comments := intOrZero(r.TotalComments)

	if float64(r.TotalGrade) < f.MinTotalGrade {
		return false
	}
	if avgRating < f.MinRating || comments < f.MinComments {
		return false
	}
	if r.AvgDifficulty == nil {
		return false
	}
	d := *r.AvgDifficulty
	return d >= f.MinDifficulty && d <= f.MaxDifficulty
}

// ApplyBonusFilter marks every matching record whose bonus is unset as
// pending. Set bonuses are never changed.
func ApplyBonusFilter(records []model.StudentRecord, f BonusFilter) (matched, marked int) {
	for i := range records {
		r := &records[i]
		if !f.Matches(r) {
			continue
		}
		matched++
		if !r.Bonus.IsSet() {
			r.Bonus = model.BonusPending
			marked++
		}
	}
	return matched, marked
}

// CycleBonus advances r's bonus marker and reports whether one was set.
// Only records picked by a bonus filter carry a marker to cycle.
func CycleBonus(r *model.StudentRecord) bool {
	if !r.Bonus.IsSet() {
		return false
	}
	r.Bonus = r.Bonus.Next()
	return true
}
