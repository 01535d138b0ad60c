// Package grading computes the automatic grade of a combined student
// record, its breakdown and justification, and the review and bonus
// annotations applied on top of it.
package grading

import (
	"math"

	"github.com/pavelanni/quizgrader/internal/model"
)

// Component weights of the automatic grade. They sum to 1.
const (
	WeightQuestionCreated  = 0.50
	WeightQuestionRating   = 0.25
	WeightQuestionAnswered = 0.25
)

// Flat deductions in percentage points.
const (
	WrongBlockDeduction   = 20
	ExcessWrongDeduction  = 10
	ExpectedAnswerPoints  = 5
	ratingFloor           = 2.0
	ratingCeiling         = 5.0
	multipleQuestionScore = 70
)

// QuestionCreatedScore is 0 for no question, 100 for exactly one and 70 for more.
func QuestionCreatedScore(n int) float64 {
	switch {
	case n <= 0:
		return 0
	case n == 1:
		return 100
	default:
		return multipleQuestionScore
	}
}

// AverageRating returns rating/published, or false when published is not positive.
// A missing rating counts as zero.
func AverageRating(published, rating *float64) (float64, bool) {
	p := valueOrZero(published)
	if p <= 0 {
		return 0, false
	}
	return valueOrZero(rating) / p, true
}

// RatingScore maps the average star rating onto [0,100]. Averages at or
// below two stars score nothing; five stars score full credit.
func RatingScore(published, rating *float64) float64 {
	avg, ok := AverageRating(published, rating)
	if !ok {
		return 0
	}
	return ratingScoreFromAverage(avg)
}

func ratingScoreFromAverage(avg float64) float64 {
	if avg <= ratingFloor {
		return 0
	}
	return clamp((avg-ratingFloor)/(ratingCeiling-ratingFloor)*100, 0, 100)
}

// AnsweredScore is linear in the answer points, capped at five.
func AnsweredScore(total *float64) float64 {
	capped := math.Min(ExpectedAnswerPoints, valueOrZero(total))
	return clamp(capped/ExpectedAnswerPoints*100, 0, 100)
}

// ExcessWrongAnswers reports whether false answer points strictly exceed
// correct ones. Missing values count as zero.
func ExcessWrongAnswers(r *model.StudentRecord) bool {
	return valueOrZero(r.FalseAnswerPoints) > valueOrZero(r.CorrectAnswerPoints)
}

// Component is one weighted part of the automatic grade.
type Component struct {
	Score    float64 `json:"score"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
}

// Breakdown lists the unrounded components and deductions behind a grade.
type Breakdown struct {
	QuestionCreated  Component `json:"questionCreated"`
	QuestionRating   Component `json:"questionRating"`
	QuestionAnswered Component `json:"questionAnswered"`
	WrongBlock       float64   `json:"wrongBlockDeduction"`
	ExcessWrong      float64   `json:"excessWrongDeduction"`
	Total            int       `json:"total"`
}

// Calculate returns the breakdown of r's automatic grade.
func Calculate(r *model.StudentRecord) Breakdown {
	b := Breakdown{
		QuestionCreated:  component(QuestionCreatedScore(intOrZero(r.QuestionCount)), WeightQuestionCreated),
		QuestionRating:   component(RatingScore(r.PublishedQuestionPoints, r.RatingPoints), WeightQuestionRating),
		QuestionAnswered: component(AnsweredScore(r.TotalAnswerPoints), WeightQuestionAnswered),
	}
	if r.WrongBlock == model.WrongBlockYes {
		b.WrongBlock = WrongBlockDeduction
	}
	if ExcessWrongAnswers(r) {
		b.ExcessWrong = ExcessWrongDeduction
	}

	total := b.QuestionCreated.Weighted + b.QuestionRating.Weighted + b.QuestionAnswered.Weighted
	total = math.Max(0, total-b.WrongBlock-b.ExcessWrong)
	b.Total = roundHalfUp(total)
	return b
}

// AutomaticGrade returns r's automatic grade in [0,100].
func AutomaticGrade(r *model.StudentRecord) int {
	return Calculate(r).Total
}

func component(score, weight float64) Component {
	return Component{Score: score, Weight: weight, Weighted: score * weight}
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func valueOrZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
