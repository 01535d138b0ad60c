package grading

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pavelanni/quizgrader/internal/model"
)

// Justification lists every deduction applied to r as "* "-prefixed lines.
func Justification(r *model.StudentRecord) string {
	var lines []string

	qCount := intOrZero(r.QuestionCount)
	switch {
	case qCount == 0:
		lines = append(lines,
			"Keine Frage erstellt: -50%",
			"Keine Frage für Bewertung: -25%",
		)
	case qCount > 1:
		lines = append(lines, fmt.Sprintf("%d Fragen erstellt (erwartet: 1): -15%%", qCount))
	}

	if qCount > 0 {
		if avg, ok := AverageRating(r.PublishedQuestionPoints, r.RatingPoints); ok {
			if score := ratingScoreFromAverage(avg); score < 100 {
				lines = append(lines, fmt.Sprintf("Fragebewertung %s Sterne (erwartet: 5): -%s%%",
					toFixed(avg, 2), toFixed(deduction(score, WeightQuestionRating), 1)))
			}
		}
	}

	if score := AnsweredScore(r.TotalAnswerPoints); score < 100 {
		lines = append(lines, fmt.Sprintf("Fragen beantwortet %s Punkte (erwartet: ≥5): -%s%%",
			formatNumber(valueOrZero(r.TotalAnswerPoints)), toFixed(deduction(score, WeightQuestionAnswered), 1)))
	}

	if r.WrongBlock == model.WrongBlockYes {
		lines = append(lines, fmt.Sprintf("Falscher Frageblock: -%d%%", WrongBlockDeduction))
	}

	if ExcessWrongAnswers(r) {
		lines = append(lines, fmt.Sprintf("Im Verhältnis zu viele falsche Antworten (%s falsch, %s richtig): -%d%%",
			formatNumber(valueOrZero(r.FalseAnswerPoints)),
			formatNumber(valueOrZero(r.CorrectAnswerPoints)),
			ExcessWrongDeduction))
	}

	for i, l := range lines {
		lines[i] = "* " + l
	}
	return strings.Join(lines, "\n")
}

// deduction is the share of a component's weight that was not earned.
func deduction(score, weight float64) float64 {
	return weight*100 - score*weight
}

// toFixed formats x with prec decimals, rounding halves away from zero.
func toFixed(x float64, prec int) string {
	p := math.Pow(10, float64(prec))
	r := math.Floor(math.Abs(x)*p+0.5) / p
	if x < 0 {
		r = -r
	}
	return strconv.FormatFloat(r, 'f', prec, 64)
}

// formatNumber prints x in its shortest form: 5, 2.5, 0.75.
func formatNumber(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
