// Package combine joins question-bank rows with leaderboard rows into one
// graded record per student.
package combine

import (
	"log/slog"
	"math"
	"strconv"

	"github.com/pavelanni/quizgrader/internal/grading"
	"github.com/pavelanni/quizgrader/internal/model"
	"github.com/pavelanni/quizgrader/internal/names"
)

// Combine builds one record per normalized name found in either source,
// sorted by display name. Grades are not computed; see Run.
func Combine(questions []model.QuestionRow, ranking []model.RankingRow) []model.StudentRecord {
	var keys []string
	seen := make(map[string]bool)
	addKey := func(k string) {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}

	authored := make(map[string][]model.QuestionRow)
	for _, q := range questions {
		k := names.Normalize(q.CreatorName)
		if k == "" {
			continue
		}
		authored[k] = append(authored[k], q)
		addKey(k)
	}

	ranked := make(map[string]model.RankingRow)
	for _, r := range ranking {
		k := names.Normalize(r.StudentName)
		if k == "" {
			continue
		}
		ranked[k] = r
		addKey(k)
	}

	records := make([]model.StudentRecord, 0, len(keys))
	for _, k := range keys {
		qs := authored[k]
		rank, hasRank := ranked[k]
		records = append(records, buildRecord(k, qs, rank, hasRank))
	}
	names.SortFunc(records, func(r model.StudentRecord) string { return r.StudentName })

	slog.Debug("combined records", "questions", len(questions), "ranking", len(ranking), "students", len(records))
	return records
}

func buildRecord(key string, qs []model.QuestionRow, rank model.RankingRow, hasRank bool) model.StudentRecord {
	rec := model.StudentRecord{StudentName: key}
	switch {
	case hasRank && rank.StudentName != "":
		rec.StudentName = rank.StudentName
	case len(qs) > 0 && qs[0].CreatorName != "":
		rec.StudentName = qs[0].CreatorName
	}

	if len(qs) > 0 {
		n := len(qs)
		rec.QuestionCount = &n
		rec.QuestionName = qs[0].QuestionName
		rec.EditURL = qs[0].EditURL
		rec.PreviewURL = qs[0].PreviewURL

		var difficulties, ratings []string
		comments := 0
		for _, q := range qs {
			difficulties = append(difficulties, q.Difficulty)
			ratings = append(ratings, q.Rating)
			comments += q.Comments
		}
		rec.AvgDifficulty = mean(difficulties)
		rec.AvgRating = mean(ratings)
		rec.TotalComments = &comments
	}

	if hasRank {
		rec.PublishedQuestionPoints = rank.PublishedQuestionPoints
		rec.RatingPoints = rank.RatingPoints
		rec.CorrectAnswerPoints = rank.CorrectAnswerPoints
		rec.FalseAnswerPoints = rank.FalseAnswerPoints
		rec.TotalAnswerPoints = sumPresent(rank.CorrectAnswerPoints, rank.FalseAnswerPoints)
	}
	return rec
}

// mean averages the parseable values, rounded to two decimals. It is nil
// when no value parses.
func mean(values []string) *float64 {
	var sum float64
	n := 0
	for _, v := range values {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			continue
		}
		sum += f
		n++
	}
	if n == 0 {
		return nil
	}
	m := math.Round(sum/float64(n)*100) / 100
	return &m
}

func sumPresent(a, b *float64) *float64 {
	switch {
	case a != nil && b != nil:
		s := *a + *b
		return &s
	case a != nil:
		v := *a
		return &v
	case b != nil:
		v := *b
		return &v
	}
	return nil
}

// Grade fills the automatic grade, justification and total grade of every
// record. Existing manual grades are honored in the total.
func Grade(records []model.StudentRecord) {
	for i := range records {
		r := &records[i]
		r.AutomaticGrade = grading.AutomaticGrade(r)
		r.Justification = grading.Justification(r)
		r.TotalGrade = grading.TotalGrade(r.AutomaticGrade, r.ManualGrade)
	}
}
