package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// QuestionRow is one row of the question-bank listing.
// Difficulty and Rating hold normalized numeric text, empty when absent.
type QuestionRow struct {
	QuestionName string `json:"questionname"`
	CreatorName  string `json:"creatorname"`
	Difficulty   string `json:"difficultylevel"`
	Rating       string `json:"rate"`
	Comments     int    `json:"comments"`
	EditURL      string `json:"editUrl"`
	PreviewURL   string `json:"previewUrl"`
}

// RankingRow is one row of the leaderboard listing. A nil point value means
// the cell was empty or non-numeric; zero is an earned zero.
type RankingRow struct {
	StudentName             string   `json:"student_name"`
	PublishedQuestionPoints *float64 `json:"published_question_points"`
	RatingPoints            *float64 `json:"rating_points"`
	CorrectAnswerPoints     *float64 `json:"correct_answers_points"`
	FalseAnswerPoints       *float64 `json:"false_answers_points"`
}

// WrongBlockYes marks a question authored outside the assigned create block.
const WrongBlockYes = "YES"

// Review flag names set on StudentRecord.ReviewFlags.
const (
	FlagQuestionCount = "question_count"
	FlagAvgRate       = "avg_rate"
	FlagTotalComments = "total_comments"
	FlagWrongBlock    = "wrong_block"
)

// StudentRecord is the combined per-student view joining question
// authorship with leaderboard points.
type StudentRecord struct {
	StudentName  string `json:"student_name"`
	QuestionName string `json:"question_name,omitempty"`

	QuestionCount *int     `json:"question_count"`
	AvgDifficulty *float64 `json:"avg_difficultylevel"`
	AvgRating     *float64 `json:"avg_rate"`
	TotalComments *int     `json:"total_comments"`
	EditURL       string   `json:"editUrl,omitempty"`
	PreviewURL    string   `json:"previewUrl,omitempty"`

	PublishedQuestionPoints *float64 `json:"published_question_points"`
	RatingPoints            *float64 `json:"rating_points"`
	CorrectAnswerPoints     *float64 `json:"correct_answers_points"`
	FalseAnswerPoints       *float64 `json:"false_answers_points"`
	TotalAnswerPoints       *float64 `json:"total_answers_points"`

	AutomaticGrade       int      `json:"automatic_grade"`
	ManualGrade          string   `json:"manual_grade,omitempty"`
	TotalGrade           int      `json:"total_grade"`
	Justification        string   `json:"justification"`
	WrongBlock           string   `json:"wrong_block"`
	RequiresManualReview bool     `json:"requiresManualReview"`
	ReviewFlags          []string `json:"reviewFlags"`
	Bonus                Bonus    `json:"bonus,omitempty"`

	// Human edits. Only these are persisted; generated text and heuristic
	// marks are recomputed on every run.
	JustificationEdited bool `json:"-"`
	ReviewMarked        bool `json:"-"`
}

// HasFlag reports whether the review flag is set.
func (r *StudentRecord) HasFlag(flag string) bool {
	for _, f := range r.ReviewFlags {
		if f == flag {
			return true
		}
	}
	return false
}

// Bonus is a manually cycled annotation on a student's question.
type Bonus string

const (
	BonusUnset   Bonus = ""
	BonusPending Bonus = "?"
	Bonus0       Bonus = "0"
	Bonus1       Bonus = "1"
	Bonus2       Bonus = "2"
)

// Next returns the following marker in the cycle ? -> 0 -> 1 -> 2 -> ?.
// An unset bonus stays unset.
func (b Bonus) Next() Bonus {
	switch b {
	case BonusPending:
		return Bonus0
	case Bonus0:
		return Bonus1
	case Bonus1:
		return Bonus2
	case Bonus2:
		return BonusPending
	default:
		return BonusUnset
	}
}

// IsSet reports whether a bonus marker has been assigned.
func (b Bonus) IsSet() bool {
	return b != BonusUnset
}

// MarshalJSON encodes "?" as a string and 0/1/2 as numbers.
func (b Bonus) MarshalJSON() ([]byte, error) {
	switch b {
	case Bonus0, Bonus1, Bonus2:
		return []byte(b), nil
	case BonusUnset:
		return []byte("null"), nil
	default:
		return json.Marshal(string(b))
	}
}

// UnmarshalJSON accepts "?", 0, 1, 2 and null.
func (b *Bonus) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*b = BonusUnset
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	switch Bonus(s) {
	case BonusPending, Bonus0, Bonus1, Bonus2:
		*b = Bonus(s)
		return nil
	}
	return fmt.Errorf("invalid bonus marker %q", s)
}

// Block is a weekly topic segment, e.g. week 1, questions 8-12.
type Block struct {
	Week  int    `json:"week"`
	Range string `json:"range"`
}

// Label renders the block as SW{week:02d}F{range}.
func (b Block) Label() string {
	return fmt.Sprintf("SW%02dF%s", b.Week, b.Range)
}

// Student is one roster entry.
type Student struct {
	Code  string `validate:"required"`
	Class string `validate:"required"`
}

// AssignmentRow is one line of a balancer run.
type AssignmentRow struct {
	StudentCode  string
	ClassName    string
	CreateBlock  string
	AnswerBlocks [2]string
}

// AnswerBlocksLabel joins both answer blocks with " & ".
func (a AssignmentRow) AnswerBlocksLabel() string {
	return a.AnswerBlocks[0] + " & " + a.AnswerBlocks[1]
}

// HelperEntry maps a student code to the full name shown in the LMS.
type HelperEntry struct {
	Code     string `json:"kuerzel" validate:"required"`
	FullName string `json:"fullname" validate:"required"`
}

// AssignmentEntry is one row of an uploaded assignment table.
type AssignmentEntry struct {
	Code         string `json:"kuerzel" validate:"required"`
	CreateBlock  string `json:"createBlock" validate:"required"`
	AnswerBlocks string `json:"answerBlocks"`
}
