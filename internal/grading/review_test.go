package grading

import (
	"slices"
	"testing"

	"github.com/pavelanni/quizgrader/internal/model"
)

func TestReviewFlags(t *testing.T) {
	tests := []struct {
		name string
		rec  model.StudentRecord
		want []string
	}{
		{"no data", model.StudentRecord{}, nil},
		{
			"all three",
			model.StudentRecord{QuestionCount: intp(2), AvgRating: f64(3.2), TotalComments: intp(0)},
			[]string{model.FlagQuestionCount, model.FlagAvgRate, model.FlagTotalComments},
		},
		{
			"zero rating ignored",
			model.StudentRecord{QuestionCount: intp(1), AvgRating: f64(0), TotalComments: intp(5)},
			nil,
		},
		{
			"boundaries",
			model.StudentRecord{QuestionCount: intp(1), AvgRating: f64(4), TotalComments: intp(3)},
			nil,
		},
		{
			"few comments",
			model.StudentRecord{QuestionCount: intp(1), AvgRating: f64(4.5), TotalComments: intp(2)},
			[]string{model.FlagTotalComments},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReviewFlags(&tt.rec); !slices.Equal(got, tt.want) {
				t.Errorf("ReviewFlags = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyReviewFlagsSkipsManualGrade(t *testing.T) {
	r := model.StudentRecord{QuestionCount: intp(3), ManualGrade: "-5%"}
	ApplyReviewFlags(&r)
	if r.RequiresManualReview || r.ReviewFlags != nil {
		t.Errorf("manual grade should suppress flags, got %v %v", r.RequiresManualReview, r.ReviewFlags)
	}
}

func TestApplyReviewFlagsKeepsHumanMark(t *testing.T) {
	r := model.StudentRecord{QuestionCount: intp(1), RequiresManualReview: true, ReviewFlags: []string{"stale"}}
	ApplyReviewFlags(&r)
	if !r.RequiresManualReview {
		t.Error("review mark set by a human must survive")
	}
	if r.ReviewFlags == nil || len(r.ReviewFlags) != 0 {
		t.Errorf("ReviewFlags = %v, want empty", r.ReviewFlags)
	}
}

func TestMarkWrongBlockOnce(t *testing.T) {
	r := model.StudentRecord{WrongBlock: model.WrongBlockYes, ReviewFlags: []string{model.FlagAvgRate}}
	MarkWrongBlock(&r)
	MarkWrongBlock(&r)
	if !r.RequiresManualReview {
		t.Error("expected review mark")
	}
	want := []string{model.FlagAvgRate, model.FlagWrongBlock}
	if !slices.Equal(r.ReviewFlags, want) {
		t.Errorf("ReviewFlags = %v, want %v", r.ReviewFlags, want)
	}

	ok := model.StudentRecord{}
	MarkWrongBlock(&ok)
	if ok.RequiresManualReview || ok.HasFlag(model.FlagWrongBlock) {
		t.Error("record in the right block must not be marked")
	}
}

func TestBonusFilter(t *testing.T) {
	records := []model.StudentRecord{
		{StudentName: "a", TotalGrade: 90, QuestionCount: intp(1), RatingPoints: f64(4.5), TotalComments: intp(4), AvgDifficulty: f64(0.6)},
		{StudentName: "b", TotalGrade: 90, QuestionCount: intp(1), RatingPoints: f64(4.5), TotalComments: intp(4), AvgDifficulty: f64(0.6), Bonus: model.Bonus2},
		{StudentName: "c", TotalGrade: 50, QuestionCount: intp(1), RatingPoints: f64(4.5), TotalComments: intp(4), AvgDifficulty: f64(0.6)},
		{StudentName: "d", TotalGrade: 95, QuestionCount: intp(1), RatingPoints: f64(4.5), TotalComments: intp(4)},
		{StudentName: "e", TotalGrade: 95, QuestionCount: intp(2), RatingPoints: f64(4.5), TotalComments: intp(4), AvgDifficulty: f64(0.3)},
	}
	f := DefaultBonusFilter()
	f.MinTotalGrade = 80
	f.MinRating = 3
	f.MinComments = 3

	matched, marked := ApplyBonusFilter(records, f)
	if matched != 2 || marked != 1 {
		t.Fatalf("ApplyBonusFilter = %d matched, %d marked, want 2, 1", matched, marked)
	}
	wantBonus := []model.Bonus{model.BonusPending, model.Bonus2, model.BonusUnset, model.BonusUnset, model.BonusUnset}
	for i, r := range records {
		if r.Bonus != wantBonus[i] {
			t.Errorf("%s: Bonus = %q, want %q", r.StudentName, r.Bonus, wantBonus[i])
		}
	}

	// Re-applying never changes set markers.
	matched, marked = ApplyBonusFilter(records, f)
	if matched != 2 || marked != 0 {
		t.Errorf("second run = %d, %d, want 2, 0", matched, marked)
	}
}

func TestCycleBonus(t *testing.T) {
	r := model.StudentRecord{}
	if CycleBonus(&r) {
		t.Fatal("unset bonus must not cycle")
	}
	r.Bonus = model.BonusPending
	var seen []model.Bonus
	for range 4 {
		CycleBonus(&r)
		seen = append(seen, r.Bonus)
	}
	want := []model.Bonus{model.Bonus0, model.Bonus1, model.Bonus2, model.BonusPending}
	if !slices.Equal(seen, want) {
		t.Errorf("cycle = %v, want %v", seen, want)
	}
}
