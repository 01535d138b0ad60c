// Package session ties one test's stored state to a grading run.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pavelanni/quizgrader/internal/combine"
	"github.com/pavelanni/quizgrader/internal/extract"
	"github.com/pavelanni/quizgrader/internal/grading"
	"github.com/pavelanni/quizgrader/internal/model"
	"github.com/pavelanni/quizgrader/internal/store"
)

var (
	// ErrNoTest is returned when no test name was given and none is active.
	ErrNoTest = errors.New("no test selected")
	// ErrMissingInput is returned when a grading run lacks a required input.
	ErrMissingInput = errors.New("missing input")
	// ErrNotGraded is returned by review operations before Grade.
	ErrNotGraded = errors.New("grades not generated")
	// ErrUnknownStudent is returned when a display name matches no record.
	ErrUnknownStudent = errors.New("unknown student")
)

// Session is the working set of one test.
type Session struct {
	state *store.State
	name  string

	questions []model.QuestionRow
	ranking   []model.RankingRow
	records   []model.StudentRecord
}

// Open starts a session for name, or for the active test when name is
// blank. Stored HTML snapshots are extracted again.
func Open(ctx context.Context, state *store.State, name string) (*Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		cur, err := state.CurrentTest(ctx)
		if err != nil {
			return nil, fmt.Errorf("read current test: %w", err)
		}
		if cur == "" {
			return nil, ErrNoTest
		}
		name = cur
	}
	s := &Session{state: state, name: name}

	if html, err := state.LoadHTML(ctx, name, store.HTMLQuestions); err != nil {
		return nil, fmt.Errorf("load questions snapshot: %w", err)
	} else if html != "" {
		if s.questions, err = extract.Questions(html); err != nil {
			return nil, err
		}
	}
	if html, err := state.LoadHTML(ctx, name, store.HTMLRanking); err != nil {
		return nil, fmt.Errorf("load ranking snapshot: %w", err)
	} else if html != "" {
		if s.ranking, err = extract.Ranking(html); err != nil {
			return nil, err
		}
	}
	slog.Debug("opened session", "test", name, "questions", len(s.questions), "ranking", len(s.ranking))
	return s, nil
}

// Name returns the test name.
func (s *Session) Name() string { return s.name }

// Questions returns the extracted question rows.
func (s *Session) Questions() []model.QuestionRow { return s.questions }

// Ranking returns the extracted leaderboard rows.
func (s *Session) Ranking() []model.RankingRow { return s.ranking }

// Records returns the graded records of the last Grade call.
func (s *Session) Records() []model.StudentRecord { return s.records }

// LoadQuestionsHTML extracts a question-bank page and keeps the snapshot.
func (s *Session) LoadQuestionsHTML(ctx context.Context, html string) (int, error) {
	rows, err := extract.Questions(html)
	if err != nil {
		return 0, err
	}
	if err := s.state.SaveHTML(ctx, s.name, store.HTMLQuestions, html); err != nil {
		return 0, fmt.Errorf("save questions snapshot: %w", err)
	}
	s.questions = rows
	return len(rows), nil
}

// LoadRankingHTML extracts a leaderboard page and keeps the snapshot.
func (s *Session) LoadRankingHTML(ctx context.Context, html string) (int, error) {
	rows, err := extract.Ranking(html)
	if err != nil {
		return 0, err
	}
	if err := s.state.SaveHTML(ctx, s.name, store.HTMLRanking, html); err != nil {
		return 0, fmt.Errorf("save ranking snapshot: %w", err)
	}
	s.ranking = rows
	return len(rows), nil
}

// Roster builds the code and block lookup from the stored helper and
// assignment tables.
func (s *Session) Roster(ctx context.Context) (*combine.Roster, error) {
	helper, err := s.state.LoadHelper(ctx)
	if err != nil {
		return nil, fmt.Errorf("load helper table: %w", err)
	}
	assignments, err := s.state.LoadAssignments(ctx, s.name)
	if err != nil {
		return nil, fmt.Errorf("load assignment table: %w", err)
	}
	return combine.NewRoster(helper, assignments), nil
}

// Grade runs the grading pipeline over the extracted rows, the stored side
// tables and the stored manual grades.
func (s *Session) Grade(ctx context.Context) ([]model.StudentRecord, error) {
	roster, err := s.Roster(ctx)
	if err != nil {
		return nil, err
	}
	var missing []string
	if !roster.HasAssignments() {
		missing = append(missing, "assignment table")
	}
	if len(s.questions) == 0 {
		missing = append(missing, "question extract")
	}
	if len(s.ranking) == 0 {
		missing = append(missing, "ranking extract")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingInput, strings.Join(missing, ", "))
	}

	stored, err := s.state.LoadTestData(ctx, s.name)
	if err != nil {
		return nil, err
	}
	s.records = combine.Run(s.questions, s.ranking, combine.Inputs{Roster: roster, Stored: stored})
	return s.records, nil
}

func (s *Session) record(student string) (*model.StudentRecord, error) {
	if s.records == nil {
		return nil, ErrNotGraded
	}
	for i := range s.records {
		if s.records[i].StudentName == student {
			return &s.records[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStudent, student)
}

// Override is a human edit of one record. Nil fields are left unchanged.
type Override struct {
	ManualGrade   *string
	Justification *string
	Review        *bool
}

// SetOverride applies a human edit and recomputes the total grade. An empty
// justification restores the generated one.
func (s *Session) SetOverride(student string, o Override) (*model.StudentRecord, error) {
	r, err := s.record(student)
	if err != nil {
		return nil, err
	}
	if o.ManualGrade != nil {
		r.ManualGrade = grading.NormalizeManualGrade(*o.ManualGrade)
		r.TotalGrade = grading.TotalGrade(r.AutomaticGrade, r.ManualGrade)
	}
	if o.Justification != nil {
		r.Justification = *o.Justification
		r.JustificationEdited = r.Justification != ""
		if !r.JustificationEdited {
			r.Justification = grading.Justification(r)
		}
	}
	if o.Review != nil {
		r.RequiresManualReview = *o.Review
		r.ReviewMarked = *o.Review
	}
	return r, nil
}

// CycleBonus advances a student's bonus marker. ok is false when the
// student has no marker to cycle.
func (s *Session) CycleBonus(student string) (model.Bonus, bool, error) {
	r, err := s.record(student)
	if err != nil {
		return model.BonusUnset, false, err
	}
	ok := grading.CycleBonus(r)
	return r.Bonus, ok, nil
}

// ApplyBonusFilter marks matching records with a pending bonus.
func (s *Session) ApplyBonusFilter(f grading.BonusFilter) (matched, marked int, err error) {
	if s.records == nil {
		return 0, 0, ErrNotGraded
	}
	matched, marked = grading.ApplyBonusFilter(s.records, f)
	return matched, marked, nil
}

// Save persists every record carrying a manual grade, an edited
// justification, a human review mark or a bonus.
func (s *Session) Save(ctx context.Context) error {
	if s.records == nil {
		return ErrNotGraded
	}
	data := collect(s.records, func(r *model.StudentRecord) bool {
		return r.ManualGrade != "" || r.JustificationEdited || r.ReviewMarked || r.Bonus.IsSet()
	})
	if err := s.state.SaveTestData(ctx, s.name, data); err != nil {
		return err
	}
	slog.Info("saved test", "test", s.name, "entries", len(data.ManualGrades))
	return nil
}

// Export renders a backup of the records carrying a manual grade or a
// bonus. Before Grade it falls back to the stored entries.
func (s *Session) Export(ctx context.Context) ([]byte, error) {
	keep := func(r *model.StudentRecord) bool {
		return r.ManualGrade != "" || r.Bonus.IsSet()
	}
	if s.records != nil {
		return s.state.ExportJSON(s.name, collect(s.records, keep))
	}

	stored, err := s.state.LoadTestData(ctx, s.name)
	if err != nil {
		return nil, err
	}
	data := model.TestData{ManualGrades: make(map[string]model.ManualGrade)}
	if stored != nil {
		for name, mg := range stored.ManualGrades {
			if (mg.ManualGrade != nil && *mg.ManualGrade != "") || mg.Bonus.IsSet() {
				data.ManualGrades[name] = mg
			}
		}
	}
	return s.state.ExportJSON(s.name, data)
}

func collect(records []model.StudentRecord, keep func(*model.StudentRecord) bool) model.TestData {
	data := model.TestData{ManualGrades: make(map[string]model.ManualGrade)}
	for i := range records {
		r := &records[i]
		if !keep(r) {
			continue
		}
		mg := model.ManualGrade{
			RequiresManualReview: r.ReviewMarked,
			Bonus:                r.Bonus,
		}
		if r.JustificationEdited {
			mg.Justification = r.Justification
		}
		if r.ManualGrade != "" {
			v := r.ManualGrade
			mg.ManualGrade = &v
		}
		data.ManualGrades[r.StudentName] = mg
	}
	return data
}

// Filter selects the records a reviewer works through.
type Filter string

const (
	FilterNone   Filter = ""
	FilterManual Filter = "manual"
	FilterBonus  Filter = "bonus"
)

// ParseFilter accepts "", "manual" and "bonus".
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case FilterNone, FilterManual, FilterBonus:
		return f, nil
	default:
		return "", fmt.Errorf("unknown filter %q (manual, bonus)", s)
	}
}

// Apply returns the records matching f.
func (f Filter) Apply(records []model.StudentRecord) []model.StudentRecord {
	if f == FilterNone {
		return records
	}
	var out []model.StudentRecord
	for _, r := range records {
		switch {
		case f == FilterManual && r.RequiresManualReview,
			f == FilterBonus && r.Bonus == model.BonusPending:
			out = append(out, r)
		}
	}
	return out
}
