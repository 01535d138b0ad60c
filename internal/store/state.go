package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/pavelanni/quizgrader/internal/model"
)

// Key layout shared with exported backups.
const (
	testKeyPrefix       = "3pmo_test_"
	currentTestKey      = "3pmo_current_test"
	htmlKeyPrefix       = "3pmo_html_"
	studentHelperKey    = "3pmo_student_helper"
	assignmentKeyPrefix = "3pmo_assignment_"

	exportVersion = "1.0"
)

var (
	// ErrEmptyTestName is returned when a test name is blank.
	ErrEmptyTestName = errors.New("test name must not be empty")
	// ErrInvalidEnvelope is returned for imports without testName or data.
	ErrInvalidEnvelope = errors.New("invalid test file format")
)

// HTMLKind names a stored HTML snapshot.
type HTMLKind string

const (
	HTMLQuestions HTMLKind = "sq"
	HTMLRanking   HTMLKind = "ranking"
)

// State reads and writes per-test grading state through a KV.
type State struct {
	kv  KV
	now func() time.Time
}

// NewState returns a State over kv.
func NewState(kv KV) *State {
	return &State{kv: kv, now: time.Now}
}

func testKey(name string) string { return testKeyPrefix + name }

func assignmentKey(name string) string { return assignmentKeyPrefix + name }

func htmlKey(kind HTMLKind, name string) string {
	return htmlKeyPrefix + string(kind) + "_" + name
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyTestName
	}
	return name, nil
}

// CurrentTest returns the active test name, or "" when none is set.
func (s *State) CurrentTest(ctx context.Context) (string, error) {
	v, err := s.kv.Get(ctx, currentTestKey)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}

// SetCurrentTest activates name. A blank name clears the active test.
func (s *State) SetCurrentTest(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.kv.Delete(ctx, currentTestKey)
	}
	return s.kv.Set(ctx, currentTestKey, name)
}

// ListTests returns the names of all saved tests, sorted.
func (s *State) ListTests(ctx context.Context) ([]string, error) {
	keys, err := s.kv.ListKeysWithPrefix(ctx, testKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, strings.TrimPrefix(k, testKeyPrefix))
	}
	slices.Sort(names)
	return names, nil
}

// SaveTestData stores data under name and makes name the active test.
func (s *State) SaveTestData(ctx context.Context, name string, data model.TestData) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	env := model.TestEnvelope{TestName: name, SavedAt: &now, Data: &data}
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal test data: %w", err)
	}
	if err := s.kv.Set(ctx, testKey(name), string(raw)); err != nil {
		return fmt.Errorf("save test data: %w", err)
	}
	slog.Debug("saved test data", "test", name, "entries", len(data.ManualGrades))
	return s.SetCurrentTest(ctx, name)
}

// LoadTestData returns the stored data of name, or nil if the test was
// never saved.
func (s *State) LoadTestData(ctx context.Context, name string) (*model.TestData, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	raw, err := s.kv.Get(ctx, testKey(name))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load test data: %w", err)
	}
	var env model.TestEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("decode test data %q: %w", name, err)
	}
	if env.Data == nil {
		return &model.TestData{}, nil
	}
	return env.Data, nil
}

// DeleteTest removes the test's data, its assignment table and its HTML
// snapshots, and clears the active test if it was name.
func (s *State) DeleteTest(ctx context.Context, name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	for _, k := range []string{
		testKey(name),
		assignmentKey(name),
		htmlKey(HTMLQuestions, name),
		htmlKey(HTMLRanking, name),
	} {
		if err := s.kv.Delete(ctx, k); err != nil {
			return fmt.Errorf("delete test %q: %w", name, err)
		}
	}
	current, err := s.CurrentTest(ctx)
	if err != nil {
		return err
	}
	if current == name {
		return s.SetCurrentTest(ctx, "")
	}
	return nil
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// ExportFileName returns the backup file name of a test.
func ExportFileName(name string) string {
	return "3pmo_" + whitespaceRun.ReplaceAllString(strings.TrimSpace(name), "_") + ".json"
}

// ExportJSON renders data as an indented backup envelope.
func (s *State) ExportJSON(name string, data model.TestData) ([]byte, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	env := model.TestEnvelope{TestName: name, ExportedAt: &now, Version: exportVersion, Data: &data}
	raw, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export: %w", err)
	}
	return raw, nil
}

// DecodeEnvelope parses a backup file. testName and data are required.
func DecodeEnvelope(raw []byte) (*model.TestEnvelope, error) {
	var env model.TestEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if strings.TrimSpace(env.TestName) == "" || env.Data == nil {
		return nil, ErrInvalidEnvelope
	}
	return &env, nil
}

// ImportJSON stores a backup file and makes its test active. It returns the
// imported test name and data.
func (s *State) ImportJSON(ctx context.Context, raw []byte) (string, *model.TestData, error) {
	env, err := DecodeEnvelope(raw)
	if err != nil {
		return "", nil, err
	}
	if err := s.SaveTestData(ctx, env.TestName, *env.Data); err != nil {
		return "", nil, err
	}
	return strings.TrimSpace(env.TestName), env.Data, nil
}

// SaveHTML keeps a pasted HTML snapshot for a test. Empty html is ignored.
func (s *State) SaveHTML(ctx context.Context, name string, kind HTMLKind, html string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	if html == "" {
		return nil
	}
	return s.kv.Set(ctx, htmlKey(kind, name), html)
}

// LoadHTML returns a stored snapshot, or "" if there is none.
func (s *State) LoadHTML(ctx context.Context, name string, kind HTMLKind) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	v, err := s.kv.Get(ctx, htmlKey(kind, name))
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}

// ClearHTML removes a stored snapshot.
func (s *State) ClearHTML(ctx context.Context, name string, kind HTMLKind) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	return s.kv.Delete(ctx, htmlKey(kind, name))
}

// SaveHelper replaces the student helper table shared by all tests.
func (s *State) SaveHelper(ctx context.Context, entries []model.HelperEntry) error {
	return s.setJSON(ctx, studentHelperKey, entries)
}

// LoadHelper returns the student helper table, or nil.
func (s *State) LoadHelper(ctx context.Context) ([]model.HelperEntry, error) {
	var entries []model.HelperEntry
	err := s.getJSON(ctx, studentHelperKey, &entries)
	return entries, err
}

// ClearHelper removes the student helper table.
func (s *State) ClearHelper(ctx context.Context) error {
	return s.kv.Delete(ctx, studentHelperKey)
}

// SaveAssignments replaces the assignment table of a test.
func (s *State) SaveAssignments(ctx context.Context, name string, entries []model.AssignmentEntry) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	return s.setJSON(ctx, assignmentKey(name), entries)
}

// LoadAssignments returns the assignment table of a test, or nil.
func (s *State) LoadAssignments(ctx context.Context, name string) ([]model.AssignmentEntry, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	var entries []model.AssignmentEntry
	err = s.getJSON(ctx, assignmentKey(name), &entries)
	return entries, err
}

// ClearAssignments removes the assignment table of a test.
func (s *State) ClearAssignments(ctx context.Context, name string) error {
	name, err := cleanName(name)
	if err != nil {
		return err
	}
	return s.kv.Delete(ctx, assignmentKey(name))
}

func (s *State) setJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.kv.Set(ctx, key, string(raw))
}

func (s *State) getJSON(ctx context.Context, key string, dest any) error {
	raw, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
