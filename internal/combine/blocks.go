package combine

import (
	"regexp"
	"strings"

	"github.com/pavelanni/quizgrader/internal/model"
)

var blockPrefixRegex = regexp.MustCompile(`(?i)^([A-Z0-9]+F\d+-\d+)`)

// BlockPrefix returns the leading block label of a question title,
// e.g. "SW01F13-17" from "SW01F13-17 Lernziele", or "" if there is none.
func BlockPrefix(questionName string) string {
	m := blockPrefixRegex.FindStringSubmatch(questionName)
	if m == nil {
		return ""
	}
	return m[1]
}

// Roster resolves display names to student codes and codes to assigned
// create blocks.
type Roster struct {
	codes  map[string]string
	blocks map[string]string
}

// NewRoster indexes the helper table by lower-cased full name and the
// assignment table by lower-cased code.
func NewRoster(helper []model.HelperEntry, assignments []model.AssignmentEntry) *Roster {
	r := &Roster{
		codes:  make(map[string]string, len(helper)),
		blocks: make(map[string]string, len(assignments)),
	}
	for _, h := range helper {
		name := strings.ToLower(strings.TrimSpace(h.FullName))
		if _, ok := r.codes[name]; !ok {
			r.codes[name] = strings.ToLower(strings.TrimSpace(h.Code))
		}
	}
	for _, a := range assignments {
		code := strings.ToLower(strings.TrimSpace(a.Code))
		if _, ok := r.blocks[code]; !ok {
			r.blocks[code] = strings.TrimSpace(a.CreateBlock)
		}
	}
	return r
}

// Code returns the student code for a display name, or "".
func (r *Roster) Code(displayName string) string {
	if r == nil {
		return ""
	}
	return r.codes[strings.ToLower(strings.TrimSpace(displayName))]
}

// CreateBlock returns the assigned create block for a code, or "".
func (r *Roster) CreateBlock(code string) string {
	if r == nil || code == "" {
		return ""
	}
	return r.blocks[strings.ToLower(code)]
}

// HasAssignments reports whether an assignment table was loaded.
func (r *Roster) HasAssignments() bool {
	return r != nil && len(r.blocks) > 0
}

// ValidateBlocks sets WrongBlock on every record whose question title
// carries a block prefix different from the assigned create block. Without
// an assignment table every WrongBlock is cleared.
func ValidateBlocks(records []model.StudentRecord, roster *Roster) (wrong int) {
	for i := range records {
		r := &records[i]
		r.WrongBlock = ""
		if !roster.HasAssignments() {
			continue
		}
		expected := roster.CreateBlock(roster.Code(r.StudentName))
		actual := BlockPrefix(r.QuestionName)
		if expected != "" && actual != "" && actual != expected {
			r.WrongBlock = model.WrongBlockYes
			wrong++
		}
	}
	return wrong
}
