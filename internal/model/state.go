package model

import "time"

// ManualGrade is the persisted human override for one student.
type ManualGrade struct {
	ManualGrade          *string `json:"manual_grade"`
	Justification        string  `json:"justification"`
	RequiresManualReview bool    `json:"requiresManualReview"`
	Bonus                Bonus   `json:"bonus,omitempty"`
}

// TestData is the persisted state of one test, keyed by student display name.
type TestData struct {
	ManualGrades map[string]ManualGrade `json:"manualGrades"`
}

// TestEnvelope wraps TestData for storage and JSON export.
type TestEnvelope struct {
	TestName   string     `json:"testName"`
	SavedAt    *time.Time `json:"savedAt,omitempty"`
	ExportedAt *time.Time `json:"exportedAt,omitempty"`
	Version    string     `json:"version,omitempty"`
	Data       *TestData  `json:"data"`
}
