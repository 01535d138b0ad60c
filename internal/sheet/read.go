// Package sheet reads uploaded spreadsheets and writes the grading,
// assignment and extract workbooks.
package sheet

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"

	"github.com/pavelanni/quizgrader/internal/model"
)

// ErrNoRows is returned when a sheet has none of the expected columns or
// no complete row.
var ErrNoRows = errors.New("no rows with the expected columns")

var validate = validator.New(validator.WithRequiredStructEnabled())

// record is one data row keyed by trimmed header text.
type record map[string]string

// first returns the first non-empty value among the given columns.
func (r record) first(columns ...string) string {
	for _, c := range columns {
		if v := strings.TrimSpace(r[c]); v != "" {
			return v
		}
	}
	return ""
}

// readRecords reads the first worksheet of an xlsx file. The first row is
// the header.
func readRecords(r io.Reader) ([]record, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoRows
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}
	out := make([]record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make(record, len(headers))
		for i, h := range headers {
			if h == "" || i >= len(row) {
				continue
			}
			rec[h] = row[i]
		}
		out = append(out, rec)
	}
	return out, nil
}

// keep validates v and logs rows that fail.
func keep(kind string, line int, v any) bool {
	if err := validate.Struct(v); err != nil {
		slog.Debug("skipping incomplete row", "sheet", kind, "row", line, "error", err)
		return false
	}
	return true
}

// ReadRoster reads Kuerzel/Klasse rows. Rows missing either are dropped.
func ReadRoster(r io.Reader) ([]model.Student, error) {
	recs, err := readRecords(r)
	if err != nil {
		return nil, err
	}
	var students []model.Student
	for i, rec := range recs {
		s := model.Student{Code: rec.first("Kuerzel"), Class: rec.first("Klasse")}
		if keep("roster", i+2, s) {
			students = append(students, s)
		}
	}
	if len(students) == 0 {
		return nil, fmt.Errorf("roster: %w (Kuerzel, Klasse)", ErrNoRows)
	}
	slog.Info("read roster", "students", len(students), "rows", len(recs))
	return students, nil
}

// ReadHelper reads the table mapping student codes to full names. Codes
// are lower-cased.
func ReadHelper(r io.Reader) ([]model.HelperEntry, error) {
	recs, err := readRecords(r)
	if err != nil {
		return nil, err
	}
	var entries []model.HelperEntry
	for i, rec := range recs {
		e := model.HelperEntry{
			Code:     strings.ToLower(rec.first("kuerzel", "Kuerzel")),
			FullName: rec.first("Vorname Nachname", "fullname", "name"),
		}
		if keep("helper", i+2, e) {
			entries = append(entries, e)
		}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("helper table: %w (kuerzel, Vorname Nachname)", ErrNoRows)
	}
	return entries, nil
}

// ReadAssignments reads an assignment workbook as written by
// WriteXLSX(AssignmentTable(...)). Codes are lower-cased.
func ReadAssignments(r io.Reader) ([]model.AssignmentEntry, error) {
	recs, err := readRecords(r)
	if err != nil {
		return nil, err
	}
	var entries []model.AssignmentEntry
	for i, rec := range recs {
		e := model.AssignmentEntry{
			Code:         strings.ToLower(rec.first(colCode, "kuerzel")),
			CreateBlock:  rec.first(colCreateBlock),
			AnswerBlocks: rec.first(colAnswerBlocks),
		}
		if keep("assignment", i+2, e) {
			entries = append(entries, e)
		}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("assignment table: %w (%s, %s)", ErrNoRows, colCode, colCreateBlock)
	}
	return entries, nil
}
