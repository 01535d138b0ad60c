package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is a single worksheet: a header row followed by text rows.
type Table struct {
	Sheet   string
	Headers []string
	Rows    [][]string
	// Widths sets column widths by zero-based column index.
	Widths map[int]float64
	// Wrap lists zero-based columns whose data cells wrap text.
	Wrap []int
}

// Format is an output file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from a file extension; anything
// unrecognized is xlsx.
func FormatFromPath(path string) Format {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "csv":
		return FormatCSV
	case "json":
		return FormatJSON
	default:
		return FormatXLSX
	}
}

// Write renders t in the given format. JSON is not a table format and is
// rejected.
func Write(w io.Writer, format Format, t Table) error {
	switch format {
	case FormatXLSX:
		return WriteXLSX(w, t)
	case FormatCSV:
		return WriteCSV(w, t)
	default:
		return fmt.Errorf("write %s table: unsupported format %q", t.Sheet, format)
	}
}

// WriteXLSX writes t as a one-sheet workbook with a bold, frozen header.
func WriteXLSX(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", t.Sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(t.Sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range t.Rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(t.Sheet, cell, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if len(t.Headers) > 0 {
		if err := styleHeader(f, t); err != nil {
			return err
		}
	}
	if err := styleColumns(f, t); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func styleHeader(f *excelize.File, t Table) error {
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(t.Headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(t.Sheet, "A1", last, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	return f.SetPanes(t.Sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func styleColumns(f *excelize.File, t Table) error {
	for col, width := range t.Widths {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(t.Sheet, name, name, width); err != nil {
			return fmt.Errorf("set width of %s: %w", name, err)
		}
	}
	if len(t.Wrap) == 0 || len(t.Rows) == 0 {
		return nil
	}
	wrap, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		return fmt.Errorf("create wrap style: %w", err)
	}
	for _, col := range t.Wrap {
		top, err := excelize.CoordinatesToCellName(col+1, 2)
		if err != nil {
			return err
		}
		bottom, err := excelize.CoordinatesToCellName(col+1, len(t.Rows)+1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(t.Sheet, top, bottom, wrap); err != nil {
			return fmt.Errorf("wrap column %d: %w", col+1, err)
		}
	}
	return nil
}

// WriteCSV writes t as comma-separated values with a header line.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write csv rows: %w", err)
	}
	return nil
}
