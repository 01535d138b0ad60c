package assign

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/pavelanni/quizgrader/internal/model"
	"github.com/pavelanni/quizgrader/internal/names"
)

// BlockCount is the number of create and answer duties of one block.
type BlockCount struct {
	Label  string
	Create int
	Answer int
}

// Table summarizes duties per block for all students or one class.
type Table struct {
	Class  string
	Blocks []BlockCount
	Create int
	Answer int
}

// Summary holds the overall table followed by one table per class.
type Summary struct {
	Overall  Table
	PerClass []Table
}

// Summarize counts duties per block overall and per class. Classes are
// sorted with de-CH collation; blocks keep their input order.
func Summarize(rows []model.AssignmentRow, blocks []model.Block) Summary {
	labels := Labels(blocks)
	newTable := func(class string) *Table {
		t := &Table{Class: class, Blocks: make([]BlockCount, len(labels))}
		for i, l := range labels {
			t.Blocks[i].Label = l
		}
		return t
	}
	index := make(map[string]int, len(labels))
	for i, l := range labels {
		if _, ok := index[l]; !ok {
			index[l] = i
		}
	}

	overall := newTable("")
	perClass := make(map[string]*Table)
	var classes []string
	for _, r := range rows {
		ct, ok := perClass[r.ClassName]
		if !ok {
			ct = newTable(r.ClassName)
			perClass[r.ClassName] = ct
			classes = append(classes, r.ClassName)
		}
		if i, ok := index[r.CreateBlock]; ok {
			overall.Blocks[i].Create++
			ct.Blocks[i].Create++
		}
		for _, a := range r.AnswerBlocks {
			if i, ok := index[a]; ok {
				overall.Blocks[i].Answer++
				ct.Blocks[i].Answer++
			}
		}
	}

	names.SortStrings(classes)
	s := Summary{Overall: *overall.total()}
	for _, c := range classes {
		s.PerClass = append(s.PerClass, *perClass[c].total())
	}
	return s
}

func (t *Table) total() *Table {
	t.Create, t.Answer = 0, 0
	for _, b := range t.Blocks {
		t.Create += b.Create
		t.Answer += b.Answer
	}
	return t
}

// Write renders the summary as aligned plain-text tables.
func (s Summary) Write(w io.Writer) error {
	tables := append([]Table{s.Overall}, s.PerClass...)
	for i, t := range tables {
		title := "Zusammenfassung (gesamt)"
		if i > 0 {
			title = "Zusammenfassung Klasse " + t.Class
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
		for _, line := range t.lines() {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t Table) lines() []string {
	headers := []string{"Block", "Frage erstellen", "Fragen beantworten"}
	rows := make([][]string, 0, len(t.Blocks)+1)
	for _, b := range t.Blocks {
		rows = append(rows, []string{b.Label, strconv.Itoa(b.Create), strconv.Itoa(b.Answer)})
	}
	rows = append(rows, []string{"Total", strconv.Itoa(t.Create), strconv.Itoa(t.Answer)})
	return formatTable(headers, rows, map[int]bool{1: true, 2: true})
}

func formatTable(headers []string, rows [][]string, rightAlign map[int]bool) []string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i := 0; i < len(widths) && i < len(row); i++ {
			if w := runewidth.StringWidth(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, formatRow(headers, widths, rightAlign))
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlign))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlign map[int]bool) string {
	var b strings.Builder
	for i, width := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteString("  ")
		}
		if rightAlign[i] {
			b.WriteString(runewidth.FillLeft(cell, width))
		} else {
			b.WriteString(runewidth.FillRight(cell, width))
		}
	}
	return strings.TrimRight(b.String(), " ")
}
