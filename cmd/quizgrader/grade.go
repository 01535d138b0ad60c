package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pavelanni/quizgrader/internal/model"
	"github.com/pavelanni/quizgrader/internal/session"
	"github.com/pavelanni/quizgrader/internal/sheet"
)

func gradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Combine both extracts and compute grades for the test",
		RunE:  runGrade,
	}
	f := cmd.Flags()
	f.String("questions", "", "Question-bank HTML page (replaces the stored snapshot)")
	f.String("ranking", "", "Leaderboard HTML page (replaces the stored snapshot)")
	f.String("helper", "", "Helper workbook mapping Kürzel to full names")
	f.String("assignment", "", "Assignment workbook of this test")
	f.StringP("output", "o", "-", "Output file or directory (.xlsx, .csv, .json; - for JSON on stdout)")
	f.Bool("bonus", false, "Add the Bonus column to the grades workbook")
	f.String("filter", "", "Only output records needing review (manual) or a pending bonus (bonus)")
	f.Bool("save", true, "Persist manual grades and review marks after grading")
	return cmd
}

func runGrade(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	filter, err := session.ParseFilter(a.v.GetString("filter"))
	if err != nil {
		return err
	}
	s, err := a.session(ctx)
	if err != nil {
		return err
	}
	if err := loadGradeInputs(ctx, a, s); err != nil {
		return err
	}

	records, err := s.Grade(ctx)
	if err != nil {
		return err
	}
	if a.v.GetBool("save") {
		if err := s.Save(ctx); err != nil {
			return err
		}
	}

	review, wrong := 0, 0
	for _, r := range records {
		if r.RequiresManualReview {
			review++
		}
		if r.WrongBlock == model.WrongBlockYes {
			wrong++
		}
	}
	a.say(a.cat.Tp("GradedStudents", len(records)))
	a.say(a.cat.Tp("ReviewPending", review))
	if wrong > 0 {
		a.say(a.cat.Tp("WrongBlocks", wrong))
	}

	return writeGrades(ctx, cmd, a, s, filter.Apply(records))
}

// loadGradeInputs stores whatever side inputs were passed on the command
// line before grading.
func loadGradeInputs(ctx context.Context, a *app, s *session.Session) error {
	if path := a.v.GetString("questions"); path != "" {
		raw, err := readInput(path)
		if err != nil {
			return err
		}
		n, err := s.LoadQuestionsHTML(ctx, string(raw))
		if err != nil {
			return err
		}
		a.say(a.cat.Tp("ExtractedRows", n))
	}
	if path := a.v.GetString("ranking"); path != "" {
		raw, err := readInput(path)
		if err != nil {
			return err
		}
		n, err := s.LoadRankingHTML(ctx, string(raw))
		if err != nil {
			return err
		}
		a.say(a.cat.Tp("ExtractedRows", n))
	}
	if path := a.v.GetString("helper"); path != "" {
		raw, err := readInput(path)
		if err != nil {
			return err
		}
		entries, err := sheet.ReadHelper(bytes.NewReader(raw))
		if err != nil {
			return err
		}
		if err := a.state.SaveHelper(ctx, entries); err != nil {
			return fmt.Errorf("save helper table: %w", err)
		}
	}
	if path := a.v.GetString("assignment"); path != "" {
		raw, err := readInput(path)
		if err != nil {
			return err
		}
		entries, err := sheet.ReadAssignments(bytes.NewReader(raw))
		if err != nil {
			return err
		}
		if err := a.state.SaveAssignments(ctx, s.Name(), entries); err != nil {
			return fmt.Errorf("save assignment table: %w", err)
		}
	}
	return nil
}

func writeGrades(ctx context.Context, cmd *cobra.Command, a *app, s *session.Session, records []model.StudentRecord) error {
	out := a.v.GetString("output")
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		out = filepath.Join(out, sheet.GradesFileBase(s.Name())+".xlsx")
	}
	format := sheet.FormatFromPath(out)
	if out == "-" || format == sheet.FormatJSON {
		w, closeOut, err := createOutput(cmd, out)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(records)
		if cerr := closeOut(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("write grades: %w", err)
		}
		if out != "-" {
			a.say(a.cat.Td("FileWritten", map[string]any{"Path": out}))
		}
		return nil
	}

	roster, err := s.Roster(ctx)
	if err != nil {
		return err
	}
	table, omitted := sheet.GradesTable(records, roster, a.v.GetBool("bonus"))
	if omitted > 0 {
		a.say(a.cat.Tp("OmittedWithoutCode", omitted))
	}
	w, closeOut, err := createOutput(cmd, out)
	if err != nil {
		return err
	}
	err = sheet.Write(w, format, table)
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write grades: %w", err)
	}
	a.say(a.cat.Td("FileWritten", map[string]any{"Path": out}))
	return nil
}
