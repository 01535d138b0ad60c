package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pavelanni/quizgrader/internal/assign"
	"github.com/pavelanni/quizgrader/internal/model"
	"github.com/pavelanni/quizgrader/internal/sheet"
)

func assignCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Assign create and answer blocks to every student",
		RunE:  runAssign,
	}
	f := cmd.Flags()
	f.String("roster", "", "Roster workbook with Kuerzel and Klasse columns")
	f.String("blocks", "", `Blocks as week_range list, e.g. "1_8-12;1_13-17;2_2-6"`)
	f.Int("test-number", 0, "Test number (1-12)")
	f.StringP("output", "o", "", "Output workbook (default 3PMo_Zuteilung_Test<nn>.xlsx)")
	f.Int64("seed", 0, "Random seed (0 = random)")
	f.Bool("save", false, "Also store the result as the test's assignment table")
	_ = cmd.MarkFlagRequired("roster")
	_ = cmd.MarkFlagRequired("blocks")
	_ = cmd.MarkFlagRequired("test-number")

	cmd.AddCommand(assignTemplateCmd())
	return cmd
}

func assignTemplateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write an empty roster workbook",
		RunE:  runAssignTemplate,
	}
	cmd.Flags().StringP("output", "o", sheet.TemplateFileName, "Output workbook")
	return cmd
}

func runAssign(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	testNumber := a.v.GetInt("test-number")
	if err := assign.ValidTestNumber(testNumber); err != nil {
		return err
	}
	blocks, err := assign.ParseAndValidateBlocks(a.v.GetString("blocks"))
	if err != nil {
		return err
	}
	raw, err := readInput(a.v.GetString("roster"))
	if err != nil {
		return err
	}
	students, err := sheet.ReadRoster(bytes.NewReader(raw))
	if err != nil {
		return err
	}

	rows, err := assign.Balance(students, blocks, assign.NewRand(a.v.GetInt64("seed")))
	if err != nil {
		return err
	}

	out := a.v.GetString("output")
	if out == "" {
		out = assign.FileName(testNumber)
	}
	// The workbook owns stdout when it is written there.
	summaryOut := cmd.OutOrStdout()
	if out == "-" {
		summaryOut = cmd.ErrOrStderr()
	}
	if err := assign.Summarize(rows, blocks).Write(summaryOut); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	w, closeOut, err := createOutput(cmd, out)
	if err != nil {
		return err
	}
	err = sheet.Write(w, sheet.FormatFromPath(out), sheet.AssignmentTable(rows))
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write assignment: %w", err)
	}

	if a.v.GetBool("save") {
		s, err := a.session(ctx)
		if err != nil {
			return err
		}
		if err := a.state.SaveAssignments(ctx, s.Name(), assignmentEntries(rows)); err != nil {
			return fmt.Errorf("save assignment table: %w", err)
		}
	}

	a.say(a.cat.Tp("AssignedStudents", len(rows)))
	a.say(a.cat.Td("FileWritten", map[string]any{"Path": out}))
	return nil
}

func assignmentEntries(rows []model.AssignmentRow) []model.AssignmentEntry {
	entries := make([]model.AssignmentEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, model.AssignmentEntry{
			Code:         r.StudentCode,
			CreateBlock:  r.CreateBlock,
			AnswerBlocks: r.AnswerBlocksLabel(),
		})
	}
	return entries
}

func runAssignTemplate(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	out := a.v.GetString("output")
	w, closeOut, err := createOutput(cmd, out)
	if err != nil {
		return err
	}
	err = sheet.WriteXLSX(w, sheet.TemplateTable())
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write template: %w", err)
	}
	a.say(a.cat.Td("FileWritten", map[string]any{"Path": out}))
	return nil
}
