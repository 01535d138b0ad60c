package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pavelanni/quizgrader/internal/session"
	"github.com/pavelanni/quizgrader/internal/store"
)

func testCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Manage saved tests",
	}
	cmd.AddCommand(
		&cobra.Command{Use: "list", Short: "List saved tests", Args: cobra.NoArgs, RunE: runTestList},
		&cobra.Command{Use: "current", Short: "Show the active test", Args: cobra.NoArgs, RunE: runTestCurrent},
		&cobra.Command{Use: "use NAME", Short: "Make NAME the active test", Args: cobra.ExactArgs(1), RunE: runTestUse},
		&cobra.Command{Use: "delete NAME", Short: "Delete a test with its snapshots and assignment table", Args: cobra.ExactArgs(1), RunE: runTestDelete},
		testExportCmd(),
		&cobra.Command{Use: "import FILE", Short: "Import a test backup and make it active", Args: cobra.ExactArgs(1), RunE: runTestImport},
	)
	return cmd
}

func testExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON backup of the test's manual grades and bonus markers",
		Args:  cobra.NoArgs,
		RunE:  runTestExport,
	}
	cmd.Flags().StringP("output", "o", "", "Output file (default 3pmo_<test>.json; - for stdout)")
	return cmd
}

func runTestList(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	tests, err := a.state.ListTests(ctx)
	if err != nil {
		return err
	}
	if len(tests) == 0 {
		a.say(a.cat.T("NoTests"))
		return nil
	}
	current, err := a.state.CurrentTest(ctx)
	if err != nil {
		return err
	}
	for _, name := range tests {
		marker := " "
		if name == current {
			marker = "*"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, name)
	}
	return nil
}

func runTestCurrent(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	current, err := a.state.CurrentTest(cmd.Context())
	if err != nil {
		return err
	}
	if current == "" {
		a.say(a.cat.T("NoCurrentTest"))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), current)
	return nil
}

func runTestUse(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.state.SetCurrentTest(cmd.Context(), args[0]); err != nil {
		return err
	}
	a.say(a.cat.Td("TestActivated", map[string]any{"Name": args[0]}))
	return nil
}

func runTestDelete(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.state.DeleteTest(cmd.Context(), args[0]); err != nil {
		return err
	}
	a.say(a.cat.Td("TestDeleted", map[string]any{"Name": args[0]}))
	return nil
}

func runTestExport(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	s, err := a.session(ctx)
	if err != nil {
		return err
	}
	// Without complete inputs the stored entries are exported as they are.
	if _, err := s.Grade(ctx); err != nil && !errors.Is(err, session.ErrMissingInput) {
		return err
	}
	data, err := s.Export(ctx)
	if err != nil {
		return err
	}

	out := a.v.GetString("output")
	if out == "" {
		out = store.ExportFileName(s.Name())
	}
	w, closeOut, err := createOutput(cmd, out)
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	if out != "-" {
		a.say(a.cat.Td("FileWritten", map[string]any{"Path": out}))
	}
	return nil
}

func runTestImport(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	name, data, err := a.state.ImportJSON(cmd.Context(), raw)
	if err != nil {
		return err
	}
	a.say(a.cat.Td("TestImported", map[string]any{"Name": name, "Count": len(data.ManualGrades)}))
	return nil
}
