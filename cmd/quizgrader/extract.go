package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pavelanni/quizgrader/internal/extract"
	"github.com/pavelanni/quizgrader/internal/sheet"
)

func extractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract rows from a saved LMS page",
	}
	cmd.AddCommand(
		extractKindCmd("questions", "Extract the question-bank listing", sheet.QuestionsFileBase),
		extractKindCmd("ranking", "Extract the leaderboard listing", sheet.RankingFileBase),
	)
	return cmd
}

func extractKindCmd(kind, short, fileBase string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   kind,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExtract(cmd, kind)
		},
	}
	f := cmd.Flags()
	f.String("in", "-", "HTML file (- for stdin)")
	f.StringP("output", "o", fileBase+".xlsx", "Output file (.xlsx, .csv, .json; - for JSON on stdout)")
	f.Bool("save", false, "Keep the page as the test's snapshot")
	return cmd
}

func runExtract(cmd *cobra.Command, kind string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	raw, err := readInput(a.v.GetString("in"))
	if err != nil {
		return err
	}
	html := string(raw)

	var (
		table sheet.Table
		rows  any
		count int
	)
	switch kind {
	case "questions":
		q, err := extract.Questions(html)
		if err != nil {
			return err
		}
		table, rows, count = sheet.QuestionsTable(q), q, len(q)
	default:
		r, err := extract.Ranking(html)
		if err != nil {
			return err
		}
		table, rows, count = sheet.RankingTable(r), r, len(r)
	}

	if a.v.GetBool("save") {
		s, err := a.session(ctx)
		if err != nil {
			return err
		}
		if kind == "questions" {
			_, err = s.LoadQuestionsHTML(ctx, html)
		} else {
			_, err = s.LoadRankingHTML(ctx, html)
		}
		if err != nil {
			return err
		}
	}

	out := a.v.GetString("output")
	w, closeOut, err := createOutput(cmd, out)
	if err != nil {
		return err
	}
	if out == "-" || sheet.FormatFromPath(out) == sheet.FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(rows)
	} else {
		err = sheet.Write(w, sheet.FormatFromPath(out), table)
	}
	if cerr := closeOut(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s extract: %w", kind, err)
	}

	a.say(a.cat.Tp("ExtractedRows", count))
	if out != "-" {
		a.say(a.cat.Td("FileWritten", map[string]any{"Path": out}))
	}
	return nil
}
