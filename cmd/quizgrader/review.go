package main

import (
	"github.com/spf13/cobra"

	"github.com/pavelanni/quizgrader/internal/grading"
	"github.com/pavelanni/quizgrader/internal/session"
)

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Record manual grades and bonus markers",
	}
	cmd.AddCommand(reviewSetCmd(), reviewBonusCmd(), reviewBonusFilterCmd())
	return cmd
}

func reviewSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set a student's manual grade, justification or review mark",
		RunE:  runReviewSet,
	}
	f := cmd.Flags()
	f.String("student", "", "Student display name as shown in the grades")
	f.String("grade", "", `Manual grade delta, e.g. "-5" or "+2.5%"`)
	f.String("justification", "", "Replacement justification text")
	f.Bool("review", false, "Mark or unmark for manual review")
	_ = cmd.MarkFlagRequired("student")
	return cmd
}

func reviewBonusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bonus",
		Short: "Cycle a student's bonus marker (? -> 0 -> 1 -> 2)",
		RunE:  runReviewBonus,
	}
	cmd.Flags().String("student", "", "Student display name as shown in the grades")
	_ = cmd.MarkFlagRequired("student")
	return cmd
}

func reviewBonusFilterCmd() *cobra.Command {
	def := grading.DefaultBonusFilter()
	cmd := &cobra.Command{
		Use:   "bonus-filter",
		Short: "Mark questions meeting the bonus criteria with ?",
		RunE:  runReviewBonusFilter,
	}
	f := cmd.Flags()
	f.Float64("min-total", def.MinTotalGrade, "Minimum total grade")
	f.Float64("min-rating", def.MinRating, "Minimum rating per authored question")
	f.Int("min-comments", def.MinComments, "Minimum number of comments")
	f.Float64("min-difficulty", def.MinDifficulty, "Minimum average difficulty")
	f.Float64("max-difficulty", def.MaxDifficulty, "Maximum average difficulty")
	return cmd
}

// gradedSession opens the test and runs the grading pipeline, which review
// edits operate on.
func gradedSession(cmd *cobra.Command) (*app, *session.Session, error) {
	a, err := newApp(cmd)
	if err != nil {
		return nil, nil, err
	}
	s, err := a.session(cmd.Context())
	if err == nil {
		_, err = s.Grade(cmd.Context())
	}
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	return a, s, nil
}

func runReviewSet(cmd *cobra.Command, _ []string) error {
	a, s, err := gradedSession(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	var o session.Override
	flags := cmd.Flags()
	if flags.Changed("grade") {
		v := a.v.GetString("grade")
		o.ManualGrade = &v
	}
	if flags.Changed("justification") {
		v := a.v.GetString("justification")
		o.Justification = &v
	}
	if flags.Changed("review") {
		v := a.v.GetBool("review")
		o.Review = &v
	}

	student := a.v.GetString("student")
	if _, err := s.SetOverride(student, o); err != nil {
		return err
	}
	if err := s.Save(cmd.Context()); err != nil {
		return err
	}
	a.say(a.cat.Td("ManualGradeSaved", map[string]any{"Name": student}))
	return nil
}

func runReviewBonus(cmd *cobra.Command, _ []string) error {
	a, s, err := gradedSession(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	student := a.v.GetString("student")
	bonus, ok, err := s.CycleBonus(student)
	if err != nil {
		return err
	}
	if !ok {
		a.say(a.cat.Td("BonusNotSet", map[string]any{"Name": student}))
		return nil
	}
	if err := s.Save(cmd.Context()); err != nil {
		return err
	}
	a.say(a.cat.Td("BonusCycled", map[string]any{"Name": student, "Bonus": string(bonus)}))
	return nil
}

func runReviewBonusFilter(cmd *cobra.Command, _ []string) error {
	a, s, err := gradedSession(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	f := grading.BonusFilter{
		MinTotalGrade: a.v.GetFloat64("min-total"),
		MinRating:     a.v.GetFloat64("min-rating"),
		MinComments:   a.v.GetInt("min-comments"),
		MinDifficulty: a.v.GetFloat64("min-difficulty"),
		MaxDifficulty: a.v.GetFloat64("max-difficulty"),
	}
	matched, marked, err := s.ApplyBonusFilter(f)
	if err != nil {
		return err
	}
	if err := s.Save(cmd.Context()); err != nil {
		return err
	}
	a.say(a.cat.Td("BonusFilterResult", map[string]any{"Matched": matched, "Marked": marked}))
	return nil
}
