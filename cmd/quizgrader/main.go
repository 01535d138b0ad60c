package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/quizgrader/internal/i18n"
	"github.com/pavelanni/quizgrader/internal/session"
	"github.com/pavelanni/quizgrader/internal/store"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "quizgrader",
		Short:        "Grade question-bank quizzes from LMS exports",
		SilenceUsage: true,
	}
	f := root.PersistentFlags()
	f.String("store", "quizgrader.db", "SQLite database path or redis:// URL")
	f.StringP("test", "t", "", "Test name (default: the active test)")
	f.StringP("lang", "l", i18n.DefaultLang, "Language of status messages")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")

	root.AddCommand(extractCmd(), gradeCmd(), reviewCmd(), assignCmd(), testCmd())
	return root
}

func setupLogging(v *viper.Viper) {
	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("QUIZGRADER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("quizgrader")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/quizgrader")
	v.AddConfigPath("/etc/quizgrader")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// app carries what every command needs once flags are parsed.
type app struct {
	v     *viper.Viper
	kv    store.KV
	state *store.State
	cat   *i18n.Catalog
	out   io.Writer
}

func newApp(cmd *cobra.Command) (*app, error) {
	v := viperForCmd(cmd)
	setupLogging(v)

	cat, err := i18n.New(v.GetString("lang"))
	if err != nil {
		return nil, fmt.Errorf("init i18n: %w", err)
	}
	kv, err := store.Open(cmd.Context(), v.GetString("store"))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &app{v: v, kv: kv, state: store.NewState(kv), cat: cat, out: cmd.ErrOrStderr()}, nil
}

func (a *app) Close() error {
	return a.kv.Close()
}

// say prints a status line to stderr.
func (a *app) say(msg string) {
	fmt.Fprintln(a.out, msg)
}

func (a *app) session(ctx context.Context) (*session.Session, error) {
	return session.Open(ctx, a.state, a.v.GetString("test"))
}

// readInput reads a file, or stdin for "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// createOutput opens path for writing, or stdout for "" and "-".
func createOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, f.Close, nil
}
