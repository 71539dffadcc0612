package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/taskstate/internal/app"
	"github.com/nhle/taskstate/internal/model"
	"github.com/nhle/taskstate/internal/service"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
}

// NewRootCommand creates the root command. Without a subcommand it runs the
// interactive task list.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "taskstate",
		Short:         "Personal task list with a simulated login",
		Long:          "A terminal task list. Tasks are kept per user in a local SQLite file.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", model.DefaultConfigPath(), "config file path")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log debug output to stderr")

	cmd.AddCommand(NewWhoamiCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))

	return cmd
}

func runTUI(opts *RootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	// Terminal output belongs to the TUI; logs go to a file or nowhere.
	logger, closeLog, err := newLogger(cfg.Log, nil)
	if err != nil {
		return err
	}
	defer closeLog()

	rt, err := service.Open(cfg, service.WithRuntimeLogger(logger))
	if err != nil {
		return WrapExitError(ExitFailure, "starting", err)
	}
	defer rt.Close()

	m := app.New(rt.Service, nil)
	defer m.Close()

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return WrapExitError(ExitFailure, "running TUI", err)
	}
	return nil
}

// openRuntime builds a runtime for a one-shot subcommand. Logs go to
// stderr when --verbose is set.
func openRuntime(cmd *cobra.Command, opts *RootOptions) (*service.Runtime, func(), error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}

	var stderr io.Writer
	if opts.Verbose {
		stderr = cmd.ErrOrStderr()
		cfg.Log.Level = "debug"
	}
	logger, closeLog, err := newLogger(cfg.Log, stderr)
	if err != nil {
		return nil, nil, err
	}

	rt, err := service.Open(cfg, service.WithRuntimeLogger(logger))
	if err != nil {
		closeLog()
		return nil, nil, WrapExitError(ExitFailure, "starting", err)
	}
	return rt, func() {
		_ = rt.Close()
		closeLog()
	}, nil
}

func loadConfig(opts *RootOptions) (*model.AppConfig, error) {
	cfg, err := model.LoadConfig(model.ExpandPath(opts.ConfigPath))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "loading config", err)
	}
	return cfg, nil
}

// newLogger builds the application logger. A configured log file wins over
// w; with neither, logs are discarded.
func newLogger(cfg model.LogConfig, w io.Writer) (*slog.Logger, func(), error) {
	closeFn := func() {}
	if cfg.File != "" {
		path := model.ExpandPath(cfg.File)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		w = f
		closeFn = func() { _ = f.Close() }
	}
	if w == nil {
		w = io.Discard
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: parseLevel(cfg.Level)})
	return slog.New(handler), closeFn, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
