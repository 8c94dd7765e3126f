package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"metaselect/internal/metadata"
	"metaselect/internal/options"
)

type rootFlags struct {
	config   string
	meta     []string
	theme    string
	order    []string
	eventLog string
	logFile  string
	debug    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "metaselect",
		Short:         "Browse climate dataset metadata with cross-filtering selectors",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			logger, closeLog, err := newLogger(cfg.LogFile, flags.debug)
			if err != nil {
				return err
			}
			defer closeLog()

			m, err := newModel(modelOptions{
				order:     cfg.SelectorOrder,
				prefilter: cfg.prefilter(),
				theme:     markdownThemeFromString(cfg.Theme),
				load:      recordLoader(cfg.Meta),
				events:    newEventLogger(cfg.EventLog),
				logger:    logger,
			})
			if err != nil {
				return err
			}
			logger.Info("starting", slog.Any("order", cfg.SelectorOrder), slog.Any("meta", cfg.Meta))
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
			return err
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.config, "config", "", "config file (default <user config dir>/metaselect/config.yaml)")
	pf.StringSliceVar(&flags.meta, "meta", nil, "metadata file (.json, .yaml, .sqlite); repeatable")
	pf.StringSliceVar(&flags.order, "order", nil, "selector order, e.g. model,emissions,variable")
	pf.StringVar(&flags.theme, "theme", "", "markdown rendering theme: auto, light, or dark")
	pf.StringVar(&flags.eventLog, "event-log", "", "selection event log (JSON lines); \"-\" disables")
	pf.StringVar(&flags.logFile, "log-file", "", "write diagnostic logs to this file")
	pf.BoolVar(&flags.debug, "debug", false, "log at debug level")

	cmd.AddCommand(newOptionsCmd(flags), newExportCmd(flags))
	return cmd
}

// resolve layers explicitly set flags over the config file and environment.
func (f *rootFlags) resolve(cmd *cobra.Command) (appConfig, error) {
	cfg, _, err := loadConfig(f.config)
	if err != nil {
		return cfg, err
	}
	changed := cmd.Flags().Changed
	if changed("meta") {
		cfg.Meta = f.meta
	}
	if changed("order") {
		cfg.SelectorOrder = f.order
	}
	if changed("theme") {
		cfg.Theme = f.theme
	}
	if changed("event-log") {
		cfg.EventLog = f.eventLog
	}
	if changed("log-file") {
		cfg.LogFile = f.logFile
	}
	if strings.TrimSpace(cfg.EventLog) == "-" {
		cfg.EventLog = ""
	}
	return cfg, nil
}

func recordLoader(paths []string) loadFunc {
	return func(ctx context.Context) ([]options.Record, error) {
		if len(paths) == 0 {
			return metadata.Sample()
		}
		return metadata.Load(ctx, paths...)
	}
}

func newLogger(path string, debug bool) (*slog.Logger, func(), error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, func() { _ = f.Close() }, nil
}
