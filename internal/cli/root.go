// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jeranaias/planforge/internal/config"
	"github.com/jeranaias/planforge/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// skipConfigAnnotation marks commands that run without loading a config.
const skipConfigAnnotation = "planforge/skip-config"

// app carries state shared by every subcommand of one invocation.
type app struct {
	v      *viper.Viper
	cfg    *config.Config
	logger *slog.Logger
	theme  *styles.Theme

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}
	a.v.SetEnvPrefix("PLANFORGE")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "planforge",
		Short: "Generate business plan documents with a multi-stage LLM pipeline",
		Long: `planforge turns a short business idea into a 14-section business plan.

Four content stages (market, competition, strategy, finance) each write
their own sections, an adversarial review stress-tests the result, and the
outputs are combined into one markdown document. Every stage walks a
fallback chain of provider/model pairs chosen by tier.`,
		Version:       fmt.Sprintf("%s (%s)", Version, GitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default ~/.planforge/config.toml)")
	flags.BoolP("verbose", "v", false, "log pipeline progress to stderr")
	flags.Bool("debug", false, "log everything, including provider attempts")
	flags.Bool("json", false, "machine-readable JSON output")

	root.AddCommand(
		newGenerateCommand(a),
		newDraftsCommand(a),
		newPresetsCommand(a),
		newTimingsCommand(a),
		newSanitizeCommand(a),
		newConfigCommand(a),
	)
	return root
}

// setup binds flags to viper, configures logging and loads the config.
func (a *app) setup(cmd *cobra.Command) error {
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := a.v.BindPFlags(cmd.InheritedFlags()); err != nil {
		return err
	}

	a.stdin = cmd.InOrStdin()
	a.stdout = cmd.OutOrStdout()
	a.stderr = cmd.ErrOrStderr()
	a.logger = newLogger(a.stderr, a.v.GetBool("verbose"), a.v.GetBool("debug"))
	slog.SetDefault(a.logger)
	a.theme = newTheme(a.stdout)

	if cmd.Annotations[skipConfigAnnotation] == "true" {
		return nil
	}
	return a.loadConfig()
}

func (a *app) loadConfig() error {
	var (
		cfg *config.Config
		err error
	)
	if path := a.v.GetString("config"); path != "" {
		cfg, err = config.LoadFromPath(path)
		if err != nil {
			return &ConfigError{Path: path, Err: err}
		}
	} else {
		cfg, err = config.Load()
		if cfg == nil {
			return &ConfigError{Err: err}
		}
		if err != nil {
			a.logger.Warn("config file ignored, using defaults", "error", err)
		}
	}

	a.cfg = cfg
	config.SetGlobal(cfg)
	return nil
}

func newLogger(w io.Writer, verbose, debug bool) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case debug:
		level = slog.LevelDebug
	case verbose:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (a *app) jsonMode() bool {
	return a.v.GetBool("json")
}

// =============================================================================
// ENTRY POINT
// =============================================================================

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	root := NewRootCommand()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	jsonMode := false
	for _, arg := range args {
		if arg == "--json" || arg == "--json=true" {
			jsonMode = true
		}
	}
	DisplayError(root.OutOrStdout(), root.ErrOrStderr(), err, jsonMode)
	return ExitCode(err)
}
