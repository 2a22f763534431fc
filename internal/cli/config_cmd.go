// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/planforge/internal/config"
	"github.com/jeranaias/planforge/internal/ollama"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Write or inspect the configuration",
	}
	cmd.AddCommand(newConfigInitCommand(a), newConfigShowCommand(a), newConfigPathCommand(a))
	return cmd
}

func newConfigInitCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a default config file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.v.GetString("config")
			if path == "" {
				var err error
				if path, err = config.ConfigPathTOML(); err != nil {
					return err
				}
			}

			if _, err := os.Stat(path); err == nil && !a.v.GetBool("force") {
				return NewValidationErrorWithExample("config", path, "file already exists", "planforge config init --force")
			}

			save := config.SaveTOML
			if strings.EqualFold(filepath.Ext(path), ".json") {
				save = config.SaveJSON
			}
			if err := save(config.Default(), path); err != nil {
				return err
			}
			if a.jsonMode() {
				return NewJSONResponse("config init", map[string]string{"path": path}).Print(a.stdout)
			}
			fmt.Fprintf(a.stdout, "%s %s\n", SuccessStyle.Render("Wrote"), path)
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "overwrite an existing file")
	return cmd
}

func newConfigShowCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (API keys redacted)",
		Long: `Print the effective configuration with API keys redacted, followed by
the availability of every provider.

--check also contacts each local provider and lists its installed models.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.jsonMode() {
				// String is already redacted JSON.
				return NewJSONResponse("config show", json.RawMessage(a.cfg.String())).Print(a.stdout)
			}
			fmt.Fprintln(a.stdout, a.cfg.String())

			fmt.Fprintln(a.stdout)
			fmt.Fprintln(a.stdout, TitleStyle.Render("Providers"))
			for _, id := range sortedProviderIDs(a.cfg) {
				state := SuccessStyle.Render("available")
				if !a.cfg.ProviderAvailable(id) {
					state = DimStyle.Render("unavailable")
				}
				fmt.Fprintf(a.stdout, "%s %s\n", LabelStyle.Render(id), state)
				if a.v.GetBool("check") {
					if pc := a.cfg.Providers[id]; pc.IsLocal() && !pc.Disabled {
						fmt.Fprintf(a.stdout, "%s %s\n", LabelStyle.Render(""), probeLocal(cmd.Context(), id, pc))
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().Bool("check", false, "probe local providers for installed models")
	return cmd
}

// probeLocal reports whether a local provider answers and which models it
// has installed.
func probeLocal(ctx context.Context, id string, pc config.ProviderConfig) string {
	client := ollama.NewClientWithConfig(&ollama.ClientConfig{ID: id, BaseURL: pc.BaseURL})
	if err := client.CheckRunning(ctx); err != nil {
		return ErrorStyle.Render("unreachable: " + err.Error())
	}
	models, err := client.ListModels(ctx)
	if err != nil {
		return WarningStyle.Render("running, model list failed: " + err.Error())
	}
	if len(models) == 0 {
		return WarningStyle.Render("running, no models installed")
	}
	names := make([]string, 0, len(models))
	for _, m := range models {
		names = append(names, m.Name)
	}
	return DimStyle.Render("running: " + strings.Join(names, ", "))
}

func newConfigPathCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "path",
		Short:       "Print the default config file path",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ConfigPathTOML()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, path)
			return nil
		},
	}
}
