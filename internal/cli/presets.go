// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"

	"github.com/jeranaias/planforge/internal/router"
)

type presetView struct {
	Tier       string          `json:"tier"`
	Task       string          `json:"task"`
	Candidates []candidateView `json:"candidates"`
}

type candidateView struct {
	Provider  string `json:"provider"`
	Model     string `json:"model"`
	Available bool   `json:"available"`
}

func newPresetsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List fallback chains and which providers can be called",
		Long: `List every configured (tier, task) chain in resolution order.

A candidate is available when its provider is enabled and has a credential,
or is a local ollama endpoint. Task "*" is the tier's default chain.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.newClient()
			if err != nil {
				return err
			}
			resolver, err := a.newResolver(client)
			if err != nil {
				return err
			}
			statuses := resolver.Describe()

			if a.v.GetBool("debug") {
				pp.Fprintln(a.stderr, statuses)
			}
			if a.jsonMode() {
				return NewJSONResponse("presets", presetViews(statuses)).Print(a.stdout)
			}
			a.printPresets(statuses)
			return nil
		},
	}
	return cmd
}

func presetViews(statuses []router.ChainStatus) []presetView {
	out := make([]presetView, 0, len(statuses))
	for _, s := range statuses {
		v := presetView{Tier: s.Tier.String(), Task: s.Task}
		for _, c := range s.Candidates {
			v.Candidates = append(v.Candidates, candidateView{
				Provider:  c.Provider,
				Model:     c.Model,
				Available: c.Available,
			})
		}
		out = append(out, v)
	}
	return out
}

func (a *app) printPresets(statuses []router.ChainStatus) {
	fmt.Fprintln(a.stdout, TitleStyle.Render("Fallback chains"))
	if a.cfg.OfflineMode {
		fmt.Fprintln(a.stdout, WarningStyle.Render("offline mode: only local providers are available"))
	}

	var lastTier router.Tier = -1
	for _, s := range statuses {
		if s.Tier != lastTier {
			fmt.Fprintln(a.stdout)
			fmt.Fprintln(a.stdout, strings.ToUpper(s.Tier.String()))
			fmt.Fprintln(a.stdout, separator(40))
			lastTier = s.Tier
		}
		fmt.Fprintf(a.stdout, "  %s\n", LabelStyle.Render(s.Task))
		for i, c := range s.Candidates {
			mark := SuccessStyle.Render("ok ")
			if !c.Available {
				mark = ErrorStyle.Render("-- ")
			}
			fmt.Fprintf(a.stdout, "    %d. %s %s\n", i+1, mark, c.Candidate.String())
		}
	}
}
