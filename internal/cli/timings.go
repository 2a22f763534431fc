// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/planforge/internal/telemetry"
)

type timingView struct {
	Key       string    `json:"key"`
	Estimate  string    `json:"estimate"`
	Seconds   float64   `json:"seconds"`
	Samples   int       `json:"samples"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newTimingsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "timings",
		Short: "Show learned stage durations",
		Long: `Show the moving-average duration of every stage per tier. These
estimates drive the ETA shown while a plan is generated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := telemetry.Open(a.cfg.Storage.TimingBackend, a.cfg.Storage.TimingPath, a.cfg.Pipeline.EWMAWeight)
			if err != nil {
				return err
			}
			defer store.Close()

			all, err := store.All(cmd.Context())
			if err != nil {
				return err
			}
			views := timingViews(all)

			if a.jsonMode() {
				return NewJSONResponse("timings", views).Print(a.stdout)
			}
			if len(views) == 0 {
				fmt.Fprintln(a.stdout, "No timings recorded yet.")
				return nil
			}
			fmt.Fprintln(a.stdout, TitleStyle.Render("Stage timings"))
			for _, v := range views {
				fmt.Fprintf(a.stdout, "%s %8s  %3d samples  %s\n",
					LabelStyle.Render(v.Key), v.Estimate, v.Samples,
					DimStyle.Render(v.UpdatedAt.Local().Format("2006-01-02 15:04")))
			}
			return nil
		},
	}
}

func timingViews(all map[string]telemetry.Estimate) []timingView {
	views := make([]timingView, 0, len(all))
	for key, est := range all {
		views = append(views, timingView{
			Key:       key,
			Estimate:  est.Duration.Round(time.Second).String(),
			Seconds:   est.Duration.Seconds(),
			Samples:   est.Samples,
			UpdatedAt: est.UpdatedAt,
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Key < views[j].Key })
	return views
}
