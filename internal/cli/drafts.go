// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/jeranaias/planforge/internal/config"
	"github.com/jeranaias/planforge/internal/export"
	"github.com/jeranaias/planforge/internal/plan"
	"github.com/jeranaias/planforge/internal/router"
)

// draftsResult is the --json payload of drafts.
type draftsResult struct {
	Topic string        `json:"topic"`
	Ideas []plan.Idea   `json:"ideas"`
	Plans []batchResult `json:"plans,omitempty"`
}

type batchResult struct {
	Idea    string   `json:"idea"`
	Path    string   `json:"path,omitempty"`
	Missing []string `json:"missing_sections,omitempty"`
	Error   string   `json:"error,omitempty"`
}

func newDraftsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts [topic]",
		Short: "Propose business ideas for a topic",
		Long: `Ask the draft-ideas chain for a list of ideas about a topic.

With --run every proposed idea is planned in turn and written to --out-dir.
A failed idea is reported and the batch moves on. --presets replaces the
configured chains with a preset file that is reloaded whenever it changes,
so chains can be edited while a long batch is running.`,
		Example: `  planforge drafts "pet care for busy owners" --count 5
  planforge drafts "urban farming" --run --out-dir plans/ --presets presets.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := a.v.GetString("topic")
			if len(args) == 1 {
				topic = args[0]
			}
			if strings.TrimSpace(topic) == "" {
				return NewValidationErrorWithExample("topic", "", "a topic is required", `planforge drafts "pet care"`)
			}
			return a.runDrafts(cmd.Context(), topic)
		},
	}

	flags := cmd.Flags()
	flags.String("topic", "", "topic to propose ideas for (or pass it as the argument)")
	flags.IntP("count", "n", 3, fmt.Sprintf("number of ideas (1-%d)", plan.MaxDraftIdeas))
	flags.String("tier", "", "quality tier: fast, standard or premium (default from config)")
	flags.Bool("run", false, "generate a plan for every proposed idea")
	flags.String("out-dir", ".", "directory for plans written by --run")
	flags.StringP("format", "f", "markdown", "format of plans written by --run: markdown or json")
	flags.String("presets", "", "preset file to use and watch for changes")
	return cmd
}

func (a *app) runDrafts(ctx context.Context, topic string) error {
	tier, err := a.tier(a.v.GetString("tier"))
	if err != nil {
		return err
	}
	exportPlan, err := batchExporter(a.v.GetString("format"))
	if err != nil {
		return err
	}

	p, err := a.newPipeline()
	if err != nil {
		return err
	}
	defer p.Close()

	if path := a.v.GetString("presets"); path != "" {
		stop, err := a.watchPresets(ctx, path, p.resolver)
		if err != nil {
			return err
		}
		defer stop()
	}

	gen := plan.NewDraftGenerator(p.resolver, p.runner, tier, a.logger.With("component", "drafts"))
	ideas, err := gen.Generate(ctx, topic, a.v.GetInt("count"))
	if err != nil {
		return err
	}

	result := draftsResult{Topic: topic, Ideas: ideas}
	if !a.jsonMode() {
		a.printIdeas(topic, ideas)
	}

	var runErr error
	if a.v.GetBool("run") {
		result.Plans, runErr = a.runBatch(ctx, p, tier, ideas, exportPlan)
	}

	if a.jsonMode() {
		if err := NewJSONResponse("drafts", result).Print(a.stdout); err != nil {
			return err
		}
	}
	return runErr
}

func (a *app) printIdeas(topic string, ideas []plan.Idea) {
	fmt.Fprintln(a.stdout, TitleStyle.Render(fmt.Sprintf("Ideas for %q", topic)))
	for i, idea := range ideas {
		fmt.Fprintf(a.stdout, "%2d. %s\n", i+1, idea.Name)
		if idea.Description != "" {
			fmt.Fprintf(a.stdout, "    %s\n", DimStyle.Render(idea.Description))
		}
	}
}

type exportFunc func(*plan.Document, *export.Options) (string, error)

func batchExporter(format string) (exportFunc, error) {
	switch format {
	case "markdown", "md", "":
		return export.ExportMarkdown, nil
	case "json":
		return export.ExportJSON, nil
	default:
		return nil, NewValidationErrorWithExample("format", format, "must be markdown or json", "--format json")
	}
}

// runBatch plans every idea and writes one file per success.
func (a *app) runBatch(ctx context.Context, p *pipeline, tier router.Tier, ideas []plan.Idea, exportPlan exportFunc) ([]batchResult, error) {
	opts := export.DefaultOptions()
	opts.OutputDir = a.v.GetString("out-dir")

	var (
		results []batchResult
		failed  int
		aborted error
	)
	batch := plan.NewBatch(p.controller, tier, a.logger.With("component", "batch"))
	items := batch.Run(ctx, ideas, func(item plan.BatchItem) {
		res := batchResult{Idea: item.Idea.Name}
		label := fmt.Sprintf("[%d/%d] %s", item.Index+1, len(ideas), item.Idea.Name)

		switch {
		case item.Err != nil:
			failed++
			res.Error = item.Err.Error()
			if errors.Is(item.Err, plan.ErrAborted) {
				aborted = item.Err
			}
			fmt.Fprintf(a.stderr, "%s %s: %v\n", ErrorStyle.Render("FAIL"), label, item.Err)
		default:
			path, err := exportPlan(item.Document, opts)
			if err != nil {
				failed++
				res.Error = err.Error()
				fmt.Fprintf(a.stderr, "%s %s: %v\n", ErrorStyle.Render("FAIL"), label, err)
				break
			}
			res.Path = path
			for _, id := range item.Document.Missing {
				res.Missing = append(res.Missing, id.String())
			}
			status := SuccessStyle.Render("OK  ")
			if item.Document.Partial() {
				status = WarningStyle.Render("PART")
			}
			fmt.Fprintf(a.stderr, "%s %s -> %s\n", status, label, path)
		}
		results = append(results, res)
	})

	if aborted != nil {
		return results, aborted
	}
	if err := ctx.Err(); err != nil {
		return results, fmt.Errorf("%w: %w", plan.ErrAborted, err)
	}
	if failed > 0 {
		return results, &BatchError{Failed: failed, Total: len(items)}
	}
	return results, nil
}

// watchPresets loads the preset file into the resolver and keeps it in
// sync until the returned stop function is called.
func (a *app) watchPresets(ctx context.Context, path string, resolver *router.Resolver) (func(), error) {
	presets, err := config.LoadPresetsFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	routed, err := config.ToRouterPresets(presets)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	resolver.SetPresets(routed)

	watcher, err := config.NewPresetWatcher(path, a.logger.With("component", "presets"))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = watcher.Run(ctx, func(updated []config.PresetConfig) {
			routed, err := config.ToRouterPresets(updated)
			if err != nil {
				a.logger.Warn("reloaded presets rejected", "path", path, "error", err)
				return
			}
			resolver.SetPresets(routed)
		})
	}()

	return func() {
		cancel()
		watcher.Close()
		wg.Wait()
	}, nil
}
