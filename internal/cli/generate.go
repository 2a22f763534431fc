// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jeranaias/planforge/internal/export"
	"github.com/jeranaias/planforge/internal/plan"
	"github.com/jeranaias/planforge/internal/ui/components"
	"github.com/jeranaias/planforge/internal/ui/progress"
)

// generateResult is the --json payload of generate.
type generateResult struct {
	*export.Record
	Path     string `json:"path,omitempty"`
	Markdown string `json:"markdown,omitempty"`
}

func newGenerateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [name]",
		Short: "Generate a business plan for one idea",
		Long: `Run the five-stage pipeline for one idea and write the combined document.

Without --out the document is printed to stdout. Progress goes to stderr,
as a live view with --tui or as one line per event otherwise.`,
		Example: `  planforge generate --name "Acme Anvils" --description "Anvils by subscription"
  planforge generate "Acme Anvils" --tier premium --out plans/
  planforge generate --name "Acme Anvils" --format json --out acme.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idea := plan.Idea{
				Name:        a.v.GetString("name"),
				Description: a.v.GetString("description"),
				Customer:    a.v.GetString("customer"),
				Industry:    a.v.GetString("industry"),
			}
			if len(args) == 1 {
				idea.Name = args[0]
			}
			return a.runGenerate(cmd, idea)
		},
	}

	flags := cmd.Flags()
	flags.String("name", "", "idea name (prompted for when omitted on a terminal)")
	flags.String("description", "", "one or two sentences describing the idea")
	flags.String("customer", "", "target customer")
	flags.String("industry", "", "industry")
	flags.String("tier", "", "quality tier: fast, standard or premium (default from config)")
	flags.StringP("out", "o", "", "write to this file, or to a generated name inside this directory")
	flags.StringP("format", "f", "markdown", "output format: markdown or json")
	flags.Bool("render", false, "render markdown for the terminal instead of printing it raw")
	flags.Bool("tui", false, "show a live progress view on stderr")
	flags.Bool("no-metadata", false, "omit the YAML frontmatter")
	flags.Bool("open", false, "open the written file in the default application")
	return cmd
}

func (a *app) runGenerate(cmd *cobra.Command, idea plan.Idea) error {
	if strings.TrimSpace(idea.Name) == "" {
		if !a.canPrompt() {
			return NewValidationErrorWithExample("name", "", "an idea name is required",
				`planforge generate --name "Acme Anvils"`)
		}
		if err := promptIdea(a.stderr, &idea); err != nil {
			return err
		}
	}

	tier, err := a.tier(a.v.GetString("tier"))
	if err != nil {
		return err
	}

	opts := export.DefaultOptions()
	opts.IncludeMetadata = !a.v.GetBool("no-metadata")
	opts.OpenAfterExport = a.v.GetBool("open")
	out := a.v.GetString("out")
	if out != "" {
		if info, statErr := os.Stat(out); (statErr == nil && info.IsDir()) || strings.HasSuffix(out, string(os.PathSeparator)) {
			opts.OutputDir = out
		} else {
			opts.Path = out
		}
	}
	exporter, err := export.ForFormat(a.v.GetString("format"), opts)
	if err != nil {
		return NewValidationErrorWithExample("format", a.v.GetString("format"), "must be markdown or json", "--format json")
	}

	p, err := a.newPipeline()
	if err != nil {
		return err
	}
	defer p.Close()

	req := plan.Request{Idea: idea, Tier: tier}
	var doc *plan.Document
	if a.v.GetBool("tui") && isTerminal(a.stderr) {
		title := fmt.Sprintf("Planning %s (%s)", idea.Name, tier)
		doc, err = progress.Run(cmd.Context(), title, newTheme(a.stderr),
			func(ctx context.Context, onProgress plan.ProgressFunc) (*plan.Document, error) {
				p.controller.SetProgressCallback(onProgress)
				return p.controller.Run(ctx, req)
			},
			tea.WithOutput(a.stderr))
	} else {
		p.controller.SetProgressCallback(func(pr plan.Progress) {
			fmt.Fprintln(a.stderr, DimStyle.Render(components.ProgressLine(pr)))
		})
		doc, err = p.controller.Run(cmd.Context(), req)
	}
	if err != nil {
		return err
	}

	return a.writeDocument(doc, exporter, opts, out != "")
}

// writeDocument sends doc to a file or stdout and reports partial results
// on stderr.
func (a *app) writeDocument(doc *plan.Document, exporter export.Exporter, opts *export.Options, toFile bool) error {
	var path string
	if toFile {
		written, err := export.ExportToFile(doc, exporter, opts)
		if err != nil {
			return err
		}
		path = written
	}

	switch {
	case a.jsonMode():
		result := generateResult{Record: export.NewRecord(doc), Path: path}
		if path == "" {
			result.Markdown = doc.Markdown
		}
		if err := NewJSONResponse("generate", result).Print(a.stdout); err != nil {
			return err
		}
	case path != "":
		fmt.Fprintf(a.stderr, "%s %s\n", SuccessStyle.Render("Wrote"), path)
	case a.v.GetBool("render") && isTerminal(a.stdout):
		fmt.Fprint(a.stdout, renderMarkdown(doc.Markdown, terminalWidth(a.stdout)))
	default:
		content, err := exporter.Export(doc)
		if err != nil {
			return err
		}
		if _, err := a.stdout.Write(content); err != nil {
			return err
		}
	}

	a.reportPartial(doc)
	return nil
}

// reportPartial warns about missing sections on stderr.
func (a *app) reportPartial(doc *plan.Document) {
	if !doc.Partial() {
		return
	}
	missing := make([]string, len(doc.Missing))
	for i, id := range doc.Missing {
		missing[i] = id.String()
	}
	msg := fmt.Sprintf("Partial document: %d section(s) missing", len(doc.Missing))
	if len(missing) > 0 {
		msg += " (" + strings.Join(missing, ", ") + ")"
	}
	if len(doc.FailedStages) > 0 {
		msg += fmt.Sprintf(", failed stages %v", doc.FailedStages)
	}
	fmt.Fprintln(a.stderr, WarningStyle.Render(msg))
}
