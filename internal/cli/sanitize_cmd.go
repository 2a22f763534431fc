// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/planforge/internal/document"
	"github.com/jeranaias/planforge/internal/ui/components"
	"github.com/jeranaias/planforge/internal/util"
)

func newSanitizeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sanitize <file|->",
		Short: "Clean up a markdown document",
		Long: `Apply the document sanitizer to a markdown file: normalize line
endings, repair broken tables, fence diagram lines and collapse blank lines.

The result is printed to stdout unless --write is given. "-" reads stdin.
On a color terminal the printed markdown is syntax highlighted.`,
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{skipConfigAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			var (
				data []byte
				err  error
			)
			if path == "-" {
				data, err = io.ReadAll(a.stdin)
			} else {
				data, err = os.ReadFile(path)
			}
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}

			clean := document.Sanitize(string(data))

			if a.v.GetBool("write") && path != "-" {
				info, err := os.Stat(path)
				if err != nil {
					return err
				}
				if err := util.AtomicWriteFile(path, []byte(clean), info.Mode().Perm()); err != nil {
					return err
				}
				fmt.Fprintf(a.stderr, "%s %s\n", SuccessStyle.Render("Sanitized"), path)
				return nil
			}

			if colorsEnabled(a.stdout) {
				clean = components.HighlightMarkdown(clean)
			}
			_, err = io.WriteString(a.stdout, clean)
			return err
		},
	}
	cmd.Flags().BoolP("write", "w", false, "rewrite the file in place")
	return cmd
}
