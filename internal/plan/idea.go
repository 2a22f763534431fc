// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import (
	"errors"
	"fmt"
	"strings"
)

// Idea is the business idea a plan is generated for.
type Idea struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Customer    string `json:"customer,omitempty" yaml:"customer,omitempty"`
	Industry    string `json:"industry,omitempty" yaml:"industry,omitempty"`
}

// ErrEmptyIdea is returned when an idea has no name.
var ErrEmptyIdea = errors.New("idea name is required")

// Validate checks that the idea can be planned.
func (i Idea) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return ErrEmptyIdea
	}
	return nil
}

// Summary renders the idea as prompt context.
func (i Idea) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Name: %s\n", strings.TrimSpace(i.Name))
	if i.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", strings.TrimSpace(i.Description))
	}
	if i.Customer != "" {
		fmt.Fprintf(&sb, "Target customer: %s\n", strings.TrimSpace(i.Customer))
	}
	if i.Industry != "" {
		fmt.Fprintf(&sb, "Industry: %s\n", strings.TrimSpace(i.Industry))
	}
	return sb.String()
}
