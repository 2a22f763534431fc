// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jeranaias/planforge/internal/router"
)

// BatchItem is the result for one idea of a batch.
type BatchItem struct {
	Index    int
	Idea     Idea
	Document *Document
	Err      error
}

// Batch runs full pipelines for several ideas, one after another.
type Batch struct {
	controller *Controller
	tier       router.Tier
	logger     *slog.Logger
}

// NewBatch creates a batch runner over a controller.
func NewBatch(controller *Controller, tier router.Tier, logger *slog.Logger) *Batch {
	if logger == nil {
		logger = slog.Default()
	}
	return &Batch{controller: controller, tier: tier, logger: logger}
}

// Run plans each idea in order. A failed idea is recorded and the batch
// moves on; cancellation stops the batch and the ideas not yet started are
// omitted. onItem, if set, is called after each idea.
func (b *Batch) Run(ctx context.Context, ideas []Idea, onItem func(BatchItem)) []BatchItem {
	items := make([]BatchItem, 0, len(ideas))

	for i, idea := range ideas {
		if ctx.Err() != nil {
			break
		}

		doc, err := b.controller.Run(ctx, Request{Idea: idea, Tier: b.tier})
		item := BatchItem{Index: i, Idea: idea, Document: doc, Err: err}
		items = append(items, item)

		if err != nil {
			b.logger.Warn("batch item failed", "index", i, "idea", idea.Name, "error", err)
		}
		if onItem != nil {
			onItem(item)
		}
		if errors.Is(err, ErrAborted) {
			break
		}
	}

	return items
}
