// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/planforge/internal/provider"
	"github.com/jeranaias/planforge/internal/router"
)

func TestBatchContinuesPastFailures(t *testing.T) {
	caller := &fakeCaller{respond: healthyResponse}
	batch := NewBatch(newTestController(caller, testResolver()), router.TierFast, nil)

	var seen []int
	items := batch.Run(context.Background(), []Idea{
		acme(),
		{Name: ""},
		{Name: "Rocket Skates", Description: "Fast skates."},
	}, func(item BatchItem) { seen = append(seen, item.Index) })

	require.Len(t, items, 3)
	assert.Equal(t, []int{0, 1, 2}, seen)
	assert.NoError(t, items[0].Err)
	assert.ErrorIs(t, items[1].Err, ErrEmptyIdea)
	require.NoError(t, items[2].Err)
	assert.Contains(t, items[2].Document.Markdown, "## 1. Executive Summary")
}

func TestBatchStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	caller := &fakeCaller{respond: func(ctx context.Context, cand provider.Candidate, req provider.Request) (provider.Result, error) {
		if req.TaskType == TaskCompetition {
			cancel()
			return provider.Result{}, ctx.Err()
		}
		return healthyResponse(ctx, cand, req)
	}}
	batch := NewBatch(newTestController(caller, testResolver()), router.TierFast, nil)

	items := batch.Run(ctx, []Idea{acme(), acme(), acme()}, nil)
	require.Len(t, items, 1)
	assert.ErrorIs(t, items[0].Err, ErrAborted)
}
