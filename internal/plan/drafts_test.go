// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/planforge/internal/provider"
	"github.com/jeranaias/planforge/internal/router"
)

const validDrafts = `{"ideas":[
  {"name":" Drone Anvils ","description":"Anvils by air.","customer":"Coyotes","industry":"Logistics"},
  {"name":"Rocket Skates","description":"Fast skates."}
]}`

func TestParseDrafts(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"valid", validDrafts, 2, false},
		{"fenced", "```json\n" + validDrafts + "\n```", 2, false},
		{"missing description", `{"ideas":[{"name":"x"}]}`, 0, true},
		{"empty list", `{"ideas":[]}`, 0, true},
		{"not json", "Here are some ideas: ...", 0, true},
		{"wrong type", `{"ideas":"many"}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ideas, err := ParseDrafts(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, ideas, tt.want)
			assert.Equal(t, "Drone Anvils", ideas[0].Name)
			assert.Equal(t, "Coyotes", ideas[0].Customer)
			assert.NotEmpty(t, ideas[0].ID)
			assert.NotEqual(t, ideas[0].ID, ideas[1].ID)
		})
	}
}

func TestDraftGeneratorFallsBackOnInvalidJSON(t *testing.T) {
	caller := &fakeCaller{respond: func(_ context.Context, cand provider.Candidate, req provider.Request) (provider.Result, error) {
		assert.True(t, req.JSONMode)
		assert.Equal(t, TaskDraftIdeas, req.TaskType)
		if cand.Provider == "sloppy" {
			return provider.Result{Text: "Sure! Here are ideas.", Attempts: 1}, nil
		}
		return provider.Result{Text: validDrafts, Attempts: 1}, nil
	}}
	resolver := testResolver(
		provider.Candidate{Provider: "sloppy", Model: "m1"},
		provider.Candidate{Provider: "strict", Model: "m2"},
	)
	gen := NewDraftGenerator(resolver, NewStageRunner(caller, nil, nil), router.TierFast, nil)

	ideas, err := gen.Generate(context.Background(), "desert logistics", 1)
	require.NoError(t, err)
	require.Len(t, ideas, 1)
	assert.Equal(t, "Drone Anvils", ideas[0].Name)
	assert.Len(t, caller.calls, 2)
	assert.Contains(t, caller.calls[0].Request.Payload, "desert logistics")
}

func TestDraftGeneratorNoValidResponse(t *testing.T) {
	caller := &fakeCaller{respond: func(context.Context, provider.Candidate, provider.Request) (provider.Result, error) {
		return provider.Result{Text: "{}", Attempts: 1}, nil
	}}
	gen := NewDraftGenerator(testResolver(), NewStageRunner(caller, nil, nil), router.TierFast, nil)

	_, err := gen.Generate(context.Background(), "tea", 3)
	assert.True(t, errors.Is(err, ErrNoValidDrafts))

	_, err = gen.Generate(context.Background(), "  ", 3)
	assert.Error(t, err)
}
