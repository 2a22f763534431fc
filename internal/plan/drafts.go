// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"github.com/jeranaias/planforge/internal/provider"
	"github.com/jeranaias/planforge/internal/router"
)

const (
	// MaxDraftIdeas caps one draft request.
	MaxDraftIdeas = 10

	maxDraftResponseSize = 1024 * 1024
)

// draftSchema validates the JSON-mode draft response.
const draftSchema = `{
  "type": "object",
  "required": ["ideas"],
  "properties": {
    "ideas": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "description"],
        "properties": {
          "name":        {"type": "string", "minLength": 1},
          "description": {"type": "string", "minLength": 1},
          "customer":    {"type": "string"},
          "industry":    {"type": "string"}
        }
      }
    }
  }
}`

var compiledDraftSchema = func() *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(draftSchema))
	if err != nil {
		panic(fmt.Sprintf("invalid draft schema: %v", err))
	}
	return s
}()

// ErrNoValidDrafts is returned when no candidate produced a valid response.
var ErrNoValidDrafts = errors.New("no candidate returned valid draft ideas")

// =============================================================================
// DRAFT GENERATOR
// =============================================================================

// DraftGenerator proposes business ideas for a topic.
type DraftGenerator struct {
	resolver Resolver
	runner   *StageRunner
	tier     router.Tier
	logger   *slog.Logger
}

// NewDraftGenerator creates a generator that resolves the draft-ideas task
// at the given tier.
func NewDraftGenerator(resolver Resolver, runner *StageRunner, tier router.Tier, logger *slog.Logger) *DraftGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &DraftGenerator{resolver: resolver, runner: runner, tier: tier, logger: logger}
}

// Generate asks for n ideas about topic. Candidates whose response fails
// schema validation are skipped in favor of the next one in the chain.
func (g *DraftGenerator) Generate(ctx context.Context, topic string, n int) ([]Idea, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, errors.New("topic is required")
	}
	if n < 1 {
		n = 1
	}
	if n > MaxDraftIdeas {
		n = MaxDraftIdeas
	}

	candidates, err := g.resolver.Resolve(g.tier, TaskDraftIdeas)
	if err != nil {
		return nil, err
	}

	req := provider.Request{
		TaskType:  TaskDraftIdeas,
		System:    "You are a startup idea generator. Respond with a single JSON object and nothing else.",
		Payload:   buildDraftPrompt(topic, n),
		MaxTokens: 4096,
		JSONMode:  true,
	}

	var failures []string
	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		outcome := g.runner.Run(ctx, 0, []provider.Candidate{cand}, req)
		if outcome.Failed {
			failures = append(failures, outcome.FailureSummary())
			continue
		}

		ideas, err := ParseDrafts(outcome.Content)
		if err != nil {
			g.logger.Warn("draft response rejected", "candidate", cand.String(), "error", err)
			failures = append(failures, fmt.Sprintf("%s: %v", cand, err))
			continue
		}
		if len(ideas) > n {
			ideas = ideas[:n]
		}
		return ideas, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %s", ErrNoValidDrafts, strings.Join(failures, "; "))
}

func buildDraftPrompt(topic string, n int) string {
	return fmt.Sprintf(`Propose %d distinct business ideas about: %s

Respond with JSON in exactly this shape:
{
  "ideas": [
    {"name": "short name", "description": "two sentences", "customer": "target customer", "industry": "industry"}
  ]
}`, n, topic)
}

// ParseDrafts validates a draft response against the schema and decodes
// it. Markdown code fences around the JSON are tolerated.
func ParseDrafts(response string) ([]Idea, error) {
	if len(response) > maxDraftResponseSize {
		return nil, fmt.Errorf("response too large: %d bytes (max: %d)", len(response), maxDraftResponseSize)
	}

	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	result, err := compiledDraftSchema.Validate(gojsonschema.NewStringLoader(response))
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("response does not match schema: %s", strings.Join(msgs, "; "))
	}

	var payload struct {
		Ideas []Idea `json:"ideas"`
	}
	if err := json.Unmarshal([]byte(response), &payload); err != nil {
		return nil, fmt.Errorf("failed to decode ideas: %w", err)
	}

	for i := range payload.Ideas {
		payload.Ideas[i].ID = uuid.New().String()
		payload.Ideas[i].Name = strings.TrimSpace(payload.Ideas[i].Name)
	}
	return payload.Ideas, nil
}
