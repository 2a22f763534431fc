// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package plan runs the five-stage business-plan pipeline.
//
// Stages run strictly in order: market, competition, strategy, finance and
// an adversarial review. Each stage resolves a fallback chain for its task,
// calls providers through a StageRunner, and hands its output to the later
// stages as context. The Controller tolerates partial failure, supports
// cooperative cancellation and reports progress with learned ETAs.
//
// # Key Types
//
//   - Stage: static description of one pipeline step
//   - StageRunner: tries a fallback chain for one request
//   - StageOutcome: what one stage produced (or why it failed)
//   - Controller: sequences the stages and assembles the document
//   - DraftGenerator: proposes business ideas in JSON mode
//   - Batch: runs full pipelines for several ideas
//
// # Failure Policy
//
// Stage 5 failure is silent. Stages 1-4 produce AllStagesFailedError only
// when all four fail; otherwise the document carries a partial generation
// banner naming the missing sections. Cancellation aborts the run and
// discards its outcomes.
package plan
