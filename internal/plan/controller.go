// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package plan

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/planforge/internal/document"
	"github.com/jeranaias/planforge/internal/provider"
	"github.com/jeranaias/planforge/internal/router"
	"github.com/jeranaias/planforge/internal/search"
	"github.com/jeranaias/planforge/internal/telemetry"
)

// DefaultStageEstimate is the ETA for a stage with no timing history.
const DefaultStageEstimate = 90 * time.Second

// Resolver maps a tier and task to a fallback chain. *router.Resolver
// implements it.
type Resolver interface {
	Resolve(tier router.Tier, task string) ([]provider.Candidate, error)
}

// Options tunes the controller.
type Options struct {
	// MinExtractedSections is the combination threshold; 0 uses the default.
	MinExtractedSections int

	// SearchCount and SearchDepth are passed to the searcher.
	SearchCount int
	SearchDepth search.Depth

	Prompt PromptOptions
}

// Request is one pipeline invocation.
type Request struct {
	Idea Idea
	Tier router.Tier
}

// Document is the result of a completed run.
type Document struct {
	RunID string
	Idea  Idea
	Tier  router.Tier

	// Markdown is the final sanitized document, banner included.
	Markdown string

	// Missing lists sections that did not make it into the document.
	Missing []document.SectionID

	// FailedStages lists content stages (1-4) that failed.
	FailedStages []int

	// Outcomes holds one outcome per stage, in order.
	Outcomes []StageOutcome

	UsedFallback bool
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Partial reports whether any section is missing.
func (d *Document) Partial() bool {
	return len(d.Missing) > 0 || len(d.FailedStages) > 0
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller runs the five stages in order and assembles the document.
// Runs are independent; a Controller may serve several sequentially.
type Controller struct {
	resolver Resolver
	runner   *StageRunner
	combiner *document.Combiner
	opts     Options
	logger   *slog.Logger

	mu         sync.RWMutex
	timings    telemetry.TimingStore
	searcher   search.Searcher
	onProgress ProgressFunc

	now func() time.Time
}

// NewController creates a controller.
func NewController(resolver Resolver, runner *StageRunner, opts Options, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.SearchDepth == "" {
		opts.SearchDepth = search.DepthBasic
	}
	return &Controller{
		resolver: resolver,
		runner:   runner,
		combiner: document.NewCombiner(opts.MinExtractedSections),
		opts:     opts,
		logger:   logger,
		timings:  telemetry.NewMemoryTimingStore(telemetry.DefaultEWMAWeight),
		searcher: search.Disabled,
		now:      time.Now,
	}
}

// SetTimingStore sets the store used for ETAs.
func (c *Controller) SetTimingStore(store telemetry.TimingStore) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if store != nil {
		c.timings = store
	}
}

// SetSearcher sets the research collaborator.
func (c *Controller) SetSearcher(s search.Searcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s == nil {
		s = search.Disabled
	}
	c.searcher = s
}

// SetProgressCallback sets the progress callback function.
func (c *Controller) SetProgressCallback(cb ProgressFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onProgress = cb
}

// pipelineRun is the transient state of one run. It is never persisted.
type pipelineRun struct {
	id        string
	req       Request
	started   time.Time
	state     State
	outcomes  []StageOutcome
	estimates []time.Duration
	completed int
}

// Run executes the pipeline. It returns ErrAborted (wrapping the context
// error) on cancellation, *AllStagesFailedError when stages 1-4 all fail,
// and the resolver's error on a configuration problem. Every other failure
// is reported inside the Document.
func (c *Controller) Run(ctx context.Context, req Request) (*Document, error) {
	if err := req.Idea.Validate(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	timings, searcher, onProgress := c.timings, c.searcher, c.onProgress
	c.mu.RUnlock()

	run := &pipelineRun{
		id:       uuid.New().String(),
		req:      req,
		started:  c.now(),
		state:    StateIdle,
		outcomes: make([]StageOutcome, StageCount),
	}
	for i := range run.outcomes {
		run.outcomes[i] = StageOutcome{StageID: i + 1}
	}
	run.estimates = c.loadEstimates(ctx, timings, req.Tier)

	emit := func(stage int, status StageStatus, msg string) {
		if onProgress == nil {
			return
		}
		p := Progress{
			RunID:       run.id,
			State:       run.state,
			Stage:       stage,
			StageStatus: status,
			Completed:   run.completed,
			Total:       StageCount,
			Elapsed:     c.now().Sub(run.started),
			ETA:         run.eta(stage, status),
			Message:     msg,
		}
		if stage > 0 {
			p.StageName = Stages[stage-1].Name
			p.StageEstimate = run.estimates[stage-1]
		}
		onProgress(p)
	}

	abort := func(stage int) (*Document, error) {
		run.state = StateAborted
		emit(stage, StageFailed, "cancelled")
		c.logger.Info("pipeline aborted", "run", run.id, "stage", stage)
		return nil, fmt.Errorf("%w: %w", ErrAborted, context.Cause(ctx))
	}

	log := c.logger.With("run", run.id, "idea", req.Idea.Name, "tier", req.Tier.String())
	log.Info("pipeline started")

	// Content stages.
	prior := make(map[int]string, len(ContentStages))
	for _, id := range ContentStages {
		if ctx.Err() != nil {
			return abort(id)
		}
		stage := Stages[id-1]

		candidates, err := c.resolver.Resolve(req.Tier, stage.Task)
		if err != nil {
			run.state = StateFailed
			emit(id, StageFailed, err.Error())
			return nil, err
		}

		run.state = StateRunningStage
		emit(id, StageRunning, "")

		research := c.research(ctx, searcher, stage, req.Idea)
		request := BuildStageRequest(stage, req.Idea, prior, research, c.opts.Prompt)
		outcome := c.runner.Run(ctx, id, candidates, request)

		if ctx.Err() != nil {
			return abort(id)
		}

		run.outcomes[id-1] = outcome
		run.completed++
		if outcome.Failed {
			log.Warn("stage failed", "stage", id, "reason", outcome.FailureSummary())
			emit(id, StageFailed, outcome.FailureSummary())
			continue
		}
		prior[id] = outcome.Content
		run.estimates[id-1] = c.recordTiming(ctx, timings, id, req.Tier, outcome.Duration, run.estimates[id-1])
		emit(id, StageComplete, outcome.UsedProvider+"/"+outcome.UsedModel)
	}

	var failed []int
	var failedOutcomes []StageOutcome
	for _, id := range ContentStages {
		if run.outcomes[id-1].Failed {
			failed = append(failed, id)
			failedOutcomes = append(failedOutcomes, run.outcomes[id-1])
		}
	}
	if len(failed) == len(ContentStages) {
		run.state = StateFailed
		emit(0, StageFailed, "all content stages failed")
		log.Error("all content stages failed")
		return nil, &AllStagesFailedError{Stages: failed, Outcomes: failedOutcomes}
	}

	// Adversarial review. Any failure here is silent.
	review := c.runReview(ctx, run, prior, timings, emit, log)
	if ctx.Err() != nil {
		return abort(document.ReviewStage)
	}

	run.state = StateCombining
	emit(0, StagePending, "")
	texts := make(map[int]string, StageCount)
	for id, text := range prior {
		texts[id] = text
	}
	if review != "" {
		texts[document.ReviewStage] = review
	}
	combined := c.combiner.Combine(texts)

	run.state = StateSanitizing
	emit(0, StagePending, "")
	body := combined.Markdown
	if banner := partialBanner(combined, run.outcomes, failed); banner != "" {
		body = banner + "\n\n" + body
	}
	markdown := document.Sanitize(body)

	run.state = StateDone
	doc := &Document{
		RunID:        run.id,
		Idea:         req.Idea,
		Tier:         req.Tier,
		Markdown:     markdown,
		Missing:      combined.Missing,
		FailedStages: failed,
		Outcomes:     run.outcomes,
		UsedFallback: combined.UsedFallback,
		StartedAt:    run.started,
		FinishedAt:   c.now(),
	}
	emit(0, StageComplete, "")
	log.Info("pipeline finished",
		"missing", len(doc.Missing),
		"failed_stages", failed,
		"fallback", doc.UsedFallback,
		"duration", doc.FinishedAt.Sub(doc.StartedAt))
	return doc, nil
}

// runReview runs stage 5 over the combined draft of stages 1-4 and returns
// its content, or "" when it failed or was skipped.
func (c *Controller) runReview(ctx context.Context, run *pipelineRun, prior map[int]string, timings telemetry.TimingStore, emit func(int, StageStatus, string), log *slog.Logger) string {
	id := document.ReviewStage
	stage := Stages[id-1]

	if ctx.Err() != nil {
		return ""
	}
	if len(prior) == 0 {
		run.outcomes[id-1].Skipped = true
		run.completed++
		emit(id, StageSkipped, "no content to review")
		return ""
	}

	candidates, err := c.resolver.Resolve(run.req.Tier, stage.Task)
	if err != nil {
		log.Warn("review stage skipped", "error", err)
		run.outcomes[id-1].Skipped = true
		run.completed++
		emit(id, StageSkipped, err.Error())
		return ""
	}

	run.state = StateRunningStage
	emit(id, StageRunning, "")

	draft := c.combiner.Combine(prior).Markdown
	request := BuildReviewRequest(stage, run.req.Idea, draft, c.opts.Prompt)
	outcome := c.runner.Run(ctx, id, candidates, request)
	if ctx.Err() != nil {
		return ""
	}

	run.outcomes[id-1] = outcome
	run.completed++
	if outcome.Failed {
		log.Warn("review stage failed", "reason", outcome.FailureSummary())
		emit(id, StageFailed, outcome.FailureSummary())
		return ""
	}
	run.estimates[id-1] = c.recordTiming(ctx, timings, id, run.req.Tier, outcome.Duration, run.estimates[id-1])
	emit(id, StageComplete, outcome.UsedProvider+"/"+outcome.UsedModel)
	return outcome.Content
}

// research queries the searcher for stages that have a query. Search is
// best-effort and bounded by ctx.
func (c *Controller) research(ctx context.Context, searcher search.Searcher, stage Stage, idea Idea) []search.Result {
	query := stage.SearchQueryFor(idea)
	if query == "" || c.opts.SearchCount <= 0 {
		return nil
	}
	return searcher.Search(ctx, query, c.opts.SearchCount, c.opts.SearchDepth)
}

// =============================================================================
// TIMING
// =============================================================================

func (c *Controller) loadEstimates(ctx context.Context, timings telemetry.TimingStore, tier router.Tier) []time.Duration {
	est := make([]time.Duration, StageCount)
	for i := range est {
		est[i] = DefaultStageEstimate
		e, ok, err := timings.Get(ctx, telemetry.StageKey(i+1, tier.String()))
		if err != nil {
			c.logger.Debug("timing lookup failed", "stage", i+1, "error", err)
			continue
		}
		if ok && e.Duration > 0 {
			est[i] = e.Duration
		}
	}
	return est
}

// recordTiming folds an observed duration into the store and returns the
// new estimate. Store failures keep the old estimate.
func (c *Controller) recordTiming(ctx context.Context, timings telemetry.TimingStore, stage int, tier router.Tier, d, old time.Duration) time.Duration {
	e, err := timings.Update(ctx, telemetry.StageKey(stage, tier.String()), d)
	if err != nil {
		c.logger.Warn("failed to record stage timing", "stage", stage, "error", err)
		return old
	}
	return e.Duration
}

// eta estimates the time left: the unfinished stages after the given one,
// plus the given stage itself while it is running.
func (r *pipelineRun) eta(stage int, status StageStatus) time.Duration {
	if r.state.IsTerminal() {
		return 0
	}
	var total time.Duration
	for i := stage + 1; i <= StageCount; i++ {
		total += r.estimates[i-1]
	}
	if stage > 0 && status == StageRunning {
		total += r.estimates[stage-1]
	}
	return total
}

// =============================================================================
// WARNING BANNER
// =============================================================================

// partialBanner describes missing sections and failed stages as a markdown
// blockquote, or returns "" for a complete document.
func partialBanner(doc document.CombinedDocument, outcomes []StageOutcome, failed []int) string {
	if len(doc.Missing) == 0 && len(failed) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("> **Partial generation.**")
	if len(doc.Missing) > 0 {
		names := make([]string, len(doc.Missing))
		for i, id := range doc.Missing {
			names[i] = id.String()
		}
		fmt.Fprintf(&sb, " Missing sections: %s.", strings.Join(names, ", "))
	}
	if doc.UsedFallback {
		sb.WriteString(" Too few sections could be located, so stage outputs are shown as written.")
	}
	for _, id := range failed {
		o := outcomes[id-1]
		fmt.Fprintf(&sb, "\n>\n> - Stage %d (%s) failed: %s", id, Stages[id-1].Name, o.FailureSummary())
	}
	return sb.String()
}
