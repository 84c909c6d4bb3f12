package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"autoblog/internal/config"
	"autoblog/internal/domain"
	"autoblog/internal/jobid"
	"autoblog/internal/metadata"
	"autoblog/internal/ports"
	"autoblog/internal/storage"
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	IDs       *jobid.Generator
	Store     storage.Store
	Metadata  *metadata.Manager
	Source    ports.TrendSource
	Generator ports.ContentGenerator
	Publisher ports.Publisher
	Budget    ports.BudgetGate
	Config    config.Config
	Logger    *slog.Logger
}

// Pipeline drives a job through trend discovery, content generation and
// publishing. Every stage persists its artifact before the job status
// advances, so an interrupted run resumes from the last completed stage
// without redoing paid work.
type Pipeline struct {
	ids       *jobid.Generator
	store     storage.Store
	metadata  *metadata.Manager
	source    ports.TrendSource
	generator ports.ContentGenerator
	publisher ports.Publisher
	budget    ports.BudgetGate
	cfg       config.Config
	logger    *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		ids:       deps.IDs,
		store:     deps.Store,
		metadata:  deps.Metadata,
		source:    deps.Source,
		generator: deps.Generator,
		publisher: deps.Publisher,
		budget:    deps.Budget,
		cfg:       deps.Config,
		logger:    deps.Logger,
	}
}

// RunOptions selects which job to run and how far to take it.
type RunOptions struct {
	// JobID resumes an existing job. Empty starts a new one.
	JobID string

	// StartStage forces a re-run from the given stage, rewinding the job
	// first. Empty means continue from the current status.
	StartStage domain.Stage

	// StopAfter stops the run once the given stage completed. Empty runs
	// to the end.
	StopAfter domain.Stage
}

// Run executes pipeline stages for one job until it reaches a terminal
// status or the StopAfter bound. It returns the job id so callers can
// resume or inspect the job later.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (string, error) {
	rec, err := p.prepare(ctx, opts)
	if err != nil {
		return opts.JobID, err
	}
	jobID := rec.JobID

	for {
		stage, ok := rec.Status.NextStage()
		if !ok {
			break
		}
		if opts.StopAfter != "" && stage.Index() > opts.StopAfter.Index() {
			break
		}

		rec, err = p.runStage(ctx, jobID, stage)
		if err != nil {
			return jobID, err
		}
	}

	p.info("run finished", "job_id", jobID, "status", string(rec.Status))
	return jobID, nil
}

// prepare resolves the record the run operates on: a fresh job, a
// resumed one, or a failed one rewound to its failed stage.
func (p *Pipeline) prepare(ctx context.Context, opts RunOptions) (domain.Record, error) {
	if opts.JobID == "" {
		jobID := p.ids.NewID()
		rec, err := p.metadata.Create(ctx, jobID)
		if err != nil {
			return domain.Record{}, err
		}
		p.info("job started", "job_id", jobID)
		return rec, nil
	}

	rec, err := p.metadata.Get(ctx, opts.JobID)
	if err != nil {
		return domain.Record{}, err
	}

	switch {
	case opts.StartStage != "":
		rec, err = p.metadata.Reopen(ctx, opts.JobID, opts.StartStage)
	case rec.Status == domain.StatusFailed && rec.FailedStage != "":
		rec, err = p.metadata.Reopen(ctx, opts.JobID, rec.FailedStage)
	}
	if err != nil {
		return domain.Record{}, err
	}

	p.info("job resumed", "job_id", opts.JobID, "status", string(rec.Status))
	return rec, nil
}

// runStage executes one stage, persists its artifact and advances the
// job status. The artifact write happens before the status transition;
// a failure in between leaves the job re-runnable.
func (p *Pipeline) runStage(ctx context.Context, jobID string, stage domain.Stage) (domain.Record, error) {
	started := time.Now().UTC()
	p.info("stage started", "job_id", jobID, "stage", string(stage))

	var (
		res storage.WriteResult
		err error
	)
	switch stage {
	case domain.StageTrend:
		res, err = p.runTrend(ctx, jobID)
	case domain.StageContent:
		res, err = p.runContent(ctx, jobID)
	case domain.StagePublish:
		res, err = p.runPublish(ctx, jobID)
	default:
		err = fmt.Errorf("%w: unknown stage %q", domain.ErrInvalidTransition, stage)
	}

	if err != nil {
		if _, mErr := p.metadata.MarkFailed(ctx, jobID, stage, err); mErr != nil && p.logger != nil {
			p.logger.Error("cannot mark job failed", "job_id", jobID, "error", mErr)
		}
		return domain.Record{}, fmt.Errorf("%s stage: %w", stage, err)
	}

	finished := time.Now().UTC()
	timing := domain.StageTiming{
		StartedAt:       started,
		FinishedAt:      finished,
		DurationSeconds: finished.Sub(started).Seconds(),
	}
	return p.metadata.MarkStageDone(ctx, jobID, stage, res, timing)
}

func (p *Pipeline) runTrend(ctx context.Context, jobID string) (storage.WriteResult, error) {
	trends, err := p.source.Fetch(ctx, p.cfg.Trends)
	if err != nil {
		return storage.WriteResult{}, err
	}
	if len(trends.Topics) == 0 {
		return storage.WriteResult{}, ports.ErrNoTrendsFound
	}

	return p.store.Write(ctx, storage.NamespaceTrends, jobID, trends)
}

func (p *Pipeline) runContent(ctx context.Context, jobID string) (storage.WriteResult, error) {
	var trends domain.TrendArtifact
	if err := p.store.Read(ctx, storage.NamespaceTrends, jobID, &trends); err != nil {
		return storage.WriteResult{}, err
	}

	if p.budget != nil {
		estimate := p.generator.EstimateCost(trends, p.cfg.Content)
		if err := p.budget.Allow(estimate); err != nil {
			return storage.WriteResult{}, err
		}
	}

	content, err := p.generator.Generate(ctx, trends, p.cfg.Content)
	if err != nil {
		return storage.WriteResult{}, err
	}

	if p.budget != nil {
		p.budget.Add(content.CostUSD)
	}
	if err := p.metadata.TrackCost(ctx, jobID, content.CostUSD, content.Tokens); err != nil {
		return storage.WriteResult{}, err
	}

	if err := p.checkContent(content); err != nil {
		return storage.WriteResult{}, err
	}

	return p.store.Write(ctx, storage.NamespaceContents, jobID, content)
}

// checkContent enforces the output contract on generated posts.
func (p *Pipeline) checkContent(content domain.ContentArtifact) error {
	if content.Title == "" || content.Body == "" {
		return fmt.Errorf("%w: empty title or body", ports.ErrGenerationFailed)
	}
	if min := p.cfg.Content.MinWords; min > 0 && content.WordCount < min {
		return fmt.Errorf("%w: %d words, need at least %d", ports.ErrGenerationFailed, content.WordCount, min)
	}
	if max := p.cfg.Content.MaxWords; max > 0 && content.WordCount > max {
		return fmt.Errorf("%w: %d words, limit is %d", ports.ErrGenerationFailed, content.WordCount, max)
	}
	return nil
}

func (p *Pipeline) runPublish(ctx context.Context, jobID string) (storage.WriteResult, error) {
	var content domain.ContentArtifact
	if err := p.store.Read(ctx, storage.NamespaceContents, jobID, &content); err != nil {
		return storage.WriteResult{}, err
	}

	result, err := p.publisher.Publish(ctx, content, p.cfg.Publishing)
	if err != nil {
		// Keep the failed attempt on record so operators can inspect it,
		// but the stage still fails.
		failed := domain.PublishResult{
			Status:      domain.PublishStatusFailed,
			Error:       err.Error(),
			PublishedAt: time.Now().UTC(),
		}
		if _, wErr := p.store.Write(ctx, storage.NamespaceResults, jobID, failed); wErr != nil && p.logger != nil {
			p.logger.Error("cannot record publish failure", "job_id", jobID, "error", wErr)
		}
		return storage.WriteResult{}, err
	}

	return p.store.Write(ctx, storage.NamespaceResults, jobID, result)
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}
