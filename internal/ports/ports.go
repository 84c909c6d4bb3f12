package ports

import (
	"context"
	"errors"
	"time"

	"autoblog/internal/config"
	"autoblog/internal/domain"
)

// Stage failure causes. Adapters wrap these so the orchestrator can
// classify errors without knowing which provider produced them.
var (
	// ErrSourceUnavailable signals that a trend provider could not be
	// reached or answered with a non-success status.
	ErrSourceUnavailable = errors.New("trend source unavailable")

	// ErrNoTrendsFound signals that providers responded but nothing
	// passed the configured filters.
	ErrNoTrendsFound = errors.New("no trends found")

	// ErrGenerationFailed signals that the content provider failed or
	// returned output violating the content contract.
	ErrGenerationFailed = errors.New("content generation failed")

	// ErrBudgetExceeded signals that the daily spend ceiling blocks
	// further paid calls.
	ErrBudgetExceeded = errors.New("daily budget exceeded")

	// ErrPublishFailed signals that the publishing target rejected the
	// post.
	ErrPublishFailed = errors.New("publish failed")
)

// TrendSource discovers candidate topics from upstream providers.
type TrendSource interface {
	Fetch(ctx context.Context, cfg config.TrendsConfig) (domain.TrendArtifact, error)
}

// ContentGenerator turns the selected trend into a publishable post.
type ContentGenerator interface {
	Generate(ctx context.Context, trends domain.TrendArtifact, cfg config.ContentConfig) (domain.ContentArtifact, error)

	// EstimateCost predicts the spend of a Generate call before it is
	// made, for budget admission.
	EstimateCost(trends domain.TrendArtifact, cfg config.ContentConfig) float64
}

// Publisher pushes a generated post to its destination.
type Publisher interface {
	Publish(ctx context.Context, content domain.ContentArtifact, cfg config.PublishingConfig) (domain.PublishResult, error)
}

// BudgetGate admits or rejects paid calls against a spend ceiling.
type BudgetGate interface {
	Allow(estimate float64) error
	Add(cost float64)
}

// Scheduler controls when pipeline runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
