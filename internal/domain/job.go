package domain

import (
	"errors"
	"fmt"
	"time"
)

// Stage identifies one pipeline phase.
type Stage string

const (
	StageTrend   Stage = "trend"
	StageContent Stage = "content"
	StagePublish Stage = "publish"
)

// stageOrder lists stages in execution order.
var stageOrder = []Stage{StageTrend, StageContent, StagePublish}

// Index returns the position of the stage in the pipeline, or -1 for an
// unknown stage.
func (s Stage) Index() int {
	for i, stage := range stageOrder {
		if stage == s {
			return i
		}
	}
	return -1
}

// JobStatus enumerates the lifecycle states of a job.
type JobStatus string

const (
	StatusCreated     JobStatus = "created"
	StatusTrendDone   JobStatus = "trend_done"
	StatusContentDone JobStatus = "content_done"
	StatusPublished   JobStatus = "published"
	StatusFailed      JobStatus = "failed"
)

// ErrInvalidTransition signals a job status transition that the state
// machine does not allow.
var ErrInvalidTransition = errors.New("invalid job status transition")

// NextStage reports which stage a job in this status should run next.
// Terminal statuses have no next stage.
func (s JobStatus) NextStage() (Stage, bool) {
	switch s {
	case StatusCreated:
		return StageTrend, true
	case StatusTrendDone:
		return StageContent, true
	case StatusContentDone:
		return StagePublish, true
	default:
		return "", false
	}
}

// StatusAfter returns the status a job enters once the given stage
// completed successfully.
func StatusAfter(stage Stage) JobStatus {
	switch stage {
	case StageTrend:
		return StatusTrendDone
	case StageContent:
		return StatusContentDone
	case StagePublish:
		return StatusPublished
	default:
		return StatusFailed
	}
}

// StatusBefore returns the status a job must be in to attempt the given
// stage.
func StatusBefore(stage Stage) JobStatus {
	switch stage {
	case StageTrend:
		return StatusCreated
	case StageContent:
		return StatusTrendDone
	case StagePublish:
		return StatusContentDone
	default:
		return StatusFailed
	}
}

// TrendTopic is one candidate topic discovered by a trend source.
type TrendTopic struct {
	Topic        string   `json:"topic"`
	Source       string   `json:"source"`
	ArticleCount int      `json:"count"`
	Score        float64  `json:"score"`
	URL          string   `json:"url,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

// TrendArtifact is the persisted output of the trend stage: the candidate
// topics for a job together with the window the data was drawn from.
type TrendArtifact struct {
	WindowStart time.Time    `json:"window_start"`
	WindowEnd   time.Time    `json:"window_end"`
	Topics      []TrendTopic `json:"topics"`
}

// ContentArtifact is the generated post for a job.
type ContentArtifact struct {
	Title     string   `json:"title"`
	Body      string   `json:"content"`
	Slug      string   `json:"slug"`
	Tags      []string `json:"tags,omitempty"`
	WordCount int      `json:"word_count"`
	Model     string   `json:"generated_with,omitempty"`
	Tokens    int      `json:"tokens,omitempty"`
	CostUSD   float64  `json:"cost_usd,omitempty"`
}

// PublishResult records the outcome of one publish attempt.
type PublishResult struct {
	Status      string    `json:"status"`
	URL         string    `json:"url,omitempty"`
	Error       string    `json:"error,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

const (
	PublishStatusPublished = "published"
	PublishStatusFailed    = "failed"
)

// ArtifactRef points at the persisted artifact of one stage.
type ArtifactRef struct {
	Path  string `json:"path"`
	Bytes int64  `json:"bytes"`
}

// StageTiming captures when a stage ran and for how long.
type StageTiming struct {
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	DurationSeconds float64   `json:"duration_seconds"`
}

// Record is the metadata record tracking one job's lifecycle. It is owned
// by the orchestrator; other components only read it.
type Record struct {
	JobID       string                `json:"job_id"`
	Status      JobStatus             `json:"status"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	Artifacts   map[Stage]ArtifactRef `json:"files,omitempty"`
	Timings     map[Stage]StageTiming `json:"timings,omitempty"`
	FailedStage Stage                 `json:"failed_stage,omitempty"`
	Error       string                `json:"error,omitempty"`
	LLMTokens   int                   `json:"llm_tokens,omitempty"`
	LLMCostUSD  float64               `json:"llm_cost_usd,omitempty"`
}

// NewRecord builds a fresh metadata record in the created status.
func NewRecord(jobID string, now time.Time) Record {
	return Record{
		JobID:     jobID,
		Status:    StatusCreated,
		CreatedAt: now,
		UpdatedAt: now,
		Artifacts: map[Stage]ArtifactRef{},
		Timings:   map[Stage]StageTiming{},
	}
}

// Terminal reports whether the record reached a final status.
func (r Record) Terminal() bool {
	return r.Status == StatusPublished || r.Status == StatusFailed
}

// ApplyStageDone advances the record along the forward edge matching the
// completed stage. Only the stage implied by the current status may
// complete; anything else is rejected.
func (r *Record) ApplyStageDone(stage Stage, ref ArtifactRef, timing StageTiming) error {
	next, ok := r.Status.NextStage()
	if !ok || next != stage {
		return fmt.Errorf("%w: cannot complete %q from status %q", ErrInvalidTransition, stage, r.Status)
	}

	if r.Artifacts == nil {
		r.Artifacts = map[Stage]ArtifactRef{}
	}
	if r.Timings == nil {
		r.Timings = map[Stage]StageTiming{}
	}

	r.Status = StatusAfter(stage)
	r.Artifacts[stage] = ref
	r.Timings[stage] = timing
	r.UpdatedAt = timing.FinishedAt
	return nil
}

// ApplyFailure moves the record into the failed status, remembering which
// stage failed. Terminal records reject further transitions.
func (r *Record) ApplyFailure(stage Stage, message string, now time.Time) error {
	if r.Terminal() {
		return fmt.Errorf("%w: cannot fail %q from terminal status %q", ErrInvalidTransition, stage, r.Status)
	}

	r.Status = StatusFailed
	r.FailedStage = stage
	r.Error = message
	r.UpdatedAt = now
	return nil
}

// Reopen prepares the record for a deliberate re-run of the given stage:
// the status moves back to the state preceding that stage and any failure
// detail is cleared. Used by the resume path.
func (r *Record) Reopen(stage Stage, now time.Time) error {
	if stage.Index() < 0 {
		return fmt.Errorf("%w: unknown stage %q", ErrInvalidTransition, stage)
	}

	r.Status = StatusBefore(stage)
	r.FailedStage = ""
	r.Error = ""
	r.UpdatedAt = now
	return nil
}
