package metadata

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"autoblog/internal/domain"
	"autoblog/internal/storage"
)

// Manager owns the metadata record of every job. All status transitions
// go through it; other components read records but never write them.
type Manager struct {
	store  storage.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewManager constructs a Manager on top of the artifact store.
func NewManager(store storage.Store, logger *slog.Logger) *Manager {
	return &Manager{store: store, logger: logger, now: time.Now}
}

// Create registers a fresh record for jobID in the created status.
func (m *Manager) Create(ctx context.Context, jobID string) (domain.Record, error) {
	rec := domain.NewRecord(jobID, m.now().UTC())
	if _, err := m.store.Write(ctx, storage.NamespaceMetadata, jobID, rec); err != nil {
		return domain.Record{}, fmt.Errorf("create metadata for %s: %w", jobID, err)
	}

	m.debug("job created", "job_id", jobID)
	return rec, nil
}

// Get loads the metadata record for jobID. Wraps storage.ErrNotFound
// when the job is unknown.
func (m *Manager) Get(ctx context.Context, jobID string) (domain.Record, error) {
	var rec domain.Record
	if err := m.store.Read(ctx, storage.NamespaceMetadata, jobID, &rec); err != nil {
		return domain.Record{}, fmt.Errorf("load metadata for %s: %w", jobID, err)
	}
	return rec, nil
}

// MarkStageDone records that a stage completed and advances the status.
// The artifact must already be persisted before this is called, so a
// crash between the two leaves a re-runnable job rather than a status
// pointing at a missing artifact.
func (m *Manager) MarkStageDone(ctx context.Context, jobID string, stage domain.Stage, res storage.WriteResult, timing domain.StageTiming) (domain.Record, error) {
	rec, err := m.Get(ctx, jobID)
	if err != nil {
		return domain.Record{}, err
	}

	ref := domain.ArtifactRef{Path: res.Ref, Bytes: res.Bytes}
	if err := rec.ApplyStageDone(stage, ref, timing); err != nil {
		return domain.Record{}, err
	}

	if _, err := m.store.Write(ctx, storage.NamespaceMetadata, jobID, rec); err != nil {
		return domain.Record{}, fmt.Errorf("save metadata for %s: %w", jobID, err)
	}

	m.debug("stage done", "job_id", jobID, "stage", string(stage), "status", string(rec.Status))
	return rec, nil
}

// MarkFailed moves the job into the failed status with the causing stage
// and error message.
func (m *Manager) MarkFailed(ctx context.Context, jobID string, stage domain.Stage, cause error) (domain.Record, error) {
	rec, err := m.Get(ctx, jobID)
	if err != nil {
		return domain.Record{}, err
	}

	message := ""
	if cause != nil {
		message = cause.Error()
	}
	if err := rec.ApplyFailure(stage, message, m.now().UTC()); err != nil {
		return domain.Record{}, err
	}

	if _, err := m.store.Write(ctx, storage.NamespaceMetadata, jobID, rec); err != nil {
		return domain.Record{}, fmt.Errorf("save metadata for %s: %w", jobID, err)
	}

	if m.logger != nil {
		m.logger.Warn("job failed", "job_id", jobID, "stage", string(stage), "error", message)
	}
	return rec, nil
}

// Reopen rewinds the job so the given stage can run again. This is the
// only path out of the failed status.
func (m *Manager) Reopen(ctx context.Context, jobID string, stage domain.Stage) (domain.Record, error) {
	rec, err := m.Get(ctx, jobID)
	if err != nil {
		return domain.Record{}, err
	}

	if err := rec.Reopen(stage, m.now().UTC()); err != nil {
		return domain.Record{}, err
	}

	if _, err := m.store.Write(ctx, storage.NamespaceMetadata, jobID, rec); err != nil {
		return domain.Record{}, fmt.Errorf("save metadata for %s: %w", jobID, err)
	}

	m.debug("job reopened", "job_id", jobID, "stage", string(stage), "status", string(rec.Status))
	return rec, nil
}

// TrackCost accumulates LLM spend onto the job record.
func (m *Manager) TrackCost(ctx context.Context, jobID string, costUSD float64, tokens int) error {
	rec, err := m.Get(ctx, jobID)
	if err != nil {
		return err
	}

	rec.LLMCostUSD += costUSD
	rec.LLMTokens += tokens
	rec.UpdatedAt = m.now().UTC()

	if _, err := m.store.Write(ctx, storage.NamespaceMetadata, jobID, rec); err != nil {
		return fmt.Errorf("save metadata for %s: %w", jobID, err)
	}
	return nil
}

func (m *Manager) debug(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Debug(msg, args...)
	}
}
