package query

import (
	"context"
	"fmt"
	"time"

	"autoblog/internal/domain"
	"autoblog/internal/storage"
)

// Service answers read-only questions about jobs. It only touches
// metadata records, never artifact bodies.
type Service struct {
	store storage.Store
}

// NewService builds a query service over the artifact store.
func NewService(store storage.Store) *Service {
	return &Service{store: store}
}

// Latest returns the id of the most recent job with the given status.
// Wraps storage.ErrNotFound when no job matches.
func (s *Service) Latest(ctx context.Context, status domain.JobStatus) (string, error) {
	id, err := s.store.ListLatest(ctx, storage.NamespaceMetadata, storage.StatusFilter(status))
	if err != nil {
		return "", fmt.Errorf("latest %s job: %w", status, err)
	}
	return id, nil
}

// Record returns the metadata record for one job.
func (s *Service) Record(ctx context.Context, jobID string) (domain.Record, error) {
	var rec domain.Record
	if err := s.store.Read(ctx, storage.NamespaceMetadata, jobID, &rec); err != nil {
		return domain.Record{}, fmt.Errorf("load job %s: %w", jobID, err)
	}
	return rec, nil
}

// History returns metadata records created at or after since, in
// ascending creation order. Records that fail to load are skipped so a
// single corrupt file cannot hide the rest of the history.
func (s *Service) History(ctx context.Context, since time.Time) ([]domain.Record, error) {
	ids, err := s.store.ListJobs(ctx, storage.NamespaceMetadata)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	var records []domain.Record
	for _, id := range ids {
		var rec domain.Record
		if err := s.store.Read(ctx, storage.NamespaceMetadata, id, &rec); err != nil {
			continue
		}
		if !since.IsZero() && rec.CreatedAt.Before(since) {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}
