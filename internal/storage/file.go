package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"autoblog/internal/domain"
)

// FileStore persists artifacts as JSON files under a base directory,
// one sub-directory per namespace:
//
//	data/trends/trends_{job_id}.json
//	data/contents/contents_{job_id}.json
//	data/results/publishing_results_{job_id}.json
//	data/metadata/job_{job_id}.json
type FileStore struct {
	base   string
	logger *slog.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates the namespace directories under base.
func NewFileStore(base string, logger *slog.Logger) (*FileStore, error) {
	for ns := range filePrefix {
		if err := os.MkdirAll(filepath.Join(base, string(ns)), 0o755); err != nil {
			return nil, fmt.Errorf("create namespace dir %s: %w", ns, err)
		}
	}
	return &FileStore{base: base, logger: logger}, nil
}

func (s *FileStore) path(ns Namespace, jobID string) string {
	return filepath.Join(s.base, string(ns), filePrefix[ns]+jobID+".json")
}

// Write serializes record to the namespace-scoped file for jobID.
// Failures (disk full, permission) are surfaced, not retried.
func (s *FileStore) Write(ctx context.Context, ns Namespace, jobID string, record any) (WriteResult, error) {
	if err := ctx.Err(); err != nil {
		return WriteResult{}, err
	}

	payload, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return WriteResult{}, fmt.Errorf("marshal %s artifact: %w", ns, err)
	}

	full := s.path(ns, jobID)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return WriteResult{}, fmt.Errorf("create parent dir: %w", err)
	}
	if err := os.WriteFile(full, payload, 0o644); err != nil {
		return WriteResult{}, fmt.Errorf("write %s: %w", full, err)
	}

	rel, err := filepath.Rel(s.base, full)
	if err != nil {
		rel = full
	}

	s.debug("artifact written", "namespace", string(ns), "job_id", jobID, "bytes", len(payload))
	return WriteResult{Ref: rel, Bytes: int64(len(payload))}, nil
}

// Read loads the artifact for (ns, jobID) into out.
func (s *FileStore) Read(ctx context.Context, ns Namespace, jobID string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	full := s.path(ns, jobID)
	payload, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s/%s", ErrNotFound, ns, jobID)
		}
		return fmt.Errorf("read %s: %w", full, err)
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode %s: %w", full, err)
	}
	return nil
}

// ListJobs returns all job ids in the namespace, ascending.
func (s *FileStore) ListJobs(ctx context.Context, ns Namespace) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(s.base, string(ns)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list namespace %s: %w", ns, err)
	}

	prefix := filePrefix[ns]
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".json"))
	}

	sort.Strings(ids)
	return ids, nil
}

// ListLatest returns the most recent job id in the namespace whose
// metadata record satisfies filter. Ties break by identifier sort order.
func (s *FileStore) ListLatest(ctx context.Context, ns Namespace, filter Filter) (string, error) {
	ids, err := s.ListJobs(ctx, ns)
	if err != nil {
		return "", err
	}

	for i := len(ids) - 1; i >= 0; i-- {
		if filter == nil {
			return ids[i], nil
		}

		var rec domain.Record
		if err := s.Read(ctx, NamespaceMetadata, ids[i], &rec); err != nil {
			// Artifacts without a metadata record cannot satisfy any filter.
			continue
		}
		if filter(rec) {
			return ids[i], nil
		}
	}

	return "", fmt.Errorf("%w: no job in %s matches filter", ErrNotFound, ns)
}

func (s *FileStore) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
