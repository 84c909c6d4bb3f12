package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"autoblog/internal/domain"
)

// PostgresStore keeps artifacts in a single table instead of the file
// layout, for deployments that already run Postgres:
//
//	CREATE TABLE artifacts (
//	    namespace  TEXT NOT NULL,
//	    job_id     TEXT NOT NULL,
//	    record     JSONB NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
//	    PRIMARY KEY (namespace, job_id)
//	);
//
// Semantics match FileStore: addressed by (namespace, job id),
// last-write-wins, no implicit deletion.
type PostgresStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	logger  *slog.Logger
}

var _ Store = (*PostgresStore)(nil)

// OpenPostgres connects using the given DSN.
func OpenPostgres(dsn string, logger *slog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewPostgresStore(db, logger), nil
}

// NewPostgresStore wraps an existing connection pool.
func NewPostgresStore(db *sql.DB, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		logger:  logger,
	}
}

// Write upserts the artifact row for (ns, jobID).
func (s *PostgresStore) Write(ctx context.Context, ns Namespace, jobID string, record any) (WriteResult, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return WriteResult{}, fmt.Errorf("marshal %s artifact: %w", ns, err)
	}

	query, args, err := s.builder.
		Insert("artifacts").
		Columns("namespace", "job_id", "record").
		Values(string(ns), jobID, payload).
		Suffix("ON CONFLICT (namespace, job_id) DO UPDATE SET record = EXCLUDED.record, updated_at = NOW()").
		ToSql()
	if err != nil {
		return WriteResult{}, fmt.Errorf("build upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return WriteResult{}, fmt.Errorf("upsert artifact %s/%s: %w", ns, jobID, err)
	}

	s.debug("artifact written", "namespace", string(ns), "job_id", jobID, "bytes", len(payload))
	return WriteResult{Ref: fmt.Sprintf("%s/%s", ns, jobID), Bytes: int64(len(payload))}, nil
}

// Read loads the artifact row for (ns, jobID) into out.
func (s *PostgresStore) Read(ctx context.Context, ns Namespace, jobID string, out any) error {
	query, args, err := s.builder.
		Select("record").
		From("artifacts").
		Where(sq.Eq{"namespace": string(ns), "job_id": jobID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build select: %w", err)
	}

	var payload []byte
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s/%s", ErrNotFound, ns, jobID)
		}
		return fmt.Errorf("query artifact %s/%s: %w", ns, jobID, err)
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode artifact %s/%s: %w", ns, jobID, err)
	}
	return nil
}

// ListJobs returns the job ids in the namespace, ascending.
func (s *PostgresStore) ListJobs(ctx context.Context, ns Namespace) ([]string, error) {
	query, args, err := s.builder.
		Select("job_id").
		From("artifacts").
		Where(sq.Eq{"namespace": string(ns)}).
		OrderBy("job_id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list namespace %s: %w", ns, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan job id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return ids, nil
}

// ListLatest returns the most recent job id in the namespace whose
// metadata record satisfies filter.
func (s *PostgresStore) ListLatest(ctx context.Context, ns Namespace, filter Filter) (string, error) {
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
			continue
		}
		if filter(rec) {
			return ids[i], nil
		}
	}

	return "", fmt.Errorf("%w: no job in %s matches filter", ErrNotFound, ns)
}

func (s *PostgresStore) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
