package storage

import (
	"context"
	"errors"

	"autoblog/internal/domain"
)

// Namespace is an artifact category. Every artifact is addressed by a
// (namespace, job id) pair.
type Namespace string

const (
	NamespaceTrends   Namespace = "trends"
	NamespaceContents Namespace = "contents"
	NamespaceResults  Namespace = "results"
	NamespaceMetadata Namespace = "metadata"
)

// filePrefix maps a namespace to the artifact file name prefix.
var filePrefix = map[Namespace]string{
	NamespaceTrends:   "trends_",
	NamespaceContents: "contents_",
	NamespaceResults:  "publishing_results_",
	NamespaceMetadata: "job_",
}

// ErrNotFound signals that no artifact exists for a namespace/job id pair.
var ErrNotFound = errors.New("artifact not found")

// Filter decides whether a job's metadata record matches a query.
type Filter func(rec domain.Record) bool

// StatusFilter matches records with the given status.
func StatusFilter(status domain.JobStatus) Filter {
	return func(rec domain.Record) bool {
		return rec.Status == status
	}
}

// WriteResult describes where an artifact landed.
type WriteResult struct {
	Ref   string
	Bytes int64
}

// Store is keyed JSON persistence for pipeline artifacts. Writes are
// durable and last-write-wins per address; the store never retries or
// deletes on its own.
type Store interface {
	// Write serializes record into the namespace under jobID, creating
	// parent locations as needed and overwriting any prior artifact at the
	// same address.
	Write(ctx context.Context, ns Namespace, jobID string, record any) (WriteResult, error)

	// Read loads the artifact for (ns, jobID) into out. Returns
	// ErrNotFound when no artifact exists at that address.
	Read(ctx context.Context, ns Namespace, jobID string, out any) error

	// ListJobs returns the job ids present in the namespace in ascending
	// identifier order (timestamp-prefixed, so lexical = chronological).
	ListJobs(ctx context.Context, ns Namespace) ([]string, error)

	// ListLatest scans the namespace and returns the most recent job id
	// whose metadata record satisfies filter (nil matches everything).
	// Returns ErrNotFound when nothing matches.
	ListLatest(ctx context.Context, ns Namespace, filter Filter) (string, error)
}
