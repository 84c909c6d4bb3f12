package metrics

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"autoblog/internal/domain"
	"autoblog/internal/query"
)

// Collector derives operational metrics from job metadata. It never
// opens artifact bodies; everything it reports comes from the records
// the orchestrator maintains.
type Collector struct {
	queries *query.Service
}

// NewCollector builds a collector over the query service.
func NewCollector(queries *query.Service) *Collector {
	return &Collector{queries: queries}
}

// Snapshot is one aggregated view over all known jobs.
type Snapshot struct {
	JobsByStatus     map[domain.JobStatus]int
	AvgStageDuration map[domain.Stage]float64
	ArtifactBytes    map[domain.Stage]int64
	TotalLLMTokens   int
	TotalLLMCostUSD  float64
	GeneratedAt      time.Time
}

// Collect scans job history and aggregates it.
func (c *Collector) Collect(ctx context.Context) (Snapshot, error) {
	records, err := c.queries.History(ctx, time.Time{})
	if err != nil {
		return Snapshot{}, fmt.Errorf("collect metrics: %w", err)
	}

	snap := Snapshot{
		JobsByStatus:     map[domain.JobStatus]int{},
		AvgStageDuration: map[domain.Stage]float64{},
		ArtifactBytes:    map[domain.Stage]int64{},
		GeneratedAt:      time.Now().UTC(),
	}

	durations := map[domain.Stage]float64{}
	counts := map[domain.Stage]int{}
	for _, rec := range records {
		snap.JobsByStatus[rec.Status]++
		snap.TotalLLMTokens += rec.LLMTokens
		snap.TotalLLMCostUSD += rec.LLMCostUSD

		for stage, timing := range rec.Timings {
			durations[stage] += timing.DurationSeconds
			counts[stage]++
		}
		for stage, ref := range rec.Artifacts {
			snap.ArtifactBytes[stage] += ref.Bytes
		}
	}

	for stage, total := range durations {
		snap.AvgStageDuration[stage] = total / float64(counts[stage])
	}

	return snap, nil
}

// Render serializes the snapshot in Prometheus text exposition format.
func (s Snapshot) Render() string {
	var b strings.Builder

	b.WriteString("# HELP autoblog_jobs_total Number of jobs by status.\n")
	b.WriteString("# TYPE autoblog_jobs_total gauge\n")
	for _, status := range sortedStatuses(s.JobsByStatus) {
		fmt.Fprintf(&b, "autoblog_jobs_total{status=%q} %d\n", status, s.JobsByStatus[status])
	}

	b.WriteString("# HELP autoblog_stage_duration_seconds_avg Average stage duration.\n")
	b.WriteString("# TYPE autoblog_stage_duration_seconds_avg gauge\n")
	for _, stage := range sortedStages(s.AvgStageDuration) {
		fmt.Fprintf(&b, "autoblog_stage_duration_seconds_avg{stage=%q} %g\n", stage, s.AvgStageDuration[stage])
	}

	b.WriteString("# HELP autoblog_artifact_bytes_total Bytes of artifacts written per stage.\n")
	b.WriteString("# TYPE autoblog_artifact_bytes_total gauge\n")
	for _, stage := range sortedStages(s.ArtifactBytes) {
		fmt.Fprintf(&b, "autoblog_artifact_bytes_total{stage=%q} %d\n", stage, s.ArtifactBytes[stage])
	}

	b.WriteString("# HELP autoblog_llm_tokens_total Tokens consumed across all jobs.\n")
	b.WriteString("# TYPE autoblog_llm_tokens_total counter\n")
	fmt.Fprintf(&b, "autoblog_llm_tokens_total %d\n", s.TotalLLMTokens)

	b.WriteString("# HELP autoblog_llm_cost_usd_total Spend across all jobs.\n")
	b.WriteString("# TYPE autoblog_llm_cost_usd_total counter\n")
	fmt.Fprintf(&b, "autoblog_llm_cost_usd_total %g\n", s.TotalLLMCostUSD)

	return b.String()
}

func sortedStatuses(m map[domain.JobStatus]int) []domain.JobStatus {
	keys := make([]domain.JobStatus, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func sortedStages[V any](m map[domain.Stage]V) []domain.Stage {
	keys := make([]domain.Stage, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
