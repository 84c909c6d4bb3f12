package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"autoblog/internal/config"
	"autoblog/internal/domain"
	"autoblog/internal/ports"
	"autoblog/internal/trends"
)

// MultiSource implements TrendSource via registered provider strategies.
// It fans out to every configured provider, merges topics that share a
// normalized title, applies the configured filters and returns the
// highest-scoring candidates.
type MultiSource struct {
	registry *trends.Registry
	logger   *slog.Logger
	now      func() time.Time
}

var _ ports.TrendSource = (*MultiSource)(nil)

// NewMultiSource wires the provider registry.
func NewMultiSource(reg *trends.Registry, log *slog.Logger) *MultiSource {
	return &MultiSource{registry: reg, logger: log, now: time.Now}
}

// Fetch runs every provider named in cfg.Sources and aggregates their
// topics into one artifact.
func (s *MultiSource) Fetch(ctx context.Context, cfg config.TrendsConfig) (domain.TrendArtifact, error) {
	if s.registry == nil {
		return domain.TrendArtifact{}, fmt.Errorf("trend provider registry is not configured")
	}

	end := s.now().UTC()
	start := end.Add(-time.Duration(cfg.TimeWindowHours) * time.Hour)
	req := trends.Request{WindowStart: start, WindowEnd: end, Cfg: cfg}

	s.debug("discover trends", "providers", len(cfg.Sources), "window_hours", cfg.TimeWindowHours)

	var collected []domain.TrendTopic
	for _, name := range cfg.Sources {
		provider, err := s.registry.Resolve(name)
		if err != nil {
			return domain.TrendArtifact{}, err
		}

		topics, err := provider.Discover(ctx, req)
		if err != nil {
			return domain.TrendArtifact{}, fmt.Errorf("provider %s: %w", name, err)
		}

		s.debug("provider produced topics", "provider", name, "count", len(topics))
		collected = append(collected, topics...)
	}

	artifact := domain.TrendArtifact{
		WindowStart: start,
		WindowEnd:   end,
		Topics:      aggregate(collected, cfg),
	}

	s.debug("discovery done", "total_topics", len(artifact.Topics))
	return artifact, nil
}

// aggregate merges duplicate topics, drops blacklisted and thin ones and
// keeps the top cfg.MaxTrends by score.
func aggregate(raw []domain.TrendTopic, cfg config.TrendsConfig) []domain.TrendTopic {
	merged := map[string]*domain.TrendTopic{}
	var order []string

	for _, topic := range raw {
		key := normalizeTitle(topic.Topic)
		if key == "" || blacklisted(key, cfg.Blacklist) {
			continue
		}

		if existing, ok := merged[key]; ok {
			existing.ArticleCount += topic.ArticleCount
			existing.Score += topic.Score
			if existing.URL == "" {
				existing.URL = topic.URL
			}
			if !strings.Contains(existing.Source, topic.Source) {
				existing.Source += "," + topic.Source
			}
			continue
		}

		copied := topic
		copied.Topic = key
		merged[key] = &copied
		order = append(order, key)
	}

	result := make([]domain.TrendTopic, 0, len(merged))
	for _, key := range order {
		topic := merged[key]
		if cfg.MinArticleCount > 0 && topic.ArticleCount < cfg.MinArticleCount {
			continue
		}
		if topic.Score == 0 {
			topic.Score = float64(topic.ArticleCount)
		}
		result = append(result, *topic)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Score > result[j].Score
	})

	if cfg.MaxTrends > 0 && len(result) > cfg.MaxTrends {
		result = result[:cfg.MaxTrends]
	}
	return result
}

func normalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(title))), " ")
}

func blacklisted(title string, blacklist []string) bool {
	for _, banned := range blacklist {
		if banned == "" {
			continue
		}
		if strings.Contains(title, strings.ToLower(banned)) {
			return true
		}
	}
	return false
}

func (s *MultiSource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
