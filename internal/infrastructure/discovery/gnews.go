package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"autoblog/internal/domain"
	"autoblog/internal/ports"
	"autoblog/internal/trends"
)

// GNewsProvider pulls top headlines per configured category from the
// GNews API and turns each article into a topic candidate.
type GNewsProvider struct {
	client *http.Client
}

var _ trends.Provider = (*GNewsProvider)(nil)

// NewGNewsProvider wires an HTTP client; nil uses a 20s-timeout default.
func NewGNewsProvider(client *http.Client) *GNewsProvider {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &GNewsProvider{client: client}
}

// Name identifies the strategy inside the registry.
func (g *GNewsProvider) Name() string {
	return "gnews"
}

type gnewsResponse struct {
	Articles []struct {
		Title       string    `json:"title"`
		URL         string    `json:"url"`
		PublishedAt time.Time `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// Discover queries every configured category for headlines inside the
// request window.
func (g *GNewsProvider) Discover(ctx context.Context, req trends.Request) ([]domain.TrendTopic, error) {
	cfg := req.Cfg.GNews
	if cfg.Endpoint == "" || cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gnews endpoint or api key missing", ports.ErrSourceUnavailable)
	}

	categories := cfg.Categories
	if len(categories) == 0 {
		categories = []string{"general"}
	}

	var topics []domain.TrendTopic
	for _, category := range categories {
		pageURL, err := buildHeadlinesURL(cfg.Endpoint, category, req)
		if err != nil {
			return nil, err
		}

		resp, err := g.fetch(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("category %s: %w", category, err)
		}

		for _, article := range resp.Articles {
			if !article.PublishedAt.IsZero() && article.PublishedAt.Before(req.WindowStart) {
				continue
			}
			topics = append(topics, domain.TrendTopic{
				Topic:        article.Title,
				Source:       "gnews/" + category,
				ArticleCount: 1,
				URL:          article.URL,
				Tags:         []string{category},
			})
		}
	}

	return topics, nil
}

func (g *GNewsProvider) fetch(ctx context.Context, pageURL string) (gnewsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return gnewsResponse{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return gnewsResponse{}, fmt.Errorf("%w: %v", ports.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return gnewsResponse{}, fmt.Errorf("%w: gnews returned %s", ports.ErrSourceUnavailable, resp.Status)
	}

	var parsed gnewsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return gnewsResponse{}, fmt.Errorf("decode gnews response: %w", err)
	}
	return parsed, nil
}

func buildHeadlinesURL(endpoint, category string, req trends.Request) (string, error) {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid gnews endpoint %s: %w", endpoint, err)
	}

	cfg := req.Cfg.GNews
	query := parsed.Query()
	query.Set("category", category)
	query.Set("apikey", cfg.APIKey)
	if cfg.Language != "" {
		query.Set("lang", cfg.Language)
	}
	if cfg.Country != "" {
		query.Set("country", cfg.Country)
	}
	if !req.WindowStart.IsZero() {
		query.Set("from", req.WindowStart.UTC().Format(time.RFC3339))
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}
