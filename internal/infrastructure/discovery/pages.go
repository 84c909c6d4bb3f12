package discovery

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"autoblog/internal/config"
	"autoblog/internal/domain"
	"autoblog/internal/ports"
	"autoblog/internal/trends"
)

// PageProvider scrapes configured HTML pages for headlines. Each page
// brings its own CSS selector; every match becomes one topic mention.
type PageProvider struct {
	client *http.Client
}

var _ trends.Provider = (*PageProvider)(nil)

// NewPageProvider wires an HTTP client; nil uses a 20s-timeout default.
func NewPageProvider(client *http.Client) *PageProvider {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &PageProvider{client: client}
}

// Name identifies the strategy inside the registry.
func (p *PageProvider) Name() string {
	return "pages"
}

// Discover walks the configured pages and extracts headline topics.
func (p *PageProvider) Discover(ctx context.Context, req trends.Request) ([]domain.TrendTopic, error) {
	if len(req.Cfg.Pages) == 0 {
		return nil, fmt.Errorf("%w: no pages configured", ports.ErrNoTrendsFound)
	}

	var topics []domain.TrendTopic
	for _, page := range req.Cfg.Pages {
		doc, err := p.fetchDocument(ctx, page.URL)
		if err != nil {
			return nil, fmt.Errorf("page %s: %w", page.Name, err)
		}
		topics = append(topics, extractHeadlines(doc, page)...)
	}

	return topics, nil
}

func (p *PageProvider) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "autoblog/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: page returned %s", ports.ErrSourceUnavailable, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

func extractHeadlines(doc *goquery.Document, page config.PageConfig) []domain.TrendTopic {
	selector := page.Selector
	if selector == "" {
		selector = "h2 a, h3 a"
	}

	var topics []domain.TrendTopic
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		title := strings.TrimSpace(sel.Text())
		if title == "" {
			return
		}

		href, _ := sel.Attr("href")
		if href == "" {
			href, _ = sel.Find("a").First().Attr("href")
		}

		topics = append(topics, domain.TrendTopic{
			Topic:        title,
			Source:       "pages/" + page.Name,
			ArticleCount: 1,
			URL:          href,
		})
	})

	return topics
}
