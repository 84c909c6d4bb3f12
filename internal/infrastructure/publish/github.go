package publish

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"autoblog/internal/config"
	"autoblog/internal/domain"
	"autoblog/internal/ports"
)

// GitHubPublisher commits generated posts into a Docusaurus blog
// directory through the GitHub contents API. Re-publishing the same slug
// updates the file in place.
type GitHubPublisher struct {
	httpClient *http.Client
	now        func() time.Time
}

var _ ports.Publisher = (*GitHubPublisher)(nil)

// NewGitHubPublisher wires an HTTP client; nil uses a 30s-timeout default.
func NewGitHubPublisher(client *http.Client) *GitHubPublisher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &GitHubPublisher{httpClient: client, now: time.Now}
}

// Publish commits the post and returns where it will be served.
func (p *GitHubPublisher) Publish(ctx context.Context, content domain.ContentArtifact, cfg config.PublishingConfig) (domain.PublishResult, error) {
	if cfg.Token == "" || cfg.RepoOwner == "" || cfg.RepoName == "" {
		return domain.PublishResult{}, fmt.Errorf("%w: publisher misconfigured", ports.ErrPublishFailed)
	}

	now := p.now().UTC()
	path := fmt.Sprintf("%s/%s-%s/index.md",
		strings.Trim(cfg.BlogPath, "/"), now.Format("2006-01-02"), content.Slug)
	contentsURL := fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		strings.TrimSuffix(cfg.APIBaseURL, "/"), cfg.RepoOwner, cfg.RepoName, path)

	sha, err := p.existingSHA(ctx, contentsURL, cfg)
	if err != nil {
		return domain.PublishResult{}, err
	}

	payload := map[string]any{
		"message": cfg.CommitMessage,
		"content": base64.StdEncoding.EncodeToString([]byte(renderDoc(content, cfg, now))),
		"branch":  cfg.Branch,
	}
	if sha != "" {
		payload["sha"] = sha
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.PublishResult{}, fmt.Errorf("marshal commit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, contentsURL, bytes.NewReader(body))
	if err != nil {
		return domain.PublishResult{}, fmt.Errorf("new request: %w", err)
	}
	p.authorize(req, cfg)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return domain.PublishResult{}, fmt.Errorf("%w: %v", ports.ErrPublishFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.PublishResult{}, fmt.Errorf("%w: github returned %s: %s",
			ports.ErrPublishFailed, resp.Status, strings.TrimSpace(string(excerpt)))
	}

	var committed struct {
		Content struct {
			HTMLURL string `json:"html_url"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&committed); err != nil {
		return domain.PublishResult{}, fmt.Errorf("decode commit response: %w", err)
	}

	postURL := committed.Content.HTMLURL
	if cfg.SiteBaseURL != "" {
		postURL = fmt.Sprintf("%s/blog/%s", strings.TrimSuffix(cfg.SiteBaseURL, "/"), content.Slug)
	}

	return domain.PublishResult{
		Status:      domain.PublishStatusPublished,
		URL:         postURL,
		PublishedAt: now,
	}, nil
}

// existingSHA looks up the blob sha of an already-published post so the
// update commit can reference it. Absence is not an error.
func (p *GitHubPublisher) existingSHA(ctx context.Context, contentsURL string, cfg config.PublishingConfig) (string, error) {
	lookupURL := contentsURL
	if cfg.Branch != "" {
		lookupURL += "?ref=" + cfg.Branch
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	p.authorize(req, cfg)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ports.ErrPublishFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: sha lookup returned %s", ports.ErrPublishFailed, resp.Status)
	}

	var existing struct {
		SHA string `json:"sha"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&existing); err != nil {
		return "", fmt.Errorf("decode sha lookup: %w", err)
	}
	return existing.SHA, nil
}

func (p *GitHubPublisher) authorize(req *http.Request, cfg config.PublishingConfig) {
	req.Header.Set("Authorization", "Bearer "+cfg.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
}

// renderDoc builds the Docusaurus markdown document with front matter.
func renderDoc(content domain.ContentArtifact, cfg config.PublishingConfig, now time.Time) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %q\n", content.Title)
	fmt.Fprintf(&b, "slug: %s\n", content.Slug)
	if cfg.Author != "" {
		fmt.Fprintf(&b, "authors: [%s]\n", cfg.Author)
	}
	if len(content.Tags) > 0 {
		fmt.Fprintf(&b, "tags: [%s]\n", strings.Join(content.Tags, ", "))
	}
	fmt.Fprintf(&b, "date: %s\n", now.Format("2006-01-02"))
	b.WriteString("---\n\n")
	b.WriteString(content.Body)
	b.WriteString("\n")
	return b.String()
}
