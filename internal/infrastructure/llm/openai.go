package llm

import (
	"bytes"
	"context"
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

// modelPrice is USD per 1K tokens, split by direction.
type modelPrice struct {
	in  float64
	out float64
}

var modelPrices = map[string]modelPrice{
	"gpt-4":         {in: 0.03, out: 0.06},
	"gpt-4o":        {in: 0.0025, out: 0.01},
	"gpt-4o-mini":   {in: 0.00015, out: 0.0006},
	"gpt-3.5-turbo": {in: 0.0005, out: 0.0015},
}

func priceFor(model string) modelPrice {
	if price, ok := modelPrices[model]; ok {
		return price
	}
	return modelPrices["gpt-4o-mini"]
}

// OpenAIGenerator produces blog posts via OpenAI-compatible chat APIs.
// The model is asked for a JSON document so the response parses without
// scraping markdown out of free text.
type OpenAIGenerator struct {
	httpClient *http.Client
}

var _ ports.ContentGenerator = (*OpenAIGenerator)(nil)

// NewOpenAIGenerator wires an HTTP client; nil uses a 60s-timeout default.
func NewOpenAIGenerator(client *http.Client) *OpenAIGenerator {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &OpenAIGenerator{httpClient: client}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

type generatedPost struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Slug    string   `json:"slug"`
	Tags    []string `json:"tags"`
}

// Generate writes a post about the strongest discovered topic.
func (g *OpenAIGenerator) Generate(ctx context.Context, trends domain.TrendArtifact, cfg config.ContentConfig) (domain.ContentArtifact, error) {
	if cfg.APIKey == "" || cfg.Endpoint == "" || cfg.Model == "" {
		return domain.ContentArtifact{}, fmt.Errorf("%w: generator misconfigured", ports.ErrGenerationFailed)
	}
	if len(trends.Topics) == 0 {
		return domain.ContentArtifact{}, fmt.Errorf("%w: no topics to write about", ports.ErrGenerationFailed)
	}

	body, err := json.Marshal(map[string]any{
		"model": cfg.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt(cfg)},
			{"role": "user", "content": userPrompt(trends.Topics[0], cfg)},
		},
		"max_tokens":      cfg.MaxTokens,
		"temperature":     cfg.Temperature,
		"response_format": map[string]string{"type": "json_object"},
	})
	if err != nil {
		return domain.ContentArtifact{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return domain.ContentArtifact{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return domain.ContentArtifact{}, fmt.Errorf("%w: %v", ports.ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return domain.ContentArtifact{}, fmt.Errorf("%w: %s: %s",
			ports.ErrGenerationFailed, resp.Status, strings.TrimSpace(string(excerpt)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return domain.ContentArtifact{}, fmt.Errorf("%w: decode response: %v", ports.ErrGenerationFailed, err)
	}
	if len(parsed.Choices) == 0 {
		return domain.ContentArtifact{}, fmt.Errorf("%w: empty choices", ports.ErrGenerationFailed)
	}

	var post generatedPost
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &post); err != nil {
		return domain.ContentArtifact{}, fmt.Errorf("%w: decode post: %v", ports.ErrGenerationFailed, err)
	}

	slug := post.Slug
	if slug == "" {
		slug = Slugify(post.Title)
	}

	price := priceFor(cfg.Model)
	cost := float64(parsed.Usage.PromptTokens)/1000*price.in +
		float64(parsed.Usage.CompletionTokens)/1000*price.out

	return domain.ContentArtifact{
		Title:     post.Title,
		Body:      post.Content,
		Slug:      slug,
		Tags:      post.Tags,
		WordCount: len(strings.Fields(post.Content)),
		Model:     cfg.Model,
		Tokens:    parsed.Usage.TotalTokens,
		CostUSD:   cost,
	}, nil
}

// EstimateCost predicts spend before a call: prompt size is counted from
// the actual prompt text, output is assumed to use the full token budget.
func (g *OpenAIGenerator) EstimateCost(trends domain.TrendArtifact, cfg config.ContentConfig) float64 {
	prompt := systemPrompt(cfg)
	if len(trends.Topics) > 0 {
		prompt += userPrompt(trends.Topics[0], cfg)
	}

	// Rough heuristic: ~4 characters per token for English text.
	promptTokens := len(prompt) / 4
	price := priceFor(cfg.Model)
	return float64(promptTokens)/1000*price.in + float64(cfg.MaxTokens)/1000*price.out
}

func systemPrompt(cfg config.ContentConfig) string {
	prompt := strings.TrimSpace(cfg.SystemPrompt)
	if prompt == "" {
		prompt = "You write engaging blog posts."
	}
	return prompt
}

func userPrompt(topic domain.TrendTopic, cfg config.ContentConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a blog post about: %s\n", topic.Topic)
	if cfg.TargetAudience != "" {
		fmt.Fprintf(&b, "Target audience: %s\n", cfg.TargetAudience)
	}
	if cfg.MinWords > 0 && cfg.MaxWords > 0 {
		fmt.Fprintf(&b, "Length: between %d and %d words.\n", cfg.MinWords, cfg.MaxWords)
	}
	if topic.URL != "" {
		fmt.Fprintf(&b, "Reference: %s\n", topic.URL)
	}
	b.WriteString(`Respond with a JSON object: {"title": ..., "content": ..., "slug": ..., "tags": [...]}.`)
	return b.String()
}

// Slugify turns a title into a URL-safe slug.
func Slugify(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
