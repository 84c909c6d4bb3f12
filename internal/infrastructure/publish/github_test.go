package publish

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"autoblog/internal/config"
	"autoblog/internal/domain"
	"autoblog/internal/ports"
)

func testContent() domain.ContentArtifact {
	return domain.ContentArtifact{
		Title:     "Steam Deck Sale",
		Body:      "The sale is on.",
		Slug:      "steam-deck-sale",
		Tags:      []string{"gaming", "deals"},
		WordCount: 4,
	}
}

func testPublishingConfig(apiBase string) config.PublishingConfig {
	return config.PublishingConfig{
		RepoOwner:     "acme",
		RepoName:      "blog",
		Branch:        "main",
		BlogPath:      "blog",
		CommitMessage: "Add generated blog post",
		Author:        "autoblog",
		Token:         "ghp-test",
		APIBaseURL:    apiBase,
		SiteBaseURL:   "https://acme.dev",
	}
}

func TestPublishNewPost(t *testing.T) {
	t.Parallel()

	var committed struct {
		Message string `json:"message"`
		Content string `json:"content"`
		Branch  string `json:"branch"`
		SHA     string `json:"sha"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer ghp-test", r.Header.Get("Authorization"))
		require.Contains(t, r.URL.Path, "/repos/acme/blog/contents/blog/")
		require.Contains(t, r.URL.Path, "-steam-deck-sale/index.md")

		switch r.Method {
		case http.MethodGet:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&committed))
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"content": {"html_url": "https://github.com/acme/blog/blob/main/x"}}`))
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	defer server.Close()

	pub := NewGitHubPublisher(server.Client())
	result, err := pub.Publish(context.Background(), testContent(), testPublishingConfig(server.URL))
	require.NoError(t, err)

	require.Equal(t, domain.PublishStatusPublished, result.Status)
	require.Equal(t, "https://acme.dev/blog/steam-deck-sale", result.URL)
	require.False(t, result.PublishedAt.IsZero())

	require.Equal(t, "Add generated blog post", committed.Message)
	require.Equal(t, "main", committed.Branch)
	require.Empty(t, committed.SHA)

	decoded, err := base64.StdEncoding.DecodeString(committed.Content)
	require.NoError(t, err)
	doc := string(decoded)
	require.True(t, strings.HasPrefix(doc, "---\n"))
	require.Contains(t, doc, `title: "Steam Deck Sale"`)
	require.Contains(t, doc, "slug: steam-deck-sale")
	require.Contains(t, doc, "tags: [gaming, deals]")
	require.Contains(t, doc, "The sale is on.")
}

func TestPublishUpdatesExistingPost(t *testing.T) {
	t.Parallel()

	var gotSHA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			require.Equal(t, "main", r.URL.Query().Get("ref"))
			w.Write([]byte(`{"sha": "abc123"}`))
		case http.MethodPut:
			var payload struct {
				SHA string `json:"sha"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			gotSHA = payload.SHA
			w.Write([]byte(`{"content": {"html_url": "https://github.com/x"}}`))
		}
	}))
	defer server.Close()

	pub := NewGitHubPublisher(server.Client())
	_, err := pub.Publish(context.Background(), testContent(), testPublishingConfig(server.URL))
	require.NoError(t, err)
	require.Equal(t, "abc123", gotSHA)
}

func TestPublishUpstreamError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message": "invalid branch"}`))
	}))
	defer server.Close()

	pub := NewGitHubPublisher(server.Client())
	_, err := pub.Publish(context.Background(), testContent(), testPublishingConfig(server.URL))
	require.ErrorIs(t, err, ports.ErrPublishFailed)
	require.Contains(t, err.Error(), "invalid branch")
}

func TestPublishMisconfigured(t *testing.T) {
	t.Parallel()

	pub := NewGitHubPublisher(nil)
	_, err := pub.Publish(context.Background(), testContent(), config.PublishingConfig{})
	require.ErrorIs(t, err, ports.ErrPublishFailed)
}

func TestRenderDocDate(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 24, 11, 22, 33, 0, time.UTC)
	doc := renderDoc(testContent(), testPublishingConfig("https://api.github.com"), now)
	require.Contains(t, doc, "date: 2024-05-24")
	require.Contains(t, doc, "authors: [autoblog]")
}
