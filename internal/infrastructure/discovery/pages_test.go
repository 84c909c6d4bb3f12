package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"autoblog/internal/config"
	"autoblog/internal/ports"
	"autoblog/internal/trends"
)

func TestPageProviderDiscover(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`
		<html><body>
		  <h2><a href="/story/1">Big Framework Release</a></h2>
		  <h2><a href="/story/2">Another Headline</a></h2>
		  <h2><a href="/story/3"> </a></h2>
		</body></html>`))
	}))
	defer server.Close()

	provider := NewPageProvider(server.Client())
	req := trends.Request{Cfg: config.TrendsConfig{
		Pages: []config.PageConfig{
			{Name: "technews", URL: server.URL, Selector: "h2 a"},
		},
	}}

	topics, err := provider.Discover(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, topics, 2)
	require.Equal(t, "Big Framework Release", topics[0].Topic)
	require.Equal(t, "pages/technews", topics[0].Source)
	require.Equal(t, "/story/1", topics[0].URL)
}

func TestPageProviderUpstreamError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	provider := NewPageProvider(server.Client())
	req := trends.Request{Cfg: config.TrendsConfig{
		Pages: []config.PageConfig{{Name: "down", URL: server.URL}},
	}}

	_, err := provider.Discover(context.Background(), req)
	require.ErrorIs(t, err, ports.ErrSourceUnavailable)
}

func TestPageProviderNoPages(t *testing.T) {
	t.Parallel()

	provider := NewPageProvider(nil)
	_, err := provider.Discover(context.Background(), trends.Request{})
	require.ErrorIs(t, err, ports.ErrNoTrendsFound)
}
