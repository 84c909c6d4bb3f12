package trends

import (
	"context"
	"fmt"
	"time"

	"autoblog/internal/config"
	"autoblog/internal/domain"
)

// Request carries all parameters required to execute one discovery pass.
type Request struct {
	WindowStart time.Time
	WindowEnd   time.Time
	Cfg         config.TrendsConfig
}

// Provider captures a single trend-discovery strategy (GNews, page
// scraping, etc.). Providers return raw topics; aggregation and
// filtering happen in the source that drives them.
type Provider interface {
	Name() string
	Discover(ctx context.Context, req Request) ([]domain.TrendTopic, error)
}

// Registry keeps a mapping from provider names to their implementations.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: map[string]Provider{}}
}

// Register adds or replaces a provider implementation.
func (r *Registry) Register(provider Provider) {
	if r.providers == nil {
		r.providers = map[string]Provider{}
	}
	r.providers[provider.Name()] = provider
}

// Resolve returns a provider by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Provider, error) {
	if provider, ok := r.providers[name]; ok {
		return provider, nil
	}
	return nil, fmt.Errorf("trend provider %s is not registered", name)
}
