package providers

import (
	"github.com/geolens/visibility-bot/internal/config"
	"github.com/sirupsen/logrus"
)

// Registry binds provider names to clients. The binding comes from
// configuration, not from a hardcoded set, so callers always select
// providers by name.
type Registry struct {
	providers map[string]Provider
	order     []string
}

// NewRegistry builds the registry from configured credentials
func NewRegistry(cfg *config.Config) *Registry {
	r := &Registry{providers: make(map[string]Provider)}

	r.register(NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.MaxTokens))
	r.register(NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.MaxTokens))
	r.register(NewGeminiProvider(cfg.GoogleAPIKey, cfg.MaxTokens))

	return r
}

// NewRegistryFrom builds a registry from an explicit provider list.
// Registration order is preserved and defines dispatch order.
func NewRegistryFrom(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider)}
	for _, p := range providers {
		r.register(p)
	}
	return r
}

func (r *Registry) register(p Provider) {
	if _, exists := r.providers[p.Name()]; exists {
		return
	}
	r.providers[p.Name()] = p
	r.order = append(r.order, p.Name())
}

// Get returns the provider bound to name
func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Active returns the enabled providers in registration order
func (r *Registry) Active() []Provider {
	var active []Provider
	for _, name := range r.order {
		p := r.providers[name]
		if !p.IsEnabled() {
			logrus.Debugf("Provider %s disabled - missing credentials", name)
			continue
		}
		active = append(active, p)
	}
	return active
}

// Select resolves names to enabled providers in the order given. Unknown
// or disabled names are skipped. An empty name list means every active
// provider.
func (r *Registry) Select(names []string) []Provider {
	if len(names) == 0 {
		return r.Active()
	}

	var selected []Provider
	for _, name := range names {
		p, ok := r.providers[name]
		if !ok {
			logrus.Warnf("Unknown provider requested: %s", name)
			continue
		}
		if !p.IsEnabled() {
			logrus.Debugf("Provider %s disabled - missing credentials", name)
			continue
		}
		selected = append(selected, p)
	}
	return selected
}
