package scanner

import (
	"context"
	"fmt"
	"iter"
	"sort"

	"StyleTranslator/internal/domain"
)

// Target describes a concrete listing endpoint or topic provided by config.
type Target struct {
	Name string
	URL  string
}

// Request carries all parameters required to execute one fetch.
type Request struct {
	Stage      string
	Target     Target
	Query      string
	MaxResults int
	Options    map[string]string
}

// Record is an untyped style record as yielded by a provider, before normalization.
type Record struct {
	Kind   domain.Kind
	Source string
	Fields map[string]any
}

// Provider captures a single raw record source (storefront, marketplace, forum, etc.).
// Fetch yields records lazily; records yielded before an error are still valid.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, req Request) iter.Seq2[Record, error]
}

// CredentialChecker is implemented by providers gated behind credentials.
type CredentialChecker interface {
	CheckCredentials() error
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
	return nil, fmt.Errorf("provider %s is not registered", name)
}

// Names lists registered providers in lexical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Failed returns a sequence that yields a single error.
func Failed(err error) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		yield(Record{}, err)
	}
}

// Stage is one provider applied to one target, the unit of failure isolation.
type Stage struct {
	Name     string
	Source   string
	Provider Provider
	Request  Request
	Required bool
}
