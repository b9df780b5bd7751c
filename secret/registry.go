package secret

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ProviderFactory creates a Provider from configuration.
type ProviderFactory func(cfg map[string]any) (Provider, error)

// Registry manages provider factories.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]ProviderFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]ProviderFactory)}
}

// Builtins returns a registry holding the env, file and dotenv factories.
// The env provider reads through lookup.
//
// Recognized configuration: "root" (string) for the file provider.
func Builtins(lookup LookupFunc) *Registry {
	r := NewRegistry()
	_ = r.Register("env", func(map[string]any) (Provider, error) {
		return NewEnvProvider(lookup), nil
	})
	_ = r.Register("file", func(cfg map[string]any) (Provider, error) {
		root, _ := cfg["root"].(string)
		return NewFileProvider(root), nil
	})
	_ = r.Register("dotenv", func(map[string]any) (Provider, error) {
		return NewDotenvProvider(), nil
	})
	return r
}

// Register adds a provider factory.
func (r *Registry) Register(name string, factory ProviderFactory) error {
	name = strings.TrimSpace(name)
	if name == "" || factory == nil {
		return ErrInvalidRegistration
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateProvider, name)
	}
	r.providers[name] = factory
	return nil
}

// Create instantiates a provider by name.
func (r *Registry) Create(name string, cfg map[string]any) (Provider, error) {
	name = strings.TrimSpace(name)

	r.mu.RLock()
	factory, ok := r.providers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}

	return factory(cfg)
}

// List returns registered provider names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolver instantiates every registered provider, passing each its entry
// from cfg, and returns a resolver that expands through lookup.
func (r *Registry) Resolver(strict bool, lookup LookupFunc, cfg map[string]map[string]any) (*Resolver, error) {
	var providers []Provider
	for _, name := range r.List() {
		p, err := r.Create(name, cfg[name])
		if err != nil {
			closeErr := closeAll(providers)
			return nil, errors.Join(fmt.Errorf("secret: create %q: %w", name, err), closeErr)
		}
		providers = append(providers, p)
	}
	return NewResolver(strict, providers...).WithLookup(lookup), nil
}

func closeAll(providers []Provider) error {
	var errs []error
	for _, p := range providers {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %q: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}
