package registry

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups related bindings so an application can compose its
// registry from well-named units.
//
// Every provider must implement at minimum Register().
// Boot() is called after ALL providers have been registered, making it safe
// to resolve other bindings inside Boot().
//
//	type AppServiceProvider struct{ registry.BaseProvider }
//
//	func (p *AppServiceProvider) Register(r *registry.Registry) {
//	    r.Bind(Logger, registry.Factory(func() zerolog.Logger {
//	        return logging.New("app")
//	    }))
//	}
//
//	func (p *AppServiceProvider) Boot(r *registry.Registry) {
//	    log := registry.Resolve[zerolog.Logger](r, Logger)
//	    log.Info().Msg("application booted")
//	}
type ServiceProvider interface {
	// Register binds services into the registry.
	// Do NOT resolve other bindings here — use Boot() for that.
	Register(r *Registry)

	// Boot is called after all providers are registered.
	// Safe to resolve and use any binding here.
	Boot(r *Registry)

	// Provides returns the tokens this provider registers.
	// Used for deferred (lazy) provider loading.
	// Return nil / empty slice if the provider is always eager.
	Provides() []Token

	// IsDeferred returns true if this provider should be loaded lazily —
	// only when one of its Provides() tokens is first resolved.
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct that provides no-op implementations
// of Boot(), Provides(), and IsDeferred().
// Embed it in your provider and only override what you need.
//
//	type MyProvider struct{ registry.BaseProvider }
//	func (p *MyProvider) Register(r *registry.Registry) { ... }
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Registry)  {}
func (p *BaseProvider) Provides() []Token { return nil }
func (p *BaseProvider) IsDeferred() bool  { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry manages registration and booting of ServiceProviders,
// including deferred (lazy) providers.
type ProviderRegistry struct {
	registry   *Registry
	eager      []ServiceProvider
	deferred   map[uint64]ServiceProvider // token id → provider
	booted     bool
	registered map[ServiceProvider]bool
}

// NewProviderRegistry creates a provider registry bound to r. Deferred
// providers are loaded through r's missing-token interceptors: the first
// resolution of a provided token registers (and, once booted, boots) the
// provider before the registry would fall back to self-registration.
func NewProviderRegistry(r *Registry) *ProviderRegistry {
	pr := &ProviderRegistry{
		registry:   r,
		deferred:   make(map[uint64]ServiceProvider),
		registered: make(map[ServiceProvider]bool),
	}
	r.OnMissing(pr.loadDeferred)
	return pr
}

// Register adds a provider and calls its Register() method (unless deferred).
func (pr *ProviderRegistry) Register(provider ServiceProvider) {
	if pr.registered[provider] {
		return
	}
	pr.registered[provider] = true

	if provider.IsDeferred() {
		for _, tok := range provider.Provides() {
			pr.deferred[tok.ID()] = provider
		}
		return
	}

	provider.Register(pr.registry)
	pr.eager = append(pr.eager, provider)

	// If already booted, boot this provider immediately
	if pr.booted {
		provider.Boot(pr.registry)
	}
}

// loadDeferred registers the deferred provider owning tok, if any.
func (pr *ProviderRegistry) loadDeferred(tok Token) bool {
	provider, ok := pr.deferred[tok.ID()]
	if !ok {
		return false
	}
	for _, provided := range provider.Provides() {
		delete(pr.deferred, provided.ID())
	}
	provider.Register(pr.registry)
	if pr.booted {
		provider.Boot(pr.registry)
	}
	return true
}

// Boot calls Boot() on all eager providers.
// Must be called after ALL providers have been registered.
func (pr *ProviderRegistry) Boot() {
	if pr.booted {
		return
	}
	pr.booted = true
	for _, provider := range pr.eager {
		provider.Boot(pr.registry)
	}
}

// Booted returns true if Boot() has been called.
func (pr *ProviderRegistry) Booted() bool { return pr.booted }

// Providers returns all registered eager providers.
func (pr *ProviderRegistry) Providers() []ServiceProvider { return pr.eager }
