// Package registry provides an identity-keyed service registry: declared
// producers (Injectables) resolve into cached singleton instances, with
// transient resolution on demand.
//
// # Tokens
//
// A token is the producer declaration itself — there is no separate string or
// symbol namespace. Declare injectables once, at package level, stating the
// producer kind explicitly:
//
//	var Counter = registry.Class(func() *Counter { return &Counter{} })
//	var Store   = registry.Factory(func() []string { return []string{} })
//
// Two injectables declared from structurally identical producers are distinct
// tokens. Producers are nullary: dependencies are resolved inside the closure,
// not injected through parameters.
//
// The registry retains provider and instance entries until Unregister or
// Flush — entries are never dropped on their own, so a registered token is
// referenced for the registry's full lifetime.
//
// # Registry lifecycle
//
//	r := registry.New()
//
//	// Eager: binds the provider AND constructs + caches the instance now.
//	r.Register(Counter, nil)
//
//	// Lazy: binds the provider; first Resolve constructs and caches.
//	r.Bind(Clock, registry.Factory(fakeClock))
//
//	// Singleton resolution — same instance every call.
//	c := registry.Resolve[*Counter](r, Counter)
//
//	// Transient resolution — new instance, cache untouched.
//	s := registry.Fresh[[]string](r, Store)
//
//	// Drop the cached instance, keep the provider: next Resolve rebuilds.
//	r.Unregister(Counter, false)
//
//	// Drop everything: next Resolve auto-registers the token against itself.
//	r.Unregister(Counter, true)
//
// Resolving a token that was never registered auto-registers it against
// itself, so Resolve always produces a value.
//
// # Failure semantics
//
// A producer that panics during construction propagates the panic unmodified
// to the caller — never recovered, logged, or retried — and commits no
// provider or instance state. The next resolution retries from scratch.
//
// # Composition
//
// A Registry is an explicit object owned by the application's composition
// root; see the app package for the kernel that wires core providers. Service
// providers group bindings:
//
//	type CacheProvider struct{ registry.BaseProvider }
//
//	func (p *CacheProvider) Register(r *registry.Registry) {
//	    r.Bind(Cache, registry.Factory(func() *Cache {
//	        cfg := registry.Resolve[*config.Config](r, providers.Config)
//	        return NewCache(cfg)
//	    }))
//	}
//
// Deferred providers declare Provides() and IsDeferred() and are loaded on the
// first resolution of one of their tokens.
package registry
