package registry

import (
	"fmt"
	"sync"
)

// ── Extenders ─────────────────────────────────────────────────────────────────

// Extender wraps an already-constructed instance with decorator logic.
type Extender func(instance any, r *Registry) any

// ── Registry ──────────────────────────────────────────────────────────────────

// Registry is an identity-keyed service registry. It resolves declared
// producers (Injectables) into cached singleton instances, or constructs
// transient ones on demand.
//
// A Registry is an explicit dependency-injection root: create one at the
// application's composition point and pass it to whoever needs to resolve
// services. There is no package-level instance.
//
// It supports:
//   - Register (eager) / Bind (lazy) / Instance / Unregister
//   - Resolve / Fresh (generic helpers Resolve[T], Fresh[T], App[T])
//   - Tags (group multiple tokens under one tag)
//   - Extend (decorate resolved instances)
//   - Contextual binding (when A is being built, give it B's substitute)
//   - Rebound, after-resolve, and missing-token callbacks
type Registry struct {
	mu sync.RWMutex

	// token id → bound provider
	providers map[uint64]Token

	// token id → the token itself (introspection, hook payloads)
	tokens map[uint64]Token

	// token id → cached singleton instance
	instances map[uint64]any

	// token id → extender funcs
	extenders map[uint64][]Extender

	// tag → tokens
	tags map[string][]Token

	// contextual: when[consumer][dependency] = substitute provider
	contextual map[uint64]map[uint64]Token

	// rebound callbacks: token id → []func(any)
	reboundCallbacks map[uint64][]func(any)

	// resolved callbacks: []func(token, instance)
	afterResolving []func(Token, any)

	// missing-token interceptors, consulted before auto-registration
	missing []func(Token) bool

	// stack of token ids currently being constructed (contextual lookup)
	buildStack []uint64
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		providers:        make(map[uint64]Token),
		tokens:           make(map[uint64]Token),
		instances:        make(map[uint64]any),
		extenders:        make(map[uint64][]Extender),
		tags:             make(map[string][]Token),
		contextual:       make(map[uint64]map[uint64]Token),
		reboundCallbacks: make(map[uint64][]func(any)),
	}
}

// ── Registration ──────────────────────────────────────────────────────────────

// Register binds provider as tok's provider and eagerly serves it once,
// committing the result as tok's cached instance. A nil provider binds the
// token to itself.
//
// Re-registering is a silent replace of both provider and instance. If the
// provider panics during construction, the panic propagates and nothing is
// committed.
//
//	r.Register(Counter, nil)                      // Counter constructs itself
//	r.Register(Clock, registry.Factory(fakeClock)) // substitute producer
func (r *Registry) Register(tok Token, provider Token) {
	if provider == nil {
		provider = tok
	}

	// Construct before committing any state.
	instance := r.serve(tok, provider)

	r.mu.Lock()
	wasBound := r.providers[tok.ID()] != nil
	r.providers[tok.ID()] = provider
	r.tokens[tok.ID()] = tok
	r.instances[tok.ID()] = instance
	r.mu.Unlock()

	if wasBound {
		r.fireRebound(tok, instance)
	}
}

// Bind binds provider as tok's provider without constructing anything.
// The first non-fresh Resolve constructs and caches the instance.
//
// Any previously cached instance is dropped so it is rebuilt with the new
// provider. Rebinding over a cached instance rebuilds it immediately when
// Rebinding callbacks are registered for the token; otherwise the rebuild
// waits for the next Resolve.
func (r *Registry) Bind(tok Token, provider Token) {
	if provider == nil {
		provider = tok
	}

	r.mu.Lock()
	_, hadInstance := r.instances[tok.ID()]
	delete(r.instances, tok.ID())
	r.providers[tok.ID()] = provider
	r.tokens[tok.ID()] = tok
	hasCallbacks := len(r.reboundCallbacks[tok.ID()]) > 0
	r.mu.Unlock()

	if hadInstance && hasCallbacks {
		r.fireRebound(tok, r.resolve(tok, false))
	}
}

// Instance registers a pre-built value as tok's cached instance. A value
// provider is bound alongside it, so a cached instance never exists without
// a provider.
func (r *Registry) Instance(tok Token, value any) {
	r.mu.Lock()
	_, wasBound := r.providers[tok.ID()]
	r.providers[tok.ID()] = newValueToken(tok.Name(), value)
	r.tokens[tok.ID()] = tok
	r.instances[tok.ID()] = value
	r.mu.Unlock()

	if wasBound {
		r.fireRebound(tok, value)
	}
}

// Unregister removes tok's cached instance. When dropProvider is true the
// provider binding is removed as well, so the next Resolve falls back to
// auto-registering the token against itself. When false, the next Resolve
// re-invokes the existing provider and re-populates the cache.
func (r *Registry) Unregister(tok Token, dropProvider bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.instances, tok.ID())
	if dropProvider {
		delete(r.providers, tok.ID())
		delete(r.tokens, tok.ID())
	}
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Resolve returns tok's singleton instance, constructing and caching it on
// first use. An unbound token is auto-registered against itself first.
// Repeated calls return the identical instance until Unregister.
func (r *Registry) Resolve(tok Token) any {
	return r.resolve(tok, false)
}

// Fresh constructs and returns a brand-new instance from tok's bound
// provider. The singleton cache is neither read nor written.
func (r *Registry) Fresh(tok Token) any {
	return r.resolve(tok, true)
}

func (r *Registry) resolve(tok Token, fresh bool) any {
	// Contextual binding takes priority: when the token at the top of the
	// build stack declared a substitute for tok, serve that instead. Never
	// touches the singleton cache.
	if sub := r.contextualFor(tok); sub != nil {
		return r.serve(tok, sub)
	}

	r.mu.RLock()
	provider, bound := r.providers[tok.ID()]
	r.mu.RUnlock()

	if !bound {
		// Give missing-token interceptors (deferred providers) a chance to
		// bind tok before falling back to self-registration.
		for _, intercept := range r.missingHooks() {
			if intercept(tok) {
				break
			}
		}

		r.mu.RLock()
		provider, bound = r.providers[tok.ID()]
		r.mu.RUnlock()

		if !bound {
			r.Register(tok, nil)
			if fresh {
				return r.serveBound(tok)
			}
			r.mu.RLock()
			instance := r.instances[tok.ID()]
			r.mu.RUnlock()
			return instance
		}
	}

	if fresh {
		return r.serve(tok, provider)
	}

	r.mu.RLock()
	instance, cached := r.instances[tok.ID()]
	r.mu.RUnlock()
	if cached {
		return instance
	}

	// Lazy path: construct once, then cache. A panicking provider caches
	// nothing, so the next call retries from scratch.
	instance = r.serve(tok, provider)

	r.mu.Lock()
	r.instances[tok.ID()] = instance
	r.mu.Unlock()

	return instance
}

// serveBound serves tok's currently bound provider.
func (r *Registry) serveBound(tok Token) any {
	r.mu.RLock()
	provider := r.providers[tok.ID()]
	r.mu.RUnlock()
	return r.serve(tok, provider)
}

// serve is the single point where construction happens: both Register's eager
// call and Resolve's lazy call go through it, so construction semantics are
// identical. The provider's Kind decides nothing here beyond diagnostics —
// class constructors and factories are both nullary calls.
func (r *Registry) serve(tok Token, provider Token) any {
	r.pushBuild(tok)
	defer r.popBuild()

	instance := provider.construct()

	if exts := r.extendersFor(tok); len(exts) > 0 {
		for _, ext := range exts {
			instance = ext(instance, r)
		}
	}

	r.fireAfterResolving(tok, instance)
	return instance
}

func (r *Registry) pushBuild(tok Token) {
	r.mu.Lock()
	r.buildStack = append(r.buildStack, tok.ID())
	r.mu.Unlock()
}

func (r *Registry) popBuild() {
	r.mu.Lock()
	r.buildStack = r.buildStack[:len(r.buildStack)-1]
	r.mu.Unlock()
}

// ── Introspection ─────────────────────────────────────────────────────────────

// Bound reports whether tok has a provider binding.
func (r *Registry) Bound(tok Token) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[tok.ID()]
	return ok
}

// Cached reports whether tok currently has a cached singleton instance.
func (r *Registry) Cached(tok Token) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.instances[tok.ID()]
	return ok
}

// Tokens returns all tokens with a provider binding.
func (r *Registry) Tokens() []Token {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Token, 0, len(r.tokens))
	for _, tok := range r.tokens {
		out = append(out, tok)
	}
	return out
}

// Flush resets the entire registry.
func (r *Registry) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = make(map[uint64]Token)
	r.tokens = make(map[uint64]Token)
	r.instances = make(map[uint64]any)
	r.extenders = make(map[uint64][]Extender)
	r.tags = make(map[string][]Token)
	r.contextual = make(map[uint64]map[uint64]Token)
}

// ── Extend ────────────────────────────────────────────────────────────────────

// Extend decorates instances of tok as they are served. If tok already has a
// cached singleton, it is re-extended in place and rebound callbacks fire.
//
//	r.Extend(Logger, func(instance any, r *registry.Registry) any {
//	    return instance.(zerolog.Logger).With().Str("app", "demo").Logger()
//	})
func (r *Registry) Extend(tok Token, fn Extender) {
	r.mu.Lock()
	r.extenders[tok.ID()] = append(r.extenders[tok.ID()], fn)
	instance, cached := r.instances[tok.ID()]
	r.mu.Unlock()

	if cached {
		extended := fn(instance, r)
		r.mu.Lock()
		r.instances[tok.ID()] = extended
		r.mu.Unlock()
		r.fireRebound(tok, extended)
	}
}

func (r *Registry) extendersFor(tok Token) []Extender {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.extenders[tok.ID()]
}

// ── Tags ──────────────────────────────────────────────────────────────────────

// Tag groups tokens under a named tag.
func (r *Registry) Tag(tag string, toks ...Token) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags[tag] = append(r.tags[tag], toks...)
}

// Tagged resolves every token registered under tag.
func (r *Registry) Tagged(tag string) []any {
	r.mu.RLock()
	toks := r.tags[tag]
	r.mu.RUnlock()

	out := make([]any, 0, len(toks))
	for _, tok := range toks {
		out = append(out, r.resolve(tok, false))
	}
	return out
}

// ── Callbacks ─────────────────────────────────────────────────────────────────

// Rebinding registers a callback fired whenever tok's binding is replaced
// (Register, Bind, or Instance over an existing binding).
func (r *Registry) Rebinding(tok Token, cb func(any)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reboundCallbacks[tok.ID()] = append(r.reboundCallbacks[tok.ID()], cb)
}

// AfterResolving registers a callback fired after every construction.
func (r *Registry) AfterResolving(cb func(tok Token, instance any)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.afterResolving = append(r.afterResolving, cb)
}

// OnMissing registers an interceptor consulted when an unbound token is
// resolved, before the registry falls back to self-registration. Return true
// to stop further interceptors. Deferred service providers use this to load
// on first use.
func (r *Registry) OnMissing(cb func(tok Token) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.missing = append(r.missing, cb)
}

func (r *Registry) missingHooks() []func(Token) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.missing
}

func (r *Registry) fireRebound(tok Token, instance any) {
	r.mu.RLock()
	cbs := r.reboundCallbacks[tok.ID()]
	r.mu.RUnlock()
	for _, cb := range cbs {
		cb(instance)
	}
}

func (r *Registry) fireAfterResolving(tok Token, instance any) {
	r.mu.RLock()
	cbs := r.afterResolving
	r.mu.RUnlock()
	for _, cb := range cbs {
		cb(tok, instance)
	}
}

// ── Generics helpers ──────────────────────────────────────────────────────────

// Resolve is the typed form of Registry.Resolve.
//
//	cfg := registry.Resolve[*config.Config](r, providers.Config)
func Resolve[T any](r *Registry, tok *Injectable[T]) T {
	return assertInstance[T](tok, r.Resolve(tok))
}

// Fresh is the typed form of Registry.Fresh: a brand-new instance per call.
func Fresh[T any](r *Registry, tok *Injectable[T]) T {
	return assertInstance[T](tok, r.Fresh(tok))
}

// App resolves tok from r. It is a pure pass-through to Resolve — or to
// Fresh when fresh is given as true — kept short for call sites that spell
// it constantly.
//
//	counter := registry.App(r, Counter)
//	scratch := registry.App(r, Store, true)
func App[T any](r *Registry, tok *Injectable[T], fresh ...bool) T {
	if len(fresh) > 0 && fresh[0] {
		return Fresh(r, tok)
	}
	return Resolve(r, tok)
}

func assertInstance[T any](tok Token, instance any) T {
	typed, ok := instance.(T)
	if !ok {
		panic(fmt.Sprintf("registry: [%s] resolved to %T, want %T", tok.Name(), instance, *new(T)))
	}
	return typed
}
