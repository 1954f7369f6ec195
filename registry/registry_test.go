package registry_test

import (
	"testing"

	"github.com/wearereasonablepeople/container/registry"
)

// ── test fixtures ─────────────────────────────────────────────────────────────

type counter struct {
	count int
}

func (c *counter) up() int {
	c.count++
	return c.count
}

func newCounterToken() *registry.Injectable[*counter] {
	return registry.Class(func() *counter { return &counter{} })
}

// storeToken produces a fresh mutable slice per construction.
func newStoreToken() *registry.Injectable[[]string] {
	return registry.Factory(func() []string { return []string{} }).Named("store")
}

// ── Singleton resolution ──────────────────────────────────────────────────────

func TestResolve_SingletonIdentityAcrossCalls(t *testing.T) {
	r := registry.New()
	tok := newCounterToken()

	first := registry.Resolve(r, tok)
	second := registry.Resolve(r, tok)

	if first != second {
		t.Error("non-fresh resolutions should return the identical instance")
	}
}

func TestResolve_AutoRegistersUnboundToken(t *testing.T) {
	r := registry.New()
	tok := newCounterToken()

	if r.Bound(tok) {
		t.Fatal("token should start unbound")
	}

	got := registry.Resolve(r, tok)

	if got == nil {
		t.Fatal("Resolve should always produce a value")
	}
	if !r.Bound(tok) {
		t.Error("Resolve should auto-register an unbound token")
	}
	if !r.Cached(tok) {
		t.Error("Resolve should cache the constructed instance")
	}
}

func TestResolve_ProviderInvokedOnlyOnce(t *testing.T) {
	r := registry.New()
	calls := 0
	tok := registry.Factory(func() int {
		calls++
		return calls
	})

	registry.Resolve(r, tok)
	registry.Resolve(r, tok)
	registry.Resolve(r, tok)

	if calls != 1 {
		t.Errorf("provider calls: got %d, want 1", calls)
	}
}

// ── Transient resolution ──────────────────────────────────────────────────────

func TestFresh_NeverSharesIdentity(t *testing.T) {
	r := registry.New()
	tok := newCounterToken()

	a := registry.Fresh(r, tok)
	b := registry.Fresh(r, tok)

	if a == b {
		t.Error("fresh resolutions should never share identity")
	}
}

func TestFresh_DoesNotPopulateCache(t *testing.T) {
	r := registry.New()
	tok := newCounterToken()
	r.Bind(tok, nil)

	registry.Fresh(r, tok)

	if r.Cached(tok) {
		t.Error("fresh resolution should not write the singleton cache")
	}
}

func TestFresh_DoesNotReadCache(t *testing.T) {
	r := registry.New()
	tok := newCounterToken()

	cached := registry.Resolve(r, tok)
	fresh := registry.Fresh(r, tok)

	if cached == fresh {
		t.Error("fresh resolution should bypass the cached instance")
	}
	if got := registry.Resolve(r, tok); got != cached {
		t.Error("fresh resolution should leave the cached instance in place")
	}
}

func TestFresh_TwoStoresAreIndependent(t *testing.T) {
	r := registry.New()
	tok := newStoreToken()

	a := registry.Fresh(r, tok)
	b := registry.Fresh(r, tok)

	a = append(a, "x")
	if len(b) != 0 {
		t.Errorf("mutating one fresh store affected the other: len(b) = %d", len(b))
	}
}

// ── Register ──────────────────────────────────────────────────────────────────

func TestRegister_EagerlyConstructsAndCaches(t *testing.T) {
	r := registry.New()
	calls := 0
	tok := registry.Factory(func() int {
		calls++
		return 42
	})

	r.Register(tok, nil)

	if calls != 1 {
		t.Fatalf("Register should serve the provider once, got %d calls", calls)
	}
	if !r.Cached(tok) {
		t.Fatal("Register should cache the constructed instance")
	}
	if got := registry.Resolve(r, tok); got != 42 {
		t.Errorf("Resolve: got %d, want 42", got)
	}
	if calls != 1 {
		t.Errorf("subsequent Resolve should not re-invoke the provider, got %d calls", calls)
	}
}

func TestRegister_WithAlternateProvider(t *testing.T) {
	r := registry.New()
	tok := registry.Factory(func() string { return "default" })
	alt := registry.Factory(func() string { return "substitute" })

	r.Register(tok, alt)

	if got := registry.Resolve(r, tok); got != "substitute" {
		t.Errorf("got %q, want the alternate provider's result", got)
	}
}

func TestRegister_SilentlyReplacesBinding(t *testing.T) {
	r := registry.New()
	tok := registry.Factory(func() string { return "one" })

	r.Register(tok, nil)
	r.Register(tok, registry.Factory(func() string { return "two" }))

	if got := registry.Resolve(r, tok); got != "two" {
		t.Errorf("re-registration should replace the binding, got %q", got)
	}
}

// ── Unregister ────────────────────────────────────────────────────────────────

func TestUnregister_KeepProvider_ReSingletonizes(t *testing.T) {
	r := registry.New()
	calls := 0
	tok := registry.Class(func() *counter {
		calls++
		return &counter{}
	})

	before := registry.Resolve(r, tok)
	r.Unregister(tok, false)

	if r.Cached(tok) {
		t.Fatal("Unregister should always drop the cached instance")
	}
	if !r.Bound(tok) {
		t.Fatal("keep-provider unregister should retain the provider binding")
	}

	callsBefore := calls
	after := registry.Resolve(r, tok)

	if calls != callsBefore+1 {
		t.Errorf("resolve after unregister should re-invoke the provider exactly once, got %d extra calls", calls-callsBefore)
	}
	if before == after {
		t.Error("new cached instance should be distinct from the pre-unregister one")
	}
	if again := registry.Resolve(r, tok); again != after {
		t.Error("instance should be re-singletonized after unregister")
	}
}

func TestUnregister_DropProvider_FallsBackToSelfRegistration(t *testing.T) {
	r := registry.New()
	tok := registry.Factory(func() string { return "self" })
	alt := registry.Factory(func() string { return "alt" })

	r.Register(tok, alt)
	r.Unregister(tok, true)

	if r.Bound(tok) {
		t.Fatal("drop-provider unregister should remove the provider binding")
	}
	if got := registry.Resolve(r, tok); got != "self" {
		t.Errorf("resolve after drop should treat the token as its own provider, got %q", got)
	}
}

func TestUnregister_CycleIsRepeatable(t *testing.T) {
	r := registry.New()
	tok := newCounterToken()

	for i := 0; i < 3; i++ {
		a := registry.Resolve(r, tok)
		if registry.Resolve(r, tok) != a {
			t.Fatalf("cycle %d: singleton identity broken", i)
		}
		r.Unregister(tok, true)
	}
}

// ── Bind / Instance ───────────────────────────────────────────────────────────

func TestBind_IsLazy(t *testing.T) {
	r := registry.New()
	calls := 0
	tok := registry.Factory(func() int {
		calls++
		return calls
	})

	r.Bind(tok, nil)
	if calls != 0 {
		t.Fatal("Bind should not construct")
	}

	registry.Resolve(r, tok)
	registry.Resolve(r, tok)
	if calls != 1 {
		t.Errorf("first Resolve should construct once, got %d calls", calls)
	}
}

func TestBind_ReplacesCachedInstance(t *testing.T) {
	r := registry.New()
	tok := registry.Factory(func() string { return "old" })

	registry.Resolve(r, tok)
	r.Bind(tok, registry.Factory(func() string { return "new" }))

	if got := registry.Resolve(r, tok); got != "new" {
		t.Errorf("rebinding should drop the stale instance, got %q", got)
	}
}

func TestBind_RebindingUnresolvedTokenStaysLazy(t *testing.T) {
	r := registry.New()
	calls := 0
	tok := registry.Factory(func() int {
		calls++
		return calls
	})
	alt := registry.Factory(func() int {
		calls++
		return -calls
	})

	r.Bind(tok, nil)
	r.Bind(tok, alt)

	if calls != 0 {
		t.Fatalf("rebinding a never-resolved token should construct nothing, got %d calls", calls)
	}
	if got := registry.Resolve(r, tok); got != -1 {
		t.Errorf("first Resolve should serve the new provider, got %d", got)
	}
	if calls != 1 {
		t.Errorf("first Resolve should construct once, got %d calls", calls)
	}
}

func TestBind_RebindingCachedInstanceRebuildsForCallbacks(t *testing.T) {
	r := registry.New()
	tok := registry.Factory(func() string { return "old" })

	registry.Resolve(r, tok)

	var rebound []any
	r.Rebinding(tok, func(instance any) { rebound = append(rebound, instance) })

	r.Bind(tok, registry.Factory(func() string { return "new" }))

	if len(rebound) != 1 || rebound[0] != "new" {
		t.Errorf("rebound: got %v, want [new]", rebound)
	}
	if got := registry.Resolve(r, tok); got != "new" {
		t.Errorf("got %q, want %q", got, "new")
	}
}

func TestBind_RebindingCachedInstanceWithoutCallbacksStaysLazy(t *testing.T) {
	r := registry.New()
	calls := 0
	tok := registry.Factory(func() string {
		calls++
		return "old"
	})

	registry.Resolve(r, tok)

	r.Bind(tok, registry.Factory(func() string {
		calls++
		return "new"
	}))

	if calls != 1 {
		t.Fatalf("rebinding without Rebinding callbacks should construct nothing, got %d calls", calls)
	}
	if got := registry.Resolve(r, tok); got != "new" {
		t.Errorf("got %q, want %q", got, "new")
	}
}

func TestInstance_BindsProviderAlongsideValue(t *testing.T) {
	r := registry.New()
	tok := newCounterToken()
	pre := &counter{count: 7}

	r.Instance(tok, pre)

	if !r.Bound(tok) {
		t.Error("a cached instance must never exist without a provider binding")
	}
	if got := registry.Resolve(r, tok); got != pre {
		t.Error("Resolve should return the pre-built instance")
	}

	// Keep-provider unregister re-serves the value provider.
	r.Unregister(tok, false)
	if got := registry.Resolve(r, tok); got != pre {
		t.Error("value provider should re-serve the pre-built instance")
	}
}

// ── Invariants ────────────────────────────────────────────────────────────────

func TestInvariant_CachedImpliesBound(t *testing.T) {
	r := registry.New()
	toks := []registry.Token{newCounterToken(), newStoreToken()}

	r.Register(toks[0], nil)
	r.Resolve(toks[1])
	r.Unregister(toks[0], false)

	for i, tok := range toks {
		if r.Cached(tok) && !r.Bound(tok) {
			t.Errorf("token %d: cached instance without provider binding", i)
		}
	}
}

// ── Failure semantics ─────────────────────────────────────────────────────────

func TestRegister_PanickingProviderCommitsNothing(t *testing.T) {
	r := registry.New()
	tok := registry.Factory(func() string {
		panic("construction failed")
	})

	func() {
		defer func() {
			if recover() == nil {
				t.Error("panic should propagate to the Register caller")
			}
		}()
		r.Register(tok, nil)
	}()

	if r.Bound(tok) {
		t.Error("failed Register should not commit a provider binding")
	}
	if r.Cached(tok) {
		t.Error("failed Register should not commit an instance")
	}
}

func TestResolve_PanickingProviderRetriesNextCall(t *testing.T) {
	r := registry.New()
	calls := 0
	tok := registry.Factory(func() string {
		calls++
		if calls == 1 {
			panic("transient failure")
		}
		return "recovered"
	})

	r.Bind(tok, nil)

	func() {
		defer func() {
			if recover() == nil {
				t.Error("panic should propagate to the Resolve caller")
			}
		}()
		registry.Resolve(r, tok)
	}()

	if r.Cached(tok) {
		t.Fatal("failed construction should leave no instance cached")
	}

	// No poisoned state: the next resolution retries from scratch.
	if got := registry.Resolve(r, tok); got != "recovered" {
		t.Errorf("got %q, want %q", got, "recovered")
	}
}

// ── Token identity ────────────────────────────────────────────────────────────

func TestTokens_StructurallyIdenticalProducersAreDistinct(t *testing.T) {
	r := registry.New()
	a := registry.Factory(func() int { return 1 })
	b := registry.Factory(func() int { return 1 })

	r.Register(a, registry.Factory(func() int { return 10 }))

	if r.Bound(b) {
		t.Error("registering one token should not bind a structurally identical one")
	}
	if got := registry.Resolve(r, b); got != 1 {
		t.Errorf("token b should self-register, got %d", got)
	}
}

// ── App entry point ───────────────────────────────────────────────────────────

func TestApp_IsPassThroughToResolve(t *testing.T) {
	r := registry.New()
	tok := newCounterToken()

	if registry.App(r, tok) != registry.Resolve(r, tok) {
		t.Error("App should return the same singleton as Resolve")
	}
}

func TestApp_FreshFlag(t *testing.T) {
	r := registry.New()
	tok := newCounterToken()

	cached := registry.App(r, tok)
	fresh := registry.App(r, tok, true)

	if cached == fresh {
		t.Error("App with fresh=true should construct a new instance")
	}
}

// ── Scenario: shared counter ──────────────────────────────────────────────────

func TestScenario_SharedCounterReflectsAllIncrements(t *testing.T) {
	r := registry.New()
	tok := newCounterToken()

	r.Register(tok, nil)
	registry.App(r, tok).up()
	registry.App(r, tok).up()

	if got := registry.App(r, tok).count; got != 2 {
		t.Errorf("count: got %d, want 2 (single shared instance)", got)
	}
}

// ── Flush / introspection ─────────────────────────────────────────────────────

func TestFlush_ResetsEverything(t *testing.T) {
	r := registry.New()
	tok := newCounterToken()
	registry.Resolve(r, tok)

	r.Flush()

	if r.Bound(tok) || r.Cached(tok) {
		t.Error("Flush should drop all bindings and instances")
	}
	if len(r.Tokens()) != 0 {
		t.Error("Flush should clear the token table")
	}
}

func TestTokens_ListsBoundTokens(t *testing.T) {
	r := registry.New()
	a := newCounterToken().Named("a")
	b := newStoreToken().Named("b")

	r.Register(a, nil)
	r.Bind(b, nil)

	if got := len(r.Tokens()); got != 2 {
		t.Errorf("Tokens(): got %d, want 2", got)
	}
}
