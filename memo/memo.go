package memo

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	gocache "github.com/patrickmn/go-cache"
)

// keySeparator joins encoded arguments; US control char keeps keys
// order-sensitive ("ab","c" never collides with "a","bc").
const keySeparator = "\x1f"

// Option configures a memoized wrapper.
type Option func(*settings)

type settings struct {
	key func(args []any) string
}

// WithKey supplies the key-derivation function used to index results by
// argument list. The default is a canonical structural encoding of the
// arguments; supply your own when arguments carry state their printed form
// does not represent.
//
//	lookup := memo.Memo(m, fetch, memo.WithKey(func(args []any) string {
//	    return args[0].(*User).ID
//	}))
func WithKey(fn func(args []any) string) Option {
	return func(s *settings) { s.key = fn }
}

// Memoizer owns one result cache per memoized function, keyed by function
// identity. Create one per composition root; there is no package-level
// instance.
type Memoizer struct {
	mu     sync.Mutex
	caches map[uintptr]*gocache.Cache
}

// New creates an empty memoizer.
func New() *Memoizer {
	return &Memoizer{caches: make(map[uintptr]*gocache.Cache)}
}

// Memo returns a wrapper with fn's exact call signature. Each call encodes
// the full argument list into a key; on a miss fn runs and its results are
// stored, on a hit the stored results return without invoking fn.
//
// Memoizing the same fn again — wherever it happens — yields wrappers backed
// by the same underlying cache.
//
// fn must be a pure function of its arguments; that is the caller's contract,
// not something Memo detects. Arguments whose canonical encoding does not
// uniquely represent them need WithKey. Function identity is the code pointer,
// so closures created from the same literal share one cache.
//
//	fib := memo.Memo(m, slowFib)
//	fib(40) // computed
//	fib(40) // cached
func Memo[F any](m *Memoizer, fn F, opts ...Option) F {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		panic(fmt.Sprintf("memo: Memo requires a function, got %T", fn))
	}

	s := &settings{key: Key}
	for _, opt := range opts {
		opt(s)
	}

	cache := m.cacheFor(fv.Pointer())
	ft := fv.Type()

	wrapper := reflect.MakeFunc(ft, func(in []reflect.Value) []reflect.Value {
		args := make([]any, len(in))
		for i, v := range in {
			args[i] = v.Interface()
		}
		key := s.key(args)

		if hit, ok := cache.Get(key); ok {
			return unpack(ft, hit.([]any))
		}

		var out []reflect.Value
		if ft.IsVariadic() {
			out = fv.CallSlice(in)
		} else {
			out = fv.Call(in)
		}

		stored := make([]any, len(out))
		for i, v := range out {
			stored[i] = v.Interface()
		}
		cache.Set(key, stored, gocache.NoExpiration)

		return out
	})

	return wrapper.Interface().(F)
}

// Refresh discards fn's entire cache, forcing every subsequent call of its
// memoized wrappers to recompute. Unknown functions are a no-op.
func (m *Memoizer) Refresh(fn any) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		panic(fmt.Sprintf("memo: Refresh requires a function, got %T", fn))
	}

	m.mu.Lock()
	cache, ok := m.caches[fv.Pointer()]
	m.mu.Unlock()
	if ok {
		cache.Flush()
	}
}

// cacheFor returns fn's cache, creating it on first use. Idempotent: the same
// function pointer always maps to the same cache.
func (m *Memoizer) cacheFor(fn uintptr) *gocache.Cache {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.caches[fn]
	if !ok {
		c = gocache.New(gocache.NoExpiration, 0)
		m.caches[fn] = c
	}
	return c
}

// Key is the default key derivation: a canonical, order-sensitive,
// value-based encoding of the argument list.
func Key(args []any) string {
	var b strings.Builder
	for i, arg := range args {
		if i > 0 {
			b.WriteString(keySeparator)
		}
		fmt.Fprintf(&b, "%#v", arg)
	}
	return b.String()
}

// unpack rebuilds typed results from a cache hit.
func unpack(ft reflect.Type, stored []any) []reflect.Value {
	out := make([]reflect.Value, len(stored))
	for i, v := range stored {
		rv := reflect.New(ft.Out(i)).Elem()
		if v != nil {
			rv.Set(reflect.ValueOf(v))
		}
		out[i] = rv
	}
	return out
}
