package registry

import (
	"reflect"
	"sync/atomic"
)

// ── Producer kinds ────────────────────────────────────────────────────────────

// Kind states how a producer was declared. The kind is supplied explicitly at
// declaration time — there is no runtime detection of callable shape.
type Kind int

const (
	// FactoryKind marks a plain factory function: invoked as-is, returns a value.
	FactoryKind Kind = iota

	// ClassKind marks a constructor: each invocation builds a new object.
	// In Go both kinds are nullary calls; the tag is declarative and surfaces
	// through Token.Kind for introspection and hooks.
	ClassKind
)

// String returns the kind's label.
func (k Kind) String() string {
	if k == ClassKind {
		return "class"
	}
	return "factory"
}

// ── Tokens ────────────────────────────────────────────────────────────────────

// Token identifies a registration. Every *Injectable[T] is a Token.
//
// Identity is reference-based: two Injectables declared from structurally
// identical producers are distinct tokens. Each token carries an opaque id
// assigned at declaration, which the Registry uses as its map key.
type Token interface {
	// ID returns the token's stable opaque handle.
	ID() uint64

	// Kind reports whether the producer was declared as a class constructor
	// or a plain factory.
	Kind() Kind

	// Name returns the token's diagnostic label.
	Name() string

	// construct invokes the producer. Unexported so only registry-declared
	// producers can act as tokens.
	construct() any
}

var lastTokenID atomic.Uint64

// Injectable is a declared nullary producer of T and acts as its own token.
//
// Declare injectables once, at package level, and share the pointer:
//
//	var Store = registry.Factory(func() *Store { return &Store{} })
//	var Counter = registry.Class(NewCounter)
type Injectable[T any] struct {
	id      uint64
	kind    Kind
	name    string
	produce func() T
}

// Factory declares a plain factory producer.
//
//	var Clock = registry.Factory(func() clock.Clock { return clock.System() })
func Factory[T any](fn func() T) *Injectable[T] {
	return newInjectable(FactoryKind, fn)
}

// Class declares a constructor producer — one that builds a new object per
// invocation.
//
//	var Counter = registry.Class(func() *Counter { return &Counter{} })
func Class[T any](ctor func() T) *Injectable[T] {
	return newInjectable(ClassKind, ctor)
}

func newInjectable[T any](kind Kind, produce func() T) *Injectable[T] {
	if produce == nil {
		panic("registry: nil producer")
	}
	return &Injectable[T]{
		id:      lastTokenID.Add(1),
		kind:    kind,
		name:    typeName[T](),
		produce: produce,
	}
}

// Named sets a diagnostic label and returns the injectable for chaining.
//
//	var Router = registry.Factory(routing.New).Named("router")
func (i *Injectable[T]) Named(name string) *Injectable[T] {
	i.name = name
	return i
}

// ID returns the token's opaque handle.
func (i *Injectable[T]) ID() uint64 { return i.id }

// Kind reports how the producer was declared.
func (i *Injectable[T]) Kind() Kind { return i.kind }

// Name returns the diagnostic label. Defaults to T's type name.
func (i *Injectable[T]) Name() string { return i.name }

func (i *Injectable[T]) construct() any { return i.produce() }

// typeName derives the default label from T.
func typeName[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.String()
}

// ── Value tokens ──────────────────────────────────────────────────────────────

// valueToken wraps a pre-built value as a provider, so Instance() keeps the
// providers-superset-of-instances invariant.
type valueToken struct {
	id    uint64
	name  string
	value any
}

func newValueToken(name string, v any) *valueToken {
	return &valueToken{id: lastTokenID.Add(1), name: name, value: v}
}

func (t *valueToken) ID() uint64     { return t.id }
func (t *valueToken) Kind() Kind     { return FactoryKind }
func (t *valueToken) Name() string   { return t.name }
func (t *valueToken) construct() any { return t.value }
