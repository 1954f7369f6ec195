// Package memo caches pure-function results keyed by the serialized argument
// list, per function identity.
//
//	m := memo.New()
//
//	fib := memo.Memo(m, computeFib)
//	fib(40)      // computeFib runs
//	fib(40)      // cached — computeFib is not invoked
//
//	m.Refresh(computeFib) // drop every cached result for computeFib
//	fib(40)               // recomputed
//
// Distinct functions never share a cache, even for identical arguments.
// Memoizing the same function twice shares one cache — the wrapper is cheap,
// the cache is canonical.
//
// The wrapped function must be pure: results are replayed from cache, so side
// effects run only on misses, and arguments must be representable by their
// canonical encoding (or a WithKey override). Both are caller contracts — the
// package does not detect violations.
package memo
