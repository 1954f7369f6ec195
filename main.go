package main

import (
	"net/http"
	"strconv"

	"github.com/wearereasonablepeople/container/app"
	"github.com/wearereasonablepeople/container/httpkit"
	"github.com/wearereasonablepeople/container/memo"
	"github.com/wearereasonablepeople/container/registry"
	"github.com/wearereasonablepeople/container/routing"
)

// ── Demo services ─────────────────────────────────────────────────────────────

// HitCounter counts requests. Declared as a class: each construction is a new
// counter, but singleton resolution shares one instance across handlers.
type HitCounter struct {
	Hits int
}

func (c *HitCounter) Up() int {
	c.Hits++
	return c.Hits
}

var Counter = registry.Class(func() *HitCounter { return &HitCounter{} })

// Scratch is a factory producing a fresh mutable buffer. Handlers resolve it
// with fresh=true, so no two requests share state.
var Scratch = registry.Factory(func() []string { return []string{} }).Named("scratch")

func fib(n int) int {
	if n < 2 {
		return n
	}
	return fib(n-1) + fib(n-2)
}

func main() {
	application := app.New() // loads .env automatically
	application.Boot()

	r := application.Router()
	log := application.Logger()

	// Log every construction the registry performs.
	application.AfterResolving(func(tok registry.Token, _ any) {
		log.Debug().
			Str("token", tok.Name()).
			Str("kind", tok.Kind().String()).
			Msg("constructed")
	})

	reg := application.Registry
	fastFib := memo.Memo(application.Memo, fib)

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		res := httpkit.NewResponse(w)
		res.Success(map[string]any{"app": application.Config().App.Name})
	})

	r.Prefix("/demo", func(demo *routing.Router) {

		// Shared singleton: every request bumps the same counter.
		demo.Get("/hits", func(w http.ResponseWriter, req *http.Request) {
			res := httpkit.NewResponse(w)
			counter := registry.App(reg, Counter)
			res.Success(map[string]any{"hits": counter.Up()})
		})

		// Transient: every request gets its own scratch buffer.
		demo.Get("/scratch", func(w http.ResponseWriter, req *http.Request) {
			res := httpkit.NewResponse(w)
			scratch := registry.App(reg, Scratch, true)
			scratch = append(scratch, req.RemoteAddr)
			res.Success(map[string]any{"entries": len(scratch)})
		})

		// Memoized: fib(n) computed once per n for the process lifetime.
		demo.Get("/fib/{n}", func(w http.ResponseWriter, req *http.Request) {
			res := httpkit.NewResponse(w)
			n, err := strconv.Atoi(routing.Param(req, "n"))
			if err != nil || n < 0 || n > 90 {
				res.Error(http.StatusBadRequest, "n must be in [0,90]")
				return
			}
			res.Success(map[string]any{"n": n, "fib": fastFib(n)})
		})

		// Reset the counter but keep its provider: the next /hits request
		// starts a new shared instance.
		demo.Delete("/hits", func(w http.ResponseWriter, req *http.Request) {
			reg.Unregister(Counter, false)
			httpkit.NewResponse(w).NoContent()
		})
	})

	application.Run()
}
