// Package app provides the application kernel: the composition root that
// owns the service registry, provider registry, and memoizer.
package app

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/wearereasonablepeople/container/config"
	"github.com/wearereasonablepeople/container/memo"
	"github.com/wearereasonablepeople/container/providers"
	"github.com/wearereasonablepeople/container/registry"
	"github.com/wearereasonablepeople/container/routing"
)

// Application is the top-level composition root. It embeds the service
// registry so callers can Bind(), Register(), and Resolve() on it directly,
// and owns the provider registry and the memoizer.
type Application struct {
	*registry.Registry
	Providers *registry.ProviderRegistry
	Memo      *memo.Memoizer
}

// New creates and bootstraps the application: a fresh registry, the core
// service providers (config, logging, routing), and a memoizer.
func New(envFiles ...string) *Application {
	r := registry.New()
	pr := registry.NewProviderRegistry(r)

	app := &Application{
		Registry:  r,
		Providers: pr,
		Memo:      memo.New(),
	}

	pr.Register(&providers.ConfigServiceProvider{EnvFiles: envFiles})
	pr.Register(&providers.LogServiceProvider{})
	pr.Register(&providers.RoutingServiceProvider{})

	return app
}

// RegisterProvider adds a ServiceProvider to the application. Named so the
// embedded Registry.Register(tok, provider) stays callable on the
// Application itself.
func (a *Application) RegisterProvider(provider registry.ServiceProvider) {
	a.Providers.Register(provider)
}

// Boot runs the Boot() phase on all providers.
func (a *Application) Boot() {
	a.Providers.Boot()
}

// Config resolves the application configuration.
func (a *Application) Config() *config.Config {
	return registry.Resolve(a.Registry, providers.Config)
}

// Logger resolves the root logger.
func (a *Application) Logger() zerolog.Logger {
	return registry.Resolve(a.Registry, providers.Logger)
}

// Router resolves the HTTP router.
func (a *Application) Router() *routing.Router {
	return registry.Resolve(a.Registry, providers.Router)
}

// Run boots the application (if needed) and starts the HTTP server.
func (a *Application) Run() {
	if !a.Providers.Booted() {
		a.Boot()
	}
	cfg := a.Config()
	log := a.Logger()

	addr := ":" + cfg.App.Port
	log.Info().
		Str("addr", addr).
		Str("env", cfg.App.Env).
		Msg("server starting")

	if err := http.ListenAndServe(addr, a.Router()); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

// Environment returns the APP_ENV value.
func (a *Application) Environment() string { return a.Config().App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.Config().App.Debug }
