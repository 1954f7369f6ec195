// Package providers declares the core injectables and the service providers
// that bind them. Applications register these into their registry at the
// composition root; the app kernel does so automatically.
package providers

import (
	"github.com/rs/zerolog"

	"github.com/wearereasonablepeople/container/config"
	"github.com/wearereasonablepeople/container/logging"
	"github.com/wearereasonablepeople/container/registry"
	"github.com/wearereasonablepeople/container/routing"
)

// ── Core tokens ───────────────────────────────────────────────────────────────

// Config resolves to the typed application configuration. Its default
// producer loads ".env"; ConfigServiceProvider rebinds it when custom env
// files are requested.
var Config = registry.Factory(func() *config.Config {
	return config.Load()
}).Named("config")

// Logger resolves to the application's root zerolog logger. Bound by
// LogServiceProvider so it can honour the configured level.
var Logger = registry.Factory(func() zerolog.Logger {
	return logging.New("app")
}).Named("logger")

// Router resolves to the HTTP router.
var Router = registry.Factory(routing.New).Named("router")

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider binds the Config token, optionally against explicit
// env files.
type ConfigServiceProvider struct {
	registry.BaseProvider
	EnvFiles []string
}

func (p *ConfigServiceProvider) Register(r *registry.Registry) {
	if len(p.EnvFiles) == 0 {
		r.Bind(Config, nil)
		return
	}
	envFiles := p.EnvFiles
	r.Bind(Config, registry.Factory(func() *config.Config {
		return config.Load(envFiles...)
	}))
}

// ── LogServiceProvider ────────────────────────────────────────────────────────

// LogServiceProvider configures zerolog from the resolved Config and binds
// the Logger token.
type LogServiceProvider struct {
	registry.BaseProvider
}

func (p *LogServiceProvider) Register(r *registry.Registry) {
	r.Bind(Logger, registry.Factory(func() zerolog.Logger {
		cfg := registry.Resolve(r, Config)
		logging.Setup(cfg.Log.Level, cfg.App.Debug)
		return logging.New(cfg.App.Name)
	}))
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider binds the Router token.
type RoutingServiceProvider struct {
	registry.BaseProvider
}

func (p *RoutingServiceProvider) Register(r *registry.Registry) {
	r.Bind(Router, nil)
}
