package registry

// ContextualBuilder implements the fluent contextual binding API.
//
// While consumer's producer is running, resolutions of the needed token are
// served from the substitute provider instead of the regular binding:
//
//	r.When(ReportJob).Needs(Store).Give(registry.Factory(newScratchStore))
type ContextualBuilder struct {
	registry *Registry
	consumer Token
	needs    Token
}

// When starts a contextual binding chain for the given consumer token.
func (r *Registry) When(consumer Token) *ContextualBuilder {
	return &ContextualBuilder{registry: r, consumer: consumer}
}

// Needs specifies which token the consumer depends on.
func (b *ContextualBuilder) Needs(tok Token) *ContextualBuilder {
	b.needs = tok
	return b
}

// Give provides the substitute producer served while the consumer is being
// built. Contextual resolutions are always served fresh — the singleton cache
// is neither read nor written.
func (b *ContextualBuilder) Give(provider Token) {
	r := b.registry
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.contextual[b.consumer.ID()]; !ok {
		r.contextual[b.consumer.ID()] = make(map[uint64]Token)
	}
	r.contextual[b.consumer.ID()][b.needs.ID()] = provider
}

// GiveValue is a shorthand for Give with a pre-built value.
//
//	r.When(Mailer).Needs(Transport).GiveValue(stubTransport{})
func (b *ContextualBuilder) GiveValue(value any) {
	b.Give(newValueToken(b.needs.Name(), value))
}

// contextualFor returns the substitute provider for dep, if the token at the
// top of the build stack declared one.
func (r *Registry) contextualFor(dep Token) Token {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.buildStack) == 0 {
		return nil
	}
	consumer := r.buildStack[len(r.buildStack)-1]
	if m, ok := r.contextual[consumer]; ok {
		return m[dep.ID()]
	}
	return nil
}
