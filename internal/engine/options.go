package engine

import (
	"log/slog"

	"github.com/tjfontaine/drydock/internal/artifact"
)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithBuilder sets the artifact builder.
func WithBuilder(b artifact.Builder) Option {
	return func(e *Engine) {
		e.builder = b
	}
}

// WithStore sets the run history store. Without one, reports are not
// persisted.
func WithStore(s Store) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithRunner registers a stage runner. Runners of the same kind execute in
// registration order; static and unit runners additionally run concurrently
// with each other.
func WithRunner(r Runner) Option {
	return func(e *Engine) {
		switch r.Kind() {
		case KindStatic:
			e.static = append(e.static, r)
		case KindUnit:
			e.unit = append(e.unit, r)
		case KindIntegration:
			e.integration = append(e.integration, r)
		case KindSystem:
			e.system = append(e.system, r)
		}
	}
}
