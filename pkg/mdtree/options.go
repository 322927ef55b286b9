package mdtree

import (
	"log/slog"

	"github.com/starford/mdtree/internal/engine"
)

// Option configures a tree created by Parse or New.
type Option func(*options)

type options struct {
	engine Engine
	logger *slog.Logger
}

// WithEngine builds the tree on e instead of the process-wide engine.
func WithEngine(e Engine) Option {
	return func(o *options) {
		if e != nil {
			o.engine = e
		}
	}
}

// WithLogger sets the logger for teardown and iteration diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{engine: engine.Default, logger: slog.Default()}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
