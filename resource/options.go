package resource

import (
	"github.com/jonwraymond/resourcecache/observe"
	"github.com/jonwraymond/resourcecache/resilience"
)

// Option configures a resource.
type Option func(*options)

type options struct {
	middleware *observe.Middleware
	policy     *resilience.Executor
	logger     observe.Logger
	keyer      Keyer
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.keyer == nil {
		o.keyer = NewDefaultKeyer()
	}
	if o.logger == nil {
		if o.middleware != nil {
			o.logger = o.middleware.Logger()
		} else {
			o.logger = observe.NopLogger()
		}
	}
	return o
}

// WithObserver wraps every fetch with the middleware's tracing, metrics and
// logging.
func WithObserver(mw *observe.Middleware) Option {
	return func(o *options) {
		o.middleware = mw
	}
}

// WithLoaderPolicy runs every fetch through p. Resources never retry on
// their own; a policy with retry must be configured explicitly.
func WithLoaderPolicy(p *resilience.Executor) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithLogger sets the logger used for resource events. Defaults to the
// observer's logger, or a no-op logger.
func WithLogger(l observe.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithKeyer overrides the flight name derivation.
func WithKeyer(k Keyer) Option {
	return func(o *options) {
		o.keyer = k
	}
}
