package services

import "github.com/rs/zerolog"

// Option configures the optional collaborators of a service.
type Option func(*notifier)

// WithPublisher publishes domain events to exchange through p.
func WithPublisher(p EventPublisher, exchange string) Option {
	return func(n *notifier) {
		n.publisher = p
		n.exchange = exchange
	}
}

// WithCache enables read-through caching of documents.
func WithCache(c Cache) Option {
	return func(n *notifier) {
		n.cache = c
	}
}

// WithLogger sets the logger; the default discards output.
func WithLogger(log zerolog.Logger) Option {
	return func(n *notifier) {
		n.log = log
	}
}

func newNotifier(component string, opts []Option) notifier {
	n := notifier{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&n)
	}
	n.log = n.log.With().Str("component", component).Logger()
	return n
}
