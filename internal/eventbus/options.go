package eventbus

import "github.com/snapdeck/snapdeck/pkg/logger"

// Option applies a configuration option to the Bus.
type Option func(*Bus)

// WithHistorySize bounds the in-memory event history.
func WithHistorySize(size int) Option {
	return func(b *Bus) {
		if size > 0 {
			b.historySize = size
		}
	}
}

// WithLogger sets a custom logger for the bus.
func WithLogger(l logger.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.log = l
		}
	}
}
