package pipeline

import "go.uber.org/zap"

type config struct {
	log  *zap.SugaredLogger
	sink Sink
}

// Option configures a Pipeline.
type Option func(*config)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}

// WithSink receives processed blocks.
func WithSink(s Sink) Option {
	return func(c *config) { c.sink = s }
}
