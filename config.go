package emitter

import (
	"github.com/rs/zerolog"
)

// Config holds configuration for a Bus.
type Config struct {
	// Logger receives bus diagnostics. Default: a disabled logger.
	Logger *zerolog.Logger

	// ErrorSink receives a *SubscriberError whenever a handler returns
	// an error or panics during an emit. Default: log through Logger at
	// warn level.
	ErrorSink func(error)

	// Metrics, when set, records emits, failures and the number of
	// active subscriptions.
	Metrics *Metrics
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	nop := zerolog.Nop()
	return &Config{
		Logger: &nop,
	}
}

// New creates an empty Bus. A nil config, or nil config fields, fall
// back to defaults.
func New(config *Config) *Bus {
	if config == nil {
		config = DefaultConfig()
	}
	logger := config.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	sink := config.ErrorSink
	if sink == nil {
		sink = func(err error) {
			logger.Warn().Err(err).Msg("subscriber failed")
		}
	}

	return &Bus{
		registry: make(map[string][]*Subscription),
		logger:   logger,
		sink:     sink,
		metrics:  config.Metrics,
	}
}
