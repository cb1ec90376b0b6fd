package unwind

import (
	"errors"
	"time"

	"github.com/go-kit/log"

	"github.com/arloliu/ftdcunwind/chunk"
	"github.com/arloliu/ftdcunwind/internal/options"
)

// Config holds the settings shared by unwinders and sources.
type Config struct {
	logger    log.Logger
	metrics   *Metrics
	decoder   chunk.Decoder
	maxWindow time.Duration
}

// Option configures an Unwinder or a source.
type Option = options.Option[*Config]

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger log.Logger) Option {
	return options.NoError(func(c *Config) {
		c.logger = logger
	})
}

// WithMetrics sets the counters to report to.
func WithMetrics(m *Metrics) Option {
	return options.NoError(func(c *Config) {
		c.metrics = m
	})
}

// WithDecoder replaces the default chunk decoder.
func WithDecoder(d chunk.Decoder) Option {
	return options.New(func(c *Config) error {
		if d == nil {
			return errors.New("decoder must not be nil")
		}
		c.decoder = d

		return nil
	})
}

// WithMaxWindow sets the longest accepted time window.
func WithMaxWindow(d time.Duration) Option {
	return options.New(func(c *Config) error {
		if d <= 0 {
			return errors.New("max window must be positive")
		}
		c.maxWindow = d

		return nil
	})
}

func newConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		logger:    log.NewNopLogger(),
		decoder:   chunk.NewDecoder(),
		maxWindow: DefaultMaxWindow,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.metrics == nil {
		cfg.metrics = NewMetrics(nil)
	}

	return cfg, nil
}
