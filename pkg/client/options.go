package client

import (
	"time"

	"github.com/kvwire/kvwire/pkg/common"
)

const (
	// DefaultInlineThreshold is the encoded size under which all-text
	// commands may take the inline form.
	DefaultInlineThreshold = 1000
	// DefaultReadBufferSize is the size of the buffers handed to each
	// transport read. Tuning only; no behavioral effect.
	DefaultReadBufferSize = 8 * common.KB
	DefaultDialTimeout    = 3 * time.Second
)

type Options struct {
	InlineThreshold int
	ReadBufferSize  int
	DialTimeout     time.Duration
	StatsEnabled    bool
}

type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		InlineThreshold: DefaultInlineThreshold,
		ReadBufferSize:  DefaultReadBufferSize,
		DialTimeout:     DefaultDialTimeout,
	}
}

// WithInlineThreshold caps the encoded size of commands the catalog
// submits with the inline hint. Zero disables inline encoding.
func WithInlineThreshold(n int) Option {
	return func(o *Options) {
		o.InlineThreshold = n
	}
}

func WithReadBufferSize(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.ReadBufferSize = n
		}
	}
}

func WithDialTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.DialTimeout = d
	}
}

// WithStats enables per-command counters and latency samples.
func WithStats() Option {
	return func(o *Options) {
		o.StatsEnabled = true
	}
}
