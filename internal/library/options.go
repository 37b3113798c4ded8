// internal/library/options.go
package library

import (
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	DefaultRetention          = 30 * 24 * time.Hour
	DefaultCompactionInterval = time.Hour
)

type options struct {
	now        func() time.Time
	logger     *slog.Logger
	retention  time.Duration
	interval   time.Duration
	registerer *prometheus.Registry
}

// Option configures a Library.
type Option func(*options)

// WithClock sets the source of the current instant.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRetention sets how long history events are kept by compaction.
func WithRetention(d time.Duration) Option {
	return func(o *options) { o.retention = d }
}

// WithCompactionInterval sets the minimum time between compactions.
func WithCompactionInterval(d time.Duration) Option {
	return func(o *options) { o.interval = d }
}

// WithRegisterer sets the Prometheus registry metrics are registered on.
func WithRegisterer(reg *prometheus.Registry) Option {
	return func(o *options) { o.registerer = reg }
}

func defaultOptions() options {
	return options{
		now:       time.Now,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		retention: DefaultRetention,
		interval:  DefaultCompactionInterval,
	}
}
