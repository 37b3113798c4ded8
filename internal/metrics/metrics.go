// internal/metrics/metrics.go

// Package metrics tracks operation counts and the history compaction
// schedule. Counters are mirrored to Prometheus and to the
// global OpenTelemetry meter.
package metrics

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	namespace = "library"
	subsystem = "core"
)

// Snapshot is a point-in-time view of the collector.
type Snapshot struct {
	Operations          uint64    `json:"operations"`
	UptimeMs            int64     `json:"uptime_ms"`
	OperationsPerSecond float64   `json:"operations_per_second"`
	StartedAt           time.Time `json:"started_at"`
	LastCompaction      time.Time `json:"last_compaction"`
	Compactions         uint64    `json:"compactions"`
}

// Collector counts operations and gates history compaction.
type Collector struct {
	start    time.Time
	interval time.Duration
	ops      atomic.Uint64

	mu             sync.Mutex
	lastCompaction time.Time
	compactions    uint64

	registry        *prometheus.Registry
	opsTotal        *prometheus.CounterVec
	compactionsTot  prometheus.Counter
	eventsCompacted prometheus.Counter
	otelOps         metric.Int64Counter
}

// NewCollector creates a collector started at start that allows one
// compaction per interval. Metrics are registered on reg; a private registry
// is created when reg is nil.
func NewCollector(start time.Time, interval time.Duration, reg *prometheus.Registry) (*Collector, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	c := &Collector{
		start:          start,
		interval:       interval,
		lastCompaction: start,
		registry:       reg,
		opsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "operations_total",
				Help:      "Total number of recorded library operations by operation",
			},
			[]string{"operation"},
		),
		compactionsTot: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "compactions_total",
			Help:      "Total number of history compaction runs",
		}),
		eventsCompacted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "history_events_compacted_total",
			Help:      "Total number of history events dropped by compaction",
		}),
	}

	for _, col := range []prometheus.Collector{c.opsTotal, c.compactionsTot, c.eventsCompacted} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	ops, err := otel.Meter("github.com/naksh1414/Kata-library-Management-System/internal/metrics").Int64Counter(
		"library.operations",
		metric.WithDescription("Recorded library operations"),
	)
	if err != nil {
		return nil, fmt.Errorf("create otel counter: %w", err)
	}
	c.otelOps = ops

	return c, nil
}

// Registry returns the Prometheus registry the collector reports to.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordOperation counts one operation.
func (c *Collector) RecordOperation(ctx context.Context, op string) {
	c.ops.Add(1)
	c.opsTotal.WithLabelValues(op).Inc()
	c.otelOps.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
}

// Operations returns the operation counter.
func (c *Collector) Operations() uint64 {
	return c.ops.Load()
}

// Snapshot reports counters, uptime and throughput as of now. Throughput is
// zero while uptime is zero.
func (c *Collector) Snapshot(now time.Time) Snapshot {
	ops := c.ops.Load()
	uptime := now.Sub(c.start)

	var perSecond float64
	if secs := uptime.Seconds(); secs > 0 {
		perSecond = float64(ops) / secs
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Operations:          ops,
		UptimeMs:            uptime.Milliseconds(),
		OperationsPerSecond: perSecond,
		StartedAt:           c.start,
		LastCompaction:      c.lastCompaction,
		Compactions:         c.compactions,
	}
}

// MaybeCompact runs compact when more than the configured interval has
// passed since the last run, and records the run even if nothing was
// dropped. compact returns the number of dropped events. It reports whether
// compaction ran.
func (c *Collector) MaybeCompact(now time.Time, compact func(time.Time) int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if now.Sub(c.lastCompaction) <= c.interval {
		return false
	}
	c.compactLocked(now, compact)
	return true
}

// Compact runs compact regardless of the interval and returns the number of
// dropped events.
func (c *Collector) Compact(now time.Time, compact func(time.Time) int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.compactLocked(now, compact)
}

func (c *Collector) compactLocked(now time.Time, compact func(time.Time) int) int {
	dropped := compact(now)
	c.lastCompaction = now
	c.compactions++
	c.compactionsTot.Inc()
	c.eventsCompacted.Add(float64(dropped))
	return dropped
}
