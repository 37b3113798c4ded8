package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

func newTestCollector(t *testing.T, interval time.Duration) *Collector {
	t.Helper()
	c, err := NewCollector(start, interval, prometheus.NewRegistry())
	require.NoError(t, err)
	return c
}

func TestSnapshotThroughput(t *testing.T) {
	c := newTestCollector(t, time.Hour)
	ctx := context.Background()
	for range 10 {
		c.RecordOperation(ctx, "borrow")
	}

	snap := c.Snapshot(start.Add(4 * time.Second))
	assert.Equal(t, uint64(10), snap.Operations)
	assert.Equal(t, int64(4000), snap.UptimeMs)
	assert.InDelta(t, 2.5, snap.OperationsPerSecond, 1e-9)
	assert.Equal(t, 10.0, testutil.ToFloat64(c.opsTotal.WithLabelValues("borrow")))
}

func TestSnapshotZeroUptime(t *testing.T) {
	c := newTestCollector(t, time.Hour)
	c.RecordOperation(context.Background(), "add")

	snap := c.Snapshot(start)
	assert.Zero(t, snap.UptimeMs)
	assert.Zero(t, snap.OperationsPerSecond)
}

func TestMaybeCompactRespectsInterval(t *testing.T) {
	c := newTestCollector(t, time.Hour)
	calls := 0
	compact := func(time.Time) int { calls++; return 3 }

	assert.False(t, c.MaybeCompact(start.Add(time.Hour), compact), "exactly one interval is not enough")
	assert.True(t, c.MaybeCompact(start.Add(time.Hour+time.Second), compact))
	assert.False(t, c.MaybeCompact(start.Add(90*time.Minute), compact))
	assert.Equal(t, 1, calls)

	snap := c.Snapshot(start.Add(2 * time.Hour))
	assert.Equal(t, start.Add(time.Hour+time.Second), snap.LastCompaction)
	assert.Equal(t, uint64(1), snap.Compactions)
	assert.Equal(t, 3.0, testutil.ToFloat64(c.eventsCompacted))
}

func TestMaybeCompactUpdatesTimestampWhenNothingDropped(t *testing.T) {
	c := newTestCollector(t, time.Minute)
	ran := c.MaybeCompact(start.Add(time.Hour), func(time.Time) int { return 0 })

	assert.True(t, ran)
	assert.Equal(t, start.Add(time.Hour), c.Snapshot(start.Add(time.Hour)).LastCompaction)
}

func TestRegistryRejectsDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector(start, time.Hour, reg)
	require.NoError(t, err)
	_, err = NewCollector(start, time.Hour, reg)
	assert.Error(t, err)
}

func TestCompactIgnoresInterval(t *testing.T) {
	c := newTestCollector(t, time.Hour)

	dropped := c.Compact(start.Add(time.Minute), func(time.Time) int { return 2 })
	assert.Equal(t, 2, dropped)
	assert.False(t, c.MaybeCompact(start.Add(time.Hour), func(time.Time) int { return 0 }),
		"a forced run restarts the interval")

	snap := c.Snapshot(start.Add(time.Hour))
	assert.Equal(t, uint64(1), snap.Compactions)
	assert.Equal(t, start.Add(time.Minute), snap.LastCompaction)
}
