// internal/library/compactor.go
package library

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Compactor periodically compacts a library's history in the background,
// independent of request traffic.
type Compactor struct {
	lib      *Library
	interval time.Duration
	logger   *slog.Logger

	started atomic.Bool
	once    sync.Once
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewCompactor creates a compactor. It does nothing until Start is called.
func NewCompactor(lib *Library, interval time.Duration, logger *slog.Logger) (*Compactor, error) {
	if lib == nil {
		return nil, errors.New("library must not be nil")
	}
	if interval <= 0 {
		return nil, errors.New("interval must be positive")
	}
	if logger == nil {
		logger = lib.logger
	}
	return &Compactor{
		lib:      lib,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start launches the compaction loop. Later calls are no-ops.
func (c *Compactor) Start() {
	if c.started.CompareAndSwap(false, true) {
		go c.run()
	}
}

// Stop halts the loop and waits for it to exit. Safe to call more than once.
func (c *Compactor) Stop() {
	c.once.Do(func() { close(c.stopCh) })
	if c.started.Load() {
		<-c.doneCh
	}
}

func (c *Compactor) run() {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			dropped := c.lib.Compact(context.Background())
			c.logger.Debug("scheduled compaction", slog.Int("dropped", dropped))
		}
	}
}
