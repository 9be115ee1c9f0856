// Package maintenance runs background upkeep of the operation history.
package maintenance

import (
	"context"
	"sync/atomic"
	"time"
)

// Default pruning configuration values
const (
	DefaultPruneInterval = 1 * time.Hour
	DefaultRetention     = 30 * 24 * time.Hour
)

// EventStore is the part of storage.Store the pruner needs.
type EventStore interface {
	DeleteEventsBefore(ctx context.Context, before time.Time) (int, error)
}

// PrunerConfig holds configuration for the event pruner.
type PrunerConfig struct {
	// Interval is how often to prune.
	// Default: 1 hour
	Interval time.Duration

	// Retention is how long events are kept.
	// Default: 30 days
	Retention time.Duration

	// OnPruned is called with the number of events removed, when non-zero.
	OnPruned func(count int)

	// OnError is called when a prune fails.
	OnError func(err error)

	// now returns the current time. Tests replace it.
	now func() time.Time
}

// DefaultPrunerConfig returns the default pruner configuration.
func DefaultPrunerConfig() *PrunerConfig {
	return &PrunerConfig{
		Interval:  DefaultPruneInterval,
		Retention: DefaultRetention,
	}
}

// Pruner periodically deletes operation events older than the retention.
type Pruner struct {
	store  EventStore
	config *PrunerConfig

	started atomic.Bool
	done    chan struct{}
	cancel  context.CancelFunc
}

// NewPruner creates a new pruner. Zero config fields take their defaults.
func NewPruner(store EventStore, config *PrunerConfig) *Pruner {
	if config == nil {
		config = DefaultPrunerConfig()
	}
	if config.Interval <= 0 {
		config.Interval = DefaultPruneInterval
	}
	if config.Retention <= 0 {
		config.Retention = DefaultRetention
	}
	if config.now == nil {
		config.now = time.Now
	}

	return &Pruner{
		store:  store,
		config: config,
	}
}

// Start begins the prune loop in a goroutine and returns immediately.
func (p *Pruner) Start(ctx context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	p.done = make(chan struct{})
	ctx, p.cancel = context.WithCancel(ctx)
	go p.run(ctx)

	return nil
}

// Stop stops the prune loop and waits for it to exit.
func (p *Pruner) Stop(ctx context.Context) error {
	if !p.started.Load() {
		return ErrNotStarted
	}

	p.cancel()
	select {
	case <-p.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	p.started.Store(false)
	return nil
}

// IsRunning reports whether the prune loop is running.
func (p *Pruner) IsRunning() bool {
	return p.started.Load()
}

func (p *Pruner) run(ctx context.Context) {
	defer close(p.done)

	p.prune(ctx)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *Pruner) prune(ctx context.Context) {
	n, err := p.RunOnce(ctx)
	if err != nil {
		if p.config.OnError != nil {
			p.config.OnError(err)
		}
		return
	}
	if n > 0 && p.config.OnPruned != nil {
		p.config.OnPruned(n)
	}
}

// RunOnce deletes expired events once and returns how many were removed.
func (p *Pruner) RunOnce(ctx context.Context) (int, error) {
	return p.store.DeleteEventsBefore(ctx, p.config.now().Add(-p.config.Retention))
}
