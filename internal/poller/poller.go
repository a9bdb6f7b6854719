// Package poller re-fetches dashboard data on a fixed interval.
package poller

import (
	"context"
	"errors"
	"log"
	"os"
	"sync"
	"time"
)

// FetchFunc fetches one round of data
type FetchFunc func(ctx context.Context) error

// Poller calls a FetchFunc immediately and then on every tick until its
// context is cancelled. Failed fetches are logged and the loop keeps going.
type Poller struct {
	interval time.Duration
	fetch    FetchFunc
	onResult func(error)
	logger   *log.Logger

	mu      sync.Mutex
	paused  bool
	running bool
}

// Option configures a Poller
type Option func(*Poller)

// WithLogger sets the logger used for failed fetches
func WithLogger(l *log.Logger) Option {
	return func(p *Poller) { p.logger = l }
}

// OnResult registers a callback receiving the outcome of every fetch
func OnResult(fn func(error)) Option {
	return func(p *Poller) { p.onResult = fn }
}

// New creates a poller; interval must be positive
func New(interval time.Duration, fetch FetchFunc, opts ...Option) (*Poller, error) {
	if interval <= 0 {
		return nil, errors.New("poll interval must be positive")
	}
	if fetch == nil {
		return nil, errors.New("fetch function is required")
	}
	p := &Poller{
		interval: interval,
		fetch:    fetch,
		logger:   log.New(os.Stderr, "[poller] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Pause skips ticks until Resume, like a dashboard tab going to the background
func (p *Poller) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = true
}

// Resume re-enables ticks
func (p *Poller) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = false
}

// Paused reports whether ticks are being skipped
func (p *Poller) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Run blocks until ctx is cancelled. It returns an error if the poller is
// already running.
func (p *Poller) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return errors.New("poller is already running")
	}
	p.running = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if p.Paused() {
				continue
			}
			p.tick(ctx)
		}
	}
}

// Trigger fetches once outside the schedule, e.g. after an order update
func (p *Poller) Trigger(ctx context.Context) error {
	return p.tick(ctx)
}

func (p *Poller) tick(ctx context.Context) error {
	err := p.fetch(ctx)
	if err != nil && ctx.Err() == nil {
		p.logger.Printf("fetch failed: %v", err)
	}
	if p.onResult != nil {
		p.onResult(err)
	}
	return err
}
