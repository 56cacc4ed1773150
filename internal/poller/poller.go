package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"bookscore/internal/logging"
)

// DefaultInterval is the refresh cadence used when none is configured.
const DefaultInterval = 5 * time.Second

// FetchFunc retrieves the current value of a subscription.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Options tunes a single subscription.
type Options[T any] struct {
	// Interval overrides the poller's interval when positive.
	Interval time.Duration
	// Done reports a terminal value; no further ticks are scheduled after it
	// has been applied.
	Done func(T) bool
	// OnResult receives every applied value.
	OnResult func(T)
	// OnError receives fetch failures. Polling continues.
	OnError func(error)
}

// Poller owns subscriptions and the per-key sequence counters.
type Poller[T any] struct {
	interval time.Duration
	logger   *slog.Logger

	mu   sync.Mutex
	subs map[string]*Subscription[T]
	seqs map[string]*sequence
}

type sequence struct {
	issued  uint64
	applied uint64
}

// New creates a Poller. A non-positive interval selects DefaultInterval.
func New[T any](interval time.Duration, logger *slog.Logger) *Poller[T] {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller[T]{
		interval: interval,
		logger:   logging.NewComponentLogger(logger, "poller"),
		subs:     make(map[string]*Subscription[T]),
		seqs:     make(map[string]*sequence),
	}
}

// Interval returns the default tick interval.
func (p *Poller[T]) Interval() time.Duration {
	return p.interval
}

// Subscribe starts polling key. The first fetch runs immediately. An existing
// subscription for the same key is cancelled and replaced.
func (p *Poller[T]) Subscribe(ctx context.Context, key string, fetch FetchFunc[T], opts Options[T]) *Subscription[T] {
	interval := opts.Interval
	if interval <= 0 {
		interval = p.interval
	}
	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription[T]{
		poller:   p,
		key:      key,
		fetch:    fetch,
		opts:     opts,
		interval: interval,
		ctx:      subCtx,
		cancel:   cancel,
		finished: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   p.logger.With(logging.String("key", key)),
	}

	p.mu.Lock()
	previous := p.subs[key]
	p.subs[key] = sub
	if _, ok := p.seqs[key]; !ok {
		p.seqs[key] = &sequence{}
	}
	p.mu.Unlock()

	if previous != nil {
		previous.Cancel()
	}
	go sub.run()
	return sub
}

// Close cancels every active subscription and waits for them to stop.
func (p *Poller[T]) Close() {
	p.mu.Lock()
	subs := make([]*Subscription[T], 0, len(p.subs))
	for _, sub := range p.subs {
		subs = append(subs, sub)
	}
	p.mu.Unlock()
	for _, sub := range subs {
		sub.Cancel()
		sub.Wait()
	}
}

// Active reports whether key has a running subscription.
func (p *Poller[T]) Active(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.subs[key]
	return ok
}

func (p *Poller[T]) issue(key string) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	seq := p.seqs[key]
	seq.issued++
	return seq.issued
}

// accept marks seq as applied when it is newer than the last applied one.
func (p *Poller[T]) accept(key string, seq uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	state := p.seqs[key]
	if seq <= state.applied {
		return false
	}
	state.applied = seq
	return true
}

func (p *Poller[T]) release(sub *Subscription[T]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.subs[sub.key] == sub {
		delete(p.subs, sub.key)
	}
}

// Stats counts what happened to a subscription's fetches.
type Stats struct {
	Requests int
	Applied  int
	Stale    int
	Errors   int
}

// Subscription is one running poll loop.
type Subscription[T any] struct {
	poller   *Poller[T]
	key      string
	fetch    FetchFunc[T]
	opts     Options[T]
	interval time.Duration
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	finishOnce sync.Once
	finished   chan struct{}
	done       chan struct{}
	inflight   sync.WaitGroup

	applyMu  sync.Mutex
	mu       sync.Mutex
	stopped  bool
	last     T
	hasValue bool
	terminal bool
	stats    Stats
}

// Key returns the subscription key.
func (s *Subscription[T]) Key() string { return s.key }

// Cancel halts the timer and discards results that are still in flight.
// It is safe to call from OnResult and OnError.
func (s *Subscription[T]) Cancel() {
	s.cancel()
}

// Done is closed once the loop has stopped and in-flight fetches have returned.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until Done is closed.
func (s *Subscription[T]) Wait() {
	<-s.done
}

// Terminal reports whether the subscription ended because Done matched.
func (s *Subscription[T]) Terminal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminal
}

// Last returns the most recently applied value.
func (s *Subscription[T]) Last() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.hasValue
}

// Stats returns a snapshot of the fetch counters.
func (s *Subscription[T]) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *Subscription[T]) run() {
	defer func() {
		s.cancel()
		s.inflight.Wait()
		s.poller.release(s)
		close(s.done)
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.launch()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.finished:
			return
		case <-ticker.C:
			s.launch()
		}
	}
}

func (s *Subscription[T]) launch() {
	seq := s.poller.issue(s.key)
	s.mu.Lock()
	s.stats.Requests++
	s.mu.Unlock()

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		value, err := s.fetch(s.ctx)
		s.apply(seq, value, err)
	}()
}

// apply runs under applyMu so callbacks are serialized per subscription;
// mu is released before callbacks so they may call Last, Stats or Cancel.
func (s *Subscription[T]) apply(seq uint64, value T, err error) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	s.mu.Lock()
	if s.stopped || s.ctx.Err() != nil {
		s.mu.Unlock()
		return
	}
	if !s.poller.accept(s.key, seq) {
		s.stats.Stale++
		s.mu.Unlock()
		s.logger.Debug("stale poll result dropped", logging.Int64("seq", int64(seq)))
		return
	}
	if err != nil {
		s.stats.Errors++
		s.mu.Unlock()
		s.logger.Warn("poll failed", logging.Int64("seq", int64(seq)), logging.Error(err))
		if s.opts.OnError != nil {
			s.opts.OnError(err)
		}
		return
	}
	s.stats.Applied++
	s.last = value
	s.hasValue = true
	s.mu.Unlock()

	if s.opts.OnResult != nil {
		s.opts.OnResult(value)
	}
	if s.opts.Done != nil && s.opts.Done(value) {
		s.mu.Lock()
		s.stopped = true
		s.terminal = true
		s.mu.Unlock()
		s.finishOnce.Do(func() { close(s.finished) })
	}
}
