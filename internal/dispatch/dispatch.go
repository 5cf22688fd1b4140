package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultTimeout bounds a single outbound notification
const DefaultTimeout = 10 * time.Second

// Dispatcher runs outbound notifications without blocking the caller.
// Failures are logged and never returned; the next tick retries naturally.
type Dispatcher struct {
	wg      sync.WaitGroup
	timeout time.Duration
	logger  *slog.Logger

	keysMu sync.Mutex
	keys   map[string]*keyState
}

// keyState serializes the notifications of one key. issued counts calls in
// submission order under Dispatcher.keysMu, applied is the newest generation
// that has run.
type keyState struct {
	mu      sync.Mutex
	issued  uint64
	applied uint64
}

// run executes fn unless a newer generation already ran
func (k *keyState) run(ctx context.Context, gen uint64, fn func(ctx context.Context) error) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if gen <= k.applied {
		return false, nil
	}
	k.applied = gen
	return true, fn(ctx)
}

// New creates a dispatcher with the given per-call timeout
func New(timeout time.Duration, logger *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{
		timeout: timeout,
		logger:  logger,
		keys:    make(map[string]*keyState),
	}
}

// Go runs fn in the background. attrs are added to the failure log line.
func (d *Dispatcher) Go(name string, fn func(ctx context.Context) error, attrs ...any) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("Notification panicked",
					append([]any{"notification", name, "panic", r}, attrs...)...)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			d.logger.Warn("Notification failed",
				append([]any{"notification", name, "error", err}, attrs...)...)
		}
	}()
}

// GoLatest runs fn in the background like Go, but calls sharing a key run one
// at a time and a call is dropped once a later call for the same key has run.
// Retained publishes use it so the last message always carries the newest state.
func (d *Dispatcher) GoLatest(name, key string, fn func(ctx context.Context) error, attrs ...any) {
	ks, gen := d.nextGeneration(key)

	d.Go(name, func(ctx context.Context) error {
		ran, err := ks.run(ctx, gen, fn)
		if !ran {
			d.logger.Debug("Dropping superseded notification",
				append([]any{"notification", name, "key", key}, attrs...)...)
		}
		return err
	}, attrs...)
}

func (d *Dispatcher) nextGeneration(key string) (*keyState, uint64) {
	d.keysMu.Lock()
	defer d.keysMu.Unlock()
	ks, ok := d.keys[key]
	if !ok {
		ks = &keyState{}
		d.keys[key] = ks
	}
	ks.issued++
	return ks, ks.issued
}

// Wait blocks until all in-flight notifications finish
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
