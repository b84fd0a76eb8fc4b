package scheduler

import (
	"context"
	"sync"
	"time"

	"StyleTranslator/internal/ports"
)

// Ticker runs a job immediately and then every interval.
// Jobs never overlap: a tick that arrives while a job runs is dropped.
type Ticker struct {
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

var _ ports.Scheduler = (*Ticker)(nil)

func NewTicker(interval time.Duration) *Ticker {
	return &Ticker{interval: interval}
}

// Start begins ticking in the background. Calling Start twice is a no-op.
func (t *Ticker) Start(ctx context.Context, job func(time.Time)) error {
	if job == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return nil
	}

	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	stop, done := t.stop, t.done
	go func() {
		defer close(done)
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		job(time.Now())
		for {
			select {
			case now := <-ticker.C:
				job(now)
			case <-ctx.Done():
				return
			case <-stop:
				return
			}
		}
	}()
	return nil
}

// Stop halts the ticker and waits for a running job to return or ctx to end.
func (t *Ticker) Stop(ctx context.Context) error {
	t.mu.Lock()
	if t.stop == nil {
		t.mu.Unlock()
		return nil
	}
	close(t.stop)
	done := t.done
	t.stop, t.done = nil, nil
	t.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when the ticker loop exits; nil before Start.
func (t *Ticker) Done() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}
