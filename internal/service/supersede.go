package service

import (
	"context"
	"sync"

	"github.com/boddenberg/irrbb-bfa-go/internal/domain"
	"github.com/boddenberg/irrbb-bfa-go/internal/infra/observability"
)

// Ticket identifies one guarded request.
type Ticket struct {
	key    string
	gen    uint64
	cancel context.CancelFunc
}

type inflight struct {
	gen    uint64
	cancel context.CancelFunc
}

// Tracker keeps at most one live request per key. Starting a new request
// for a key cancels the previous one, whose result is then discarded.
type Tracker struct {
	mu      sync.Mutex
	next    uint64
	current map[string]inflight
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{current: make(map[string]inflight)}
}

// Begin registers a request under key and returns the context it must run
// with. An empty key is not guarded.
func (t *Tracker) Begin(ctx context.Context, key string) (context.Context, Ticket) {
	ctx, cancel := context.WithCancel(ctx)
	if key == "" {
		return ctx, Ticket{cancel: cancel}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	if prev, ok := t.current[key]; ok {
		prev.cancel()
	}
	t.current[key] = inflight{gen: t.next, cancel: cancel}
	return ctx, Ticket{key: key, gen: t.next, cancel: cancel}
}

// Finish releases the ticket and reports ErrSuperseded when a newer
// request for the same key started in the meantime.
func (t *Tracker) Finish(tk Ticket) error {
	defer tk.cancel()
	if tk.key == "" {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	cur, ok := t.current[tk.key]
	if !ok || cur.gen != tk.gen {
		return &domain.ErrSuperseded{Key: tk.key}
	}
	delete(t.current, tk.key)
	return nil
}

// Len is the number of keys with a live request.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.current)
}

// Guarded runs fn under the tracker. A superseded run returns
// ErrSuperseded regardless of what fn returned.
func Guarded[T any](ctx context.Context, t *Tracker, metrics *observability.Metrics, session, view string, fn func(context.Context) (T, error)) (T, error) {
	key := ""
	if session != "" {
		key = session + ":" + view
	}
	ctx, tk := t.Begin(ctx, key)
	v, err := fn(ctx)
	if serr := t.Finish(tk); serr != nil {
		metrics.IncrSuperseded(view)
		var zero T
		return zero, serr
	}
	return v, err
}
