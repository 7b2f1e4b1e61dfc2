// Package cursor tracks the agent's position in the payment stream.
//
// The cursor is one opaque paging token. It is loaded once at startup and
// overwritten after every observed event, before the event's outcome is
// known, so stream position always advances. Losing a save costs at most a
// reprocessed window; the in-memory value keeps the running stream correct.
package cursor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aqslabs/forwarder/internal/forwarding/metrics"
)

// Now is the sentinel cursor meaning "only events after process start".
const Now = "now"

// Store persists the single cursor value. Load returns the empty string
// when nothing has been persisted yet.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, cursor string) error
}

// Tracker owns the in-memory cursor and its persistence discipline.
type Tracker struct {
	store Store
	log   *slog.Logger

	mu      sync.RWMutex
	current string
}

// NewTracker creates a tracker over the given store.
func NewTracker(store Store) *Tracker {
	return &Tracker{
		store: store,
		log:   slog.Default(),
	}
}

// Load reads the persisted cursor, falling back to the Now sentinel when the
// store is empty. Called once at startup; a store error here is fatal.
func (t *Tracker) Load(ctx context.Context) (string, error) {
	cur, err := t.store.Load(ctx)
	if err != nil {
		return "", err
	}
	if cur == "" {
		cur = Now
	}

	t.mu.Lock()
	t.current = cur
	t.mu.Unlock()

	return cur, nil
}

// Current returns the in-memory cursor.
func (t *Tracker) Current() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// Advance records a newly observed position and persists it synchronously.
// A failed save is reported and counted but non-fatal: the in-memory cursor
// stands and the next Advance retries persistence.
func (t *Tracker) Advance(ctx context.Context, cursor string) {
	t.mu.Lock()
	t.current = cursor
	t.mu.Unlock()

	if err := t.store.Save(ctx, cursor); err != nil {
		metrics.CursorSaveFailures.Inc()
		t.log.Warn("Failed to persist cursor", "cursor", cursor, "error", err)
	}
}
