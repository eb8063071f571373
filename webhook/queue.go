package webhook

import (
	"context"
	"time"
)

/* Item wraps a failed delivery waiting for another attempt.
 * Payload is the original envelope bytes: retries resend exactly what
 * was signed, they never rebuild or re-stamp the event.
 */
type Item struct {
	ID        string
	Kind      Kind
	Payload   []byte
	Attempts  int
	NextRetry time.Time
	CreatedAt time.Time
}

/* Small, focused interfaces following "The Go Way"
 * Interfaces abstract behavior, not things
 * Written for users of the API, not just for testing
 */

// Enqueuer adds failed deliveries to the retry queue
type Enqueuer interface {
	/* Enqueue stores an item for a later retry pass.
	 * Returns false when an item with an identical payload is already
	 * queued: coarse dedup by full payload equality, fine at this
	 * event volume.
	 */
	Enqueue(ctx context.Context, item Item) (bool, error)
}

// Drainer provides the operations a queue drain pass needs
type Drainer interface {
	// Due returns a snapshot of items whose NextRetry is at or before now
	Due(ctx context.Context, now time.Time) ([]Item, error)
	// Update persists new attempt count and retry time after a failed retry
	Update(ctx context.Context, item Item) error
	// Remove drops an item after success or after retries are exhausted
	Remove(ctx context.Context, id string) error
}

// Inspector provides read-only queue introspection
type Inspector interface {
	List(ctx context.Context) ([]Item, error)
	Len(ctx context.Context) (int, error)
}

/* Interface composition - combining small interfaces into larger ones
 * This is preferred over large monolithic interfaces
 */
type Store interface {
	Enqueuer
	Drainer
	Inspector
	Close(ctx context.Context) error
}
