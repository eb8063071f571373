package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bvanrooij30/rotech-website-sub001/webhook"
	"github.com/bvanrooij30/rotech-website-sub001/webhook/memory"
)

func newItem(id string, payload string, nextRetry time.Time) webhook.Item {
	return webhook.Item{
		ID:        id,
		Kind:      webhook.TicketCreated,
		Payload:   []byte(payload),
		NextRetry: nextRetry,
		CreatedAt: nextRetry.Add(-time.Second),
	}
}

func TestEnqueue(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("adds new items", func(t *testing.T) {
		store := memory.NewStore()

		added, err := store.Enqueue(ctx, newItem("a", `{"event":"x"}`, now))
		require.NoError(t, err)
		assert.True(t, added)

		n, err := store.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("dedups identical payloads", func(t *testing.T) {
		store := memory.NewStore()

		added, err := store.Enqueue(ctx, newItem("a", `{"event":"x"}`, now))
		require.NoError(t, err)
		assert.True(t, added)

		added, err = store.Enqueue(ctx, newItem("b", `{"event":"x"}`, now))
		require.NoError(t, err)
		assert.False(t, added)

		n, err := store.Len(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("different payloads both queue", func(t *testing.T) {
		store := memory.NewStore()

		added, err := store.Enqueue(ctx, newItem("a", `{"event":"x"}`, now))
		require.NoError(t, err)
		assert.True(t, added)

		added, err = store.Enqueue(ctx, newItem("b", `{"event":"y"}`, now))
		require.NoError(t, err)
		assert.True(t, added)
	})
}

func TestDue(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	store := memory.NewStore()
	_, err := store.Enqueue(ctx, newItem("past", `{"n":1}`, now.Add(-time.Second)))
	require.NoError(t, err)
	_, err = store.Enqueue(ctx, newItem("exact", `{"n":2}`, now))
	require.NoError(t, err)
	_, err = store.Enqueue(ctx, newItem("future", `{"n":3}`, now.Add(time.Minute)))
	require.NoError(t, err)

	due, err := store.Due(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "past", due[0].ID)
	assert.Equal(t, "exact", due[1].ID)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("replaces stored item", func(t *testing.T) {
		store := memory.NewStore()
		item := newItem("a", `{"n":1}`, now)
		_, err := store.Enqueue(ctx, item)
		require.NoError(t, err)

		item.Attempts = 2
		item.NextRetry = now.Add(30 * time.Second)
		require.NoError(t, store.Update(ctx, item))

		items, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, 2, items[0].Attempts)
		assert.Equal(t, now.Add(30*time.Second), items[0].NextRetry)
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		store := memory.NewStore()
		require.NoError(t, store.Update(ctx, newItem("ghost", `{}`, now)))
	})
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	store := memory.NewStore()
	_, err := store.Enqueue(ctx, newItem("a", `{"n":1}`, now))
	require.NoError(t, err)
	_, err = store.Enqueue(ctx, newItem("b", `{"n":2}`, now))
	require.NoError(t, err)

	require.NoError(t, store.Remove(ctx, "a"))

	items, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].ID)

	// Removing again is harmless
	require.NoError(t, store.Remove(ctx, "a"))
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	store := memory.NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("item-%d", i)
			_, err := store.Enqueue(ctx, newItem(id, fmt.Sprintf(`{"n":%d}`, i), now))
			assert.NoError(t, err)
			_, err = store.Due(ctx, now)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	n, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, n)
}
