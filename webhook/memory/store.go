package memory

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/bvanrooij30/rotech-website-sub001/webhook"
)

/* In-process implementation of webhook.Store.
 * This is the default: pending retries do not survive a restart, which
 * is an accepted durability limitation at this scale. The Redis store
 * exists for deployments that want to opt out of that.
 */

type Store struct {
	mu    sync.Mutex
	items []webhook.Item
}

// NewStore creates an empty in-memory queue store
func NewStore() *Store {
	return &Store{}
}

// Enqueue adds an item unless an identical payload is already queued
func (s *Store) Enqueue(_ context.Context, item webhook.Item) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.items {
		if bytes.Equal(existing.Payload, item.Payload) {
			return false, nil
		}
	}

	s.items = append(s.items, item)
	return true, nil
}

// Due returns a snapshot of items whose retry time has passed
func (s *Store) Due(_ context.Context, now time.Time) ([]webhook.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []webhook.Item
	for _, item := range s.items {
		if !item.NextRetry.After(now) {
			due = append(due, item)
		}
	}
	return due, nil
}

// Update replaces the stored item with the same ID
func (s *Store) Update(_ context.Context, item webhook.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == item.ID {
			s.items[i] = item
			return nil
		}
	}
	// Already removed by a concurrent pass, nothing to do
	return nil
}

// Remove drops the item with the given ID
func (s *Store) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return nil
}

// List returns a copy of all queued items
func (s *Store) List(_ context.Context) ([]webhook.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]webhook.Item, len(s.items))
	copy(items, s.items)
	return items, nil
}

// Len returns the number of queued items
func (s *Store) Len(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items), nil
}

// Close is a no-op for the in-memory store
func (s *Store) Close(_ context.Context) error {
	return nil
}
