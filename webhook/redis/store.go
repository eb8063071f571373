package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bvanrooij30/rotech-website-sub001/webhook"
)

/* Redis implementation of webhook.Store for deployments that want
 * pending retries to survive a restart.
 * Uses a Hash per item for metadata, a Sorted Set scored by the retry
 * time for due lookups, and a Set of payload digests for dedup.
 */

const (
	itemPrefix  = "webhook-retry:item"     // Hash: webhook-retry:item:{id}
	scheduleKey = "webhook-retry:schedule" // ZSet: member={id}, score=next retry unix
	dedupKey    = "webhook-retry:payloads" // Set: sha256 of payload
)

type Store struct {
	client *redis.Client
}

// NewStore creates a Redis queue store and verifies the connection
func NewStore(addr, password string, db int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return &Store{client: client}, nil
}

// Enqueue stores the item unless an identical payload is already queued
func (s *Store) Enqueue(ctx context.Context, item webhook.Item) (bool, error) {
	digest := payloadDigest(item.Payload)

	added, err := s.client.SAdd(ctx, dedupKey, digest).Result()
	if err != nil {
		return false, fmt.Errorf("checking payload dedup: %w", err)
	}
	if added == 0 {
		// Identical payload already waiting for a retry
		return false, nil
	}

	itemKey := fmt.Sprintf("%s:%s", itemPrefix, item.ID)
	err = s.client.HSet(ctx, itemKey, map[string]interface{}{
		"id":         item.ID,
		"event":      item.Kind.String(),
		"payload":    item.Payload,
		"digest":     digest,
		"attempts":   item.Attempts,
		"next_retry": item.NextRetry.Unix(),
		"created_at": item.CreatedAt.Unix(),
	}).Err()
	if err != nil {
		return false, fmt.Errorf("storing queue item: %w", err)
	}

	err = s.client.ZAdd(ctx, scheduleKey, redis.Z{
		Score:  float64(item.NextRetry.Unix()),
		Member: item.ID,
	}).Err()
	if err != nil {
		return false, fmt.Errorf("scheduling queue item: %w", err)
	}

	return true, nil
}

// Due returns the items whose retry time has passed
func (s *Store) Due(ctx context.Context, now time.Time) ([]webhook.Item, error) {
	ids, err := s.client.ZRangeByScore(ctx, scheduleKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.Unix(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("reading due schedule: %w", err)
	}

	items := make([]webhook.Item, 0, len(ids))
	for _, id := range ids {
		item, err := s.get(ctx, id)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Update persists new attempt count and retry time
func (s *Store) Update(ctx context.Context, item webhook.Item) error {
	itemKey := fmt.Sprintf("%s:%s", itemPrefix, item.ID)

	err := s.client.HSet(ctx, itemKey, map[string]interface{}{
		"attempts":   item.Attempts,
		"next_retry": item.NextRetry.Unix(),
	}).Err()
	if err != nil {
		return fmt.Errorf("updating queue item: %w", err)
	}

	err = s.client.ZAdd(ctx, scheduleKey, redis.Z{
		Score:  float64(item.NextRetry.Unix()),
		Member: item.ID,
	}).Err()
	if err != nil {
		return fmt.Errorf("rescheduling queue item: %w", err)
	}
	return nil
}

// Remove drops an item and its dedup digest
func (s *Store) Remove(ctx context.Context, id string) error {
	itemKey := fmt.Sprintf("%s:%s", itemPrefix, id)

	digest, err := s.client.HGet(ctx, itemKey, "digest").Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("reading item digest: %w", err)
	}
	if digest != "" {
		if err := s.client.SRem(ctx, dedupKey, digest).Err(); err != nil {
			return fmt.Errorf("clearing payload dedup: %w", err)
		}
	}

	if err := s.client.ZRem(ctx, scheduleKey, id).Err(); err != nil {
		return fmt.Errorf("unscheduling queue item: %w", err)
	}
	if err := s.client.Del(ctx, itemKey).Err(); err != nil {
		return fmt.Errorf("deleting queue item: %w", err)
	}
	return nil
}

// List returns all queued items ordered by retry time
func (s *Store) List(ctx context.Context) ([]webhook.Item, error) {
	ids, err := s.client.ZRange(ctx, scheduleKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("listing schedule: %w", err)
	}

	items := make([]webhook.Item, 0, len(ids))
	for _, id := range ids {
		item, err := s.get(ctx, id)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// Len returns the number of queued items
func (s *Store) Len(ctx context.Context) (int, error) {
	n, err := s.client.ZCard(ctx, scheduleKey).Result()
	if err != nil {
		return 0, fmt.Errorf("counting queue items: %w", err)
	}
	return int(n), nil
}

// Close closes the Redis connection
func (s *Store) Close(_ context.Context) error {
	return s.client.Close()
}

// get loads a single item hash
func (s *Store) get(ctx context.Context, id string) (webhook.Item, error) {
	itemKey := fmt.Sprintf("%s:%s", itemPrefix, id)

	data, err := s.client.HGetAll(ctx, itemKey).Result()
	if err != nil {
		return webhook.Item{}, fmt.Errorf("getting queue item: %w", err)
	}
	if len(data) == 0 {
		return webhook.Item{}, fmt.Errorf("queue item not found: %s", id)
	}

	return webhook.Item{
		ID:        data["id"],
		Kind:      webhook.Kind(data["event"]),
		Payload:   []byte(data["payload"]),
		Attempts:  int(parseInt64(data["attempts"])),
		NextRetry: time.Unix(parseInt64(data["next_retry"]), 0),
		CreatedAt: time.Unix(parseInt64(data["created_at"]), 0),
	}, nil
}

func payloadDigest(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func parseInt64(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}
