// Package redis holds the Redis-backed cart store. Carts are durable
// whole-snapshot values: every mutation rewrites the full JSON snapshot so
// a crashed or reloaded client always rehydrates a consistent cart.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/pharmalink/marketplace-api/internal/model"
	"github.com/pharmalink/marketplace-api/internal/repository"
)

const (
	cartKeyPrefix        = "cart:"
	pendingSyncKeyPrefix = "pendingSync:"
	cartTTL              = 30 * 24 * time.Hour
)

type CartStore struct {
	client *redis.Client
}

func NewCartStore(client *redis.Client) repository.CartRepository {
	return &CartStore{client: client}
}

func NewClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func cartKey(userID uuid.UUID) string {
	return cartKeyPrefix + userID.String()
}

// Get returns the user's cart, or an empty cart when none is stored. Any
// snapshots queued by a failed Save are replayed first, so the read sees
// the newest state the client managed to hand us.
func (s *CartStore) Get(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	if err := s.drainPendingSync(ctx, userID); err != nil {
		return nil, err
	}

	data, err := s.client.Get(ctx, cartKey(userID)).Bytes()
	if err == redis.Nil {
		return &model.Cart{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	var cart model.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return &cart, nil
}

// Save persists the full cart snapshot. On write failure the snapshot is
// queued under the user's pendingSync list so it can be replayed later.
func (s *CartStore) Save(ctx context.Context, cart *model.Cart) error {
	cart.UpdatedAt = time.Now()
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	if err := s.client.Set(ctx, cartKey(cart.UserID), data, cartTTL).Err(); err != nil {
		s.client.RPush(ctx, pendingSyncKeyPrefix+cart.UserID.String(), data)
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (s *CartStore) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// drainPendingSync replays queued snapshots for a user, keeping only the
// newest one.
func (s *CartStore) drainPendingSync(ctx context.Context, userID uuid.UUID) error {
	key := pendingSyncKeyPrefix + userID.String()
	entries, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil || len(entries) == 0 {
		return err
	}

	latest := entries[len(entries)-1]
	if err := s.client.Set(ctx, cartKey(userID), latest, cartTTL).Err(); err != nil {
		return fmt.Errorf("failed to replay pending cart: %w", err)
	}
	return s.client.Del(ctx, key).Err()
}
