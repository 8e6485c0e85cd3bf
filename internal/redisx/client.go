package redisx

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

func Exists(ctx context.Context, rdb redis.Cmdable, key string) (bool, error) {
	n, err := rdb.Exists(ctx, key).Result()
	return n > 0, err
}

// Idempotency maps a buyer's Idempotency-Key header to the order it produced.
type Idempotency struct {
	RDB redis.Cmdable
	TTL time.Duration
}

func (i *Idempotency) Lookup(ctx context.Context, userID, key string) (string, bool, error) {
	id, err := i.RDB.Get(ctx, IdemCheckoutKey(userID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// Remember keeps the first order stored for a key.
func (i *Idempotency) Remember(ctx context.Context, userID, key, orderID string) error {
	ttl := i.TTL
	if ttl <= 0 {
		ttl = TTLIdempotency
	}
	return i.RDB.SetNX(ctx, IdemCheckoutKey(userID, key), orderID, ttl).Err()
}

// Dedup tracks event ids a consumer has already applied.
type Dedup struct {
	RDB     redis.Cmdable
	Service string
}

func (d *Dedup) Seen(ctx context.Context, eventID string) (bool, error) {
	return Exists(ctx, d.RDB, DedupKey(d.Service, eventID))
}

func (d *Dedup) Mark(ctx context.Context, eventID string) error {
	return d.RDB.Set(ctx, DedupKey(d.Service, eventID), "1", TTLDedup).Err()
}
