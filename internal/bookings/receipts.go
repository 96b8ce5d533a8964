package bookings

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"zappoint/internal/shared/constants"
)

// ReceiptStore hands a rendered receipt artifact to whatever keeps receipts.
// Storage is best-effort: a failure is logged by the caller and never fails
// the booking itself.
type ReceiptStore interface {
	Store(ctx context.Context, bookingID uuid.UUID, artifact []byte) error
}

// RedisReceiptStore parks receipt artifacts in redis where the front desk
// printer worker picks them up.
type RedisReceiptStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisReceiptStore(rdb *redis.Client, ttl time.Duration) *RedisReceiptStore {
	if ttl <= 0 {
		ttl = constants.TTL_RECEIPT
	}
	return &RedisReceiptStore{rdb: rdb, ttl: ttl}
}

func (s *RedisReceiptStore) Store(ctx context.Context, bookingID uuid.UUID, artifact []byte) error {
	key := constants.BuildReceiptKey(bookingID.String())
	if err := s.rdb.Set(ctx, key, artifact, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store receipt for booking %s: %w", bookingID, err)
	}
	return nil
}
