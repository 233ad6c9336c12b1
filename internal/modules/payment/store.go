// README: Invoice payload registry backed by Redis.
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	invoiceKeyPrefix = "payment:invoice:%s"
	// Invoices older than this are considered abandoned.
	invoiceTTL = 24 * time.Hour
)

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

func (s *Store) PutPayload(ctx context.Context, userKey, payload string) error {
	return s.redis.Set(ctx, invoiceKey(userKey), payload, invoiceTTL).Err()
}

// GetPayload returns "" when no invoice is outstanding for the user.
func (s *Store) GetPayload(ctx context.Context, userKey string) (string, error) {
	val, err := s.redis.Get(ctx, invoiceKey(userKey)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func invoiceKey(userKey string) string {
	return fmt.Sprintf(invoiceKeyPrefix, userKey)
}
