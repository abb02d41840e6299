package service

import (
	"context"
	"fmt"
	"time"

	"chamapay/internal/infrastructure/lock"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// acquireChamaLock serializes financial mutations for one chama. Holder
// identity is a fresh uuid so an expired holder cannot release a successor's
// lock. Contention returns a retryable "busy" error to the caller.
func acquireChamaLock(ctx context.Context, client *redis.Client, chamaID int64) (*lock.DistributedLock, error) {
	chamaLock := lock.NewChamaLock(client, chamaID, uuid.NewString())
	if err := chamaLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, fmt.Errorf("chama is busy, please retry: %w", err)
	}
	return chamaLock, nil
}
