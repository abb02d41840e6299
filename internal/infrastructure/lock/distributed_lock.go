package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ============================================================================
// Redis distributed lock
// ============================================================================
//
// Every financial mutation against a chama (contribution confirm, loan
// approval, repayment, payout, manual transaction) runs a read-check-write
// sequence against chama.current_balance. Two concurrent loan approvals could
// both pass the balance check and overdraw the pool; the per-chama lock
// serializes them.
//
// Locking: SET key value NX EX timeout. NX guarantees mutual exclusion, EX
// bounds the hold time so a crashed holder cannot deadlock the chama.
// Unlocking: Lua script that checks the value before deleting, so an expired
// holder cannot release a lock someone else now owns.

var (
	ErrLockFailed = errors.New("failed to acquire distributed lock")
)

type DistributedLock struct {
	client     *redis.Client
	key        string
	value      string // holder identity, checked on unlock
	expiration time.Duration
}

func NewDistributedLock(client *redis.Client, key, value string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

// TryLock attempts the lock once without blocking.
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	success, err := l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
	if err != nil {
		return false, err
	}
	return success, nil
}

// Lock acquires the lock, retrying up to maxRetries times.
func (l *DistributedLock) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		success, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if success {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	return ErrLockFailed
}

// Unlock releases the lock if we still hold it. The check-and-delete must be
// atomic, hence the Lua script.
func (l *DistributedLock) Unlock(ctx context.Context) error {
	script := `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		else
			return 0
		end
	`
	_, err := l.client.Eval(ctx, script, []string{l.key}, l.value).Result()
	return err
}

// NewChamaLock creates the financial-operations lock for one chama.
// Lock granularity is the chama: members of different chamas never contend,
// while all money movement within one chama is serialized.
func NewChamaLock(client *redis.Client, chamaID int64, owner string) *DistributedLock {
	key := fmt.Sprintf("chama:lock:%d", chamaID)
	return NewDistributedLock(client, key, owner, 30*time.Second)
}
