package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("vet day lock not acquired")
)

// Locker guards the conflict-check-then-commit critical section. The lock
// is keyed by (vet, date): two bookings for the same vet on the same day
// serialize, bookings for different vets or days never contend.
type Locker interface {
	WithVetDayLock(ctx context.Context, vetID uuid.UUID, date string, fn func(ctx context.Context) error) error
}

type redisVetDayLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisVetDayLocker creates a locker that uses a per vet-per-date Redis key
func NewRedisVetDayLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisVetDayLocker{
		client: client,
		ttl:    ttl,
	}
}

func (l *redisVetDayLocker) WithVetDayLock(ctx context.Context, vetID uuid.UUID, date string, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:vet:%s:%s", vetID.String(), date)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire vet day lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisVetDayLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release vet day lock: %w", err)
	}
	return nil
}
