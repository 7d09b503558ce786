package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iho/cardledger/internal/domain"
)

// ErrLockNotHeld is returned by Unlock when the key expired or was taken
// over by another holder.
var ErrLockNotHeld = errors.New("mutation lock not held")

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker implements usecase.Locker with SET NX and a token checked on release.
type Locker struct {
	client *redis.Client
	prefix string
}

// NewLocker creates a new Locker.
func NewLocker(client *redis.Client) *Locker {
	return &Locker{
		client: client,
		prefix: "lock:",
	}
}

// Lock acquires key for ttl. It fails with domain.ErrMutationInFlight while
// another holder owns the key.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, l.prefix+key, token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.ErrMutationInFlight
	}

	return token, nil
}

// Unlock releases key if it is still held with token.
func (l *Locker) Unlock(ctx context.Context, key, token string) error {
	n, err := unlockScript.Run(ctx, l.client, []string{l.prefix + key}, token).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLockNotHeld
	}

	return nil
}
