package redisstore

import (
	"context"
	"time"

	"billing-service/internal/application"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if we still own it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0`)

// refreshScript resets the TTL only if we still own the key.
var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

// UpdateLock is a single-holder lock with a TTL, so a crashed update run
// cannot block the next one forever. The update command refreshes it between
// steps; a single step must finish within TTL.
type UpdateLock struct {
	Client *redis.Client
	Key    string
	TTL    time.Duration
	token  string
}

var _ application.UpdateLock = (*UpdateLock)(nil)

func NewUpdateLock(client *redis.Client, key string, ttl time.Duration) *UpdateLock {
	return &UpdateLock{Client: client, Key: key, TTL: ttl, token: uuid.NewString()}
}

func (l *UpdateLock) TryAcquire(ctx context.Context) (bool, error) {
	ok, err := l.Client.SetNX(ctx, l.Key, l.token, l.TTL).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (l *UpdateLock) Refresh(ctx context.Context) error {
	n, err := refreshScript.Run(ctx, l.Client, []string{l.Key}, l.token, l.TTL.Milliseconds()).Int()
	if err != nil {
		return err
	}
	if n == 0 {
		return application.ErrLockLost
	}
	return nil
}

func (l *UpdateLock) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, l.Client, []string{l.Key}, l.token).Err()
}
