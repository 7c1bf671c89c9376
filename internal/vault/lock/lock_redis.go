package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	id "vaultcore/pkg/domain"
	"vaultcore/pkg/platform/sentinel"
)

const (
	redisKeyPrefix   = "vault:onboarding-lock:"
	defaultLockTTL   = 30 * time.Second
	defaultRetryWait = 25 * time.Millisecond
)

// releaseScript deletes the lock only when the stored token matches, so a
// handle cannot release a lock that expired and was re-acquired elsewhere.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is the onboarding lock for multi-process deployments, backed by
// SET NX with a TTL. The TTL bounds how long a crashed holder can block a
// scope; live holders finish their critical section well inside it.
type Redis struct {
	client    *redis.Client
	ttl       time.Duration
	retryWait time.Duration
}

// RedisOption configures the Redis locker.
type RedisOption func(*Redis)

// WithTTL overrides the lock TTL.
func WithTTL(ttl time.Duration) RedisOption {
	return func(l *Redis) { l.ttl = ttl }
}

// WithRetryWait overrides the polling interval while waiting for a held lock.
func WithRetryWait(wait time.Duration) RedisOption {
	return func(l *Redis) { l.retryWait = wait }
}

func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	l := &Redis{
		client:    client,
		ttl:       defaultLockTTL,
		retryWait: defaultRetryWait,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Redis) Acquire(ctx context.Context, subject id.SubjectID, scope id.ScopeID) (Handle, error) {
	k := redisKeyPrefix + key(subject, scope)
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire onboarding lock: %w", err)
		}
		if ok {
			return &redisHandle{client: l.client, key: k, token: token}, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire onboarding lock: %w: %w", sentinel.ErrLockHeld, ctx.Err())
		case <-time.After(l.retryWait):
		}
	}
}

type redisHandle struct {
	client *redis.Client
	key    string
	token  string
}

func (h *redisHandle) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, h.client, []string{h.key}, h.token).Err(); err != nil {
		return fmt.Errorf("release onboarding lock: %w", err)
	}
	return nil
}
