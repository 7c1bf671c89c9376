//go:build integration

package lock_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"vaultcore/internal/vault/lock"
	id "vaultcore/pkg/domain"
	"vaultcore/pkg/platform/sentinel"
	"vaultcore/pkg/testutil/containers"
)

type RedisLockSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestRedisLockSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisLockSuite))
}

func (s *RedisLockSuite) SetupSuite() {
	s.redis = containers.Redis(s.T())
}

func (s *RedisLockSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisLockSuite) TestMutualExclusion() {
	ctx := context.Background()
	locker := lock.NewRedis(s.redis.Client, lock.WithRetryWait(5*time.Millisecond))
	subject := id.SubjectID(uuid.New())
	scope := id.ScopeID(uuid.New())

	const goroutines = 10
	var wg sync.WaitGroup
	counter := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			handle, err := locker.Acquire(ctx, subject, scope)
			s.Require().NoError(err)
			defer handle.Release(ctx) //nolint:errcheck

			// Non-atomic increment; only exclusion keeps it correct.
			v := counter
			time.Sleep(time.Millisecond)
			counter = v + 1
		}()
	}
	wg.Wait()

	s.Equal(goroutines, counter)
}

func (s *RedisLockSuite) TestDifferentScopesDoNotBlock() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	locker := lock.NewRedis(s.redis.Client)
	subject := id.SubjectID(uuid.New())

	first, err := locker.Acquire(ctx, subject, id.ScopeID(uuid.New()))
	s.Require().NoError(err)
	defer first.Release(ctx) //nolint:errcheck

	// A second scope on the same subject acquires immediately.
	second, err := locker.Acquire(ctx, subject, id.ScopeID(uuid.New()))
	s.Require().NoError(err)
	s.Require().NoError(second.Release(ctx))
}

func (s *RedisLockSuite) TestAcquireGivesUpWhenContextExpires() {
	ctx := context.Background()
	locker := lock.NewRedis(s.redis.Client, lock.WithRetryWait(5*time.Millisecond))
	subject := id.SubjectID(uuid.New())
	scope := id.ScopeID(uuid.New())

	handle, err := locker.Acquire(ctx, subject, scope)
	s.Require().NoError(err)
	defer handle.Release(ctx) //nolint:errcheck

	waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = locker.Acquire(waitCtx, subject, scope)
	s.ErrorIs(err, sentinel.ErrLockHeld)
	s.ErrorIs(err, context.DeadlineExceeded)
}

func (s *RedisLockSuite) TestExpiredLockIsReacquirable() {
	ctx := context.Background()
	locker := lock.NewRedis(s.redis.Client,
		lock.WithTTL(200*time.Millisecond),
		lock.WithRetryWait(10*time.Millisecond))
	subject := id.SubjectID(uuid.New())
	scope := id.ScopeID(uuid.New())

	// Acquire and never release; the TTL reclaims it.
	_, err := locker.Acquire(ctx, subject, scope)
	s.Require().NoError(err)

	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	handle, err := locker.Acquire(waitCtx, subject, scope)
	s.Require().NoError(err)
	s.Require().NoError(handle.Release(ctx))
}

func (s *RedisLockSuite) TestStaleHandleCannotReleaseSuccessor() {
	ctx := context.Background()
	locker := lock.NewRedis(s.redis.Client,
		lock.WithTTL(200*time.Millisecond),
		lock.WithRetryWait(10*time.Millisecond))
	subject := id.SubjectID(uuid.New())
	scope := id.ScopeID(uuid.New())

	stale, err := locker.Acquire(ctx, subject, scope)
	s.Require().NoError(err)

	// Let the TTL expire and hand the lock to a new holder.
	waitCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	current, err := locker.Acquire(waitCtx, subject, scope)
	s.Require().NoError(err)

	// The stale handle's compare-and-delete is a no-op, so the current
	// holder still excludes others.
	s.Require().NoError(stale.Release(ctx))
	shortCtx, cancelShort := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancelShort()
	_, err = locker.Acquire(shortCtx, subject, scope)
	s.ErrorIs(err, sentinel.ErrLockHeld)

	s.Require().NoError(current.Release(ctx))
}
