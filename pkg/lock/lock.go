// Package lock serializes mutations on a single resource key, across
// instances through redis or within one process.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fekuna/omnipos-erp-service/pkg/cache"
	"github.com/fekuna/omnipos-erp-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrBusy = errors.New("lock: resource busy")

const (
	attempts = 3
	backoff  = 100 * time.Millisecond
	ttl      = 5 * time.Second
)

type Locker interface {
	// Acquire returns ErrBusy when the key stays held after all attempts.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

type redisLocker struct {
	rc     *cache.RedisClient
	logger logger.ZapLogger
}

func NewRedisLocker(rc *cache.RedisClient, log logger.ZapLogger) Locker {
	return &redisLocker{rc: rc, logger: log}
}

func (l *redisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	value := uuid.New().String()
	for i := 0; i < attempts; i++ {
		ok, err := l.rc.AcquireLock(ctx, key, value, ttl)
		if err != nil {
			l.logger.Error("failed to acquire lock redis error", zap.String("key", key), zap.Error(err))
		}
		if ok {
			return func() {
				if err := l.rc.ReleaseLock(context.WithoutCancel(ctx), key, value); err != nil {
					l.logger.Warn("failed to release lock", zap.String("key", key), zap.Error(err))
				}
			}, nil
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return nil, ErrBusy
}

type slot struct {
	ch   chan struct{}
	refs int
}

type localLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

// NewLocalLocker is used when redis is disabled. Only goroutines of this
// process are serialized.
func NewLocalLocker() Locker {
	return &localLocker{slots: map[string]*slot{}}
}

func (l *localLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	timer := time.NewTimer(attempts * backoff)
	defer timer.Stop()

	select {
	case s.ch <- struct{}{}:
		return func() {
			<-s.ch
			l.unref(key, s)
		}, nil
	case <-ctx.Done():
		l.unref(key, s)
		return nil, ctx.Err()
	case <-timer.C:
		l.unref(key, s)
		return nil, ErrBusy
	}
}

func (l *localLocker) unref(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}
