package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	pkgcache "github.com/fekuna/omnipos-erp-service/pkg/cache"
	"github.com/fekuna/omnipos-erp-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func newTestCache() (*Cache, *fakeClock) {
	clk := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	return New(DefaultTTL, logger.NewNop(), WithClock(clk.Now)), clk
}

type counter struct {
	calls int
	data  []string
}

func (c *counter) fetch(context.Context) ([]string, error) {
	c.calls++
	c.data = []string{"a", "b"}
	return c.data, nil
}

func TestLoadWithinTTLReturnsSameSlice(t *testing.T) {
	c, clk := newTestCache()
	src := &counter{}
	ctx := context.Background()

	first, err := Load(ctx, c, EntityItems, "", src.fetch)
	require.NoError(t, err)
	clk.Advance(4 * time.Minute)
	second, err := Load(ctx, c, EntityItems, "", src.fetch)
	require.NoError(t, err)

	assert.Equal(t, 1, src.calls)
	assert.True(t, &first[0] == &second[0], "expected the identical backing array")
}

func TestLoadRefetchesAfterTTL(t *testing.T) {
	c, clk := newTestCache()
	src := &counter{}
	ctx := context.Background()

	_, _ = Load(ctx, c, EntityItems, "", src.fetch)
	clk.Advance(5 * time.Minute)
	_, _ = Load(ctx, c, EntityItems, "", src.fetch)

	assert.Equal(t, 2, src.calls)
}

func TestInvalidateForcesRefetchRegardlessOfTTL(t *testing.T) {
	c, _ := newTestCache()
	src := &counter{}
	ctx := context.Background()

	_, _ = Load(ctx, c, EntityOrders, "page=1", src.fetch)
	_, _ = Load(ctx, c, EntityOrders, "page=2", src.fetch)
	c.Invalidate(ctx, EntityOrders)

	snap := c.Get(EntityOrders, "page=1")
	assert.False(t, snap.Present)
	assert.True(t, snap.IsStale)

	_, _ = Load(ctx, c, EntityOrders, "page=1", src.fetch)
	assert.Equal(t, 3, src.calls)
}

func TestInvalidateOnlyTouchesOneEntity(t *testing.T) {
	c, _ := newTestCache()
	ctx := context.Background()
	c.Set(EntityItems, "", []string{"x"})
	c.Set(EntityCompanies, "", []string{"y"})

	c.Invalidate(ctx, EntityItems)

	assert.False(t, c.Get(EntityItems, "").Present)
	assert.True(t, c.Get(EntityCompanies, "").Present)
}

func TestLoadErrorIsNotCached(t *testing.T) {
	c, _ := newTestCache()
	ctx := context.Background()
	calls := 0
	fail := func(context.Context) ([]string, error) {
		calls++
		return nil, errors.New("network down")
	}

	_, err := Load(ctx, c, EntityItems, "", fail)
	assert.Error(t, err)
	_, err = Load(ctx, c, EntityItems, "", fail)
	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestLoadDiscardsResultFetchedAcrossInvalidation(t *testing.T) {
	c, _ := newTestCache()
	ctx := context.Background()

	_, err := Load(ctx, c, EntityItems, "", func(ctx context.Context) ([]string, error) {
		c.InvalidateLocal(EntityItems)
		return []string{"old"}, nil
	})
	require.NoError(t, err)
	assert.False(t, c.Get(EntityItems, "").Present)
}

func TestLoadSharedFetchSurvivesCallerCancel(t *testing.T) {
	c, _ := newTestCache()
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	fetch := func(ctx context.Context) ([]string, error) {
		once.Do(func() { close(started) })
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-release:
			return []string{"a"}, nil
		}
	}

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := Load(firstCtx, c, EntityItems, "", fetch)
		firstErr <- err
	}()
	<-started

	type result struct {
		v   []string
		err error
	}
	second := make(chan result, 1)
	go func() {
		v, err := Load(context.Background(), c, EntityItems, "", fetch)
		second <- result{v, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	r := <-second
	require.NoError(t, r.err)
	assert.Equal(t, []string{"a"}, r.v)
}

func TestRedisBroadcasterInvalidatesOtherInstance(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := pkgcache.NewRedisClient(&pkgcache.Config{Addr: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	log := logger.NewNop()
	local := New(DefaultTTL, log, WithBroadcaster(NewRedisBroadcaster(client, log)))
	remote := New(DefaultTTL, log)
	remote.Set(EntityItems, "", []string{"x"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go NewRedisBroadcaster(client, log).Listen(ctx, remote)

	assert.Eventually(t, func() bool {
		local.Invalidate(ctx, EntityItems)
		return !remote.Get(EntityItems, "").Present
	}, 2*time.Second, 20*time.Millisecond)
}
