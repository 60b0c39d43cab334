package cache

import (
	"context"
	"strings"

	pkgcache "github.com/fekuna/omnipos-erp-service/pkg/cache"
	"github.com/fekuna/omnipos-erp-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const InvalidationChannel = "erp:cache:invalidate"

// RedisBroadcaster publishes "<instance>|<entity>" on a pub/sub channel.
type RedisBroadcaster struct {
	client     *pkgcache.RedisClient
	instanceID string
	logger     logger.ZapLogger
}

func NewRedisBroadcaster(client *pkgcache.RedisClient, log logger.ZapLogger) *RedisBroadcaster {
	return &RedisBroadcaster{
		client:     client,
		instanceID: uuid.New().String(),
		logger:     log,
	}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, e Entity) error {
	return b.client.Publish(ctx, InvalidationChannel, b.instanceID+"|"+string(e))
}

// Listen applies invalidations published by other instances until ctx ends.
func (b *RedisBroadcaster) Listen(ctx context.Context, c *Cache) {
	sub := b.client.Subscribe(ctx, InvalidationChannel)
	defer sub.Close()

	b.logger.Info("Listening for cache invalidations", zap.String("channel", InvalidationChannel))
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			instance, entity, found := strings.Cut(msg.Payload, "|")
			if !found || instance == b.instanceID {
				continue
			}
			c.InvalidateLocal(Entity(entity))
		}
	}
}
