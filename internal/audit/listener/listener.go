package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-erp-service/internal/audit"
	"github.com/fekuna/omnipos-erp-service/internal/audit/recorder"
	"github.com/fekuna/omnipos-erp-service/internal/cache"
	"github.com/fekuna/omnipos-erp-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// AuditListener persists audit events published by recorder.KafkaRecorder.
type AuditListener struct {
	consumer MessageReader
	repo     audit.Repository
	cache    *cache.Cache
	logger   logger.ZapLogger
	backoff  time.Duration
}

func NewAuditListener(consumer MessageReader, repo audit.Repository, c *cache.Cache, logger logger.ZapLogger) *AuditListener {
	return &AuditListener{
		consumer: consumer,
		repo:     repo,
		cache:    c,
		logger:   logger,
		backoff:  time.Second,
	}
}

func (l *AuditListener) Start(ctx context.Context) {
	l.logger.Info("Starting Audit Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Audit Kafka Listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(l.backoff)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

func (l *AuditListener) processMessage(ctx context.Context, value []byte) {
	var event recorder.Event
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal audit event", zap.Error(err))
		return
	}
	if event.Entry.Entity == "" || event.Entry.EventType == "" {
		l.logger.Warn("Skipping malformed audit event", zap.String("event_id", event.EventID))
		return
	}

	log, err := recorder.ToLog(event.Entry, event.Timestamp)
	if err != nil {
		l.logger.Error("Failed to encode audit payload", zap.String("event_id", event.EventID), zap.Error(err))
		return
	}
	if err := l.repo.Insert(ctx, log); err != nil {
		l.logger.Error("Failed to persist audit event",
			zap.String("event_id", event.EventID),
			zap.String("entity", event.Entry.Entity),
			zap.Error(err),
		)
		return
	}
	if l.cache != nil {
		l.cache.Invalidate(ctx, cache.EntityAuditLogs)
	}
}
