package recorder

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/fekuna/omnipos-erp-service/internal/audit"
	"github.com/fekuna/omnipos-erp-service/internal/cache"
	"github.com/fekuna/omnipos-erp-service/internal/model"
	"github.com/fekuna/omnipos-erp-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const writeTimeout = 5 * time.Second

// ToLog converts an entry into the row written to audit_logs.
func ToLog(e audit.Entry, now time.Time) (*model.AuditLog, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, err
	}
	var performedBy *string
	if e.PerformedBy != "" {
		p := e.PerformedBy
		performedBy = &p
	}
	return &model.AuditLog{
		ID:          uuid.New().String(),
		EventType:   e.EventType,
		Entity:      e.Entity,
		EntityID:    e.EntityID,
		PerformedBy: performedBy,
		Payload:     payload,
		CreatedAt:   now,
	}, nil
}

// DBRecorder inserts entries on a background goroutine.
type DBRecorder struct {
	repo   audit.Repository
	cache  *cache.Cache
	logger logger.ZapLogger
	wg     sync.WaitGroup
}

// NewDBRecorder builds a recorder; c may be nil when no audit list is cached.
func NewDBRecorder(repo audit.Repository, c *cache.Cache, log logger.ZapLogger) *DBRecorder {
	return &DBRecorder{repo: repo, cache: c, logger: log}
}

func (r *DBRecorder) Record(ctx context.Context, e audit.Entry) {
	l, err := ToLog(e, time.Now())
	if err != nil {
		r.logger.Error("failed to encode audit payload", zap.String("entity", e.Entity), zap.Error(err))
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
		defer cancel()
		if err := r.repo.Insert(wctx, l); err != nil {
			r.logger.Error("failed to write audit log",
				zap.String("entity", l.Entity),
				zap.String("entity_id", l.EntityID),
				zap.Error(err),
			)
			return
		}
		if r.cache != nil {
			r.cache.Invalidate(wctx, cache.EntityAuditLogs)
		}
	}()
}

// Wait blocks until in-flight writes finish. Called on shutdown.
func (r *DBRecorder) Wait() {
	r.wg.Wait()
}

type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// KafkaRecorder publishes entries to the audit topic; the audit listener
// persists them.
type KafkaRecorder struct {
	producer Publisher
	logger   logger.ZapLogger
	wg       sync.WaitGroup
}

func NewKafkaRecorder(p Publisher, log logger.ZapLogger) *KafkaRecorder {
	return &KafkaRecorder{producer: p, logger: log}
}

type Event struct {
	EventID   string      `json:"event_id"`
	Entry     audit.Entry `json:"entry"`
	Timestamp time.Time   `json:"timestamp"`
}

func (r *KafkaRecorder) Record(ctx context.Context, e audit.Entry) {
	ev := Event{EventID: uuid.New().String(), Entry: e, Timestamp: time.Now()}
	body, err := json.Marshal(ev)
	if err != nil {
		r.logger.Error("failed to encode audit event", zap.String("entity", e.Entity), zap.Error(err))
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
		defer cancel()
		if err := r.producer.Publish(wctx, e.Entity+":"+e.EntityID, body); err != nil {
			r.logger.Error("failed to publish audit event", zap.String("entity", e.Entity), zap.Error(err))
		}
	}()
}

func (r *KafkaRecorder) Wait() {
	r.wg.Wait()
}
