package audit

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rckrdmrd/glit-backend-sub002/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	queueSize = 1024
	batchSize = 100
	flushTick = 2 * time.Second
)

// Entry holds one privileged action to be recorded.
type Entry struct {
	ActorID    string
	Action     string // e.g. guild.kick, assignment.grade
	TargetType string
	TargetID   string
	Request    interface{}
	Error      string
}

// Recorder is what engines depend on. A nil Recorder records nothing.
type Recorder interface {
	Log(ctx context.Context, entry Entry)
}

type metaKey struct{}

type requestMeta struct {
	traceID string
	ip      string
}

// WithRequestMeta attaches the trace id and client ip of the inbound request.
func WithRequestMeta(ctx context.Context, traceID, ip string) context.Context {
	return context.WithValue(ctx, metaKey{}, requestMeta{traceID: traceID, ip: ip})
}

// Service writes audit rows from a background goroutine so request
// handlers never wait on the audit table.
type Service struct {
	db      *gorm.DB
	ch      chan *model.AuditLog
	stopCh  chan struct{}
	done    chan struct{}
	once    sync.Once
	stopped atomic.Bool
	dropped atomic.Int64
	logger  *zap.Logger
}

// New creates a new audit Service and starts its background worker.
func New(db *gorm.DB, logger *zap.Logger) *Service {
	svc := &Service{
		db:     db,
		ch:     make(chan *model.AuditLog, queueSize),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
		logger: logger,
	}
	go svc.worker()
	return svc
}

// Log enqueues an entry for async DB write. Entries are dropped when the
// queue is full or the service has stopped.
func (svc *Service) Log(ctx context.Context, entry Entry) {
	if svc.stopped.Load() {
		svc.dropped.Add(1)
		return
	}
	var req datatypes.JSON
	if entry.Request != nil {
		if raw, err := json.Marshal(entry.Request); err == nil {
			req = datatypes.JSON(raw)
		}
	}
	meta, _ := ctx.Value(metaKey{}).(requestMeta)
	record := &model.AuditLog{
		TraceID:    meta.traceID,
		ActorID:    entry.ActorID,
		Action:     entry.Action,
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
		Request:    req,
		Error:      entry.Error,
		IP:         meta.ip,
	}
	select {
	case svc.ch <- record:
	default:
		svc.dropped.Add(1)
		svc.logger.Warn("audit channel full, dropping entry",
			zap.String("action", entry.Action),
			zap.String("actor_id", entry.ActorID))
	}
}

// Dropped returns how many entries were discarded.
func (svc *Service) Dropped() int64 { return svc.dropped.Load() }

// Stop flushes queued entries and waits for the worker, giving up when ctx
// ends first.
func (svc *Service) Stop(ctx context.Context) error {
	svc.once.Do(func() {
		svc.stopped.Store(true)
		close(svc.stopCh)
	})
	select {
	case <-svc.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (svc *Service) worker() {
	defer close(svc.done)
	ticker := time.NewTicker(flushTick)
	defer ticker.Stop()

	batch := make([]*model.AuditLog, 0, batchSize)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := svc.db.Create(&batch).Error; err != nil {
			svc.logger.Error("audit batch write failed", zap.Int("size", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case entry := <-svc.ch:
			batch = append(batch, entry)
			if len(batch) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-svc.stopCh:
			for {
				select {
				case entry := <-svc.ch:
					batch = append(batch, entry)
				default:
					flush()
					return
				}
			}
		}
	}
}
