// Package notification stores per-user notifications and pushes them to live
// subscribers.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rckrdmrd/glit-backend-sub002/apperr"
	dbadapter "github.com/rckrdmrd/glit-backend-sub002/db"
	"github.com/rckrdmrd/glit-backend-sub002/model"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notifier is the dependency engines use to tell a user something happened.
// Delivery failures are logged, never returned.
type Notifier interface {
	Notify(ctx context.Context, userID, kind, title, message string, data any)
}

// Publisher pushes a stored notification to a transport.
type Publisher interface {
	Publish(ctx context.Context, n *model.Notification) error
}

const maxPageSize = 100

// Service persists notifications and fans them out to publishers.
type Service struct {
	db         *gorm.DB
	publishers []Publisher
	logger     *zap.Logger
}

// NewService creates a notification Service.
func NewService(db *gorm.DB, logger *zap.Logger, publishers ...Publisher) *Service {
	return &Service{db: db, publishers: publishers, logger: logger}
}

// Send stores a notification for userID and publishes it. When ctx carries a
// transaction the row is written inside it.
func (svc *Service) Send(ctx context.Context, userID, kind, title, message string, data any) (*model.Notification, error) {
	n := &model.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   title,
		Message: message,
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		n.Data = datatypes.JSON(raw)
	}
	if err := dbadapter.Conn(ctx, svc.db).Create(n).Error; err != nil {
		svc.logger.Error("notification insert failed", zap.String("user_id", userID), zap.String("type", kind), zap.Error(err))
		return nil, apperr.Internal(err)
	}
	for _, p := range svc.publishers {
		if err := p.Publish(ctx, n); err != nil {
			svc.logger.Warn("notification publish failed",
				zap.String("notification_id", n.ID), zap.String("user_id", userID), zap.Error(err))
		}
	}
	return n, nil
}

// Notify implements Notifier.
func (svc *Service) Notify(ctx context.Context, userID, kind, title, message string, data any) {
	_, _ = svc.Send(ctx, userID, kind, title, message, data)
}

// Page is one page of a user's notifications.
type Page struct {
	Items  []model.Notification `json:"items"`
	Total  int64                `json:"total"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

// List returns the user's notifications, newest first.
func (svc *Service) List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) (*Page, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	q := dbadapter.Conn(ctx, svc.db).Model(&model.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	page := &Page{Limit: limit, Offset: offset}
	if err := q.Count(&page.Total).Error; err != nil {
		return nil, svc.internal("notification count failed", userID, err)
	}
	if err := q.Order("created_at DESC").Order("id").Limit(limit).Offset(offset).Find(&page.Items).Error; err != nil {
		return nil, svc.internal("notification list failed", userID, err)
	}
	return page, nil
}

// UnreadCount returns how many unread notifications the user has.
func (svc *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := dbadapter.Conn(ctx, svc.db).Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).Count(&n).Error
	if err != nil {
		return 0, svc.internal("notification unread count failed", userID, err)
	}
	return n, nil
}

// MarkRead marks one of the user's notifications read. Notifications of other
// users are reported as not found.
func (svc *Service) MarkRead(ctx context.Context, id, userID string) (*model.Notification, error) {
	var n model.Notification
	err := dbadapter.Conn(ctx, svc.db).Where("id = ? AND user_id = ?", id, userID).First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(apperr.CodeNotFound, "notification not found")
	}
	if err != nil {
		return nil, svc.internal("notification load failed", userID, err)
	}
	if n.IsRead {
		return &n, nil
	}
	now := time.Now()
	err = dbadapter.Conn(ctx, svc.db).Model(&n).Updates(map[string]any{"is_read": true, "read_at": now}).Error
	if err != nil {
		return nil, svc.internal("notification mark read failed", userID, err)
	}
	n.IsRead, n.ReadAt = true, &now
	return &n, nil
}

// MarkAllRead marks every unread notification of the user read and returns
// how many changed.
func (svc *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	res := dbadapter.Conn(ctx, svc.db).Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{"is_read": true, "read_at": time.Now()})
	if res.Error != nil {
		return 0, svc.internal("notification mark all read failed", userID, res.Error)
	}
	return res.RowsAffected, nil
}

// Prune deletes notifications created before cutoff.
func (svc *Service) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res := dbadapter.Conn(ctx, svc.db).Where("created_at < ?", cutoff).Delete(&model.Notification{})
	if res.Error != nil {
		svc.logger.Error("notification prune failed", zap.Time("cutoff", cutoff), zap.Error(res.Error))
		return 0, apperr.Internal(res.Error)
	}
	if res.RowsAffected > 0 {
		svc.logger.Info("notifications pruned", zap.Int64("count", res.RowsAffected))
	}
	return res.RowsAffected, nil
}

func (svc *Service) internal(msg, userID string, err error) error {
	svc.logger.Error(msg, zap.String("user_id", userID), zap.Error(err))
	return apperr.Internal(err)
}
