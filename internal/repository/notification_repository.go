package repository

import (
	"context"
	"errors"
	"time"

	"lifeflow-server/internal/domain/notification"
	lifeflow_errors "lifeflow-server/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresNotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

func (r *PostgresNotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	res := r.db.WithContext(ctx).Create(n)
	if res.Error != nil {
		return res.Error
	}
	return nil
}

func (r *PostgresNotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (notification.Notification, error) {
	var n notification.Notification
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notification.Notification{}, lifeflow_errors.ErrNotFound
		}
		return notification.Notification{}, err
	}
	return n, nil
}

func (r *PostgresNotificationRepository) Update(ctx context.Context, n notification.Notification) error {
	res := r.db.WithContext(ctx).Save(&n)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return lifeflow_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresNotificationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&notification.Notification{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return lifeflow_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresNotificationRepository) GetUserNotifications(ctx context.Context, recipientID uuid.UUID, page, limit int) ([]notification.Notification, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx).
		Model(&notification.Notification{}).
		Where("recipient_id = ?", recipientID), page, limit)
}

func (r *PostgresNotificationRepository) GetUnreadNotifications(ctx context.Context, recipientID uuid.UUID, page, limit int) ([]notification.Notification, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx).
		Model(&notification.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false), page, limit)
}

func (r *PostgresNotificationRepository) GetNotificationsByType(ctx context.Context, recipientID uuid.UUID, nType notification.Type, page, limit int) ([]notification.Notification, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx).
		Model(&notification.Notification{}).
		Where("recipient_id = ? AND type = ?", recipientID, nType), page, limit)
}

func (r *PostgresNotificationRepository) list(ctx context.Context, q *gorm.DB, page, limit int) ([]notification.Notification, int64, error) {
	var notifications []notification.Notification
	var total int64

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := q.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&notifications).Error; err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

func (r *PostgresNotificationRepository) CountUnread(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&notification.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresNotificationRepository) CountAll(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&notification.Notification{}).
		Where("recipient_id = ?", recipientID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresNotificationRepository) MarkAllAsRead(ctx context.Context, recipientID uuid.UUID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&notification.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Updates(map[string]interface{}{
			"is_read": true,
			"read_at": at,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *PostgresNotificationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Delete(&notification.Notification{}, "created_at < ?", cutoff)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *PostgresNotificationRepository) DeleteOldForRecipient(ctx context.Context, recipientID uuid.UUID, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Delete(&notification.Notification{}, "recipient_id = ? AND created_at < ?", recipientID, cutoff)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
