package repository

import (
	"campus-events-backend/cmd/campus-events/model"
	"context"
	"time"

	"gorm.io/gorm"
)

const notificationBatchSize = 100

type NotificationRepo struct {
	db *gorm.DB
}

func NewNotificationRepo(db *gorm.DB) *NotificationRepo {
	return &NotificationRepo{
		db: db,
	}
}

func (r *NotificationRepo) CreateNotification(ctx context.Context, notification *model.Notification) error {

	result := conn(ctx, r.db).
		Create(notification)

	return translate(result.Error, "notification")
}

func (r *NotificationRepo) CreateNotifications(ctx context.Context, notifications []model.Notification) error {

	if len(notifications) == 0 {
		return nil
	}

	result := conn(ctx, r.db).
		CreateInBatches(notifications, notificationBatchSize)

	return translate(result.Error, "notification")
}

func (r *NotificationRepo) GetNotification(ctx context.Context, id string) (model.Notification, error) {

	var notification model.Notification

	result := conn(ctx, r.db).
		Where("id = ?", id).
		First(&notification)

	return notification, translate(result.Error, "notification")
}

func (r *NotificationRepo) UpdateNotification(ctx context.Context, notification *model.Notification) error {

	result := conn(ctx, r.db).
		Save(notification)

	return translate(result.Error, "notification")
}

func (r *NotificationRepo) DeleteNotification(ctx context.Context, id string) error {

	result := conn(ctx, r.db).
		Where("id = ?", id).
		Delete(&model.Notification{})

	if result.Error != nil {
		return translate(result.Error, "notification")
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound("notification not found")
	}

	return nil
}

// unexpired restricts q to rows whose expiry is unset or in the future.
func unexpired(q *gorm.DB, now time.Time) *gorm.DB {
	return q.Where("expires_at IS NULL OR expires_at > ?", now)
}

func (r *NotificationRepo) ListNotifications(ctx context.Context, filter model.NotificationFilter) ([]model.Notification, int64, error) {

	var (
		notifications []model.Notification
		total         int64
	)

	q := conn(ctx, r.db).
		Model(&model.Notification{}).
		Where("recipient_id = ?", filter.RecipientID)
	q = unexpired(q, filter.Now)

	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Priority != "" {
		q = q.Where("priority = ?", filter.Priority)
	}
	if filter.IsRead != nil {
		q = q.Where("is_read = ?", *filter.IsRead)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "notification")
	}

	page := filter.Page.Normalize()
	result := q.
		Order("create_date DESC").
		Limit(page.Limit).
		Offset(page.Offset()).
		Find(&notifications)

	if result.Error != nil {
		return nil, 0, translate(result.Error, "notification")
	}

	return notifications, total, nil
}

func (r *NotificationRepo) CountUnread(ctx context.Context, recipientID string, now time.Time) (int64, error) {

	var total int64

	q := conn(ctx, r.db).
		Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false)

	result := unexpired(q, now).
		Count(&total)

	return total, translate(result.Error, "notification")
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, recipientID string, now time.Time) (int64, error) {

	result := conn(ctx, r.db).
		Model(&model.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		UpdateColumns(map[string]any{
			"is_read":     true,
			"read_at":     now,
			"update_date": now,
		})

	return result.RowsAffected, translate(result.Error, "notification")
}

// ListDue returns outbox rows ready for delivery: pending, due, not touched
// within grace, unexpired and with a channel that has a transport.
func (r *NotificationRepo) ListDue(ctx context.Context, now time.Time, grace time.Duration, limit int) ([]model.Notification, error) {

	var notifications []model.Notification

	q := conn(ctx, r.db).
		Where("status = ?", model.NotificationPending).
		Where("scheduled_for IS NULL OR scheduled_for <= ?", now).
		Where("update_date <= ?", now.Add(-grace)).
		Where("in_app_enabled = ? OR email_enabled = ?", true, true)

	result := unexpired(q, now).
		Order("create_date ASC").
		Limit(limit).
		Find(&notifications)

	if result.Error != nil {
		return nil, translate(result.Error, "notification")
	}

	return notifications, nil
}

func (r *NotificationRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {

	result := conn(ctx, r.db).
		Where("expires_at < ?", now).
		Delete(&model.Notification{})

	return result.RowsAffected, translate(result.Error, "notification")
}
