package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/inceCheng/GigaLike/domain"
	"github.com/inceCheng/GigaLike/internal/repository/mysql/model"
)

type notificationRepository struct {
	DB *gorm.DB
}

var _ domain.NotificationRepository = (*notificationRepository)(nil)

func NewNotificationRepository(db *gorm.DB) *notificationRepository {
	return &notificationRepository{db}
}

func (m *notificationRepository) Store(ctx context.Context, n *domain.Notification) error {
	notificationModel := model.NewNotificationFromDomain(n)
	result := m.DB.WithContext(ctx).Create(notificationModel)
	if result.Error != nil {
		return result.Error
	}
	n.ID = notificationModel.ID
	n.CreatedAt = notificationModel.CreatedAt
	n.UpdatedAt = notificationModel.UpdatedAt
	return nil
}

func (m *notificationRepository) GetByID(ctx context.Context, id int64) (domain.Notification, error) {
	var notification model.Notification
	err := m.DB.WithContext(ctx).First(&notification, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Notification{}, domain.ErrNotFound
		}
		return domain.Notification{}, err
	}
	return notification.ToDomain(), nil
}

func (m *notificationRepository) Fetch(ctx context.Context, q domain.NotificationQuery) ([]domain.Notification, int64, error) {
	query := m.DB.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ?", q.UserID)
	if q.IsRead != nil {
		query = query.Where("is_read = ?", *q.IsRead)
	}
	if q.Type != "" {
		query = query.Where("type = ?", q.Type)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []model.Notification
	err := query.
		Order("created_at desc").
		Offset(int((q.Page - 1) * q.PageSize)).
		Limit(int(q.PageSize)).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, err
	}

	res := make([]domain.Notification, len(notifications))
	for i := range notifications {
		res[i] = notifications[i].ToDomain()
	}
	return res, total, nil
}

func (m *notificationRepository) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := m.DB.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, domain.NotificationUnread).
		Count(&count).Error
	return count, err
}

func (m *notificationRepository) MarkRead(ctx context.Context, id int64) error {
	now := time.Now()
	result := m.DB.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ? AND is_read = ?", id, domain.NotificationUnread).
		Updates(map[string]any{
			"is_read":    domain.NotificationRead,
			"read_time":  now,
			"updated_at": now,
		})
	return result.Error
}

func (m *notificationRepository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	now := time.Now()
	result := m.DB.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, domain.NotificationUnread).
		Updates(map[string]any{
			"is_read":    domain.NotificationRead,
			"read_time":  now,
			"updated_at": now,
		})
	return result.RowsAffected, result.Error
}

func (m *notificationRepository) Delete(ctx context.Context, id int64) error {
	result := m.DB.WithContext(ctx).Delete(&model.Notification{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteOld 保留用户最近的 keep 条通知, 其余删除
func (m *notificationRepository) DeleteOld(ctx context.Context, userID int64, keep int64) (int64, error) {
	var cutoff model.Notification
	err := m.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Offset(int(keep - 1)).
		First(&cutoff).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 不足 keep 条, 无需清理
			return 0, nil
		}
		return 0, err
	}

	result := m.DB.WithContext(ctx).
		Where("user_id = ? AND created_at < ?", userID, cutoff.CreatedAt).
		Delete(&model.Notification{})
	return result.RowsAffected, result.Error
}
