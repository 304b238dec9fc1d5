package model

import (
	"encoding/json"
	"time"

	"github.com/inceCheng/GigaLike/domain"
)

type Notification struct {
	ID          int64      `gorm:"primaryKey;autoIncrement"`
	UserID      int64      `gorm:"column:user_id;not null;index"`
	SenderID    int64      `gorm:"column:sender_id"`
	Type        string     `gorm:"type:varchar(20);not null"`
	Title       string     `gorm:"type:varchar(100)"`
	Content     string     `gorm:"type:varchar(500)"`
	RelatedID   int64      `gorm:"column:related_id"`
	RelatedType string     `gorm:"column:related_type;type:varchar(20)"`
	IsRead      int        `gorm:"column:is_read;default:0"`
	ReadTime    *time.Time `gorm:"column:read_time;type:datetime"`
	ExtraData   string     `gorm:"column:extra_data;type:text"`
	CreatedAt   time.Time  `gorm:"type:datetime"`
	UpdatedAt   time.Time  `gorm:"type:datetime"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (m *Notification) ToDomain() domain.Notification {
	var extra map[string]any
	if m.ExtraData != "" {
		_ = json.Unmarshal([]byte(m.ExtraData), &extra)
	}
	return domain.Notification{
		ID:          m.ID,
		UserID:      m.UserID,
		SenderID:    m.SenderID,
		Type:        m.Type,
		Title:       m.Title,
		Content:     m.Content,
		RelatedID:   m.RelatedID,
		RelatedType: m.RelatedType,
		IsRead:      m.IsRead,
		ReadTime:    m.ReadTime,
		ExtraData:   extra,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func NewNotificationFromDomain(n *domain.Notification) *Notification {
	extra := ""
	if len(n.ExtraData) > 0 {
		if data, err := json.Marshal(n.ExtraData); err == nil {
			extra = string(data)
		}
	}
	return &Notification{
		ID:          n.ID,
		UserID:      n.UserID,
		SenderID:    n.SenderID,
		Type:        n.Type,
		Title:       n.Title,
		Content:     n.Content,
		RelatedID:   n.RelatedID,
		RelatedType: n.RelatedType,
		IsRead:      n.IsRead,
		ReadTime:    n.ReadTime,
		ExtraData:   extra,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}
