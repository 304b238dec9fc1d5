package model

import (
	"time"

	"github.com/inceCheng/GigaLike/domain"
)

type Blog struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	Title      string    `gorm:"type:varchar(100);not null"`
	Content    string    `gorm:"type:longtext"`
	UserID     int64     `gorm:"column:user_id;not null"`
	ThumbCount int64     `gorm:"column:thumb_count;default:0"`
	ViewCount  int64     `gorm:"column:view_count;default:0"`
	CreatedAt  time.Time `gorm:"type:datetime"`
	UpdatedAt  time.Time `gorm:"type:datetime"`
}

func (Blog) TableName() string {
	return "blog"
}

func (m *Blog) ToDomain() domain.Blog {
	return domain.Blog{
		ID:         m.ID,
		Title:      m.Title,
		Content:    m.Content,
		UserID:     m.UserID,
		ThumbCount: m.ThumbCount,
		ViewCount:  m.ViewCount,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}
