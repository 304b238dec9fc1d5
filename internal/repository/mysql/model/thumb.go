package model

import (
	"time"

	"github.com/inceCheng/GigaLike/domain"
)

type Thumb struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex:idx_user_blog"`
	BlogID    int64     `gorm:"column:blog_id;not null;uniqueIndex:idx_user_blog"`
	CreatedAt time.Time `gorm:"type:datetime"`
}

func (Thumb) TableName() string {
	return "thumb"
}

func (m *Thumb) ToDomain() domain.Thumb {
	return domain.Thumb{
		ID:        m.ID,
		UserID:    m.UserID,
		BlogID:    m.BlogID,
		CreatedAt: m.CreatedAt,
	}
}

func NewThumbFromDomain(t *domain.Thumb) *Thumb {
	return &Thumb{
		ID:        t.ID,
		UserID:    t.UserID,
		BlogID:    t.BlogID,
		CreatedAt: t.CreatedAt,
	}
}
