package model

import (
	"time"

	"github.com/inceCheng/GigaLike/domain"
)

type User struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	Username    string    `gorm:"type:varchar(45);not null;uniqueIndex"`
	DisplayName string    `gorm:"column:display_name;type:varchar(45)"`
	Password    string    `gorm:"type:varchar(100);not null"`
	CreatedAt   time.Time `gorm:"type:datetime"`
	UpdatedAt   time.Time `gorm:"type:datetime"`
}

func (User) TableName() string {
	return "users"
}

func (m *User) ToDomain() domain.User {
	return domain.User{
		ID:          m.ID,
		Username:    m.Username,
		DisplayName: m.DisplayName,
		Password:    m.Password,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
