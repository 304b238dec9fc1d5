package domain

import (
	"context"
	"time"
)

// Notification types. Unknown types fall back to a default template.
const (
	NotificationTypeLike    = "LIKE"
	NotificationTypeComment = "COMMENT"
	NotificationTypeFollow  = "FOLLOW"
	NotificationTypeSystem  = "SYSTEM"
)

// Related resource types carried by a notification
const (
	RelatedTypeBlog    = "BLOG"
	RelatedTypeComment = "COMMENT"
	RelatedTypeUser    = "USER"
)

const (
	NotificationUnread = 0
	NotificationRead   = 1

	// NotificationKeepCount 清理旧通知时每个用户保留的条数
	NotificationKeepCount = 1000
)

// NotificationEvent is the message consumed by the notification pipeline.
// SenderID == 0 means a system notification.
type NotificationEvent struct {
	UserID      int64          `json:"userId"`
	SenderID    int64          `json:"senderId"`
	Type        string         `json:"type"`
	RelatedID   int64          `json:"relatedId"`
	RelatedType string         `json:"relatedType"`
	ExtraData   map[string]any `json:"extraData"`
	EventTime   time.Time      `json:"eventTime"`
}

// Notification is representing a persisted notification row
type Notification struct {
	ID          int64
	UserID      int64
	SenderID    int64
	Type        string
	Title       string
	Content     string
	RelatedID   int64
	RelatedType string
	IsRead      int
	ReadTime    *time.Time
	ExtraData   map[string]any
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Sender 发送者信息, 查询时填充
	Sender *User
}

// NotificationQuery filters the pull API
type NotificationQuery struct {
	UserID   int64
	IsRead   *int
	Type     string
	Page     int64
	PageSize int64
}

// NotificationRepository defines the contract for notification persistence
type NotificationRepository interface {
	Store(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, id int64) (Notification, error)
	Fetch(ctx context.Context, q NotificationQuery) ([]Notification, int64, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	MarkRead(ctx context.Context, id int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	Delete(ctx context.Context, id int64) error

	// DeleteOld removes all but the most recent keep rows of the user,
	// returns the number of deleted rows
	DeleteOld(ctx context.Context, userID int64, keep int64) (int64, error)
}

// NotificationUsecase is the business contract for the notification pipeline
type NotificationUsecase interface {
	// CreateFromEvent persists a notification for the event and attempts an
	// immediate push. Self-notifications are suppressed. A push failure is
	// non-fatal: the row is always retrievable through Fetch.
	CreateFromEvent(ctx context.Context, event NotificationEvent) error

	Fetch(ctx context.Context, q NotificationQuery) ([]Notification, int64, error)
	UnreadCount(ctx context.Context, userID int64) (int64, error)
	MarkRead(ctx context.Context, notificationID, userID int64) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	Delete(ctx context.Context, notificationID, userID int64) error
	CleanOld(ctx context.Context, userID int64) (int64, error)
}
