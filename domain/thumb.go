package domain

import (
	"context"
	"time"
)

const (
	// 默认每个用户只预热最近的300条点赞记录
	ThumbRecordLimit = 300

	// PendingThumbID 点赞刚写入缓存、消费者还没落库时的占位记录ID
	PendingThumbID int64 = 1
)

// Thumb is representing a durable like record, one per (user, blog)
type Thumb struct {
	ID        int64
	UserID    int64
	BlogID    int64
	CreatedAt time.Time
}

// ThumbEventType marks the direction of a toggle
type ThumbEventType string

const (
	ThumbEventIncr ThumbEventType = "INCR"
	ThumbEventDecr ThumbEventType = "DECR"
)

// ThumbEvent is the message published to the broker after a successful
// toggle. Delivery is at-least-once; consumers dedupe by the presence of
// the durable Thumb record.
type ThumbEvent struct {
	BlogID    int64          `json:"blogId"`
	UserID    int64          `json:"userId"`
	Type      ThumbEventType `json:"type"`
	EventTime time.Time      `json:"eventTime"`
}

// ThumbService is the public like/unlike contract. Implementations are
// swappable strategies picked once at construction time.
type ThumbService interface {
	// DoThumb records a like exactly once per (user, blog).
	// Returns ErrAlreadyThumbed if the user already liked the blog.
	DoThumb(ctx context.Context, userID, blogID int64) error

	// UndoThumb removes a like.
	// Returns ErrNotThumbed if there is nothing to remove.
	UndoThumb(ctx context.Context, userID, blogID int64) error

	// HasThumb reports whether the user currently likes the blog.
	HasThumb(ctx context.Context, blogID, userID int64) (bool, error)
}

// ThumbRepository defines the contract for durable thumb records
type ThumbRepository interface {
	// Insert creates a thumb record and backfills its ID
	Insert(ctx context.Context, t *Thumb) error

	// Delete removes a thumb record by its ID
	Delete(ctx context.Context, id int64) error

	// Find returns the thumb record for (userID, blogID).
	// Returns ErrNotFound if absent.
	Find(ctx context.Context, userID, blogID int64) (Thumb, error)

	// FetchUserThumbs 按 blog_id DESC 取某个用户最近的点赞记录, 用于预热缓存
	FetchUserThumbs(ctx context.Context, userID int64, limit int64) ([]Thumb, error)
}

// ThumbCache is the atomic membership store. The Add/Remove check-and-set
// pair runs as a single Redis Lua script, which is the only serialization
// point for concurrent toggles on the same (user, blog).
type ThumbCache interface {
	// AddThumb atomically checks-and-sets the membership.
	// Returns ErrAlreadyThumbed when the membership is already present.
	// An absent field means not liked; the store is authoritative.
	AddThumb(ctx context.Context, userID, blogID int64) error

	// RemoveThumb atomically checks-and-deletes the membership.
	// Returns ErrNotThumbed when there is nothing to remove.
	RemoveThumb(ctx context.Context, userID, blogID int64) error

	// RollbackAdd / RollbackRemove compensate a toggle whose event could
	// not be published, so the fast-read view never leads the durable side.
	RollbackAdd(ctx context.Context, userID, blogID int64) error
	RollbackRemove(ctx context.Context, userID, blogID int64) error

	// SetThumbRecordID replaces the pending marker with the durable record ID
	SetThumbRecordID(ctx context.Context, userID, blogID, thumbID int64) error

	HasThumb(ctx context.Context, userID, blogID int64) (bool, error)

	// SetUserThumbs seeds the membership hash from durable records
	SetUserThumbs(ctx context.Context, userID int64, thumbs []Thumb) error
}

// ThumbAggregator buffers per-blog count deltas and flushes them to the
// counter column on a fixed schedule
type ThumbAggregator interface {
	Start(ctx context.Context)

	// RecordDelta adds +1/-1 for the blog into the current time slice
	RecordDelta(blogID int64, delta int64)
}
