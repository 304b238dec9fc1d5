package domain

import (
	"context"
	"time"
)

// Blog is the content item being liked. Full blog/topic CRUD lives in
// another service; the core only reads it and maintains thumb_count.
type Blog struct {
	ID         int64
	Title      string
	Content    string
	UserID     int64
	ThumbCount int64
	ViewCount  int64
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// HasThumb 当前登录用户是否点过赞, 查询时填充
	HasThumb bool
}

// BlogRepository is the narrow contract the core consumes
type BlogRepository interface {
	// GetByID retrieves a single blog.
	// Returns ErrNotFound if the blog doesn't exist.
	GetByID(ctx context.Context, id int64) (Blog, error)

	// ApplyThumbDeltas applies buffered count deltas in one batched
	// statement, `thumb_count = thumb_count + delta` per blog
	ApplyThumbDeltas(ctx context.Context, deltas map[int64]int64) error

	// FetchIDs 按主键分页取博客ID, 用于初始化布隆过滤器
	FetchIDs(ctx context.Context, cursor, limit int64) ([]int64, error)
}
