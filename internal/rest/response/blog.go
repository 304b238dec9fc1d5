package response

import (
	"github.com/inceCheng/GigaLike/domain"
)

type Blog struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	UserID     int64  `json:"user_id"`
	ThumbCount int64  `json:"thumb_count"`
	ViewCount  int64  `json:"view_count"`
	HasThumb   bool   `json:"has_thumb"`
	CreatedAt  string `json:"created_at"`
}

// FromDomain: Domain -> Response
func NewBlogFromDomain(b *domain.Blog) Blog {
	return Blog{
		ID:         b.ID,
		Title:      b.Title,
		Content:    b.Content,
		UserID:     b.UserID,
		ThumbCount: b.ThumbCount,
		ViewCount:  b.ViewCount,
		HasThumb:   b.HasThumb,
		CreatedAt:  b.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}
