package response

import (
	"github.com/inceCheng/GigaLike/domain"
)

type Sender struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

type Notification struct {
	ID          int64          `json:"id"`
	Type        string         `json:"type"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	RelatedID   int64          `json:"related_id"`
	RelatedType string         `json:"related_type"`
	IsRead      int            `json:"is_read"`
	ReadTime    string         `json:"read_time,omitempty"`
	ExtraData   map[string]any `json:"extra_data,omitempty"`
	CreatedAt   string         `json:"created_at"`
	Sender      *Sender        `json:"sender,omitempty"`
}

// FromDomain: Domain -> Response
func NewNotificationFromDomain(n *domain.Notification) Notification {
	res := Notification{
		ID:          n.ID,
		Type:        n.Type,
		Title:       n.Title,
		Content:     n.Content,
		RelatedID:   n.RelatedID,
		RelatedType: n.RelatedType,
		IsRead:      n.IsRead,
		ExtraData:   n.ExtraData,
		CreatedAt:   n.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if n.ReadTime != nil {
		res.ReadTime = n.ReadTime.Format("2006-01-02 15:04:05")
	}
	if n.Sender != nil {
		res.Sender = &Sender{
			ID:          n.Sender.ID,
			Username:    n.Sender.Username,
			DisplayName: n.Sender.DisplayName,
		}
	}
	return res
}
