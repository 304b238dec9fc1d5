package request

type DoThumb struct {
	BlogID int64 `json:"blog_id" binding:"required,gt=0"`
}
