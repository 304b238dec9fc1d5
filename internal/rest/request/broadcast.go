package request

type Broadcast struct {
	Message string `json:"message" binding:"required"`
}
