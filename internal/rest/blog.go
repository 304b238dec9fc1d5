package rest

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/inceCheng/GigaLike/domain"
	"github.com/inceCheng/GigaLike/internal/rest/response"
)

// BlogService is the read surface the handler consumes
type BlogService interface {
	GetByID(ctx context.Context, id, viewerID int64) (domain.Blog, error)
}

// BlogHandler represent the httphandler for blog reads
type BlogHandler struct {
	Service BlogService
}

func NewBlogHandler(svc BlogService) *BlogHandler {
	return &BlogHandler{Service: svc}
}

// GetByID returns one blog with the viewer's like status filled in.
// Works for anonymous readers too; user_id is only set behind auth.
func (h *BlogHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, ResponseError{Message: domain.ErrBadParamInput.Error()})
		return
	}

	var viewerID int64
	if v, exists := c.Get("user_id"); exists {
		viewerID = v.(int64)
	}

	blog, err := h.Service.GetByID(c.Request.Context(), id, viewerID)
	if err != nil {
		c.JSON(getStatusCode(err), ResponseError{Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.NewBlogFromDomain(&blog))
}
