package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inceCheng/GigaLike/domain"
	"github.com/inceCheng/GigaLike/internal/rest/request"
)

// UserService is the identity surface the handler consumes
type UserService interface {
	Login(ctx context.Context, username, password string) (string, domain.User, error)
}

// UserHandler represent the httphandler for login
type UserHandler struct {
	Service UserService
}

func NewUserHandler(svc UserService) *UserHandler {
	return &UserHandler{Service: svc}
}

// Login verifies credentials and returns the JWT for subsequent calls
func (h *UserHandler) Login(c *gin.Context) {
	var req request.Login
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		return
	}

	token, user, err := h.Service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ResponseError{Message: "invalid username or password"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":           user.ID,
			"username":     user.Username,
			"display_name": user.DisplayName,
		},
	})
}
