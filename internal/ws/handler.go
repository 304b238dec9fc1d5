package ws

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/inceCheng/GigaLike/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 握手来源由网关层把关
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades /ws/notification?userId= requests into registered
// sessions
type Handler struct {
	hub      *Hub
	userRepo domain.UserRepository
}

func NewHandler(hub *Hub, userRepo domain.UserRepository) *Handler {
	return &Handler{hub: hub, userRepo: userRepo}
}

func (h *Handler) Serve(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("userId"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing or invalid userId"})
		return
	}

	user, err := h.userRepo.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid userId"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.Errorf("websocket upgrade failed: %v", err)
		return
	}

	session := newSession(h.hub, conn, user.ID, user.Username)
	h.hub.Register(session)

	go session.writePump()
	go session.readPump()

	if payload, err := encodeFrame("CONNECTED", "连接成功", gin.H{
		"userId":      user.ID,
		"connectTime": session.connectedAt,
	}); err == nil {
		session.enqueue(payload)
	}
}
