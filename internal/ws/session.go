package ws

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/inceCheng/GigaLike/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 45 * time.Second

	// 每个会话独立的发送缓冲; 写满说明对端已经拉不动了
	sendBufferSize = 64

	maxMessageSize = 4096
)

// Session is one live connection. All writes go through the buffered send
// channel and a single writer goroutine, so a stalled peer never blocks
// the hub or other sessions.
type Session struct {
	userID   int64
	username string

	conn *websocket.Conn
	hub  *Hub
	send chan []byte

	connectedAt   time.Time
	lastHeartbeat atomic.Int64 // unix nano
	remoteAddr    string

	sent     atomic.Int64
	received atomic.Int64

	closeOnce   sync.Once
	closeReason string
}

func newSession(hub *Hub, conn *websocket.Conn, userID int64, username string) *Session {
	s := &Session{
		userID:      userID,
		username:    username,
		conn:        conn,
		hub:         hub,
		send:        make(chan []byte, sendBufferSize),
		connectedAt: time.Now(),
		remoteAddr:  conn.RemoteAddr().String(),
	}
	s.lastHeartbeat.Store(time.Now().UnixNano())
	return s
}

// enqueue hands the payload to the writer goroutine without blocking.
// Returns false when the session is dead or its buffer is full.
func (s *Session) enqueue(payload []byte) (ok bool) {
	defer func() {
		// 并发 close 可能关掉 send 通道
		if recover() != nil {
			ok = false
		}
	}()
	select {
	case s.send <- payload:
		return true
	default:
		return false
	}
}

func (s *Session) close(reason string) {
	s.closeOnce.Do(func() {
		s.closeReason = reason
		if reason != "" {
			deadline := time.Now().Add(writeWait)
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
			_ = s.conn.WriteControl(websocket.CloseMessage, msg, deadline)
		}
		close(s.send)
		_ = s.conn.Close()
	})
}

func (s *Session) lastHeartbeatTime() time.Time {
	return time.Unix(0, s.lastHeartbeat.Load())
}

func (s *Session) info() domain.ConnectionInfo {
	return domain.ConnectionInfo{
		UserID:        s.userID,
		Username:      s.username,
		ConnectedAt:   s.connectedAt,
		LastHeartbeat: s.lastHeartbeatTime(),
		RemoteAddress: s.remoteAddr,
		MessagesSent:  s.sent.Load(),
		MessagesRecv:  s.received.Load(),
		IsOnline:      true,
	}
}

// writePump is the session's only writer
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-s.send:
			if !ok {
				return
			}
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				logrus.Debugf("write to user %d failed: %v", s.userID, err)
				s.hub.Unregister(s)
				return
			}
			s.sent.Add(1)
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.hub.Unregister(s)
				return
			}
		}
	}
}

// readPump consumes client frames: heartbeats and close notifications
func (s *Session) readPump() {
	defer s.hub.Unregister(s)

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.lastHeartbeat.Store(time.Now().UnixNano())
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logrus.Debugf("read from user %d failed: %v", s.userID, err)
			}
			return
		}

		s.received.Add(1)
		s.hub.totalReceived.Add(1)
		_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))

		// 应用层心跳
		if string(payload) == "PING" {
			s.lastHeartbeat.Store(time.Now().UnixNano())
			if pong, err := encodeFrame("PONG", "心跳响应", nil); err == nil {
				s.enqueue(pong)
			}
		}
	}
}
