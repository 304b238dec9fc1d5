// Package ws is the connection registry: one live websocket session per
// user, targeted push, broadcast, presence and connection bookkeeping.
// The registry is built once in main and injected; there is no
// package-level session state.
package ws

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inceCheng/GigaLike/domain"
)

const (
	historyCap        = 1000
	defaultStaleAfter = 120 * time.Second
)

type Hub struct {
	mu       sync.RWMutex
	sessions map[int64]*Session

	// 有界环形历史, 超过容量淘汰最旧的一条
	history     [historyCap]domain.ConnectionHistory
	historyNext int
	historySize int

	totalConnections atomic.Int64
	totalSent        atomic.Int64
	totalReceived    atomic.Int64

	staleAfter time.Duration
}

var _ domain.ConnectionRegistry = (*Hub)(nil)

func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[int64]*Session),
		staleAfter: defaultStaleAfter,
	}
}

// frame is the wire format of every pushed message
type frame struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

func encodeFrame(msgType, message string, data any) ([]byte, error) {
	return json.Marshal(frame{
		Type:      msgType,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	})
}

// Register installs the session as the user's only live handle.
// A previous handle for the same user is closed: last registration wins.
func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	old := h.sessions[s.userID]
	h.sessions[s.userID] = s
	h.addHistory(s.userID, s.username, domain.ConnActionConnect, "websocket connected", s.remoteAddr)
	h.mu.Unlock()

	h.totalConnections.Add(1)
	if old != nil {
		old.close("replaced by a newer connection")
	}
	logrus.Infof("user %d (%s) connected from %s", s.userID, s.username, s.remoteAddr)
}

// Unregister removes the session if it is still the user's current one.
// A session replaced by a newer registration must not evict its successor.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	if h.sessions[s.userID] == s {
		delete(h.sessions, s.userID)
		h.addHistory(s.userID, s.username, domain.ConnActionDisconnect, "connection closed", s.remoteAddr)
	}
	h.mu.Unlock()
	s.close("")
}

func (h *Hub) SendToUser(ctx context.Context, userID int64, msgType string, data any) error {
	h.mu.RLock()
	s := h.sessions[userID]
	h.mu.RUnlock()
	if s == nil {
		return domain.ErrOffline
	}

	payload, err := encodeFrame(msgType, "新通知", data)
	if err != nil {
		return err
	}
	if !s.enqueue(payload) {
		// 死连接当离线处理, 顺手摘掉
		logrus.Warnf("session of user %d is dead, deregistering", userID)
		h.Unregister(s)
		return domain.ErrOffline
	}
	h.totalSent.Add(1)
	return nil
}

func (h *Hub) Broadcast(ctx context.Context, msgType string, data any) {
	payload, err := encodeFrame(msgType, "系统广播", data)
	if err != nil {
		logrus.Errorf("failed to encode broadcast frame: %v", err)
		return
	}

	h.mu.RLock()
	targets := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		if s.enqueue(payload) {
			h.totalSent.Add(1)
		} else {
			h.Unregister(s)
		}
	}
}

func (h *Hub) IsOnline(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sessions[userID] != nil
}

func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Hub) OnlineUsers() []domain.ConnectionInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()
	users := make([]domain.ConnectionInfo, 0, len(h.sessions))
	for _, s := range h.sessions {
		users = append(users, s.info())
	}
	return users
}

func (h *Hub) UserInfo(userID int64) (domain.ConnectionInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s := h.sessions[userID]
	if s == nil {
		return domain.ConnectionInfo{}, false
	}
	return s.info(), true
}

func (h *Hub) Stats() domain.ConnectionStats {
	h.mu.RLock()
	current := len(h.sessions)
	historySize := h.historySize
	h.mu.RUnlock()

	return domain.ConnectionStats{
		CurrentConnections:    current,
		TotalConnections:      h.totalConnections.Load(),
		TotalMessagesSent:     h.totalSent.Load(),
		TotalMessagesReceived: h.totalReceived.Load(),
		HistorySize:           historySize,
	}
}

func (h *Hub) History(limit int) []domain.ConnectionHistory {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if limit <= 0 || limit > h.historySize {
		limit = h.historySize
	}
	res := make([]domain.ConnectionHistory, 0, limit)
	start := h.historyNext - limit
	for i := start; i < h.historyNext; i++ {
		res = append(res, h.history[(i+historyCap)%historyCap])
	}
	return res
}

func (h *Hub) Disconnect(userID int64, reason string) bool {
	h.mu.Lock()
	s := h.sessions[userID]
	if s == nil {
		h.mu.Unlock()
		return false
	}
	delete(h.sessions, userID)
	h.addHistory(userID, s.username, domain.ConnActionForceDisconnect, "forced: "+reason, s.remoteAddr)
	h.mu.Unlock()

	s.close(reason)
	return true
}

// CleanupStale removes handles whose peer died without a close frame
func (h *Hub) CleanupStale() int {
	deadline := time.Now().Add(-h.staleAfter)

	h.mu.Lock()
	var stale []*Session
	for userID, s := range h.sessions {
		if s.lastHeartbeatTime().Before(deadline) {
			delete(h.sessions, userID)
			h.addHistory(userID, s.username, domain.ConnActionDisconnect, "stale connection swept", s.remoteAddr)
			stale = append(stale, s)
		}
	}
	h.mu.Unlock()

	for _, s := range stale {
		s.close("stale connection")
		logrus.Infof("swept stale connection of user %d", s.userID)
	}
	return len(stale)
}

// addHistory 调用方必须持有 h.mu
func (h *Hub) addHistory(userID int64, username, action, details, remoteAddr string) {
	h.history[h.historyNext%historyCap] = domain.ConnectionHistory{
		UserID:        userID,
		Username:      username,
		Action:        action,
		Timestamp:     time.Now(),
		Details:       details,
		RemoteAddress: remoteAddr,
	}
	h.historyNext++
	if h.historySize < historyCap {
		h.historySize++
	}
}
