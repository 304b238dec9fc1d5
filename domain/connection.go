package domain

import (
	"context"
	"time"
)

// Connection history actions
const (
	ConnActionConnect         = "CONNECT"
	ConnActionDisconnect      = "DISCONNECT"
	ConnActionError           = "ERROR"
	ConnActionForceDisconnect = "FORCE_DISCONNECT"
)

// ConnectionInfo is a snapshot of one live session
type ConnectionInfo struct {
	UserID        int64     `json:"userId"`
	Username      string    `json:"username"`
	ConnectedAt   time.Time `json:"connectTime"`
	LastHeartbeat time.Time `json:"lastHeartbeat"`
	RemoteAddress string    `json:"remoteAddress"`
	MessagesSent  int64     `json:"messagesSent"`
	MessagesRecv  int64     `json:"messagesReceived"`
	IsOnline      bool      `json:"isOnline"`
}

// ConnectionHistory is one entry of the bounded connect/disconnect log
type ConnectionHistory struct {
	UserID        int64     `json:"userId"`
	Username      string    `json:"username"`
	Action        string    `json:"action"`
	Timestamp     time.Time `json:"timestamp"`
	Details       string    `json:"details"`
	RemoteAddress string    `json:"remoteAddress"`
}

// ConnectionStats aggregates registry counters
type ConnectionStats struct {
	CurrentConnections    int   `json:"currentConnections"`
	TotalConnections      int64 `json:"totalConnections"`
	TotalMessagesSent     int64 `json:"totalMessagesSent"`
	TotalMessagesReceived int64 `json:"totalMessagesReceived"`
	HistorySize           int   `json:"connectionHistory"`
}

// ConnectionRegistry keeps one live session handle per user and supports
// targeted push, broadcast and presence queries. An instance is built once
// in main and handed to every consumer; there is no package-level state.
type ConnectionRegistry interface {
	// SendToUser pushes a frame to the user's live session.
	// Returns ErrOffline when no live session exists; a dead handle is
	// deregistered rather than left in the map.
	SendToUser(ctx context.Context, userID int64, msgType string, data any) error

	// Broadcast pushes a frame to every live session, best effort
	Broadcast(ctx context.Context, msgType string, data any)

	IsOnline(userID int64) bool
	OnlineCount() int
	OnlineUsers() []ConnectionInfo
	UserInfo(userID int64) (ConnectionInfo, bool)
	Stats() ConnectionStats
	History(limit int) []ConnectionHistory

	// Disconnect force-closes the user's session, recording the reason
	Disconnect(userID int64, reason string) bool

	// CleanupStale deregisters handles that died without a close
	// notification, returns how many were removed
	CleanupStale() int
}
