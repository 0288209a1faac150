package domain

import "time"

// Inbound message types accepted from clients. Anything else is ignored to
// keep forward compatibility with newer clients.
const (
	InboundMessage = "message"
	InboundPing    = "ping"
)

// Inbound is the decoded client frame.
type Inbound struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Outbound discriminators that exist outside the ChatEvent kinds.
const (
	TypeHistory           = "history"
	TypeRateLimitExceeded = "rate_limit_exceeded"
	TypeError             = "error"
	TypePong              = "pong"
)

// EventBroadcast is a ChatEvent as delivered to clients, optionally carrying
// a refreshed presence snapshot (join/leave always do, plain messages don't).
type EventBroadcast struct {
	ChatEvent
	OnlineUsers []string `json:"onlineUsers,omitempty"`
}

// SystemNotice is a unicast system payload that is not part of history,
// such as the welcome sent to a freshly registered connection.
type SystemNotice struct {
	Type        string    `json:"type"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	OnlineUsers []string  `json:"onlineUsers"`
}

// HistoryReplay carries the recent retained events to a new connection.
type HistoryReplay struct {
	Type        string      `json:"type"`
	Messages    []ChatEvent `json:"messages"`
	OnlineUsers []string    `json:"onlineUsers"`
}

// RateLimitNotice tells the offending sender, and only the sender, that it
// is blocked and for how long.
type RateLimitNotice struct {
	Type          string `json:"type"`
	Message       string `json:"message"`
	BlockedUntil  int64  `json:"blockedUntil"`  // epoch milliseconds
	RemainingTime int64  `json:"remainingTime"` // whole seconds
}

// ErrorNotice is a sender-only rejection payload.
type ErrorNotice struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Pong answers an inbound ping. Unicast, never broadcast, never in history.
type Pong struct {
	Type string `json:"type"`
}
