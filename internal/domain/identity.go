package domain

import "time"

// Identity is the already-resolved {userId, username} pair attached to a
// connection at accept time. It never changes for the lifetime of one
// connection. A single user may hold several concurrent connections, so
// presence is deduplicated by username, not by connection.
type Identity struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// RoomUser is one entry in the info query's user listing.
type RoomUser struct {
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joinedAt"`
}

// RoomInfo is the read-only snapshot returned by the info query.
type RoomInfo struct {
	ActiveConnections int        `json:"activeConnections"`
	Users             []RoomUser `json:"users"`
	MessageCount      int        `json:"messageCount"`
}

// HistorySnapshot is the read-only snapshot returned by the history query.
type HistorySnapshot struct {
	Messages []ChatEvent `json:"messages"`
	Count    int         `json:"count"`
}
