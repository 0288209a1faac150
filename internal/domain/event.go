package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventKind classifies a ChatEvent on the wire and in history.
type EventKind string

const (
	KindMessage EventKind = "message"
	KindJoin    EventKind = "join"
	KindLeave   EventKind = "leave"
	KindSystem  EventKind = "system"
)

// Replayable reports whether events of this kind belong in the queryable
// history by default. Join/leave are broadcast live but not replayed unless
// the room is configured to persist presence events.
func (k EventKind) Replayable() bool {
	return k == KindMessage || k == KindSystem
}

// ChatEvent is the canonical broadcast and history unit. For message events
// the Message field always carries post-sanitization text; for join, leave
// and system events it carries a human-readable notice, never raw user input.
type ChatEvent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Kind      EventKind `json:"type"`
}

// NewChatEvent creates an event with a fresh server-side ID and timestamp.
// The ID is what clients use to de-duplicate their own echoed messages.
func NewChatEvent(kind EventKind, identity Identity, message string) ChatEvent {
	return ChatEvent{
		ID:        uuid.New().String(),
		UserID:    identity.UserID,
		Username:  identity.Username,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Kind:      kind,
	}
}
