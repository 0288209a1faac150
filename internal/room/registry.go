package room

import (
	"errors"
	"sort"
	"time"

	"github.com/roomcast/roomcast/internal/domain"
)

// ErrDuplicateConnection is returned when the same connection handle is
// registered twice. That indicates a transport-level bug, so it is surfaced
// to the caller rather than swallowed.
var ErrDuplicateConnection = errors.New("registry: connection already registered")

// Conn is the room's handle to one live connection. The transport adapter
// owns the underlying channel; the room only addresses it through this
// interface.
type Conn interface {
	// ID uniquely identifies this physical connection. A reconnect always
	// yields a new ID.
	ID() string

	// Send queues one outbound frame without blocking. It returns false when
	// delivery fails (peer gone, buffer full); the room treats that as an
	// implicit close.
	Send(frame []byte) bool

	// Close asks the transport to tear the connection down. Idempotent.
	Close()
}

// member is a registered connection with its immutable accept-time metadata.
type member struct {
	conn     Conn
	identity domain.Identity
	joinedAt time.Time
}

// Registry tracks the live connections of one room and derives presence
// from them. It performs no I/O; the owning room's event loop is the sole
// mutator.
type Registry struct {
	members map[string]*member
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{members: make(map[string]*member)}
}

// Register adds a connection with its identity. Registering the same handle
// twice fails with ErrDuplicateConnection.
func (r *Registry) Register(conn Conn, identity domain.Identity) error {
	if _, exists := r.members[conn.ID()]; exists {
		return ErrDuplicateConnection
	}
	r.members[conn.ID()] = &member{conn: conn, identity: identity, joinedAt: time.Now().UTC()}
	return nil
}

// Unregister removes a connection. Removing an absent connection is a no-op,
// tolerating racing close notifications.
func (r *Registry) Unregister(connID string) {
	delete(r.members, connID)
}

// Lookup returns the identity attached to a registered connection.
func (r *Registry) Lookup(connID string) (*member, bool) {
	m, ok := r.members[connID]
	return m, ok
}

// List snapshots the registered connections, skipping excludeID when
// non-empty.
func (r *Registry) List(excludeID string) []Conn {
	out := make([]Conn, 0, len(r.members))
	for id, m := range r.members {
		if excludeID != "" && id == excludeID {
			continue
		}
		out = append(out, m.conn)
	}
	return out
}

// OnlineUsernames returns the distinct usernames currently connected, in
// sorted order. One user with several connections appears once.
func (r *Registry) OnlineUsernames() []string {
	seen := make(map[string]struct{}, len(r.members))
	for _, m := range r.members {
		seen[m.identity.Username] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Users snapshots every registered connection's identity and join time for
// the info query, ordered by join time.
func (r *Registry) Users() []domain.RoomUser {
	users := make([]domain.RoomUser, 0, len(r.members))
	for _, m := range r.members {
		users = append(users, domain.RoomUser{
			UserID:   m.identity.UserID,
			Username: m.identity.Username,
			JoinedAt: m.joinedAt,
		})
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].JoinedAt.Equal(users[j].JoinedAt) {
			return users[i].UserID < users[j].UserID
		}
		return users[i].JoinedAt.Before(users[j].JoinedAt)
	})
	return users
}

// Len returns the number of registered connections.
func (r *Registry) Len() int {
	return len(r.members)
}
