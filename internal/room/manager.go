package room

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Manager dispatches connections to room instances by name. Each room is
// owned by exactly one instance and carries its own registry, history and
// rate-limiter state; rooms never share mutable state.
type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	cfg   Config
	log   zerolog.Logger
}

// NewManager creates a manager whose rooms all use cfg.
func NewManager(cfg Config, log zerolog.Logger) *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
		cfg:   cfg,
		log:   log,
	}
}

// GetOrCreate returns the room with the given name, creating and starting
// it on first use.
func (m *Manager) GetOrCreate(name string) *Room {
	m.mu.RLock()
	r, ok := m.rooms[name]
	m.mu.RUnlock()
	if ok {
		return r
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[name]; ok {
		return r
	}
	r = New(name, m.cfg, m.log)
	m.rooms[name] = r
	m.log.Info().Str("room", name).Msg("room created")
	return r
}

// Get returns the named room, or nil if it was never addressed.
func (m *Manager) Get(name string) *Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[name]
}

// RoomNames returns the names of all active rooms, sorted.
func (m *Manager) RoomNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.rooms))
	for name := range m.rooms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RoomCount returns the number of active rooms.
func (m *Manager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// CloseAll stops every room's event loop. Used on process shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, r := range m.rooms {
		r.Close()
		delete(m.rooms, name)
	}
}
