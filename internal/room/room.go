// Package room implements the single-room broadcast core: a per-room actor
// that owns the connection registry, the bounded history and the per-user
// rate limiter, and serializes every state mutation through one event loop.
package room

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/roomcast/roomcast/internal/domain"
	"github.com/roomcast/roomcast/internal/metrics"
	"github.com/roomcast/roomcast/internal/sanitize"
)

// ErrRoomClosed is returned when a connection is offered to a room whose
// event loop has been shut down.
var ErrRoomClosed = errors.New("room: closed")

// Config carries the per-room policy knobs. Zero values fall back to the
// domain defaults.
type Config struct {
	// HistoryCapacity bounds the retained transcript.
	HistoryCapacity int
	// ReplayLimit is how many retained events a new connection receives.
	ReplayLimit int
	// PersistPresence also retains join/leave events in the replayable
	// history. Off by default.
	PersistPresence bool

	MaxTokens     int
	RateWindow    time.Duration
	BlockDuration time.Duration
}

func (c Config) withDefaults() Config {
	if c.HistoryCapacity < 1 {
		c.HistoryCapacity = domain.DefaultHistoryCapacity
	}
	if c.ReplayLimit < 1 {
		c.ReplayLimit = domain.DefaultReplayLimit
	}
	if c.MaxTokens < 1 {
		c.MaxTokens = domain.DefaultMaxTokens
	}
	if c.RateWindow <= 0 {
		c.RateWindow = domain.DefaultRateWindow
	}
	if c.BlockDuration <= 0 {
		c.BlockDuration = domain.DefaultBlockDuration
	}
	return c
}

type evKind int

const (
	evConnect evKind = iota
	evFrame
	evDisconnect
	evInfo
	evHistory
)

// event is the single unit flowing through the room's serialization point.
// Accepted events are processed strictly in receipt order.
type event struct {
	kind     evKind
	conn     Conn
	identity domain.Identity
	connID   string
	frame    []byte

	errc  chan error
	infoc chan domain.RoomInfo
	histc chan domain.HistorySnapshot
}

// Room is one isolated broadcast domain. All mutation of its registry,
// history and rate limiter happens on the goroutine draining r.events, so
// rate-limit checks, history appends and fan-outs are race free and every
// client observes broadcasts in the room's acceptance order.
type Room struct {
	name     string
	cfg      Config
	log      zerolog.Logger
	registry *Registry
	history  *HistoryBuffer
	limiter  *RateLimiter

	events    chan event
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a room and starts its event loop.
func New(name string, cfg Config, log zerolog.Logger) *Room {
	cfg = cfg.withDefaults()
	r := &Room{
		name:     name,
		cfg:      cfg,
		log:      log.With().Str("room", name).Logger(),
		registry: NewRegistry(),
		history:  NewHistoryBuffer(cfg.HistoryCapacity),
		limiter:  NewRateLimiter(cfg.MaxTokens, cfg.RateWindow, cfg.BlockDuration),
		events:   make(chan event, 256),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	metrics.RoomsActive.Inc()
	go r.run()
	return r
}

// Name returns the room's name.
func (r *Room) Name() string { return r.name }

// Connect registers a new connection with its resolved identity, sends it
// the welcome notice and recent history, and announces the join to everyone
// else. Registering the same connection handle twice returns
// ErrDuplicateConnection.
func (r *Room) Connect(conn Conn, identity domain.Identity) error {
	errc := make(chan error, 1)
	if !r.submit(event{kind: evConnect, conn: conn, identity: identity, errc: errc}) {
		return ErrRoomClosed
	}
	select {
	case err := <-errc:
		return err
	case <-r.done:
		return ErrRoomClosed
	}
}

// HandleFrame feeds one raw inbound frame from a connection into the room.
// Frames from connections that already disconnected are discarded.
func (r *Room) HandleFrame(connID string, frame []byte) {
	r.submit(event{kind: evFrame, connID: connID, frame: frame})
}

// Disconnect handles a transport-reported close: the connection is removed
// and a leave event goes out to the remaining members. Unknown connection
// IDs are ignored so racing close notifications stay harmless.
func (r *Room) Disconnect(connID string) {
	r.submit(event{kind: evDisconnect, connID: connID})
}

// Info returns a read-only snapshot of the room. It flows through the event
// loop, so it observes a consistent state but mutates nothing.
func (r *Room) Info() domain.RoomInfo {
	infoc := make(chan domain.RoomInfo, 1)
	if !r.submit(event{kind: evInfo, infoc: infoc}) {
		return domain.RoomInfo{Users: []domain.RoomUser{}}
	}
	select {
	case info := <-infoc:
		return info
	case <-r.done:
		return domain.RoomInfo{Users: []domain.RoomUser{}}
	}
}

// History returns the retained transcript, oldest first.
func (r *Room) History() domain.HistorySnapshot {
	histc := make(chan domain.HistorySnapshot, 1)
	if !r.submit(event{kind: evHistory, histc: histc}) {
		return domain.HistorySnapshot{Messages: []domain.ChatEvent{}}
	}
	select {
	case snap := <-histc:
		return snap
	case <-r.done:
		return domain.HistorySnapshot{Messages: []domain.ChatEvent{}}
	}
}

// Close stops the event loop. Pending events are dropped; connections are
// left for the transport to tear down.
func (r *Room) Close() {
	r.closeOnce.Do(func() {
		close(r.quit)
		metrics.RoomsActive.Dec()
	})
	<-r.done
}

func (r *Room) submit(ev event) bool {
	select {
	case r.events <- ev:
		return true
	case <-r.quit:
		return false
	}
}

func (r *Room) run() {
	defer close(r.done)
	for {
		select {
		case ev := <-r.events:
			r.dispatch(ev)
		case <-r.quit:
			return
		}
	}
}

func (r *Room) dispatch(ev event) {
	switch ev.kind {
	case evConnect:
		ev.errc <- r.handleConnect(ev.conn, ev.identity)
	case evFrame:
		r.handleFrame(ev.connID, ev.frame)
	case evDisconnect:
		r.handleDisconnect(ev.connID)
	case evInfo:
		ev.infoc <- domain.RoomInfo{
			ActiveConnections: r.registry.Len(),
			Users:             r.registry.Users(),
			MessageCount:      r.history.Len(),
		}
	case evHistory:
		ev.histc <- domain.HistorySnapshot{
			Messages: r.history.All(),
			Count:    r.history.Len(),
		}
	}
}

func (r *Room) handleConnect(conn Conn, identity domain.Identity) error {
	if err := r.registry.Register(conn, identity); err != nil {
		return err
	}
	metrics.ConnectionsActive.WithLabelValues(r.name).Inc()
	r.log.Info().
		Str("conn_id", conn.ID()).
		Str("user_id", identity.UserID).
		Str("username", identity.Username).
		Int("connections", r.registry.Len()).
		Msg("connection registered")

	online := r.registry.OnlineUsernames()

	ok := r.unicast(conn, domain.SystemNotice{
		Type:        string(domain.KindSystem),
		Message:     fmt.Sprintf("Welcome to %s, %s", r.name, identity.Username),
		Timestamp:   time.Now().UTC(),
		OnlineUsers: online,
	})
	if !ok {
		return nil
	}

	if replay, _ := r.history.Recent(r.cfg.ReplayLimit); len(replay) > 0 {
		if !r.unicast(conn, domain.HistoryReplay{
			Type:        domain.TypeHistory,
			Messages:    replay,
			OnlineUsers: online,
		}) {
			return nil
		}
	}

	join := domain.NewChatEvent(domain.KindJoin, identity,
		fmt.Sprintf("%s joined the room", identity.Username))
	r.record(join)
	r.broadcast(domain.EventBroadcast{ChatEvent: join, OnlineUsers: online}, conn.ID(), join.Kind)
	return nil
}

func (r *Room) handleFrame(connID string, raw []byte) {
	m, ok := r.registry.Lookup(connID)
	if !ok {
		// Late frame from a connection that already left.
		return
	}

	var in domain.Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		metrics.MessagesRejectedTotal.WithLabelValues(r.name, "malformed").Inc()
		r.log.Debug().Str("user_id", m.identity.UserID).Err(err).Msg("malformed inbound frame")
		r.unicast(m.conn, domain.ErrorNotice{Type: domain.TypeError, Message: "invalid message payload"})
		return
	}

	switch in.Type {
	case domain.InboundPing:
		r.unicast(m.conn, domain.Pong{Type: domain.TypePong})
	case domain.InboundMessage:
		r.handleMessage(m, in.Message)
	default:
		r.log.Debug().Str("type", in.Type).Msg("ignoring unknown inbound type")
	}
}

func (r *Room) handleMessage(m *member, text string) {
	if res := r.limiter.Check(m.identity.UserID); !res.Allowed {
		remaining := int64(math.Ceil(time.Until(res.BlockedUntil).Seconds()))
		if remaining < 0 {
			remaining = 0
		}
		metrics.MessagesRejectedTotal.WithLabelValues(r.name, "rate_limited").Inc()
		r.unicast(m.conn, domain.RateLimitNotice{
			Type:          domain.TypeRateLimitExceeded,
			Message:       fmt.Sprintf("Rate limit exceeded, try again in %d seconds", remaining),
			BlockedUntil:  res.BlockedUntil.UnixMilli(),
			RemainingTime: remaining,
		})
		return
	}

	if sanitize.IsSuspicious(text) {
		metrics.MessagesRejectedTotal.WithLabelValues(r.name, "suspicious").Inc()
		r.log.Warn().Str("user_id", m.identity.UserID).Msg("suspicious message rejected")
		r.unicast(m.conn, domain.ErrorNotice{Type: domain.TypeError, Message: "message rejected"})
		return
	}

	clean := sanitize.Sanitize(text)
	if clean == "" {
		// All-stripped input: drop silently, no error and no broadcast.
		metrics.MessagesRejectedTotal.WithLabelValues(r.name, "empty").Inc()
		return
	}

	ev := domain.NewChatEvent(domain.KindMessage, m.identity, clean)
	r.record(ev)
	// The sender is included so clients can de-duplicate by event ID.
	r.broadcast(domain.EventBroadcast{ChatEvent: ev}, "", ev.Kind)
}

func (r *Room) handleDisconnect(connID string) {
	m, ok := r.registry.Lookup(connID)
	if !ok {
		return
	}
	r.registry.Unregister(connID)
	metrics.ConnectionsActive.WithLabelValues(r.name).Dec()
	r.log.Info().
		Str("conn_id", connID).
		Str("username", m.identity.Username).
		Int("connections", r.registry.Len()).
		Msg("connection closed")

	leave := domain.NewChatEvent(domain.KindLeave, m.identity,
		fmt.Sprintf("%s left the room", m.identity.Username))
	r.record(leave)
	r.broadcast(domain.EventBroadcast{
		ChatEvent:   leave,
		OnlineUsers: r.registry.OnlineUsernames(),
	}, "", leave.Kind)
}

// record appends an event to history when its kind is retained under the
// room's policy.
func (r *Room) record(ev domain.ChatEvent) {
	if ev.Kind.Replayable() || r.cfg.PersistPresence {
		r.history.Append(ev)
	}
}

// broadcast marshals payload once and fans it out to every registered
// connection except excludeID. A failed send never aborts delivery to the
// remaining recipients; the failing connection is torn down as an implicit
// close, which in turn broadcasts its leave event.
func (r *Room) broadcast(payload any, excludeID string, kind domain.EventKind) {
	frame, err := json.Marshal(payload)
	if err != nil {
		r.log.Error().Err(err).Msg("marshal broadcast payload")
		return
	}

	var failed []Conn
	for _, c := range r.registry.List(excludeID) {
		if !c.Send(frame) {
			failed = append(failed, c)
		}
	}
	metrics.EventsBroadcastTotal.WithLabelValues(r.name, string(kind)).Inc()

	for _, c := range failed {
		r.dropConn(c)
	}
}

// unicast sends one payload to a single connection. Failure tears the
// connection down and reports false.
func (r *Room) unicast(c Conn, payload any) bool {
	frame, err := json.Marshal(payload)
	if err != nil {
		r.log.Error().Err(err).Msg("marshal unicast payload")
		return false
	}
	if !c.Send(frame) {
		r.dropConn(c)
		return false
	}
	return true
}

// dropConn handles a delivery failure: the connection is closed and treated
// as an implicit transport disconnect.
func (r *Room) dropConn(c Conn) {
	metrics.DeliveryFailuresTotal.WithLabelValues(r.name).Inc()
	r.log.Warn().Str("conn_id", c.ID()).Msg("delivery failed, dropping connection")
	c.Close()
	r.handleDisconnect(c.ID())
}
