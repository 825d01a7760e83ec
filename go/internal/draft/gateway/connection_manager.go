package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/metrics"
	"github.com/mcdev12/draftroom/go/internal/models"
)

// ErrDraftNotFound is returned by resolvers for unknown draft ids.
var ErrDraftNotFound = errors.New("draft not found")

// DraftRoom is the draft a session is attached to.
type DraftRoom interface {
	// Sync runs fn on the draft's own goroutine with its current state.
	Sync(ctx context.Context, fn func(models.DraftState)) error
	SubmitPick(ctx context.Context, participantID, teamID string) (models.DraftPick, error)
}

// RoomResolver finds the live draft for an id.
type RoomResolver interface {
	Room(ctx context.Context, draftID string) (DraftRoom, error)
}

// Hub manages WebSocket sessions grouped into one room per draft.
type Hub struct {
	// Session pools organized by draft ID
	rooms map[string]map[*Session]struct{}
	mu    sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
	metrics  metrics.Collector
}

// Session is one client connection to a draft room.
type Session struct {
	ID            string
	DraftID       string
	ParticipantID string
	ConnectedAt   time.Time

	conn    *websocket.Conn
	send    chan []byte
	hub     *Hub
	room    DraftRoom
	limiter *rate.Limiter

	mu          sync.Mutex
	lastSeen    time.Time
	missedPongs int
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
	// PingInterval paces websocket ping control frames.
	PingInterval time.Duration
	// HeartbeatInterval paces application ping messages.
	HeartbeatInterval time.Duration
	// MaxMissedPongs is how many heartbeats may go unanswered in a row.
	MaxMissedPongs  int
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	// PickRate and PickBurst bound make_pick messages per connection.
	PickRate    rate.Limit
	PickBurst   int
	PickTimeout time.Duration
	CheckOrigin func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:      10 * time.Second,
		ReadTimeout:       60 * time.Second,
		PingInterval:      30 * time.Second,
		HeartbeatInterval: 15 * time.Second,
		MaxMissedPongs:    3,
		MaxMessageSize:    1024,
		ReadBufferSize:    1024,
		WriteBufferSize:   1024,
		SendBufferSize:    256,
		PickRate:          rate.Limit(5),
		PickBurst:         5,
		PickTimeout:       5 * time.Second,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// ConnectionStats is the /ws/stats payload.
type ConnectionStats struct {
	TotalConnections int            `json:"total_connections"`
	ActiveDrafts     int            `json:"active_drafts"`
	DraftConnections map[string]int `json:"draft_connections"`
}

// NewHub creates a hub. The hub also serves as the drafts' Notifier.
func NewHub(config ConnectionConfig, collector metrics.Collector) *Hub {
	def := DefaultConnectionConfig()
	if config.SendBufferSize <= 0 {
		config.SendBufferSize = def.SendBufferSize
	}
	if config.MaxMissedPongs <= 0 {
		config.MaxMissedPongs = def.MaxMissedPongs
	}
	if config.PickTimeout <= 0 {
		config.PickTimeout = def.PickTimeout
	}
	if config.PickRate <= 0 {
		config.PickRate = def.PickRate
		config.PickBurst = def.PickBurst
	}
	if config.PickBurst <= 0 {
		config.PickBurst = 1
	}

	return &Hub{
		rooms: make(map[string]map[*Session]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:  config,
		metrics: metrics.OrNoOp(collector),
	}
}

// Upgrade upgrades an HTTP connection to WebSocket. On failure the upgrader
// has already written the HTTP error.
func (h *Hub) Upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}
	return conn, nil
}

// Join attaches conn to the room of draftID. Registration and the initial
// draft_state_update happen on the draft's goroutine, so the session sees
// every broadcast after its snapshot and none before it.
func (h *Hub) Join(ctx context.Context, draftID string, room DraftRoom, conn *websocket.Conn, participantID string) (*Session, error) {
	now := time.Now()
	s := &Session{
		ID:            uuid.New().String(),
		DraftID:       draftID,
		ParticipantID: participantID,
		ConnectedAt:   now,
		conn:          conn,
		send:          make(chan []byte, h.config.SendBufferSize),
		hub:           h,
		room:          room,
		limiter:       rate.NewLimiter(h.config.PickRate, h.config.PickBurst),
		lastSeen:      now,
	}

	err := room.Sync(ctx, func(st models.DraftState) {
		h.register(s)
		h.sendTo(s, events.Message{
			Type: events.MessageTypeDraftStateUpdate,
			Data: st.ForParticipant(participantID),
		})
	})
	if err != nil {
		h.unregister(s, "join_failed")
		conn.Close()
		return nil, fmt.Errorf("join draft %s: %w", draftID, err)
	}

	go s.writePump()
	go s.readPump()

	log.Info().
		Str("connection_id", s.ID).
		Str("participant_id", participantID).
		Str("draft_id", draftID).
		Msg("WebSocket connection established")
	return s, nil
}

// register adds a session to its room
func (h *Hub) register(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[s.DraftID] == nil {
		h.rooms[s.DraftID] = make(map[*Session]struct{})
	}
	h.rooms[s.DraftID][s] = struct{}{}
	h.metrics.RecordConnectionOpened()

	log.Debug().
		Str("connection_id", s.ID).
		Str("draft_id", s.DraftID).
		Int("total_connections", len(h.rooms[s.DraftID])).
		Msg("connection registered")
}

// unregister removes a session and closes its send channel. It is safe to
// call more than once.
func (h *Hub) unregister(s *Session, reason string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.unregisterLocked(s, reason)
}

func (h *Hub) unregisterLocked(s *Session, reason string) bool {
	sessions, exists := h.rooms[s.DraftID]
	if !exists {
		return false
	}
	if _, exists := sessions[s]; !exists {
		return false
	}
	delete(sessions, s)
	close(s.send)
	if len(sessions) == 0 {
		delete(h.rooms, s.DraftID)
	}
	h.metrics.RecordConnectionClosed(reason)

	log.Info().
		Str("connection_id", s.ID).
		Str("participant_id", s.ParticipantID).
		Str("draft_id", s.DraftID).
		Str("reason", reason).
		Msg("connection unregistered")
	return true
}

// drop unregisters a session and closes its socket.
func (h *Hub) drop(s *Session, reason string) {
	h.unregister(s, reason)
	s.conn.Close()
}

// Broadcast sends msg to every session of the draft, personalised per
// participant. It never blocks: a session whose buffer is full is dropped.
func (h *Hub) Broadcast(draftID string, msg events.Outbound) {
	var slow []*Session
	encoded := make(map[string][]byte)

	h.mu.RLock()
	sessions := h.rooms[draftID]
	for s := range sessions {
		data, ok := encoded[s.ParticipantID]
		if !ok {
			var err error
			data, err = msg.For(s.ParticipantID).Encode()
			if err != nil {
				h.mu.RUnlock()
				log.Error().Err(err).Str("type", string(msg.MessageType())).Msg("failed to marshal message for broadcast")
				return
			}
			encoded[s.ParticipantID] = data
		}
		select {
		case s.send <- data:
		default:
			slow = append(slow, s)
		}
	}
	count := len(sessions)
	h.mu.RUnlock()

	for _, s := range slow {
		log.Warn().
			Str("connection_id", s.ID).
			Str("participant_id", s.ParticipantID).
			Msg("connection send buffer full, closing connection")
		h.metrics.RecordBroadcastDropped()
		h.drop(s, "slow_consumer")
	}

	if msg.MessageType() != events.MessageTypeTimerUpdate {
		log.Debug().
			Str("type", string(msg.MessageType())).
			Str("draft_id", draftID).
			Int("connections", count).
			Msg("message broadcasted")
	}
}

// sendTo queues a message for one session if it is still registered.
func (h *Hub) sendTo(s *Session, msg events.Message) bool {
	data, err := msg.Encode()
	if err != nil {
		log.Error().Err(err).Str("type", string(msg.Type)).Msg("failed to marshal message")
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.rooms[s.DraftID][s]; !ok {
		return false
	}
	select {
	case s.send <- data:
		return true
	default:
		return false
	}
}

// CloseRoom disconnects every session of a draft.
func (h *Hub) CloseRoom(draftID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessions := make([]*Session, 0, len(h.rooms[draftID]))
	for s := range h.rooms[draftID] {
		sessions = append(sessions, s)
	}
	for _, s := range sessions {
		h.unregisterLocked(s, "room_closed")
	}
	if len(sessions) > 0 {
		log.Info().Str("draft_id", draftID).Int("connections", len(sessions)).Msg("room closed")
	}
	return len(sessions)
}

// Close disconnects every session of every room.
func (h *Hub) Close() {
	h.mu.RLock()
	ids := make([]string, 0, len(h.rooms))
	for id := range h.rooms {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		h.CloseRoom(id)
	}
}

// SessionCount returns the number of sessions attached to a draft.
func (h *Hub) SessionCount(draftID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[draftID])
}

// GetConnectionStats returns statistics about active connections
func (h *Hub) GetConnectionStats() ConnectionStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := ConnectionStats{
		ActiveDrafts:     len(h.rooms),
		DraftConnections: make(map[string]int, len(h.rooms)),
	}
	for draftID, sessions := range h.rooms {
		stats.TotalConnections += len(sessions)
		stats.DraftConnections[draftID] = len(sessions)
	}
	return stats
}
