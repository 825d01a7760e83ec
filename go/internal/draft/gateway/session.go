package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/draftroom/go/internal/draft/events"
	"github.com/mcdev12/draftroom/go/internal/draft/machine"
)

// LastSeen is when the client last sent anything.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch(pong bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
	if pong {
		s.missedPongs = 0
	}
}

// heartbeat counts an outstanding ping and reports whether the session is
// still within its allowance.
func (s *Session) heartbeat() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.missedPongs >= s.hub.config.MaxMissedPongs {
		return false
	}
	s.missedPongs++
	return true
}

// writePump handles sending messages to the WebSocket connection. It is the
// only writer on the socket.
func (s *Session) writePump() {
	cfg := s.hub.config
	ping := newTicker(cfg.PingInterval)
	heartbeat := newTicker(cfg.HeartbeatInterval)
	defer func() {
		ping.Stop()
		heartbeat.Stop()
		s.conn.Close()
		s.hub.unregister(s, "write_closed")
	}()

	for {
		select {
		case message, ok := <-s.send:
			s.conn.SetWriteDeadline(deadline(cfg.WriteTimeout))
			if !ok {
				// Channel was closed
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug().Err(err).Str("connection_id", s.ID).Msg("failed to write message to WebSocket")
				return
			}

		case <-ping.C():
			s.conn.SetWriteDeadline(deadline(cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("connection_id", s.ID).Msg("failed to send ping")
				return
			}

		case <-heartbeat.C():
			if !s.heartbeat() {
				log.Info().
					Str("connection_id", s.ID).
					Str("participant_id", s.ParticipantID).
					Int("missed_pongs", cfg.MaxMissedPongs).
					Msg("heartbeat lost, closing connection")
				s.hub.unregister(s, "heartbeat")
				return
			}
			data, err := events.Message{
				Type: events.MessageTypePing,
				Data: events.HeartbeatData{Timestamp: time.Now().UnixMilli()},
			}.Encode()
			if err != nil {
				continue
			}
			s.conn.SetWriteDeadline(deadline(cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug().Err(err).Str("connection_id", s.ID).Msg("failed to send heartbeat")
				return
			}
		}
	}
}

// readPump handles reading messages from the WebSocket connection. Leaving
// the room never changes the draft.
func (s *Session) readPump() {
	cfg := s.hub.config
	defer func() {
		s.hub.unregister(s, "disconnected")
		s.conn.Close()
	}()

	if cfg.MaxMessageSize > 0 {
		s.conn.SetReadLimit(cfg.MaxMessageSize)
	}
	s.conn.SetReadDeadline(deadline(cfg.ReadTimeout))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(deadline(cfg.ReadTimeout))
		s.touch(true)
		return nil
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Warn().
					Err(err).
					Str("connection_id", s.ID).
					Msg("unexpected WebSocket close error")
			}
			return
		}

		s.conn.SetReadDeadline(deadline(cfg.ReadTimeout))
		s.handleClientMessage(message)
	}
}

// handleClientMessage processes messages received from the client
func (s *Session) handleClientMessage(raw []byte) {
	var msg events.ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.sendError("invalid_message", "message is not valid JSON")
		return
	}

	switch msg.Type {
	case events.MessageTypePing:
		s.touch(false)
		s.hub.sendTo(s, events.Message{
			Type: events.MessageTypePong,
			Data: events.HeartbeatData{Timestamp: time.Now().UnixMilli()},
		})

	case events.MessageTypePong:
		s.touch(true)

	case events.MessageTypeMakePick:
		s.touch(false)
		if !s.limiter.Allow() {
			s.sendError("rate_limited", "too many pick attempts")
			return
		}
		teamID := msg.PickTeamID()
		if teamID == "" {
			s.sendError("invalid_message", "teamId is required")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.hub.config.PickTimeout)
		defer cancel()
		if _, err := s.room.SubmitPick(ctx, s.ParticipantID, teamID); err != nil {
			s.sendError(machine.ErrorCode(err), err.Error())
		}

	default:
		log.Debug().
			Str("connection_id", s.ID).
			Str("type", string(msg.Type)).
			Msg("received unknown client message")
		s.sendError("unknown_message_type", "unsupported message type "+string(msg.Type))
	}
}

func (s *Session) sendError(code, message string) {
	s.hub.sendTo(s, events.NewError(code, message))
}

// deadline returns the zero time, meaning none, for a non-positive timeout.
func deadline(d time.Duration) time.Time {
	if d <= 0 {
		return time.Time{}
	}
	return time.Now().Add(d)
}

// ticker wraps time.Ticker so a zero interval yields a channel that never fires.
type ticker struct {
	t *time.Ticker
}

func newTicker(d time.Duration) ticker {
	if d <= 0 {
		return ticker{}
	}
	return ticker{t: time.NewTicker(d)}
}

func (t ticker) C() <-chan time.Time {
	if t.t == nil {
		return nil
	}
	return t.t.C
}

func (t ticker) Stop() {
	if t.t != nil {
		t.t.Stop()
	}
}
