package main

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/herniaclinic/clinic-chat/internal/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The browser client is served from a different origin in dev, so
	// origin checks are disabled.
	CheckOrigin: func(*http.Request) bool { return true },
}

// clientFrame is what the browser sends over the socket: join and leave
// requests for conversation groups.
type clientFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId"`
}

const (
	frameJoinConversation  = "joinConversation"
	frameLeaveConversation = "leaveConversation"
)

// wsConn adapts a websocket connection to the hub's Sender interface.
// gorilla/websocket allows only one concurrent writer, so Send and Close
// serialize on a mutex.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) Send(ev hub.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(ev)
}

func (c *wsConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}

// handleWebSocket upgrades the connection, registers it with the hub and
// then serves join/leave frames until the peer goes away. Membership is
// per connection; a dropped socket loses its groups and must rejoin.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	ws := &wsConn{conn: conn}
	id := s.hub.Register(ws)
	s.log.Debug().Int64("conn", id).Msg("websocket connected")

	defer func() {
		s.hub.Unregister(id)
		ws.Close()
		s.log.Debug().Int64("conn", id).Msg("websocket disconnected")
	}()

	for {
		var frame clientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug().Err(err).Int64("conn", id).Msg("websocket read error")
			}
			return
		}

		switch frame.Type {
		case frameJoinConversation:
			if frame.ConversationID != "" {
				s.hub.Join(id, frame.ConversationID)
			}
		case frameLeaveConversation:
			if frame.ConversationID != "" {
				s.hub.Leave(id, frame.ConversationID)
			}
		default:
			// Unknown frames are ignored so protocol additions stay
			// backwards compatible.
		}
	}
}
