package client

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/herniaclinic/clinic-chat/internal/data"
)

// reconnectDelays is the backoff ladder: immediate first retry, then
// increasingly patient. One attempt per rung, then the live channel
// gives up and the caller falls back to polling.
var reconnectDelays = []time.Duration{0, 2 * time.Second, 10 * time.Second, 30 * time.Second}

// rejoinSettleDelay gives a fresh socket a moment before group joins are
// replayed.
const rejoinSettleDelay = 100 * time.Millisecond

// PushHandler receives messages pushed for a joined conversation.
type PushHandler func(conversationID string, msg *data.Message)

type outFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId"`
}

type inFrame struct {
	Type           string        `json:"type"`
	ConversationID string        `json:"conversationId"`
	Message        *data.Message `json:"message,omitempty"`
}

// Live maintains the websocket subscription. On disconnect it redials
// with bounded backoff and re-joins every conversation the caller joined,
// so a dropped socket resumes receiving pushes without caller
// involvement. Messages broadcast while the socket was down are not
// replayed; polling covers that gap.
type Live struct {
	wsURL   string
	handler PushHandler
	log     zerolog.Logger
	dial    func(ctx context.Context) (*websocket.Conn, error)

	mu      sync.Mutex
	conn    *websocket.Conn
	joined  map[string]struct{}
	closed  bool
	started bool

	quit chan struct{}
	done chan struct{}
}

// NewLive creates a live subscription against the API at baseURL. Call
// Run to connect.
func NewLive(baseURL string, handler PushHandler, log zerolog.Logger) *Live {
	ws := strings.TrimRight(baseURL, "/") + "/ws"
	if u, err := url.Parse(ws); err == nil {
		switch u.Scheme {
		case "http":
			u.Scheme = "ws"
		case "https":
			u.Scheme = "wss"
		}
		ws = u.String()
	}

	l := &Live{
		wsURL:   ws,
		handler: handler,
		log:     log,
		joined:  make(map[string]struct{}),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	l.dial = func(ctx context.Context) (*websocket.Conn, error) {
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, l.wsURL, nil)
		return conn, err
	}
	return l
}

// Join subscribes to a conversation's pushes. The membership is
// remembered and replayed after every reconnect.
func (l *Live) Join(conversationID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.joined[conversationID] = struct{}{}
	if l.conn == nil {
		return nil
	}
	return l.conn.WriteJSON(outFrame{Type: "joinConversation", ConversationID: conversationID})
}

// Leave unsubscribes from a conversation.
func (l *Live) Leave(conversationID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.joined, conversationID)
	if l.conn == nil {
		return nil
	}
	return l.conn.WriteJSON(outFrame{Type: "leaveConversation", ConversationID: conversationID})
}

// Run connects and serves pushes until the context is cancelled, Close
// is called, or the backoff ladder is exhausted. It blocks; run it in its
// own goroutine.
func (l *Live) Run(ctx context.Context) error {
	l.mu.Lock()
	l.started = true
	l.mu.Unlock()
	defer close(l.done)

	attempt := 0
	for {
		if attempt >= len(reconnectDelays) {
			l.log.Warn().Msg("live channel gave up reconnecting; poll fallback takes over")
			return nil
		}
		if d := reconnectDelays[attempt]; d > 0 {
			select {
			case <-time.After(d):
			case <-l.quit:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		attempt++

		conn, err := l.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.log.Warn().Err(err).Int("attempt", attempt).Msg("live dial failed")
			continue
		}

		// A successful connection resets the ladder.
		attempt = 0

		if !l.attach(conn) {
			_ = conn.Close()
			return nil
		}
		l.rejoin(conn)
		l.readLoop(ctx, conn)
		l.detach(conn)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if l.isClosed() {
			return nil
		}
	}
}

func (l *Live) attach(conn *websocket.Conn) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return false
	}
	l.conn = conn
	return true
}

func (l *Live) detach(conn *websocket.Conn) {
	l.mu.Lock()
	if l.conn == conn {
		l.conn = nil
	}
	l.mu.Unlock()
	_ = conn.Close()
}

// rejoin replays group membership on a fresh socket after a short settle
// delay.
func (l *Live) rejoin(conn *websocket.Conn) {
	time.Sleep(rejoinSettleDelay)

	l.mu.Lock()
	convs := make([]string, 0, len(l.joined))
	for id := range l.joined {
		convs = append(convs, id)
	}
	l.mu.Unlock()

	for _, id := range convs {
		if err := conn.WriteJSON(outFrame{Type: "joinConversation", ConversationID: id}); err != nil {
			l.log.Warn().Err(err).Str("conversation", id).Msg("rejoin failed")
			return
		}
	}
}

func (l *Live) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && !l.isClosed() {
				l.log.Debug().Err(err).Msg("live socket read ended")
			}
			return
		}

		var frame inFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			l.log.Warn().Err(err).Msg("ignoring malformed push frame")
			continue
		}
		if frame.Type == "messageReceived" && frame.Message != nil {
			l.handler(frame.ConversationID, frame.Message)
		}
	}
}

func (l *Live) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Close tears down the subscription and stops reconnecting.
func (l *Live) Close() error {
	l.mu.Lock()
	alreadyClosed := l.closed
	l.closed = true
	conn := l.conn
	l.conn = nil
	started := l.started
	l.mu.Unlock()

	if !alreadyClosed {
		close(l.quit)
	}

	if conn != nil {
		_ = conn.Close()
	}
	if started {
		<-l.done
	}
	return nil
}
