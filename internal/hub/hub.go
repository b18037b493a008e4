// Package hub implements the live-broadcast fan-out: a registry of
// connected clients grouped by the conversation they are viewing.
package hub

import (
	"fmt"
	"sync"

	"github.com/herniaclinic/clinic-chat/internal/data"
)

// Event is the frame pushed to connected clients when a message lands in
// a conversation they joined.
type Event struct {
	Type           string        `json:"type"`
	ConversationID string        `json:"conversationId"`
	Message        *data.Message `json:"message,omitempty"`
}

// EventMessageReceived is the server-to-client push event name.
const EventMessageReceived = "messageReceived"

// Sender is the minimal interface the hub needs from a connection: the
// ability to push an Event to the connected client. Connections that also
// implement Close are closed when the hub drains.
type Sender interface {
	Send(Event) error
}

// Hub manages active connections and their conversation-group
// memberships. Delivery is scoped to group members, at-most-once, with no
// backlog for clients that are not connected at broadcast time. It is
// safe for concurrent use.
type Hub struct {
	mu     sync.RWMutex
	conns  map[int64]Sender
	groups map[string]map[int64]struct{}
	joined map[int64]map[string]struct{}
	nextID int64
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{
		conns:  make(map[int64]Sender),
		groups: make(map[string]map[int64]struct{}),
		joined: make(map[int64]map[string]struct{}),
	}
}

// Register adds a connection and returns its id, used for group
// operations and for Unregister when the connection closes.
func (h *Hub) Register(s Sender) int64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	h.conns[id] = s
	h.joined[id] = make(map[string]struct{})
	return id
}

// Unregister removes a connection and clears it from every group it
// joined. Called on any disconnect, orderly or not.
func (h *Hub) Unregister(id int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(id)
}

func (h *Hub) removeLocked(id int64) {
	for conv := range h.joined[id] {
		if members, ok := h.groups[conv]; ok {
			delete(members, id)
			if len(members) == 0 {
				delete(h.groups, conv)
			}
		}
	}
	delete(h.joined, id)
	delete(h.conns, id)
}

// Join adds the connection to the named conversation group.
func (h *Hub) Join(id int64, conversationID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[id]; !ok {
		return
	}
	if _, ok := h.groups[conversationID]; !ok {
		h.groups[conversationID] = make(map[int64]struct{})
	}
	h.groups[conversationID][id] = struct{}{}
	h.joined[id][conversationID] = struct{}{}
}

// Leave removes the connection from the named conversation group.
func (h *Hub) Leave(id int64, conversationID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.groups[conversationID]; ok {
		delete(members, id)
		if len(members) == 0 {
			delete(h.groups, conversationID)
		}
	}
	if convs, ok := h.joined[id]; ok {
		delete(convs, conversationID)
	}
}

// Broadcast pushes a message to every connection that joined the
// conversation's group. Delivery is best-effort: failed connections are
// dropped from the hub and the first error is returned so the caller can
// log it. A conversation with no members is not an error.
func (h *Hub) Broadcast(conversationID string, msg *data.Message) error {
	ev := Event{
		Type:           EventMessageReceived,
		ConversationID: conversationID,
		Message:        msg,
	}

	h.mu.RLock()
	members := make([]int64, 0, len(h.groups[conversationID]))
	for id := range h.groups[conversationID] {
		members = append(members, id)
	}
	senders := make(map[int64]Sender, len(members))
	for _, id := range members {
		senders[id] = h.conns[id]
	}
	h.mu.RUnlock()

	var firstErr error
	var failed []int64
	for _, id := range members {
		s := senders[id]
		if s == nil {
			continue
		}
		if err := s.Send(ev); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("conn %d: %w", id, err)
			}
			failed = append(failed, id)
		}
	}

	// Drop connections that failed to receive so the hub does not keep
	// pushing into broken sockets.
	for _, id := range failed {
		h.Unregister(id)
	}

	return firstErr
}

// ConnectionCount returns the number of registered connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Drain closes every connection that supports closing and empties the
// hub. Called on process shutdown.
func (h *Hub) Drain() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, s := range h.conns {
		if c, ok := s.(interface{ Close() error }); ok {
			_ = c.Close()
		}
		h.removeLocked(id)
	}
}
