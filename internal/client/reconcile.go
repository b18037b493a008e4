package client

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/herniaclinic/clinic-chat/internal/data"
)

// ConversationView is the client-side message list for one conversation.
// Three sources feed it concurrently: optimistic local sends with their
// HTTP confirmations, pushed events from the live channel, and periodic
// poll results used as the catch-all. The view merges them so each
// message appears exactly once regardless of which sources delivered it
// or in what order.
type ConversationView struct {
	ConversationID string

	mu       sync.Mutex
	messages []data.Message
	seen     map[string]struct{}
	pending  map[string]struct{}
}

// NewConversationView creates an empty view for the conversation.
func NewConversationView(conversationID string) *ConversationView {
	return &ConversationView{
		ConversationID: conversationID,
		seen:           make(map[string]struct{}),
		pending:        make(map[string]struct{}),
	}
}

// tempIDPrefix marks optimistic placeholders awaiting confirmation.
const tempIDPrefix = "temp-"

// SendOptimistic appends a placeholder for a message the user just sent,
// before the server has acknowledged it. It returns the temp id to hand
// to ConfirmSend or FailSend once the HTTP call resolves.
func (v *ConversationView) SendOptimistic(content string, sender data.SenderSnapshot) string {
	v.mu.Lock()
	defer v.mu.Unlock()

	tempID := tempIDPrefix + uuid.NewString()
	v.messages = append(v.messages, data.Message{
		ID:             tempID,
		ConversationID: v.ConversationID,
		Content:        content,
		IsFromPatient:  sender.IsPatient(),
		Timestamp:      time.Now().UTC(),
		SenderUserID:   sender.UserID,
		SenderUserName: sender.UserName,
		SenderUserRole: sender.UserRole,
	})
	v.pending[tempID] = struct{}{}
	return tempID
}

// ConfirmSend replaces the optimistic placeholder with the server's
// version of the message. If a push beat the confirmation here, the
// placeholder is simply dropped.
func (v *ConversationView) ConfirmSend(tempID string, serverMsg *data.Message) {
	v.mu.Lock()
	defer v.mu.Unlock()

	delete(v.pending, tempID)

	if _, dup := v.seen[serverMsg.ID]; dup {
		v.removeLocked(tempID)
		return
	}

	for i := range v.messages {
		if v.messages[i].ID == tempID {
			v.messages[i] = *serverMsg
			v.seen[serverMsg.ID] = struct{}{}
			return
		}
	}

	// Placeholder already gone (poll replaced state); append if new.
	v.messages = append(v.messages, *serverMsg)
	v.seen[serverMsg.ID] = struct{}{}
	v.sortLocked()
}

// ApplyPush merges a message pushed over the live channel. Already-seen
// ids are ignored, which makes the merge idempotent when the HTTP
// confirmation and the push both arrive.
func (v *ConversationView) ApplyPush(msg *data.Message) {
	if msg == nil || msg.ConversationID != v.ConversationID {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if _, dup := v.seen[msg.ID]; dup {
		return
	}
	v.seen[msg.ID] = struct{}{}
	v.messages = append(v.messages, *msg)
	v.sortLocked()
}

// ReconcilePoll replaces local state with the server's history, but only
// when the server holds strictly more messages than the view. A poll
// that raced an in-flight send must not erase the optimistic entry, so
// equal or smaller counts leave the view untouched.
func (v *ConversationView) ReconcilePoll(serverMsgs []data.Message) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(serverMsgs) <= len(v.messages) {
		return false
	}

	v.messages = append([]data.Message(nil), serverMsgs...)
	v.seen = make(map[string]struct{}, len(serverMsgs))
	for _, m := range serverMsgs {
		v.seen[m.ID] = struct{}{}
	}
	// Pending placeholders were discarded with the old state; their
	// confirmations will re-append via ConfirmSend if still unseen.
	v.pending = make(map[string]struct{})
	v.sortLocked()
	return true
}

// FailSend rolls back an optimistic placeholder after the HTTP send
// failed and returns its content so the UI can restore the compose
// field. The second return is false when the placeholder no longer
// exists.
func (v *ConversationView) FailSend(tempID string) (string, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	delete(v.pending, tempID)
	for _, m := range v.messages {
		if m.ID == tempID {
			content := m.Content
			v.removeLocked(tempID)
			return content, true
		}
	}
	return "", false
}

// Messages returns a copy of the current merged list in timestamp order.
func (v *ConversationView) Messages() []data.Message {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]data.Message(nil), v.messages...)
}

// PendingCount reports how many optimistic sends await confirmation.
func (v *ConversationView) PendingCount() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.pending)
}

func (v *ConversationView) removeLocked(id string) {
	for i := range v.messages {
		if v.messages[i].ID == id {
			v.messages = append(v.messages[:i], v.messages[i+1:]...)
			return
		}
	}
}

func (v *ConversationView) sortLocked() {
	sort.SliceStable(v.messages, func(i, j int) bool {
		return v.messages[i].Timestamp.Before(v.messages[j].Timestamp)
	})
}
