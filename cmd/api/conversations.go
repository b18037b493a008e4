package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/herniaclinic/clinic-chat/internal/data"
	"github.com/herniaclinic/clinic-chat/internal/visibility"
)

type createConversationRequest struct {
	PatientName       string  `json:"patientName"`
	ClientID          *string `json:"clientId,omitempty"`
	CreatedByUserID   *string `json:"createdByUserId,omitempty"`
	CreatedByUserName *string `json:"createdByUserName,omitempty"`
	CreatedByUserRole *string `json:"createdByUserRole,omitempty"`
}

type conversationCreatedResponse struct {
	ID            string    `json:"id"`
	PatientName   string    `json:"patientName"`
	StartedAt     time.Time `json:"startedAt"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	MessageCount  int       `json:"messageCount"`
}

// handleCreateConversation starts a new conversation, capturing the
// creator snapshot fields exactly as supplied.
func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if err := readJSON(r, &req); err != nil {
		s.clientError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.PatientName) == "" {
		s.clientError(w, http.StatusBadRequest, "patientName is required")
		return
	}

	conv, err := s.convs.CreateConversation(r.Context(), req.PatientName, req.ClientID, data.SenderSnapshot{
		UserID:   req.CreatedByUserID,
		UserName: req.CreatedByUserName,
		UserRole: req.CreatedByUserRole,
	})
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, conversationCreatedResponse{
		ID:            conv.ID,
		PatientName:   conv.PatientName,
		StartedAt:     conv.StartedAt,
		LastMessageAt: conv.LastMessageAt,
		MessageCount:  0,
	})
}

// handleListConversations returns every conversation visible to the
// viewer identified by the userId/userRole query parameters. On storage
// failure it degrades to an empty list rather than erroring, so the
// conversation list UI never breaks outright.
func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	viewerID := r.URL.Query().Get("userId")
	viewerRole := r.URL.Query().Get("userRole")

	all, err := s.convs.ListConversations(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("listing conversations failed; returning empty list")
		s.writeJSON(w, http.StatusOK, []*data.ConversationSummary{})
		return
	}

	visible := make([]*data.ConversationSummary, 0, len(all))
	for _, c := range all {
		authored := false
		if viewerRole == data.RolePatient && viewerID != "" {
			// Only patients need the authored-a-message check, and only
			// when the creator match did not already settle it.
			if c.CreatedByUserID == nil || *c.CreatedByUserID != viewerID {
				authored, err = s.convs.MessageAuthoredBy(r.Context(), c.ID, viewerID)
				if err != nil {
					s.log.Error().Err(err).Msg("visibility check failed; returning empty list")
					s.writeJSON(w, http.StatusOK, []*data.ConversationSummary{})
					return
				}
			}
		}
		if visibility.Visible(viewerID, viewerRole, c.CreatedByUserID, authored) {
			visible = append(visible, c)
		}
	}

	s.writeJSON(w, http.StatusOK, visible)
}

type conversationMessagesResponse struct {
	ID          string         `json:"id"`
	PatientName string         `json:"patientName"`
	Messages    []data.Message `json:"messages"`
}

// handleGetConversationMessages returns a conversation with its full
// message history in timestamp order. Visibility filtering happens only
// on the list endpoint; anyone holding a conversation id can read it.
func (s *Server) handleGetConversationMessages(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	conv, err := s.convs.GetConversationWithMessages(r.Context(), id)
	if errors.Is(err, data.ErrNotFound) {
		s.notFound(w, "conversation not found")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	msgs := conv.Messages
	if msgs == nil {
		msgs = []data.Message{}
	}
	s.writeJSON(w, http.StatusOK, conversationMessagesResponse{
		ID:          conv.ID,
		PatientName: conv.PatientName,
		Messages:    msgs,
	})
}

type postMessageRequest struct {
	Content        string  `json:"content"`
	SenderUserID   *string `json:"senderUserId,omitempty"`
	SenderUserName *string `json:"senderUserName,omitempty"`
	SenderUserRole *string `json:"senderUserRole,omitempty"`
}

// handlePostMessage is the message ingress path: persist the inbound
// message, push it to connected viewers, run the auto-responder, persist
// and push the reply. The HTTP payload is the inbound message only; the
// auto-reply reaches the caller via the live channel or a later fetch.
func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req postMessageRequest
	if err := readJSON(r, &req); err != nil {
		s.clientError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		s.clientError(w, http.StatusBadRequest, "content is required")
		return
	}

	sender := data.SenderSnapshot{
		UserID:   req.SenderUserID,
		UserName: req.SenderUserName,
		UserRole: req.SenderUserRole,
	}

	msg, err := s.convs.AppendMessage(r.Context(), id, req.Content, sender, time.Now().UTC())
	if errors.Is(err, data.ErrNotFound) {
		s.notFound(w, "conversation not found")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	// Delivery is decoupled from the request outcome: a failed or slow
	// push never rolls back the persisted message or fails the caller,
	// who has the HTTP response and the poll path as durable fallbacks.
	if err := s.hub.Broadcast(id, msg); err != nil {
		s.log.Warn().Err(err).Str("conversation", id).Msg("broadcast of inbound message failed")
	}

	if reply := s.respond(req.Content); reply != "" {
		sysID, sysName, sysRole := data.SystemUserID, data.SystemUserName, data.RoleSystem
		// Stamped one second after the inbound message so the pair
		// always orders inbound-then-reply.
		replyMsg, err := s.convs.AppendMessage(r.Context(), id, reply, data.SenderSnapshot{
			UserID:   &sysID,
			UserName: &sysName,
			UserRole: &sysRole,
		}, msg.Timestamp.Add(time.Second))
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		if err := s.hub.Broadcast(id, replyMsg); err != nil {
			s.log.Warn().Err(err).Str("conversation", id).Msg("broadcast of auto-reply failed")
		}
	}

	s.writeJSON(w, http.StatusOK, msg)
}
