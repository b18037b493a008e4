package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/herniaclinic/clinic-chat/internal/auth"
	"github.com/herniaclinic/clinic-chat/internal/autoreply"
	"github.com/herniaclinic/clinic-chat/internal/data"
	"github.com/herniaclinic/clinic-chat/internal/hub"
	"github.com/herniaclinic/clinic-chat/internal/middleware"
)

// fakeConvStore is an in-memory conversationStore.
type fakeConvStore struct {
	convs   map[string]*data.Conversation
	msgs    map[string][]data.Message
	nextID  int
	listErr error
}

func newFakeConvStore() *fakeConvStore {
	return &fakeConvStore{
		convs: make(map[string]*data.Conversation),
		msgs:  make(map[string][]data.Message),
	}
}

func (f *fakeConvStore) CreateConversation(_ context.Context, patientName string, clientID *string, creator data.SenderSnapshot) (*data.Conversation, error) {
	f.nextID++
	now := time.Now().UTC()
	conv := &data.Conversation{
		ID:                fmt.Sprintf("conv-%d", f.nextID),
		PatientName:       patientName,
		ClientID:          clientID,
		StartedAt:         now,
		LastMessageAt:     now,
		CreatedByUserID:   creator.UserID,
		CreatedByUserName: creator.UserName,
		CreatedByUserRole: creator.UserRole,
	}
	f.convs[conv.ID] = conv
	return conv, nil
}

func (f *fakeConvStore) ListConversations(_ context.Context) ([]*data.ConversationSummary, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*data.ConversationSummary, 0, len(f.convs))
	for _, c := range f.convs {
		out = append(out, &data.ConversationSummary{
			ID:                c.ID,
			PatientName:       c.PatientName,
			StartedAt:         c.StartedAt,
			LastMessageAt:     c.LastMessageAt,
			MessageCount:      int64(len(f.msgs[c.ID])),
			CreatedByUserID:   c.CreatedByUserID,
			CreatedByUserName: c.CreatedByUserName,
			CreatedByUserRole: c.CreatedByUserRole,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageAt.After(out[j].LastMessageAt) })
	return out, nil
}

func (f *fakeConvStore) GetConversationWithMessages(_ context.Context, id string) (*data.Conversation, error) {
	conv, ok := f.convs[id]
	if !ok {
		return nil, data.ErrNotFound
	}
	cp := *conv
	cp.Messages = append([]data.Message(nil), f.msgs[id]...)
	sort.Slice(cp.Messages, func(i, j int) bool { return cp.Messages[i].Timestamp.Before(cp.Messages[j].Timestamp) })
	return &cp, nil
}

func (f *fakeConvStore) MessageAuthoredBy(_ context.Context, conversationID, userID string) (bool, error) {
	for _, m := range f.msgs[conversationID] {
		if m.SenderUserID != nil && *m.SenderUserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeConvStore) AppendMessage(_ context.Context, conversationID, content string, sender data.SenderSnapshot, at time.Time) (*data.Message, error) {
	conv, ok := f.convs[conversationID]
	if !ok {
		return nil, data.ErrNotFound
	}
	msg := data.Message{
		ID:             fmt.Sprintf("msg-%d", len(f.msgs[conversationID])+1),
		ConversationID: conversationID,
		Content:        content,
		IsFromPatient:  sender.IsPatient(),
		Timestamp:      at,
		SenderUserID:   sender.UserID,
		SenderUserName: sender.UserName,
		SenderUserRole: sender.UserRole,
	}
	f.msgs[conversationID] = append(f.msgs[conversationID], msg)
	if at.After(conv.LastMessageAt) {
		conv.LastMessageAt = at
	}
	return &msg, nil
}

// fakeLiveHub records broadcasts instead of delivering them.
type fakeLiveHub struct {
	broadcasts []hub.Event
	err        error
}

func (f *fakeLiveHub) Register(hub.Sender) int64 { return 1 }
func (f *fakeLiveHub) Unregister(int64)          {}
func (f *fakeLiveHub) Join(int64, string)        {}
func (f *fakeLiveHub) Leave(int64, string)       {}

func (f *fakeLiveHub) Broadcast(conversationID string, msg *data.Message) error {
	f.broadcasts = append(f.broadcasts, hub.Event{
		Type:           hub.EventMessageReceived,
		ConversationID: conversationID,
		Message:        msg,
	})
	return f.err
}

// fakeUserStore holds users keyed by email.
type fakeUserStore struct {
	users map[string]*data.User
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*data.User, error) {
	u, ok := f.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, data.ErrNotFound
	}
	return u, nil
}

type testEnv struct {
	server  *Server
	convs   *fakeConvStore
	hub     *fakeLiveHub
	users   *fakeUserStore
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	convs := newFakeConvStore()
	h := &fakeLiveHub{}
	users := &fakeUserStore{users: make(map[string]*data.User)}

	srv := newServer(
		convs, nil, nil, nil, users, h,
		auth.NewJWTManager("test-secret", time.Hour),
		autoreply.Respond,
		zerolog.Nop(),
	)

	limiter := middleware.NewLimiterStore(6000, 1000, time.Minute)
	t.Cleanup(limiter.Stop)

	return &testEnv{
		server:  srv,
		convs:   convs,
		hub:     h,
		users:   users,
		handler: srv.routes(limiter),
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func strptr(s string) *string { return &s }

func TestCreateConversation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/conversations", map[string]any{
		"patientName":       "John Smith",
		"createdByUserId":   "2",
		"createdByUserName": "John Smith",
		"createdByUserRole": "Patient",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}

	var resp conversationCreatedResponse
	decodeInto(t, rec, &resp)
	if resp.ID == "" {
		t.Fatal("expected a conversation id")
	}
	if resp.MessageCount != 0 {
		t.Fatalf("messageCount = %d, want 0", resp.MessageCount)
	}
	if resp.PatientName != "John Smith" {
		t.Fatalf("patientName = %q", resp.PatientName)
	}
}

func TestCreateConversationRequiresPatientName(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/conversations", map[string]any{"patientName": "  "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestPostMessageProducesReplyPair(t *testing.T) {
	env := newTestEnv(t)
	conv, _ := env.convs.CreateConversation(context.Background(), "John Smith", nil, data.SenderSnapshot{})

	rec := env.do(t, http.MethodPost, "/api/conversations/"+conv.ID+"/messages", map[string]any{
		"content":        "hello there",
		"senderUserId":   "2",
		"senderUserName": "John Smith",
		"senderUserRole": "Patient",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	// The HTTP payload is the inbound message only.
	var returned data.Message
	decodeInto(t, rec, &returned)
	if returned.Content != "hello there" {
		t.Fatalf("returned content = %q", returned.Content)
	}
	if !returned.IsFromPatient {
		t.Fatal("inbound message should be flagged as from patient")
	}

	msgs := env.convs.msgs[conv.ID]
	if len(msgs) != 2 {
		t.Fatalf("stored messages = %d, want 2", len(msgs))
	}
	inbound, reply := msgs[0], msgs[1]
	if reply.Content != autoreply.ReplyGreeting {
		t.Fatalf("reply content = %q, want %q", reply.Content, autoreply.ReplyGreeting)
	}
	if !reply.Timestamp.After(inbound.Timestamp) {
		t.Fatal("reply timestamp must be strictly after the inbound message")
	}
	if reply.IsFromPatient {
		t.Fatal("auto-reply must not be flagged as from patient")
	}
	if reply.SenderUserID == nil || *reply.SenderUserID != data.SystemUserID {
		t.Fatalf("reply sender = %v, want %q", reply.SenderUserID, data.SystemUserID)
	}

	// Both messages went out over the live channel, in order.
	if len(env.hub.broadcasts) != 2 {
		t.Fatalf("broadcasts = %d, want 2", len(env.hub.broadcasts))
	}
	if env.hub.broadcasts[0].Message.Content != "hello there" {
		t.Fatalf("first broadcast = %q", env.hub.broadcasts[0].Message.Content)
	}
	if env.hub.broadcasts[1].Message.Content != autoreply.ReplyGreeting {
		t.Fatalf("second broadcast = %q", env.hub.broadcasts[1].Message.Content)
	}
}

func TestPostMessageUnknownConversation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/conversations/missing/messages", map[string]any{
		"content": "hello",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if len(env.convs.msgs["missing"]) != 0 {
		t.Fatal("no messages should be stored for an unknown conversation")
	}
	if len(env.hub.broadcasts) != 0 {
		t.Fatal("nothing should be broadcast for an unknown conversation")
	}
}

func TestPostMessageRequiresContent(t *testing.T) {
	env := newTestEnv(t)
	conv, _ := env.convs.CreateConversation(context.Background(), "John Smith", nil, data.SenderSnapshot{})

	rec := env.do(t, http.MethodPost, "/api/conversations/"+conv.ID+"/messages", map[string]any{
		"content": "   ",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestPostMessageBroadcastFailureDoesNotFailRequest(t *testing.T) {
	env := newTestEnv(t)
	env.hub.err = errors.New("socket gone")
	conv, _ := env.convs.CreateConversation(context.Background(), "John Smith", nil, data.SenderSnapshot{})

	rec := env.do(t, http.MethodPost, "/api/conversations/"+conv.ID+"/messages", map[string]any{
		"content": "hello",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(env.convs.msgs[conv.ID]) != 2 {
		t.Fatalf("stored messages = %d, want 2", len(env.convs.msgs[conv.ID]))
	}
}

func TestListConversationsVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, _ := env.convs.CreateConversation(ctx, "John Smith", nil, data.SenderSnapshot{
		UserID: strptr("2"), UserName: strptr("John Smith"), UserRole: strptr("Patient"),
	})
	authored, _ := env.convs.CreateConversation(ctx, "Walk-in", nil, data.SenderSnapshot{})
	_, _ = env.convs.AppendMessage(ctx, authored.ID, "hi", data.SenderSnapshot{
		UserID: strptr("2"), UserRole: strptr("Patient"),
	}, time.Now().UTC())
	unrelated, _ := env.convs.CreateConversation(ctx, "Emily Davis", nil, data.SenderSnapshot{
		UserID: strptr("9"), UserRole: strptr("Patient"),
	})

	cases := []struct {
		name  string
		query string
		want  map[string]bool
	}{
		{
			name:  "staff sees everything",
			query: "userId=1&userRole=Medical%20Assistant",
			want:  map[string]bool{created.ID: true, authored.ID: true, unrelated.ID: true},
		},
		{
			name:  "anonymous sees everything",
			query: "",
			want:  map[string]bool{created.ID: true, authored.ID: true, unrelated.ID: true},
		},
		{
			name:  "patient sees created and authored only",
			query: "userId=2&userRole=Patient",
			want:  map[string]bool{created.ID: true, authored.ID: true},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/conversations?"+tc.query, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
			}
			var got []*data.ConversationSummary
			decodeInto(t, rec, &got)
			if len(got) != len(tc.want) {
				t.Fatalf("visible = %d conversations, want %d", len(got), len(tc.want))
			}
			for _, c := range got {
				if !tc.want[c.ID] {
					t.Fatalf("conversation %s should not be visible", c.ID)
				}
			}
		})
	}
}

func TestListConversationsStoreErrorReturnsEmptyList(t *testing.T) {
	env := newTestEnv(t)
	env.convs.listErr = errors.New("db down")

	rec := env.do(t, http.MethodGet, "/api/conversations", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var got []*data.ConversationSummary
	decodeInto(t, rec, &got)
	if len(got) != 0 {
		t.Fatalf("got %d conversations, want empty list", len(got))
	}
}

func TestGetConversationMessages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	conv, _ := env.convs.CreateConversation(ctx, "John Smith", nil, data.SenderSnapshot{})
	base := time.Now().UTC()
	_, _ = env.convs.AppendMessage(ctx, conv.ID, "first", data.SenderSnapshot{}, base)
	_, _ = env.convs.AppendMessage(ctx, conv.ID, "second", data.SenderSnapshot{}, base.Add(time.Second))

	rec := env.do(t, http.MethodGet, "/api/conversations/"+conv.ID+"/messages", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp conversationMessagesResponse
	decodeInto(t, rec, &resp)
	if len(resp.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(resp.Messages))
	}
	if resp.Messages[0].Content != "first" || resp.Messages[1].Content != "second" {
		t.Fatalf("messages out of order: %q, %q", resp.Messages[0].Content, resp.Messages[1].Content)
	}
}

func TestGetConversationMessagesNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/conversations/missing/messages", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	hash, err := auth.HashPassword("password1")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	env.users.users["sarah@gmail.com"] = &data.User{
		ID:           "1",
		Name:         "Sarah Johnson",
		Email:        "sarah@gmail.com",
		PasswordHash: hash,
		Role:         "Medical Assistant",
	}

	rec := env.do(t, http.MethodPost, "/api/auth/login", map[string]any{
		"email":    "sarah@gmail.com",
		"password": "password1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp loginResponse
	decodeInto(t, rec, &resp)
	if resp.Token == "" {
		t.Fatal("expected a token")
	}
	if resp.UserID != "1" || resp.Role != "Medical Assistant" {
		t.Fatalf("unexpected identity in response: %+v", resp)
	}

	claims, err := env.server.auth.VerifyToken(resp.Token)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	if claims.UserID != "1" {
		t.Fatalf("claims.UserID = %q, want %q", claims.UserID, "1")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	hash, _ := auth.HashPassword("password1")
	env.users.users["sarah@gmail.com"] = &data.User{
		ID: "1", Email: "sarah@gmail.com", PasswordHash: hash,
	}

	for name, body := range map[string]map[string]any{
		"wrong password": {"email": "sarah@gmail.com", "password": "nope"},
		"unknown email":  {"email": "nobody@example.com", "password": "password1"},
	} {
		rec := env.do(t, http.MethodPost, "/api/auth/login", body)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status = %d, want %d", name, rec.Code, http.StatusUnauthorized)
		}
	}
}

// TestConversationFlow covers the whole happy path: create, list, post,
// fetch history.
func TestConversationFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/conversations", map[string]any{"patientName": "John Smith"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d", rec.Code)
	}
	var created conversationCreatedResponse
	decodeInto(t, rec, &created)

	rec = env.do(t, http.MethodGet, "/api/conversations", nil)
	var list []*data.ConversationSummary
	decodeInto(t, rec, &list)
	if len(list) != 1 || list[0].MessageCount != 0 {
		t.Fatalf("list after create = %+v", list)
	}

	rec = env.do(t, http.MethodPost, "/api/conversations/"+created.ID+"/messages", map[string]any{
		"content":        "hello",
		"senderUserRole": "Patient",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("post: status = %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/conversations/"+created.ID+"/messages", nil)
	var hist conversationMessagesResponse
	decodeInto(t, rec, &hist)
	if len(hist.Messages) != 2 {
		t.Fatalf("history = %d messages, want 2", len(hist.Messages))
	}
	if hist.Messages[1].Content != autoreply.ReplyGreeting {
		t.Fatalf("second message = %q, want the greeting reply", hist.Messages[1].Content)
	}
	if !hist.Messages[1].Timestamp.After(hist.Messages[0].Timestamp) {
		t.Fatal("history must order inbound before reply")
	}
}
