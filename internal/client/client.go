// Package client is the Go client for the clinic chat API: a REST
// wrapper, a live websocket subscription, and the reconciliation layer
// that merges optimistic sends, HTTP confirmations, pushed events and
// poll results into one consistent message list.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/herniaclinic/clinic-chat/internal/data"
)

// Client talks to the REST surface. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken attaches a bearer token to every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a Client for the API at baseURL, e.g.
// "http://localhost:5025".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body, dst any) error {
	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		buf = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var em struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&em)
		return &APIError{StatusCode: resp.StatusCode, Message: em.Error}
	}

	if dst == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// LoginResult is the payload of a successful login.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
}

// Login exchanges credentials for a token and attaches it to subsequent
// requests.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var res LoginResult
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &res)
	if err != nil {
		return nil, err
	}
	c.token = res.Token
	return &res, nil
}

// NewConversation describes a conversation to create.
type NewConversation struct {
	PatientName       string  `json:"patientName"`
	ClientID          *string `json:"clientId,omitempty"`
	CreatedByUserID   *string `json:"createdByUserId,omitempty"`
	CreatedByUserName *string `json:"createdByUserName,omitempty"`
	CreatedByUserRole *string `json:"createdByUserRole,omitempty"`
}

// CreateConversation starts a conversation and returns its summary.
func (c *Client) CreateConversation(ctx context.Context, in NewConversation) (*data.ConversationSummary, error) {
	var res data.ConversationSummary
	if err := c.do(ctx, http.MethodPost, "/api/conversations", in, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListConversations returns the conversations visible to the given
// viewer. Empty viewer fields list everything.
func (c *Client) ListConversations(ctx context.Context, viewerID, viewerRole string) ([]*data.ConversationSummary, error) {
	path := "/api/conversations"
	q := url.Values{}
	if viewerID != "" {
		q.Set("userId", viewerID)
	}
	if viewerRole != "" {
		q.Set("userRole", viewerRole)
	}
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var res []*data.ConversationSummary
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// ConversationMessages is a conversation with its full history.
type ConversationMessages struct {
	ID          string         `json:"id"`
	PatientName string         `json:"patientName"`
	Messages    []data.Message `json:"messages"`
}

// GetConversationMessages fetches a conversation's history in timestamp
// order.
func (c *Client) GetConversationMessages(ctx context.Context, conversationID string) (*ConversationMessages, error) {
	var res ConversationMessages
	if err := c.do(ctx, http.MethodGet, "/api/conversations/"+conversationID+"/messages", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// OutgoingMessage is a message to post into a conversation.
type OutgoingMessage struct {
	Content        string  `json:"content"`
	SenderUserID   *string `json:"senderUserId,omitempty"`
	SenderUserName *string `json:"senderUserName,omitempty"`
	SenderUserRole *string `json:"senderUserRole,omitempty"`
}

// SendMessage posts a message and returns the persisted inbound message.
// Any auto-reply arrives over the live channel or a later fetch, not in
// this response.
func (c *Client) SendMessage(ctx context.Context, conversationID string, out OutgoingMessage) (*data.Message, error) {
	var res data.Message
	if err := c.do(ctx, http.MethodPost, "/api/conversations/"+conversationID+"/messages", out, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
