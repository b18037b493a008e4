// Package data provides DB models and stores.
package data

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConversationsStore provides conversation and message database
// operations.
type ConversationsStore struct {
	db *gorm.DB
}

// NewConversationsStore returns a ConversationsStore using the given DB
// handle.
func NewConversationsStore(db *gorm.DB) *ConversationsStore {
	return &ConversationsStore{db: db}
}

// CreateConversation inserts a new conversation with a fresh id, both
// timestamps set to now, and the creator snapshot fields stored as-is.
func (s *ConversationsStore) CreateConversation(ctx context.Context, patientName string, clientID *string, creator SenderSnapshot) (*Conversation, error) {
	now := time.Now().UTC()
	conv := &Conversation{
		ID:                uuid.NewString(),
		PatientName:       patientName,
		ClientID:          clientID,
		StartedAt:         now,
		LastMessageAt:     now,
		CreatedByUserID:   creator.UserID,
		CreatedByUserName: creator.UserName,
		CreatedByUserRole: creator.UserRole,
	}

	if err := s.db.WithContext(ctx).Create(conv).Error; err != nil {
		return nil, err
	}
	return conv, nil
}

// ListConversations returns every conversation with its message count and
// most recent message content, ordered by last activity (newest first).
// Visibility filtering is the caller's job; the store returns everything.
func (s *ConversationsStore) ListConversations(ctx context.Context) ([]*ConversationSummary, error) {
	var convs []Conversation
	if err := s.db.WithContext(ctx).
		Order("last_message_at DESC").
		Find(&convs).Error; err != nil {
		return nil, err
	}

	summaries := make([]*ConversationSummary, 0, len(convs))
	for i := range convs {
		c := &convs[i]
		sum := &ConversationSummary{
			ID:                c.ID,
			PatientName:       c.PatientName,
			StartedAt:         c.StartedAt,
			LastMessageAt:     c.LastMessageAt,
			CreatedByUserID:   c.CreatedByUserID,
			CreatedByUserName: c.CreatedByUserName,
			CreatedByUserRole: c.CreatedByUserRole,
		}

		if err := s.db.WithContext(ctx).Model(&Message{}).
			Where("conversation_id = ?", c.ID).
			Count(&sum.MessageCount).Error; err != nil {
			return nil, err
		}

		if sum.MessageCount > 0 {
			var last Message
			if err := s.db.WithContext(ctx).
				Where("conversation_id = ?", c.ID).
				Order("timestamp DESC").
				First(&last).Error; err == nil {
				sum.LastMessage = &last.Content
			} else if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
		}

		summaries = append(summaries, sum)
	}
	return summaries, nil
}

// GetConversationWithMessages returns a conversation and its full message
// list ordered by timestamp ascending, or ErrNotFound.
func (s *ConversationsStore) GetConversationWithMessages(ctx context.Context, id string) (*Conversation, error) {
	var conv Conversation
	err := s.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("timestamp ASC")
		}).
		First(&conv, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// MessageAuthoredBy reports whether the given user sent at least one
// message in the conversation. Used by the patient visibility rule.
func (s *ConversationsStore) MessageAuthoredBy(ctx context.Context, conversationID, userID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Message{}).
		Where("conversation_id = ? AND sender_user_id = ?", conversationID, userID).
		Count(&n).Error
	return n > 0, err
}

// AppendMessage validates that the conversation exists, inserts the
// message with IsFromPatient derived from the snapshot role, and bumps
// the conversation's last_message_at to the message timestamp. The insert
// and the bump run in one transaction so concurrent appends against the
// same conversation cannot leave last_message_at behind a committed
// message (last writer wins, which is acceptable here).
func (s *ConversationsStore) AppendMessage(ctx context.Context, conversationID, content string, sender SenderSnapshot, at time.Time) (*Message, error) {
	msg := &Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Content:        content,
		IsFromPatient:  sender.IsPatient(),
		Timestamp:      at,
		SenderUserID:   sender.UserID,
		SenderUserName: sender.UserName,
		SenderUserRole: sender.UserRole,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conv Conversation
		if err := tx.First(&conv, "id = ?", conversationID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if err := tx.Create(msg).Error; err != nil {
			return err
		}

		return tx.Model(&Conversation{}).
			Where("id = ?", conversationID).
			Update("last_message_at", msg.Timestamp).Error
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}
