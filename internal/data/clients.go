package data

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/herniaclinic/clinic-chat/internal/normalize"
)

// ClientsStore provides client (patient record) database operations.
type ClientsStore struct {
	db *gorm.DB
}

// NewClientsStore returns a ClientsStore using the given DB handle.
func NewClientsStore(db *gorm.DB) *ClientsStore {
	return &ClientsStore{db: db}
}

// ClientInput carries the writable client fields shared by create and
// update.
type ClientInput struct {
	FirstName             string    `json:"firstName"`
	LastName              string    `json:"lastName"`
	Email                 string    `json:"email"`
	Phone                 string    `json:"phone"`
	DateOfBirth           time.Time `json:"dateOfBirth"`
	InsuranceProvider     string    `json:"insuranceProvider"`
	InsurancePolicyNumber string    `json:"insurancePolicyNumber"`
}

// ClientSummary is the list projection with appointment and conversation
// counts.
type ClientSummary struct {
	Client
	AppointmentCount  int64 `json:"appointmentCount"`
	ConversationCount int64 `json:"conversationCount"`
}

// CreateClient inserts a new client record. Email is normalized before
// storage so the unique index applies to the canonical form.
func (s *ClientsStore) CreateClient(ctx context.Context, in ClientInput) (*Client, error) {
	now := time.Now().UTC()
	client := &Client{
		ID:                    uuid.NewString(),
		FirstName:             in.FirstName,
		LastName:              in.LastName,
		Email:                 normalize.Email(in.Email),
		Phone:                 in.Phone,
		DateOfBirth:           in.DateOfBirth,
		InsuranceProvider:     in.InsuranceProvider,
		InsurancePolicyNumber: in.InsurancePolicyNumber,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.db.WithContext(ctx).Create(client).Error; err != nil {
		return nil, err
	}
	return client, nil
}

// GetClient returns a client by id or ErrNotFound.
func (s *ClientsStore) GetClient(ctx context.Context, id string) (*Client, error) {
	var client Client
	err := s.db.WithContext(ctx).
		Preload("Appointments").
		Preload("Conversations").
		First(&client, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

// ListClients returns all clients with their appointment and conversation
// counts.
func (s *ClientsStore) ListClients(ctx context.Context) ([]*ClientSummary, error) {
	var clients []Client
	if err := s.db.WithContext(ctx).Find(&clients).Error; err != nil {
		return nil, err
	}

	out := make([]*ClientSummary, 0, len(clients))
	for i := range clients {
		c := clients[i]
		sum := &ClientSummary{Client: c}
		if err := s.db.WithContext(ctx).Model(&Appointment{}).
			Where("client_id = ?", c.ID).
			Count(&sum.AppointmentCount).Error; err != nil {
			return nil, err
		}
		if err := s.db.WithContext(ctx).Model(&Conversation{}).
			Where("client_id = ?", c.ID).
			Count(&sum.ConversationCount).Error; err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, nil
}

// UpdateClient overwrites the writable fields of a client, or returns
// ErrNotFound.
func (s *ClientsStore) UpdateClient(ctx context.Context, id string, in ClientInput) (*Client, error) {
	var client Client
	err := s.db.WithContext(ctx).First(&client, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	client.FirstName = in.FirstName
	client.LastName = in.LastName
	client.Email = normalize.Email(in.Email)
	client.Phone = in.Phone
	client.DateOfBirth = in.DateOfBirth
	client.InsuranceProvider = in.InsuranceProvider
	client.InsurancePolicyNumber = in.InsurancePolicyNumber
	client.UpdatedAt = time.Now().UTC()

	if err := s.db.WithContext(ctx).Save(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

// ClientExists reports whether a client record with the given id exists.
func (s *ClientsStore) ClientExists(ctx context.Context, id string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Client{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}
