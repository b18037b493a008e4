package data

import (
	"time"
)

// Role names used across the API. Roles arrive on each request from the
// caller and are stored as snapshots; they are not re-validated against a
// server-side session.
const (
	RolePatient = "Patient"
	RoleSystem  = "System"
)

// Fixed identity used to author automatic replies.
const (
	SystemUserID   = "ai-system"
	SystemUserName = "AI Assistant"
)

// Conversation maps to the conversations table. Creator fields are a
// denormalized snapshot captured at creation time so historical display
// data survives later changes to the user record.
type Conversation struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	PatientName   string    `gorm:"size:255" json:"patientName"`
	ClientID      *string   `gorm:"index;size:36" json:"clientId,omitempty"`
	StartedAt     time.Time `json:"startedAt"`
	LastMessageAt time.Time `json:"lastMessageAt"`

	CreatedByUserID   *string `gorm:"index;size:64" json:"createdByUserId,omitempty"`
	CreatedByUserName *string `gorm:"size:255" json:"createdByUserName,omitempty"`
	CreatedByUserRole *string `gorm:"size:64" json:"createdByUserRole,omitempty"`

	// Messages are owned by the conversation and removed with it.
	Messages []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

// Message maps to the messages table. Messages are immutable once
// created; IsFromPatient and the sender fields are snapshots computed at
// append time, never re-derived from the users table.
type Message struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	ConversationID string    `gorm:"index;size:36" json:"conversationId"`
	Content        string    `gorm:"type:text" json:"content"`
	IsFromPatient  bool      `json:"isFromPatient"`
	Timestamp      time.Time `json:"timestamp"`

	SenderUserID   *string `gorm:"index;size:64" json:"senderUserId,omitempty"`
	SenderUserName *string `gorm:"size:255" json:"senderUserName,omitempty"`
	SenderUserRole *string `gorm:"size:64" json:"senderUserRole,omitempty"`
}

// SenderSnapshot carries the caller-supplied identity attached to a new
// message. All fields are optional on the wire.
type SenderSnapshot struct {
	UserID   *string
	UserName *string
	UserRole *string
}

// IsPatient reports whether the snapshot role is the patient role.
func (s SenderSnapshot) IsPatient() bool {
	return s.UserRole != nil && *s.UserRole == RolePatient
}

// ConversationSummary is the list-endpoint projection: the conversation
// plus its message count and most recent message content.
type ConversationSummary struct {
	ID                string    `json:"id"`
	PatientName       string    `json:"patientName"`
	StartedAt         time.Time `json:"startedAt"`
	LastMessageAt     time.Time `json:"lastMessageAt"`
	LastMessage       *string   `json:"lastMessage,omitempty"`
	MessageCount      int64     `json:"messageCount"`
	CreatedByUserID   *string   `json:"createdByUserId,omitempty"`
	CreatedByUserName *string   `json:"createdByUserName,omitempty"`
	CreatedByUserRole *string   `json:"createdByUserRole,omitempty"`
}

// Client maps to the clients table (patient records). Email is stored in
// normalized form and unique.
type Client struct {
	ID                    string    `gorm:"primaryKey;size:36" json:"id"`
	FirstName             string    `gorm:"size:255" json:"firstName"`
	LastName              string    `gorm:"size:255" json:"lastName"`
	Email                 string    `gorm:"uniqueIndex;size:255" json:"email"`
	Phone                 string    `gorm:"size:64" json:"phone"`
	DateOfBirth           time.Time `json:"dateOfBirth"`
	InsuranceProvider     string    `gorm:"size:255" json:"insuranceProvider"`
	InsurancePolicyNumber string    `gorm:"size:255" json:"insurancePolicyNumber"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`

	// Appointments go with the client; conversations survive with their
	// client link cleared.
	Appointments  []Appointment  `gorm:"foreignKey:ClientID;constraint:OnDelete:CASCADE" json:"appointments,omitempty"`
	Conversations []Conversation `gorm:"foreignKey:ClientID;constraint:OnDelete:SET NULL" json:"conversations,omitempty"`
}

// FullName joins first and last name for display.
func (c *Client) FullName() string {
	return c.FirstName + " " + c.LastName
}

// Appointment maps to the appointments table.
type Appointment struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	ClientID        string    `gorm:"index;size:36" json:"clientId"`
	AppointmentDate time.Time `gorm:"index" json:"appointmentDate"`
	AppointmentType string    `gorm:"size:64" json:"appointmentType"` // Consultation, Surgery, Follow-up
	Status          string    `gorm:"size:64" json:"status"`          // Scheduled, Completed, Cancelled, No-Show
	Provider        string    `gorm:"size:255" json:"provider"`
	DurationMinutes int       `json:"durationMinutes"`
	Notes           string    `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// AppointmentSummary is the list projection including the client name.
type AppointmentSummary struct {
	Appointment
	ClientName string `json:"clientName"`
}

// User maps to the users table. The shipped credential set is seeded and
// fixed; real identity management is explicitly out of scope.
type User struct {
	ID           string    `gorm:"primaryKey;size:64" json:"id"`
	Name         string    `gorm:"size:255" json:"name"`
	Email        string    `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string    `gorm:"size:255" json:"-"`
	Role         string    `gorm:"size:64" json:"role"`
	CreatedAt    time.Time `json:"createdAt"`

	Schedules []Schedule `gorm:"foreignKey:StaffUserID;constraint:OnDelete:CASCADE" json:"schedules,omitempty"`
}

// Schedule is a named weekly availability template owned by one staff
// user.
type Schedule struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	StaffUserID string    `gorm:"index;size:64" json:"staffUserId"`
	Name        string    `gorm:"size:255" json:"name"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	Slots []ScheduleSlot `gorm:"foreignKey:ScheduleID;constraint:OnDelete:CASCADE" json:"slots,omitempty"`
}

// ScheduleSlot is a day-of-week availability window. Times are local
// wall-clock minutes since midnight, not tied to any calendar date;
// overlap between slots is not prevented at this layer.
type ScheduleSlot struct {
	ID           string       `gorm:"primaryKey;size:36" json:"id"`
	ScheduleID   string       `gorm:"index;size:36" json:"scheduleId"`
	DayOfWeek    time.Weekday `json:"dayOfWeek"`
	StartMinutes int          `json:"startMinutes"`
	EndMinutes   int          `json:"endMinutes"`
	IsAvailable  bool         `json:"isAvailable"`
	Notes        *string      `gorm:"size:255" json:"notes,omitempty"`
}
