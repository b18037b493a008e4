package data

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppointmentsStore provides appointment database operations. Referential
// checks against clients are done by the handler via ClientsStore so the
// failure surfaces as a validation error, not a driver error.
type AppointmentsStore struct {
	db *gorm.DB
}

// NewAppointmentsStore returns an AppointmentsStore using the given DB
// handle.
func NewAppointmentsStore(db *gorm.DB) *AppointmentsStore {
	return &AppointmentsStore{db: db}
}

// AppointmentInput carries the writable appointment fields.
type AppointmentInput struct {
	ClientID        string    `json:"clientId"`
	AppointmentDate time.Time `json:"appointmentDate"`
	AppointmentType string    `json:"appointmentType"`
	Status          string    `json:"status"`
	Provider        string    `json:"provider"`
	DurationMinutes int       `json:"durationMinutes"`
	Notes           string    `json:"notes"`
}

// CreateAppointment inserts a new appointment. Status defaults to
// "Scheduled" when omitted.
func (s *AppointmentsStore) CreateAppointment(ctx context.Context, in AppointmentInput) (*Appointment, error) {
	status := in.Status
	if status == "" {
		status = "Scheduled"
	}
	now := time.Now().UTC()
	appt := &Appointment{
		ID:              uuid.NewString(),
		ClientID:        in.ClientID,
		AppointmentDate: in.AppointmentDate,
		AppointmentType: in.AppointmentType,
		Status:          status,
		Provider:        in.Provider,
		DurationMinutes: in.DurationMinutes,
		Notes:           in.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.db.WithContext(ctx).Create(appt).Error; err != nil {
		return nil, err
	}
	return appt, nil
}

// GetAppointment returns an appointment by id or ErrNotFound.
func (s *AppointmentsStore) GetAppointment(ctx context.Context, id string) (*Appointment, error) {
	var appt Appointment
	err := s.db.WithContext(ctx).First(&appt, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

// ListAppointments returns all appointments annotated with the client
// name, ordered by appointment date ascending.
func (s *AppointmentsStore) ListAppointments(ctx context.Context) ([]*AppointmentSummary, error) {
	var appts []Appointment
	if err := s.db.WithContext(ctx).
		Order("appointment_date ASC").
		Find(&appts).Error; err != nil {
		return nil, err
	}

	out := make([]*AppointmentSummary, 0, len(appts))
	for i := range appts {
		a := appts[i]
		sum := &AppointmentSummary{Appointment: a}
		var client Client
		if err := s.db.WithContext(ctx).First(&client, "id = ?", a.ClientID).Error; err == nil {
			sum.ClientName = client.FullName()
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, nil
}

// ListAppointmentsForClient returns the client's appointments ordered by
// date ascending.
func (s *AppointmentsStore) ListAppointmentsForClient(ctx context.Context, clientID string) ([]*Appointment, error) {
	var appts []*Appointment
	err := s.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("appointment_date ASC").
		Find(&appts).Error
	return appts, err
}

// UpdateAppointment overwrites the writable fields of an appointment, or
// returns ErrNotFound. An empty status keeps the current one.
func (s *AppointmentsStore) UpdateAppointment(ctx context.Context, id string, in AppointmentInput) (*Appointment, error) {
	var appt Appointment
	err := s.db.WithContext(ctx).First(&appt, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	appt.ClientID = in.ClientID
	appt.AppointmentDate = in.AppointmentDate
	appt.AppointmentType = in.AppointmentType
	if in.Status != "" {
		appt.Status = in.Status
	}
	appt.Provider = in.Provider
	appt.DurationMinutes = in.DurationMinutes
	appt.Notes = in.Notes
	appt.UpdatedAt = time.Now().UTC()

	if err := s.db.WithContext(ctx).Save(&appt).Error; err != nil {
		return nil, err
	}
	return &appt, nil
}
