package data

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/herniaclinic/clinic-chat/internal/auth"
)

// Seed populates an empty database with the demo dataset: the two
// hardcoded login users plus the system identity, a handful of clients,
// their appointments, and a default weekly schedule for the staff user.
// It is a no-op when users already exist.
func Seed(ctx context.Context, db *gorm.DB) error {
	users := NewUsersStore(db)

	n, err := users.CountUsers(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	// Demo credentials: sarah@gmail.com / password1 and
	// john.smith@email.com / patient123. These stand in for a real
	// identity provider and are not a trust boundary.
	seedUsers := []struct {
		id, name, email, password, role string
	}{
		{"1", "Sarah Johnson", "sarah@gmail.com", "password1", "Medical Assistant"},
		{"2", "John Smith", "john.smith@email.com", "patient123", RolePatient},
		{SystemUserID, SystemUserName, "ai@system.com", "", RoleSystem},
	}
	for _, u := range seedUsers {
		hash := ""
		if u.password != "" {
			hash, err = auth.HashPassword(u.password)
			if err != nil {
				return err
			}
		}
		if _, err := users.CreateUser(ctx, u.id, u.name, u.email, hash, u.role); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	clients := []Client{
		{
			ID: uuid.NewString(), FirstName: "John", LastName: "Smith",
			Email: "john.smith@email.com", Phone: "555-0123",
			DateOfBirth:       time.Date(1985, 6, 15, 0, 0, 0, 0, time.UTC),
			InsuranceProvider: "Blue Cross Blue Shield", InsurancePolicyNumber: "BCBS123456789",
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: uuid.NewString(), FirstName: "Emily", LastName: "Davis",
			Email: "emily.davis@email.com", Phone: "555-0234",
			DateOfBirth:       time.Date(1992, 3, 22, 0, 0, 0, 0, time.UTC),
			InsuranceProvider: "Aetna", InsurancePolicyNumber: "AET987654321",
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: uuid.NewString(), FirstName: "Michael", LastName: "Brown",
			Email: "michael.brown@email.com", Phone: "555-0345",
			DateOfBirth:       time.Date(1978, 11, 8, 0, 0, 0, 0, time.UTC),
			InsuranceProvider: "Cigna", InsurancePolicyNumber: "CIG456789123",
			CreatedAt: now, UpdatedAt: now,
		},
	}
	if err := db.WithContext(ctx).Create(&clients).Error; err != nil {
		return err
	}

	appts := []Appointment{
		{
			ID: uuid.NewString(), ClientID: clients[0].ID,
			AppointmentDate: now.AddDate(0, 0, 7),
			AppointmentType: "Consultation", Status: "Scheduled",
			Provider: "Dr. Patel", DurationMinutes: 30,
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: uuid.NewString(), ClientID: clients[1].ID,
			AppointmentDate: now.AddDate(0, 0, 14),
			AppointmentType: "Follow-up", Status: "Scheduled",
			Provider: "Dr. Patel", DurationMinutes: 15,
			CreatedAt: now, UpdatedAt: now,
		},
	}
	if err := db.WithContext(ctx).Create(&appts).Error; err != nil {
		return err
	}

	// Default weekday schedule for the staff user: 09:00-13:00 and
	// 14:00-17:00, Monday through Friday.
	schedules := NewSchedulesStore(db)
	sched, err := schedules.CreateSchedule(ctx, "1", "Default Schedule")
	if err != nil {
		return err
	}
	var slots []SlotInput
	for day := time.Monday; day <= time.Friday; day++ {
		slots = append(slots,
			SlotInput{DayOfWeek: day, StartMinutes: 9 * 60, EndMinutes: 13 * 60, IsAvailable: true},
			SlotInput{DayOfWeek: day, StartMinutes: 14 * 60, EndMinutes: 17 * 60, IsAvailable: true},
		)
	}
	if _, err := schedules.ReplaceSlots(ctx, sched.ID, slots); err != nil {
		return err
	}

	return nil
}
