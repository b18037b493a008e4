package data

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SchedulesStore provides weekly staff availability storage: schedules
// composed of day/time slots. It is a flat record manager; booking logic
// lives elsewhere (or nowhere yet).
type SchedulesStore struct {
	db *gorm.DB
}

// NewSchedulesStore returns a SchedulesStore using the given DB handle.
func NewSchedulesStore(db *gorm.DB) *SchedulesStore {
	return &SchedulesStore{db: db}
}

// SlotInput carries the writable slot fields.
type SlotInput struct {
	DayOfWeek    time.Weekday `json:"dayOfWeek"`
	StartMinutes int          `json:"startMinutes"`
	EndMinutes   int          `json:"endMinutes"`
	IsAvailable  bool         `json:"isAvailable"`
	Notes        *string      `json:"notes,omitempty"`
}

// CreateSchedule inserts a new named schedule for a staff user.
func (s *SchedulesStore) CreateSchedule(ctx context.Context, staffUserID, name string) (*Schedule, error) {
	now := time.Now().UTC()
	sched := &Schedule{
		ID:          uuid.NewString(),
		StaffUserID: staffUserID,
		Name:        name,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.WithContext(ctx).Create(sched).Error; err != nil {
		return nil, err
	}
	return sched, nil
}

// GetScheduleForStaff returns the active schedule (with slots) for a
// staff user, or ErrNotFound if they have none.
func (s *SchedulesStore) GetScheduleForStaff(ctx context.Context, staffUserID string) (*Schedule, error) {
	var sched Schedule
	err := s.db.WithContext(ctx).
		Preload("Slots").
		Where("staff_user_id = ? AND is_active = ?", staffUserID, true).
		First(&sched).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sched, nil
}

// ReplaceSlots swaps the full slot set of a schedule in one transaction.
// Slots carry no identity of their own worth preserving across edits, so
// a wholesale replace keeps the weekly grid simple to reason about.
func (s *SchedulesStore) ReplaceSlots(ctx context.Context, scheduleID string, slots []SlotInput) (*Schedule, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sched Schedule
		if err := tx.First(&sched, "id = ?", scheduleID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if err := tx.Where("schedule_id = ?", scheduleID).Delete(&ScheduleSlot{}).Error; err != nil {
			return err
		}

		for _, in := range slots {
			slot := &ScheduleSlot{
				ID:           uuid.NewString(),
				ScheduleID:   scheduleID,
				DayOfWeek:    in.DayOfWeek,
				StartMinutes: in.StartMinutes,
				EndMinutes:   in.EndMinutes,
				IsAvailable:  in.IsAvailable,
				Notes:        in.Notes,
			}
			if err := tx.Create(slot).Error; err != nil {
				return err
			}
		}

		return tx.Model(&Schedule{}).
			Where("id = ?", scheduleID).
			Update("updated_at", time.Now().UTC()).Error
	})
	if err != nil {
		return nil, err
	}

	var sched Schedule
	if err := s.db.WithContext(ctx).Preload("Slots").First(&sched, "id = ?", scheduleID).Error; err != nil {
		return nil, err
	}
	return &sched, nil
}
