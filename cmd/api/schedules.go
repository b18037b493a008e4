package main

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/herniaclinic/clinic-chat/internal/data"
)

// handleGetSchedule returns the staff user's active weekly schedule with
// its slots.
func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	staffID := mux.Vars(r)["staffId"]

	sched, err := s.schedules.GetScheduleForStaff(r.Context(), staffID)
	if errors.Is(err, data.ErrNotFound) {
		s.notFound(w, "no schedule for staff user "+staffID)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sched)
}

type putScheduleRequest struct {
	Name  string           `json:"name"`
	Slots []data.SlotInput `json:"slots"`
}

// handlePutSchedule replaces the staff user's weekly slot grid, creating
// the schedule on first use. Slot times are wall-clock minutes; no
// overlap validation happens here.
func (s *Server) handlePutSchedule(w http.ResponseWriter, r *http.Request) {
	staffID := mux.Vars(r)["staffId"]

	var req putScheduleRequest
	if err := readJSON(r, &req); err != nil {
		s.clientError(w, http.StatusBadRequest, err.Error())
		return
	}

	for _, slot := range req.Slots {
		if slot.StartMinutes < 0 || slot.EndMinutes > 24*60 || slot.StartMinutes >= slot.EndMinutes {
			s.clientError(w, http.StatusBadRequest, "slot times must satisfy 0 <= start < end <= 1440")
			return
		}
	}

	sched, err := s.schedules.GetScheduleForStaff(r.Context(), staffID)
	if errors.Is(err, data.ErrNotFound) {
		name := req.Name
		if name == "" {
			name = "Default Schedule"
		}
		sched, err = s.schedules.CreateSchedule(r.Context(), staffID, name)
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	sched, err = s.schedules.ReplaceSlots(r.Context(), sched.ID, req.Slots)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sched)
}
