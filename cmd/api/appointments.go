package main

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/herniaclinic/clinic-chat/internal/data"
)

func (s *Server) handleListAppointments(w http.ResponseWriter, r *http.Request) {
	appts, err := s.appts.ListAppointments(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if appts == nil {
		appts = []*data.AppointmentSummary{}
	}
	s.writeJSON(w, http.StatusOK, appts)
}

func (s *Server) handleGetAppointment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	appt, err := s.appts.GetAppointment(r.Context(), id)
	if errors.Is(err, data.ErrNotFound) {
		s.notFound(w, "appointment with ID "+id+" not found")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, appt)
}

func (s *Server) handleListClientAppointments(w http.ResponseWriter, r *http.Request) {
	clientID := mux.Vars(r)["clientId"]

	appts, err := s.appts.ListAppointmentsForClient(r.Context(), clientID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if appts == nil {
		appts = []*data.Appointment{}
	}
	s.writeJSON(w, http.StatusOK, appts)
}

// handleCreateAppointment creates an appointment after validating that
// the referenced client exists; an unknown client is a validation error,
// not a bare FK violation.
func (s *Server) handleCreateAppointment(w http.ResponseWriter, r *http.Request) {
	var in data.AppointmentInput
	if err := readJSON(r, &in); err != nil {
		s.clientError(w, http.StatusBadRequest, err.Error())
		return
	}

	exists, err := s.clients.ClientExists(r.Context(), in.ClientID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if !exists {
		s.clientError(w, http.StatusBadRequest, "client with ID "+in.ClientID+" does not exist")
		return
	}

	appt, err := s.appts.CreateAppointment(r.Context(), in)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, appt)
}

func (s *Server) handleUpdateAppointment(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var in data.AppointmentInput
	if err := readJSON(r, &in); err != nil {
		s.clientError(w, http.StatusBadRequest, err.Error())
		return
	}

	current, err := s.appts.GetAppointment(r.Context(), id)
	if errors.Is(err, data.ErrNotFound) {
		s.notFound(w, "appointment with ID "+id+" not found")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	// Re-validate the client link only when it changes.
	if in.ClientID != current.ClientID {
		exists, err := s.clients.ClientExists(r.Context(), in.ClientID)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		if !exists {
			s.clientError(w, http.StatusBadRequest, "client with ID "+in.ClientID+" does not exist")
			return
		}
	}

	appt, err := s.appts.UpdateAppointment(r.Context(), id, in)
	if errors.Is(err, data.ErrNotFound) {
		s.notFound(w, "appointment with ID "+id+" not found")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, appt)
}
