package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/herniaclinic/clinic-chat/internal/data"
)

// handleListClients returns all client records with appointment and
// conversation counts.
func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.clients.ListClients(r.Context())
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if clients == nil {
		clients = []*data.ClientSummary{}
	}
	s.writeJSON(w, http.StatusOK, clients)
}

func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	client, err := s.clients.GetClient(r.Context(), id)
	if errors.Is(err, data.ErrNotFound) {
		s.notFound(w, "client with ID "+id+" not found")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, client)
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var in data.ClientInput
	if err := readJSON(r, &in); err != nil {
		s.clientError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(in.Email) == "" {
		s.clientError(w, http.StatusBadRequest, "email is required")
		return
	}

	client, err := s.clients.CreateClient(r.Context(), in)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, client)
}

func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var in data.ClientInput
	if err := readJSON(r, &in); err != nil {
		s.clientError(w, http.StatusBadRequest, err.Error())
		return
	}

	client, err := s.clients.UpdateClient(r.Context(), id, in)
	if errors.Is(err, data.ErrNotFound) {
		s.notFound(w, "client with ID "+id+" not found")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, client)
}
