package main

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/herniaclinic/clinic-chat/internal/middleware"
)

// routes builds the full router: the REST surface under /api, the
// websocket endpoint, and a health check. The limiter guards only the
// endpoints worth abusing (login and message posting).
func (s *Server) routes(limiter *middleware.LimiterStore) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	r.HandleFunc("/ws", s.handleWebSocket)

	api := r.PathPrefix("/api").Subrouter()

	api.Handle("/auth/login",
		middleware.RateLimit(limiter, http.HandlerFunc(s.handleLogin))).Methods(http.MethodPost)

	api.HandleFunc("/conversations", s.handleCreateConversation).Methods(http.MethodPost)
	api.HandleFunc("/conversations", s.handleListConversations).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{id}/messages", s.handleGetConversationMessages).Methods(http.MethodGet)
	api.Handle("/conversations/{id}/messages",
		middleware.RateLimit(limiter, http.HandlerFunc(s.handlePostMessage))).Methods(http.MethodPost)

	api.HandleFunc("/clients", s.handleListClients).Methods(http.MethodGet)
	api.HandleFunc("/clients", s.handleCreateClient).Methods(http.MethodPost)
	api.HandleFunc("/clients/{id}", s.handleGetClient).Methods(http.MethodGet)
	api.HandleFunc("/clients/{id}", s.handleUpdateClient).Methods(http.MethodPut)
	api.HandleFunc("/clients/{clientId}/appointments", s.handleListClientAppointments).Methods(http.MethodGet)

	api.HandleFunc("/appointments", s.handleListAppointments).Methods(http.MethodGet)
	api.HandleFunc("/appointments", s.handleCreateAppointment).Methods(http.MethodPost)
	api.HandleFunc("/appointments/{id}", s.handleGetAppointment).Methods(http.MethodGet)
	api.HandleFunc("/appointments/{id}", s.handleUpdateAppointment).Methods(http.MethodPut)

	api.HandleFunc("/users/{staffId}/schedule", s.handleGetSchedule).Methods(http.MethodGet)
	api.HandleFunc("/users/{staffId}/schedule", s.handlePutSchedule).Methods(http.MethodPut)

	return middleware.Authenticate(s.auth, r)
}
