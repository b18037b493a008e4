package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/herniaclinic/clinic-chat/internal/auth"
	"github.com/herniaclinic/clinic-chat/internal/data"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
}

// handleLogin authenticates one of the seeded demo users and issues a
// JWT. Unknown emails and bad passwords both come back as a generic 401
// so the endpoint does not confirm which addresses exist.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		s.clientError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := s.users.GetUserByEmail(r.Context(), req.Email)
	if errors.Is(err, data.ErrNotFound) {
		s.clientError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	if user.PasswordHash == "" || auth.CheckPassword(user.PasswordHash, req.Password) != nil {
		s.clientError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, expiresAt, err := s.auth.GenerateToken(user.ID, user.Name, user.Email, user.Role)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    user.ID,
		Name:      user.Name,
		Role:      user.Role,
	})
}
