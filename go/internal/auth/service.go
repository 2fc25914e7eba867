package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mcdev12/pxfc-auction/go/internal/httpapi"
)

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RegisterRoutes registers the login endpoint
func (s *Service) RegisterRoutes(r chi.Router) {
	r.Post("/api/auth/login", s.HandleLogin)
}

func (s *Service) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.RespondError(w, r, err)
		return
	}
	if req.Username == "" || req.Password == "" {
		httpapi.RespondError(w, r, httpapi.BadRequest("username and password are required", nil))
		return
	}

	token, expiresAt, err := s.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			respondAuthError(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid username or password", err)
			return
		}
		httpapi.RespondError(w, r, err)
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt})
}

func respondAuthError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	httpapi.RespondError(w, r, &httpapi.Error{Status: status, Code: code, Message: message, Err: err})
}
