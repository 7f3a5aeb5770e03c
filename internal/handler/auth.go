package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/grocery-tracker/internal/model"
)

// AuthService is what AuthHandler needs from service.AuthService.
type AuthService interface {
	Register(ctx context.Context, username, password, phone string) (*model.User, error)
	Login(ctx context.Context, username, password string) (string, error)
}

// AuthHandler serves /register and /login.
type AuthHandler struct {
	auth   AuthService
	logger *slog.Logger
}

func NewAuthHandler(auth AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type registerRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
}

// HandleRegister creates an account.
//
// HTTP: POST /register
// BODY: {"username": "...", "password": "...", "phone_number": "+15551234567"}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.auth.Register(r.Context(), req.Username, req.Password, req.PhoneNumber)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, MessageResponse{Message: "User created successfully", ID: user.ID})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

// HandleLogin exchanges credentials for a bearer token.
//
// HTTP: POST /login
// RESPONSE: {"access_token": "<jwt>"}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, loginResponse{AccessToken: token})
}
