package handlers

import (
	"context"
	"net/http"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/models"
)

// AccountService registers users and issues session tokens.
type AccountService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthHandler handles authentication-related requests.
type AuthHandler struct {
	accounts AccountService
	logger   *common.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(accounts AccountService, logger *common.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, logger: logger}
}

// HandleRegister handles POST /api/auth/register.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req credentials
	if err := DecodeJSON(r, &req); err != nil {
		WriteDomainError(w, h.logger, err)
		return
	}

	if _, err := h.accounts.Register(r.Context(), req.Email, req.Password); err != nil {
		WriteDomainError(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]string{
		"message": "Registered successfully",
	})
}

// HandleLogin handles POST /api/auth/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req credentials
	if err := DecodeJSON(r, &req); err != nil {
		WriteDomainError(w, h.logger, err)
		return
	}

	token, err := h.accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteDomainError(w, h.logger, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"token": token})
}
