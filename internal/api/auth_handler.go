package api

import (
	"net/http"
	"time"

	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/api/shared"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/config"
	"github.com/kiheon-jang/GainDeuk-Backend-sub001/internal/service/auth"
)

// AuthHandler issues the bearer tokens the admin endpoints require.
type AuthHandler struct {
	authConfig       *config.AuthConfig
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(
	authConfig *config.AuthConfig,
	jwtService auth.JWTService,
	passwordVerifier auth.PasswordVerifier,
) *AuthHandler {
	return &AuthHandler{
		authConfig:       authConfig,
		jwtService:       jwtService,
		passwordVerifier: passwordVerifier,
	}
}

// Token handles POST /api/auth/token.
// It checks the submitted credentials against the configured admin user and
// responds with a signed JWT on success.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+SanitizeValidationError(err))
		return
	}

	// A mismatch reports the same error whether the username or the password
	// was wrong, so the endpoint does not confirm which half was correct.
	if req.Username != h.authConfig.AdminUser {
		HandleAPIError(w, r, auth.ErrInvalidCredentials, "")
		return
	}
	if err := h.passwordVerifier.Compare(h.authConfig.AdminPasswordHash, req.Password); err != nil {
		HandleAPIError(w, r, auth.ErrInvalidCredentials, "")
		return
	}

	token, err := h.jwtService.GenerateToken(r.Context(), req.Username)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to generate token")
		return
	}

	lifetime := time.Duration(h.authConfig.TokenLifetimeMinutes) * time.Minute
	shared.RespondWithJSON(w, r, http.StatusOK, TokenResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(lifetime),
	})
}
