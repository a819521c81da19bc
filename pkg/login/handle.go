package login

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/traklibrary/trak-auth/pkg/account"
	"github.com/traklibrary/trak-auth/pkg/token"
	"github.com/traklibrary/trak-auth/pkg/twofa"
)

// Handle exposes the login, two-factor validation and token refresh endpoints
type Handle struct {
	loginService *LoginService
	cookieSetter token.CookieSetter
}

// NewHandle creates a new login handler. cookieSetter may be nil for
// API-only deployments that do not use cookies.
func NewHandle(loginService *LoginService, cookieSetter token.CookieSetter) Handle {
	return Handle{loginService: loginService, cookieSetter: cookieSetter}
}

// Routes registers the public authentication endpoints
func (h Handle) Routes(r chi.Router) {
	r.Post("/login", h.PostLogin)
	r.Post("/2fa", h.PostTwoFactor)
	r.Post("/refresh", h.PostRefresh)
}

// LoginRequest is the body for POST /login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TwoFactorRequest is the body for POST /2fa
type TwoFactorRequest struct {
	TwoFactorToken string `json:"two_factor_token"`
	Passcode       string `json:"passcode"`
}

// RefreshRequest is the body for POST /refresh
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokensResponse carries a full access/refresh pair
type TokensResponse struct {
	Status       string              `json:"status"`
	AccessToken  token.TokenValue    `json:"access_token"`
	RefreshToken token.TokenValue    `json:"refresh_token"`
	User         account.AccountInfo `json:"user"`
}

// TwoFactorRequiredResponse is returned when the account needs a passcode
// before full tokens are issued
type TwoFactorRequiredResponse struct {
	Status         string           `json:"status"`
	Message        string           `json:"message"`
	TwoFactorToken token.TokenValue `json:"two_factor_token"`
}

// Authenticate with username and password
// (POST /login)
func (h Handle) PostLogin(w http.ResponseWriter, r *http.Request) {
	data := &LoginRequest{}
	if err := render.DecodeJSON(r.Body, data); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.PlainText(w, r, "unable to parse body")
		return
	}

	result, err := h.loginService.Login(r.Context(), data.Username, data.Password)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	if result.RequiresTwoFactor {
		render.Status(r, http.StatusAccepted)
		render.JSON(w, r, TwoFactorRequiredResponse{
			Status:         "two_factor_required",
			Message:        "Submit a passcode from your authenticator app",
			TwoFactorToken: result.TwoFactorToken,
		})
		return
	}

	h.renderTokens(w, r, result)
}

// Complete a pending two-factor login
// (POST /2fa)
func (h Handle) PostTwoFactor(w http.ResponseWriter, r *http.Request) {
	data := &TwoFactorRequest{}
	if err := render.DecodeJSON(r.Body, data); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.PlainText(w, r, "unable to parse body")
		return
	}

	result, err := h.loginService.ConfirmTwoFactor(r.Context(), data.TwoFactorToken, data.Passcode)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.renderTokens(w, r, result)
}

// Exchange a refresh token for a fresh token pair
// (POST /refresh)
func (h Handle) PostRefresh(w http.ResponseWriter, r *http.Request) {
	data := &RefreshRequest{}
	if err := render.DecodeJSON(r.Body, data); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.PlainText(w, r, "unable to parse body")
		return
	}

	result, err := h.loginService.Refresh(r.Context(), data.RefreshToken)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.renderTokens(w, r, result)
}

func (h Handle) renderTokens(w http.ResponseWriter, r *http.Request, result Result) {
	info, err := account.ToInfo(result.Account)
	if err != nil {
		slog.Error("Failed to map account info", "accountID", result.Account.ID, "err", err)
		render.Status(r, http.StatusInternalServerError)
		render.PlainText(w, r, "internal error")
		return
	}

	if h.cookieSetter != nil {
		token.SetTokenCookies(h.cookieSetter, w, result.AccessToken, result.RefreshToken)
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, TokensResponse{
		Status:       "success",
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		User:         info,
	})
}

func (h Handle) renderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		render.Status(r, http.StatusUnauthorized)
		render.PlainText(w, r, "invalid username or password")
	case errors.Is(err, ErrInvalidToken):
		render.Status(r, http.StatusUnauthorized)
		render.PlainText(w, r, "invalid or expired token")
	case errors.Is(err, twofa.ErrInvalidPasscode), errors.Is(err, twofa.ErrNotEnabled):
		render.Status(r, http.StatusBadRequest)
		render.PlainText(w, r, "invalid 2FA code")
	default:
		slog.Error("Login operation failed", "err", err)
		render.Status(r, http.StatusInternalServerError)
		render.PlainText(w, r, "internal error")
	}
}
