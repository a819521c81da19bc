package twofa

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/traklibrary/trak-auth/pkg/account"
)

// Handle exposes the two-factor enrollment endpoints
type Handle struct {
	twoFaService TwoFactorService
}

// NewHandle creates a new two-factor handler
func NewHandle(twoFaService TwoFactorService) Handle {
	return Handle{twoFaService: twoFaService}
}

// Routes registers the enrollment endpoints. The router they are mounted on
// must carry the jwtauth verifier middleware.
func (h Handle) Routes(r chi.Router) {
	r.Post("/setup", h.PostSetup)
	r.Post("/confirm", h.PostConfirm)
	r.Post("/disable", h.PostDisable)
}

// ConfirmRequest is the body for POST /confirm
type ConfirmRequest struct {
	Passcode string `json:"passcode"`
}

// accountIDFromToken reads the authenticated account's ID from the verified
// token claims placed in the request context by jwtauth.
func accountIDFromToken(r *http.Request) (uuid.UUID, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return uuid.Nil, err
	}

	userIDStr, ok := claims["userId"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing userId claim")
	}
	return uuid.Parse(userIDStr)
}

// Begin two-factor enrollment and return the provisioning QR code
// (POST /setup)
func (h Handle) PostSetup(w http.ResponseWriter, r *http.Request) {
	accountID, err := accountIDFromToken(r)
	if err != nil {
		render.Status(r, http.StatusUnauthorized)
		render.PlainText(w, r, "invalid access token")
		return
	}

	result, err := h.twoFaService.BeginEnrollment(r.Context(), accountID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(result.Image)
}

// Confirm enrollment with a passcode from the authenticator app
// (POST /confirm)
func (h Handle) PostConfirm(w http.ResponseWriter, r *http.Request) {
	accountID, err := accountIDFromToken(r)
	if err != nil {
		render.Status(r, http.StatusUnauthorized)
		render.PlainText(w, r, "invalid access token")
		return
	}

	data := &ConfirmRequest{}
	if err := render.DecodeJSON(r.Body, data); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.PlainText(w, r, "unable to parse body")
		return
	}

	acct, err := h.twoFaService.ConfirmEnrollment(r.Context(), accountID, data.Passcode)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.renderAccount(w, r, acct)
}

// Disable two-factor authentication
// (POST /disable)
func (h Handle) PostDisable(w http.ResponseWriter, r *http.Request) {
	accountID, err := accountIDFromToken(r)
	if err != nil {
		render.Status(r, http.StatusUnauthorized)
		render.PlainText(w, r, "invalid access token")
		return
	}

	acct, err := h.twoFaService.Disable(r.Context(), accountID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	h.renderAccount(w, r, acct)
}

func (h Handle) renderAccount(w http.ResponseWriter, r *http.Request, acct account.Account) {
	info, err := account.ToInfo(acct)
	if err != nil {
		slog.Error("Failed to map account info", "accountID", acct.ID, "err", err)
		render.Status(r, http.StatusInternalServerError)
		render.PlainText(w, r, "internal error")
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, info)
}

// renderError maps domain errors to HTTP responses. Render and repository
// failures stay generic for the client; the detail is logged server-side.
func (h Handle) renderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrAlreadyEnabled):
		render.Status(r, http.StatusConflict)
		render.PlainText(w, r, "two-factor authentication is already enabled")
	case errors.Is(err, ErrInvalidPasscode):
		render.Status(r, http.StatusBadRequest)
		render.PlainText(w, r, "invalid 2FA code")
	case errors.Is(err, ErrEnrollmentNotStarted):
		render.Status(r, http.StatusBadRequest)
		render.PlainText(w, r, "two-factor enrollment has not been started")
	case errors.Is(err, account.ErrAccountNotFound):
		render.Status(r, http.StatusNotFound)
		render.PlainText(w, r, "account not found")
	default:
		slog.Error("Two-factor operation failed", "err", err)
		render.Status(r, http.StatusInternalServerError)
		render.PlainText(w, r, "internal error")
	}
}
