package twofa

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/traklibrary/trak-auth/pkg/account"
	"github.com/traklibrary/trak-auth/pkg/notification"
)

// SecretSource generates shared secrets and renders them as provisioning
// QR images. Implemented by totp.SecretStore.
type SecretSource interface {
	GenerateSecret(accountName string) (string, error)
	RenderProvisioningImage(secret, accountName string) ([]byte, error)
}

// PasscodeValidator validates submitted one-time codes against a secret.
// Implemented by totp.CodeVerifier.
type PasscodeValidator interface {
	ValidateCode(secret, passcode string) (bool, error)
}

// TwoFactorService manages the enrollment lifecycle for an account's
// two-factor authentication state:
//
//	Disabled -> (BeginEnrollment) -> PendingVerification -> (ConfirmEnrollment) -> Enabled
//
// Disable returns to Disabled from any state.
type TwoFactorService interface {
	BeginEnrollment(ctx context.Context, accountID uuid.UUID) (EnrollmentResult, error)
	ConfirmEnrollment(ctx context.Context, accountID uuid.UUID, passcode string) (account.Account, error)
	Disable(ctx context.Context, accountID uuid.UUID) (account.Account, error)
	ValidatePasscode(ctx context.Context, accountID uuid.UUID, passcode string) (bool, error)
}

// EnrollmentResult carries the provisioning image produced by BeginEnrollment
type EnrollmentResult struct {
	AccountID uuid.UUID `json:"account_id"`
	Image     []byte    `json:"image"`
}

// TwoFaService is the repository-backed TwoFactorService implementation
type TwoFaService struct {
	accounts            account.AccountRepository
	secrets             SecretSource
	verifier            PasscodeValidator
	notificationManager *notification.NotificationManager
}

// NewTwoFaService creates a new two-factor service. notificationManager may
// be nil, in which case security notices are skipped.
func NewTwoFaService(accounts account.AccountRepository, secrets SecretSource, verifier PasscodeValidator, notificationManager *notification.NotificationManager) *TwoFaService {
	return &TwoFaService{
		accounts:            accounts,
		secrets:             secrets,
		verifier:            verifier,
		notificationManager: notificationManager,
	}
}

// BeginEnrollment provisions a fresh secret for the account and returns the
// QR image to scan. The secret is persisted only after the image rendered
// successfully, so a render failure never leaves the account holding a
// secret the user has no way to import. Re-running enrollment before
// confirming simply replaces the pending secret.
func (s *TwoFaService) BeginEnrollment(ctx context.Context, accountID uuid.UUID) (EnrollmentResult, error) {
	acct, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return EnrollmentResult{}, fmt.Errorf("failed to load account: %w", err)
	}

	if acct.UsingTwoFactorAuthentication {
		return EnrollmentResult{}, ErrAlreadyEnabled
	}

	secret, err := s.secrets.GenerateSecret(acct.Username)
	if err != nil {
		return EnrollmentResult{}, fmt.Errorf("failed to generate 2fa secret: %w", err)
	}

	image, err := s.secrets.RenderProvisioningImage(secret, acct.Username)
	if err != nil {
		slog.Error("Failed to render provisioning image", "accountID", accountID, "err", err)
		return EnrollmentResult{}, err
	}

	acct.TwoFactorSecret = secret
	saved, err := s.accounts.Save(ctx, acct)
	if err != nil {
		return EnrollmentResult{}, fmt.Errorf("failed to save account: %w", err)
	}

	slog.Info("Two-factor enrollment started", "accountID", saved.ID)
	return EnrollmentResult{AccountID: saved.ID, Image: image}, nil
}

// ConfirmEnrollment verifies the submitted passcode against the pending
// secret and enables two-factor authentication. Confirming an already
// enabled account is a no-op success; the passcode is not re-verified.
func (s *TwoFaService) ConfirmEnrollment(ctx context.Context, accountID uuid.UUID, passcode string) (account.Account, error) {
	acct, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return account.Account{}, fmt.Errorf("failed to load account: %w", err)
	}

	if acct.UsingTwoFactorAuthentication {
		return acct, nil
	}

	if acct.TwoFactorSecret == "" {
		return account.Account{}, ErrEnrollmentNotStarted
	}

	valid, err := s.verifier.ValidateCode(acct.TwoFactorSecret, passcode)
	if err != nil {
		return account.Account{}, fmt.Errorf("failed to validate 2fa passcode: %w", err)
	}
	if !valid {
		return account.Account{}, ErrInvalidPasscode
	}

	acct.UsingTwoFactorAuthentication = true
	saved, err := s.accounts.Save(ctx, acct)
	if err != nil {
		return account.Account{}, fmt.Errorf("failed to save account: %w", err)
	}

	slog.Info("Two-factor authentication enabled", "accountID", saved.ID)
	s.notify(saved, notification.TwoFactorEnabledNotice)
	return saved, nil
}

// Disable clears the secret and the enabled flag unconditionally. Disabling
// an already disabled account succeeds silently.
func (s *TwoFaService) Disable(ctx context.Context, accountID uuid.UUID) (account.Account, error) {
	acct, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return account.Account{}, fmt.Errorf("failed to load account: %w", err)
	}

	wasEnabled := acct.UsingTwoFactorAuthentication

	acct.TwoFactorSecret = ""
	acct.UsingTwoFactorAuthentication = false
	saved, err := s.accounts.Save(ctx, acct)
	if err != nil {
		return account.Account{}, fmt.Errorf("failed to save account: %w", err)
	}

	if wasEnabled {
		slog.Info("Two-factor authentication disabled", "accountID", saved.ID)
		s.notify(saved, notification.TwoFactorDisabledNotice)
	}
	return saved, nil
}

// ValidatePasscode checks a login-time passcode for an account with
// two-factor authentication enabled. No side effects.
func (s *TwoFaService) ValidatePasscode(ctx context.Context, accountID uuid.UUID, passcode string) (bool, error) {
	acct, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return false, fmt.Errorf("failed to load account: %w", err)
	}

	if !acct.UsingTwoFactorAuthentication || acct.TwoFactorSecret == "" {
		return false, ErrNotEnabled
	}

	valid, err := s.verifier.ValidateCode(acct.TwoFactorSecret, passcode)
	if err != nil {
		return false, fmt.Errorf("failed to validate 2fa passcode: %w", err)
	}
	return valid, nil
}

// notify sends a security notice, fire-and-forget. Delivery failures are
// logged and never fail the triggering operation.
func (s *TwoFaService) notify(acct account.Account, notice notification.NoticeType) {
	if s.notificationManager == nil || acct.Email == "" {
		return
	}
	err := s.notificationManager.Send(notice, notification.NotificationData{
		To:   acct.Email,
		Data: map[string]string{"Username": acct.Username},
	})
	if err != nil {
		slog.Warn("Failed to send security notice", "notice", notice, "accountID", acct.ID, "err", err)
	}
}
