package twofa

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/traklibrary/trak-auth/pkg/account"
)

// NoOpTwoFactorService is a no-op implementation of TwoFactorService for
// deployments that run without two-factor authentication. Enrollment
// operations fail; passcode validation reports not enabled.
type NoOpTwoFactorService struct{}

// NewNoOpTwoFactorService creates a new no-op two-factor service
func NewNoOpTwoFactorService() TwoFactorService {
	return &NoOpTwoFactorService{}
}

func (n *NoOpTwoFactorService) BeginEnrollment(ctx context.Context, accountID uuid.UUID) (EnrollmentResult, error) {
	return EnrollmentResult{}, fmt.Errorf("two-factor authentication not configured")
}

func (n *NoOpTwoFactorService) ConfirmEnrollment(ctx context.Context, accountID uuid.UUID, passcode string) (account.Account, error) {
	return account.Account{}, fmt.Errorf("two-factor authentication not configured")
}

func (n *NoOpTwoFactorService) Disable(ctx context.Context, accountID uuid.UUID) (account.Account, error) {
	return account.Account{}, fmt.Errorf("two-factor authentication not configured")
}

func (n *NoOpTwoFactorService) ValidatePasscode(ctx context.Context, accountID uuid.UUID, passcode string) (bool, error) {
	return false, ErrNotEnabled
}
