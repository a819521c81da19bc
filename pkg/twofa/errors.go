package twofa

import "errors"

var (
	// ErrAlreadyEnabled is returned when enrollment is attempted while
	// two-factor authentication is already enabled. The client must disable
	// before re-provisioning.
	ErrAlreadyEnabled = errors.New("two-factor authentication is already enabled")

	// ErrEnrollmentNotStarted is returned when confirming enrollment on an
	// account with no provisioned secret
	ErrEnrollmentNotStarted = errors.New("two-factor enrollment has not been started")

	// ErrInvalidPasscode is returned when a submitted passcode does not match
	ErrInvalidPasscode = errors.New("invalid 2FA code")

	// ErrNotEnabled is returned when validating a passcode for an account
	// without two-factor authentication enabled
	ErrNotEnabled = errors.New("two-factor authentication is not enabled")
)
