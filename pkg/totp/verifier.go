package totp

import (
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Skew is the number of periods of clock drift tolerated on either side
const Skew = 1

// CodeVerifier validates submitted passcodes against a shared secret.
// Validation is a pure function of (secret, passcode, current time).
type CodeVerifier struct{}

// NewCodeVerifier creates a new code verifier
func NewCodeVerifier() *CodeVerifier {
	return &CodeVerifier{}
}

// ValidateCode reports whether the submitted passcode matches the
// time-step-derived code for the secret, within the standard skew tolerance.
func (v *CodeVerifier) ValidateCode(secret, passcode string) (bool, error) {
	valid, err := totp.ValidateCustom(passcode, secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    Period,
		Skew:      Skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return false, fmt.Errorf("failed to validate totp passcode: %w", err)
	}
	return valid, nil
}

// GeneratePasscode derives the current passcode for the secret. Used by the
// CLI and tests; login validation always goes through ValidateCode.
func GeneratePasscode(secret string) (string, error) {
	code, err := totp.GenerateCodeCustom(secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    Period,
		Skew:      Skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate totp passcode: %w", err)
	}
	return code, nil
}
