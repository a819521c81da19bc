package account

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Account is the authentication view of a Trak Library user.
//
// TwoFactorSecret may be set while UsingTwoFactorAuthentication is still
// false: that is the mid-provisioning state, where the user has been shown
// a QR code but has not yet confirmed a passcode. The flag is only ever
// true while a secret is present.
type Account struct {
	ID                           uuid.UUID `json:"id"`
	Username                     string    `json:"username"`
	Email                        string    `json:"email"`
	PasswordHash                 string    `json:"password_hash"`
	Authorities                  []string  `json:"authorities"`
	Verified                     bool      `json:"verified"`
	TwoFactorSecret              string    `json:"two_factor_secret,omitempty"`
	UsingTwoFactorAuthentication bool      `json:"using_two_factor_authentication"`
	Version                      int64     `json:"version"`
	CreatedAt                    time.Time `json:"created_at"`
	UpdatedAt                    time.Time `json:"updated_at"`
}

// HasRoleAuthority reports whether the account carries at least one
// role-type authority (ROLE_ prefix).
func (a Account) HasRoleAuthority() bool {
	for _, authority := range a.Authorities {
		if strings.HasPrefix(authority, "ROLE_") {
			return true
		}
	}
	return false
}

// AccountInfo is the API-safe projection of an account. It never carries
// the password hash or the two-factor secret.
type AccountInfo struct {
	ID                           uuid.UUID `json:"id"`
	Username                     string    `json:"username"`
	Email                        string    `json:"email"`
	Authorities                  []string  `json:"authorities"`
	Verified                     bool      `json:"verified"`
	UsingTwoFactorAuthentication bool      `json:"using_two_factor_authentication"`
}
