package config

import (
	"time"

	"github.com/sosodev/duration"
)

// JwtConfig holds token signing configuration.
// Expiry values accept either ISO8601 durations ("PT15M") or Go durations ("15m").
type JwtConfig struct {
	Secret             string `env:"JWT_SECRET" env-default:"very-secure-jwt-secret"`
	Issuer             string `env:"JWT_ISSUER" env-default:"trak-auth"`
	Audience           string `env:"JWT_AUDIENCE" env-default:"trak-api"`
	AccessTokenExpiry  string `env:"ACCESS_TOKEN_EXPIRY" env-default:"15m"`
	RefreshTokenExpiry string `env:"REFRESH_TOKEN_EXPIRY" env-default:"24h"`
	TwoFactorExpiry    string `env:"TWO_FACTOR_TOKEN_EXPIRY" env-default:"5m"`
	CookieHttpOnly     bool   `env:"COOKIE_HTTP_ONLY" env-default:"true"`
	CookieSecure       bool   `env:"COOKIE_SECURE" env-default:"true"`
}

// ParseAccessTokenExpiry parses the access token expiry duration
func (j JwtConfig) ParseAccessTokenExpiry() (time.Duration, error) {
	return parseDurationISO8601(j.AccessTokenExpiry)
}

// ParseRefreshTokenExpiry parses the refresh token expiry duration
func (j JwtConfig) ParseRefreshTokenExpiry() (time.Duration, error) {
	return parseDurationISO8601(j.RefreshTokenExpiry)
}

// ParseTwoFactorExpiry parses the pending two-factor token expiry duration
func (j JwtConfig) ParseTwoFactorExpiry() (time.Duration, error) {
	return parseDurationISO8601(j.TwoFactorExpiry)
}

// parseDurationISO8601 tries to parse duration as ISO8601 first, then Go duration
func parseDurationISO8601(s string) (time.Duration, error) {
	isoDuration, err := duration.Parse(s)
	if err == nil {
		return isoDuration.ToTimeDuration(), nil
	}

	return time.ParseDuration(s)
}
