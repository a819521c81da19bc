package token

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/traklibrary/trak-auth/pkg/account"
)

// Scope values carried by non-access tokens. Neither is ever a real account
// authority, so endpoints expecting role scopes reject these tokens.
const (
	ScopeTokenRefresh  = "TOKEN_REFRESH"
	ScopeTwoFactorAuth = "TOKEN_TWO_FACTOR_AUTH"
)

// Default token expiry durations
const (
	DefaultAccessTokenExpiry    = 15 * time.Minute
	DefaultRefreshTokenExpiry   = 24 * time.Hour
	DefaultTwoFactorTokenExpiry = 5 * time.Minute
)

// ErrNoRoles is returned when an access token is requested for an account
// with no authorities. This is a configuration error, not a user-facing one.
var ErrNoRoles = errors.New("cannot create an access token for a user with no roles")

// Claims is the claim set carried by every trak-auth token
type Claims struct {
	Scopes   []string `json:"scopes"`
	UserID   string   `json:"userId"`
	Verified bool     `json:"verified"`
	jwt.RegisteredClaims
}

// TokenValue pairs a signed compact token with its expiry
type TokenValue struct {
	Token  string    `json:"token"`
	Expiry time.Time `json:"expiry"`
}

// Issuer mints HS512-signed tokens for three purposes: access, refresh and
// pending two-factor authentication.
type Issuer struct {
	secret               string
	issuer               string
	audience             string
	accessTokenExpiry    time.Duration
	refreshTokenExpiry   time.Duration
	twoFactorTokenExpiry time.Duration
}

// Option configures an Issuer
type Option func(*Issuer)

// WithIssuer sets the iss claim value
func WithIssuer(issuer string) Option {
	return func(i *Issuer) {
		i.issuer = issuer
	}
}

// WithAudience sets the aud claim value
func WithAudience(audience string) Option {
	return func(i *Issuer) {
		i.audience = audience
	}
}

// WithAccessTokenExpiry sets the access token expiry duration
func WithAccessTokenExpiry(expiry time.Duration) Option {
	return func(i *Issuer) {
		if expiry > 0 {
			i.accessTokenExpiry = expiry
		}
	}
}

// WithRefreshTokenExpiry sets the refresh token expiry duration
func WithRefreshTokenExpiry(expiry time.Duration) Option {
	return func(i *Issuer) {
		if expiry > 0 {
			i.refreshTokenExpiry = expiry
		}
	}
}

// WithTwoFactorTokenExpiry sets the pending two-factor token expiry duration
func WithTwoFactorTokenExpiry(expiry time.Duration) Option {
	return func(i *Issuer) {
		if expiry > 0 {
			i.twoFactorTokenExpiry = expiry
		}
	}
}

// NewIssuer creates a new token issuer signing with the given secret
func NewIssuer(secret string, opts ...Option) *Issuer {
	issuer := &Issuer{
		secret:               secret,
		issuer:               "trak-auth",
		audience:             "trak-api",
		accessTokenExpiry:    DefaultAccessTokenExpiry,
		refreshTokenExpiry:   DefaultRefreshTokenExpiry,
		twoFactorTokenExpiry: DefaultTwoFactorTokenExpiry,
	}
	for _, opt := range opts {
		opt(issuer)
	}

	slog.Info("Token issuer configured",
		"issuer", issuer.issuer,
		"audience", issuer.audience,
		"accessTokenExpiry", issuer.accessTokenExpiry,
		"refreshTokenExpiry", issuer.refreshTokenExpiry,
		"twoFactorTokenExpiry", issuer.twoFactorTokenExpiry)

	return issuer
}

func (i *Issuer) createToken(acct account.Account, scopes []string, expiry time.Duration) (TokenValue, error) {
	now := time.Now().UTC()
	claims := Claims{
		Scopes:   scopes,
		UserID:   acct.ID.String(),
		Verified: acct.Verified,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    i.issuer,
			Subject:   acct.Username,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	ss, err := tok.SignedString([]byte(i.secret))
	if err != nil {
		slog.Error("Failed to sign token", "subject", acct.Username, "err", err)
		return TokenValue{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return TokenValue{Token: ss, Expiry: claims.ExpiresAt.Time}, nil
}

// CreateAccessToken mints an access token whose scopes are the account's
// authorities, in their original order. Fails with ErrNoRoles when the
// account has none; no token material is produced in that case.
func (i *Issuer) CreateAccessToken(acct account.Account) (TokenValue, error) {
	if len(acct.Authorities) == 0 {
		return TokenValue{}, ErrNoRoles
	}

	scopes := make([]string, len(acct.Authorities))
	copy(scopes, acct.Authorities)

	return i.createToken(acct, scopes, i.accessTokenExpiry)
}

// CreateRefreshToken mints a refresh token. Its only scope is TOKEN_REFRESH
// regardless of the account's authorities.
func (i *Issuer) CreateRefreshToken(acct account.Account) (TokenValue, error) {
	return i.createToken(acct, []string{ScopeTokenRefresh}, i.refreshTokenExpiry)
}

// CreateTwoFactorToken mints the short-lived token bridging the gap between
// the password check and the passcode check. It is never accepted as an
// access token.
func (i *Issuer) CreateTwoFactorToken(acct account.Account) (TokenValue, error) {
	return i.createToken(acct, []string{ScopeTwoFactorAuth}, i.twoFactorTokenExpiry)
}

// ParseToken parses and validates a token signed by this issuer
func (i *Issuer) ParseToken(tokenStr string) (*jwt.Token, error) {
	tok, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(i.secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !tok.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return tok, nil
}

// ParseClaims parses a token and returns its typed claim set
func (i *Issuer) ParseClaims(tokenStr string) (*Claims, error) {
	tok, err := i.ParseToken(tokenStr)
	if err != nil {
		return nil, err
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok {
		return nil, fmt.Errorf("unexpected token claims type")
	}
	return claims, nil
}

// HasScope reports whether the claim set carries the given scope
func (c *Claims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}
