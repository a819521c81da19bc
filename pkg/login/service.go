package login

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/traklibrary/trak-auth/pkg/account"
	"github.com/traklibrary/trak-auth/pkg/token"
	"github.com/traklibrary/trak-auth/pkg/twofa"
)

var (
	// ErrInvalidCredentials is returned when the username or password is wrong.
	// Both cases map to the same error so the response does not reveal which.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrNoRoleAuthority is returned when an authenticated account carries no
	// role authority to select behavior from. This is a data/config problem.
	ErrNoRoleAuthority = errors.New("no role authority present")

	// ErrInvalidToken is returned when a submitted token is unparseable,
	// expired, or carries the wrong scope for the operation
	ErrInvalidToken = errors.New("invalid or expired token")
)

// TokenIssuer is the token minting contract consumed by the login flow.
// Implemented by token.Issuer.
type TokenIssuer interface {
	CreateAccessToken(acct account.Account) (token.TokenValue, error)
	CreateRefreshToken(acct account.Account) (token.TokenValue, error)
	CreateTwoFactorToken(acct account.Account) (token.TokenValue, error)
}

// TokenParser validates tokens submitted back by clients.
// Implemented by token.Issuer.
type TokenParser interface {
	ParseClaims(tokenStr string) (*token.Claims, error)
}

// Result is the outcome of a successful credential check. Either the full
// access/refresh pair is populated, or RequiresTwoFactor is true and only
// TwoFactorToken is set.
type Result struct {
	RequiresTwoFactor bool
	AccessToken       token.TokenValue
	RefreshToken      token.TokenValue
	TwoFactorToken    token.TokenValue
	Account           account.Account
}

// LoginService runs the credential check and decides what tokens a
// successfully authenticated account receives.
type LoginService struct {
	accounts         account.AccountRepository
	issuer           TokenIssuer
	parser           TokenParser
	twoFactorService twofa.TwoFactorService
	hasher           PasswordHasher
}

// NewLoginService creates a new login service
func NewLoginService(accounts account.AccountRepository, issuer TokenIssuer, parser TokenParser, twoFactorService twofa.TwoFactorService, hasher PasswordHasher) *LoginService {
	return &LoginService{
		accounts:         accounts,
		issuer:           issuer,
		parser:           parser,
		twoFactorService: twoFactorService,
		hasher:           hasher,
	}
}

// Login checks the password for the given username and, on success, decides
// token issuance via HandleSuccess.
func (s *LoginService) Login(ctx context.Context, username, password string) (Result, error) {
	acct, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			return Result{}, ErrInvalidCredentials
		}
		return Result{}, fmt.Errorf("failed to load account: %w", err)
	}

	match, err := s.hasher.Verify(password, acct.PasswordHash)
	if err != nil {
		return Result{}, fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		slog.Warn("Failed login attempt", "username", username)
		return Result{}, ErrInvalidCredentials
	}

	return s.HandleSuccess(ctx, acct)
}

// HandleSuccess decides token issuance for an account that already passed
// the primary credential check. Accounts with two-factor authentication
// enabled get only the pending two-factor token; the refresh token is never
// minted on that branch.
func (s *LoginService) HandleSuccess(ctx context.Context, acct account.Account) (Result, error) {
	if !acct.HasRoleAuthority() {
		slog.Error("Authenticated account has no role authority", "accountID", acct.ID)
		return Result{}, ErrNoRoleAuthority
	}

	if acct.UsingTwoFactorAuthentication {
		twoFactorToken, err := s.issuer.CreateTwoFactorToken(acct)
		if err != nil {
			return Result{}, fmt.Errorf("failed to create two-factor token: %w", err)
		}
		return Result{RequiresTwoFactor: true, TwoFactorToken: twoFactorToken, Account: acct}, nil
	}

	return s.issueTokenPair(acct)
}

// ConfirmTwoFactor completes a pending two-factor login: the token must
// carry the two-factor scope, and the passcode must verify against the
// account's secret. On success the full token pair is issued.
func (s *LoginService) ConfirmTwoFactor(ctx context.Context, twoFactorToken, passcode string) (Result, error) {
	claims, err := s.parser.ParseClaims(twoFactorToken)
	if err != nil {
		return Result{}, ErrInvalidToken
	}
	if !claims.HasScope(token.ScopeTwoFactorAuth) {
		return Result{}, ErrInvalidToken
	}

	accountID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Result{}, ErrInvalidToken
	}

	valid, err := s.twoFactorService.ValidatePasscode(ctx, accountID, passcode)
	if err != nil {
		return Result{}, fmt.Errorf("failed to validate passcode: %w", err)
	}
	if !valid {
		return Result{}, twofa.ErrInvalidPasscode
	}

	acct, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load account: %w", err)
	}

	if !acct.HasRoleAuthority() {
		slog.Error("Authenticated account has no role authority", "accountID", acct.ID)
		return Result{}, ErrNoRoleAuthority
	}

	return s.issueTokenPair(acct)
}

// Refresh exchanges a valid refresh token for a fresh access/refresh pair
func (s *LoginService) Refresh(ctx context.Context, refreshToken string) (Result, error) {
	claims, err := s.parser.ParseClaims(refreshToken)
	if err != nil {
		return Result{}, ErrInvalidToken
	}
	if !claims.HasScope(token.ScopeTokenRefresh) {
		return Result{}, ErrInvalidToken
	}

	accountID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Result{}, ErrInvalidToken
	}

	acct, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			return Result{}, ErrInvalidToken
		}
		return Result{}, fmt.Errorf("failed to load account: %w", err)
	}

	if !acct.HasRoleAuthority() {
		return Result{}, ErrNoRoleAuthority
	}

	return s.issueTokenPair(acct)
}

func (s *LoginService) issueTokenPair(acct account.Account) (Result, error) {
	accessToken, err := s.issuer.CreateAccessToken(acct)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create access token: %w", err)
	}

	refreshToken, err := s.issuer.CreateRefreshToken(acct)
	if err != nil {
		return Result{}, fmt.Errorf("failed to create refresh token: %w", err)
	}

	return Result{AccessToken: accessToken, RefreshToken: refreshToken, Account: acct}, nil
}
