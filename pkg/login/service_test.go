package login

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traklibrary/trak-auth/pkg/account"
	"github.com/traklibrary/trak-auth/pkg/token"
	"github.com/traklibrary/trak-auth/pkg/totp"
	"github.com/traklibrary/trak-auth/pkg/twofa"
)

type mockTokenIssuer struct {
	accessCalls    int
	refreshCalls   int
	twoFactorCalls int
}

func (m *mockTokenIssuer) CreateAccessToken(acct account.Account) (token.TokenValue, error) {
	m.accessCalls++
	return token.TokenValue{Token: "access-" + acct.Username}, nil
}

func (m *mockTokenIssuer) CreateRefreshToken(acct account.Account) (token.TokenValue, error) {
	m.refreshCalls++
	return token.TokenValue{Token: "refresh-" + acct.Username}, nil
}

func (m *mockTokenIssuer) CreateTwoFactorToken(acct account.Account) (token.TokenValue, error) {
	m.twoFactorCalls++
	return token.TokenValue{Token: "2fa-" + acct.Username}, nil
}

func seedLoginAccount(t *testing.T, repo account.AccountRepository, hasher PasswordHasher, acct account.Account, password string) account.Account {
	t.Helper()
	hash, err := hasher.Hash(password)
	require.NoError(t, err)
	acct.PasswordHash = hash
	saved, err := repo.Save(context.Background(), acct)
	require.NoError(t, err)
	return saved
}

func newTestService(repo account.AccountRepository, issuer TokenIssuer, parser TokenParser, twoFactorService twofa.TwoFactorService) *LoginService {
	return NewLoginService(repo, issuer, parser, twoFactorService, &BcryptHasher{})
}

func TestLogin(t *testing.T) {
	repo := account.NewInMemoryAccountRepository()
	hasher := &BcryptHasher{}
	issuer := token.NewIssuer("test-secret")
	svc := newTestService(repo, issuer, issuer, twofa.NewNoOpTwoFactorService())

	seedLoginAccount(t, repo, hasher, account.Account{
		ID:          uuid.New(),
		Username:    "gamer",
		Authorities: []string{"ROLE_USER"},
	}, "correct horse battery staple")

	result, err := svc.Login(context.Background(), "gamer", "correct horse battery staple")
	require.NoError(t, err)
	assert.False(t, result.RequiresTwoFactor)
	require.NotEmpty(t, result.AccessToken.Token)
	require.NotEmpty(t, result.RefreshToken.Token)
	assert.Empty(t, result.TwoFactorToken.Token)

	accessClaims, err := issuer.ParseClaims(result.AccessToken.Token)
	require.NoError(t, err)
	assert.Equal(t, []string{"ROLE_USER"}, accessClaims.Scopes)

	refreshClaims, err := issuer.ParseClaims(result.RefreshToken.Token)
	require.NoError(t, err)
	assert.Equal(t, []string{token.ScopeTokenRefresh}, refreshClaims.Scopes)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := account.NewInMemoryAccountRepository()
	hasher := &BcryptHasher{}
	issuer := &mockTokenIssuer{}
	svc := newTestService(repo, issuer, nil, twofa.NewNoOpTwoFactorService())

	seedLoginAccount(t, repo, hasher, account.Account{
		ID:          uuid.New(),
		Username:    "gamer",
		Authorities: []string{"ROLE_USER"},
	}, "rightpassword")

	_, err := svc.Login(context.Background(), "gamer", "wrongpassword")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 0, issuer.accessCalls)
}

func TestLogin_UnknownUsername(t *testing.T) {
	repo := account.NewInMemoryAccountRepository()
	svc := newTestService(repo, &mockTokenIssuer{}, nil, twofa.NewNoOpTwoFactorService())

	_, err := svc.Login(context.Background(), "nobody", "whatever")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestHandleSuccess_NoRoleAuthority(t *testing.T) {
	issuer := &mockTokenIssuer{}
	svc := newTestService(account.NewInMemoryAccountRepository(), issuer, nil, twofa.NewNoOpTwoFactorService())

	for _, authorities := range [][]string{nil, {}, {"SCOPE_READ", "PERM_WRITE"}} {
		_, err := svc.HandleSuccess(context.Background(), account.Account{
			ID:          uuid.New(),
			Username:    "gamer",
			Authorities: authorities,
		})
		require.ErrorIs(t, err, ErrNoRoleAuthority, fmt.Sprintf("authorities: %v", authorities))
	}
	assert.Equal(t, 0, issuer.accessCalls)
	assert.Equal(t, 0, issuer.refreshCalls)
	assert.Equal(t, 0, issuer.twoFactorCalls)
}

func TestHandleSuccess_TwoFactorDisabled(t *testing.T) {
	issuer := &mockTokenIssuer{}
	svc := newTestService(account.NewInMemoryAccountRepository(), issuer, nil, twofa.NewNoOpTwoFactorService())

	result, err := svc.HandleSuccess(context.Background(), account.Account{
		ID:          uuid.New(),
		Username:    "gamer",
		Authorities: []string{"ROLE_USER"},
	})
	require.NoError(t, err)

	assert.False(t, result.RequiresTwoFactor)
	assert.Equal(t, 1, issuer.accessCalls)
	assert.Equal(t, 1, issuer.refreshCalls)
	assert.Equal(t, 0, issuer.twoFactorCalls)
}

func TestHandleSuccess_TwoFactorEnabled(t *testing.T) {
	issuer := &mockTokenIssuer{}
	svc := newTestService(account.NewInMemoryAccountRepository(), issuer, nil, twofa.NewNoOpTwoFactorService())

	result, err := svc.HandleSuccess(context.Background(), account.Account{
		ID:                           uuid.New(),
		Username:                     "gamer",
		Authorities:                  []string{"ROLE_USER"},
		UsingTwoFactorAuthentication: true,
	})
	require.NoError(t, err)

	assert.True(t, result.RequiresTwoFactor)
	assert.NotEmpty(t, result.TwoFactorToken.Token)
	assert.Empty(t, result.AccessToken.Token)
	assert.Empty(t, result.RefreshToken.Token)

	// The refresh token must never be minted before the second factor clears
	assert.Equal(t, 0, issuer.accessCalls)
	assert.Equal(t, 0, issuer.refreshCalls)
	assert.Equal(t, 1, issuer.twoFactorCalls)
}

func TestConfirmTwoFactor(t *testing.T) {
	repo := account.NewInMemoryAccountRepository()
	hasher := &BcryptHasher{}
	issuer := token.NewIssuer("test-secret")

	store := totp.NewSecretStore()
	secret, err := store.GenerateSecret("gamer")
	require.NoError(t, err)

	acct := seedLoginAccount(t, repo, hasher, account.Account{
		ID:                           uuid.New(),
		Username:                     "gamer",
		Authorities:                  []string{"ROLE_USER"},
		TwoFactorSecret:              secret,
		UsingTwoFactorAuthentication: true,
	}, "correct horse battery staple")

	twoFaSvc := twofa.NewTwoFaService(repo, store, totp.NewCodeVerifier(), nil)
	svc := newTestService(repo, issuer, issuer, twoFaSvc)

	result, err := svc.Login(context.Background(), "gamer", "correct horse battery staple")
	require.NoError(t, err)
	require.True(t, result.RequiresTwoFactor)
	require.NotEmpty(t, result.TwoFactorToken.Token)
	assert.Empty(t, result.RefreshToken.Token)

	passcode, err := totp.GeneratePasscode(secret)
	require.NoError(t, err)

	confirmed, err := svc.ConfirmTwoFactor(context.Background(), result.TwoFactorToken.Token, passcode)
	require.NoError(t, err)
	assert.False(t, confirmed.RequiresTwoFactor)
	assert.NotEmpty(t, confirmed.AccessToken.Token)
	assert.NotEmpty(t, confirmed.RefreshToken.Token)
	assert.Equal(t, acct.ID, confirmed.Account.ID)
}

func TestConfirmTwoFactor_WrongScope(t *testing.T) {
	repo := account.NewInMemoryAccountRepository()
	issuer := token.NewIssuer("test-secret")
	svc := newTestService(repo, issuer, issuer, twofa.NewNoOpTwoFactorService())

	// An access token must not be accepted in place of the pending token
	accessToken, err := issuer.CreateAccessToken(account.Account{
		ID:          uuid.New(),
		Username:    "gamer",
		Authorities: []string{"ROLE_USER"},
	})
	require.NoError(t, err)

	_, err = svc.ConfirmTwoFactor(context.Background(), accessToken.Token, "123456")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestConfirmTwoFactor_WrongPasscode(t *testing.T) {
	repo := account.NewInMemoryAccountRepository()
	issuer := token.NewIssuer("test-secret")

	store := totp.NewSecretStore()
	secret, err := store.GenerateSecret("gamer")
	require.NoError(t, err)

	saved, err := repo.Save(context.Background(), account.Account{
		ID:                           uuid.New(),
		Username:                     "gamer",
		Authorities:                  []string{"ROLE_USER"},
		TwoFactorSecret:              secret,
		UsingTwoFactorAuthentication: true,
	})
	require.NoError(t, err)

	twoFaSvc := twofa.NewTwoFaService(repo, store, totp.NewCodeVerifier(), nil)
	svc := newTestService(repo, issuer, issuer, twoFaSvc)

	pendingToken, err := issuer.CreateTwoFactorToken(saved)
	require.NoError(t, err)

	passcode, err := totp.GeneratePasscode(secret)
	require.NoError(t, err)
	wrong := "000000"
	if passcode == wrong {
		wrong = "111111"
	}

	_, err = svc.ConfirmTwoFactor(context.Background(), pendingToken.Token, wrong)
	require.ErrorIs(t, err, twofa.ErrInvalidPasscode)
}

func TestRefresh(t *testing.T) {
	repo := account.NewInMemoryAccountRepository()
	issuer := token.NewIssuer("test-secret")
	svc := newTestService(repo, issuer, issuer, twofa.NewNoOpTwoFactorService())

	saved, err := repo.Save(context.Background(), account.Account{
		ID:          uuid.New(),
		Username:    "gamer",
		Authorities: []string{"ROLE_USER"},
	})
	require.NoError(t, err)

	refreshToken, err := issuer.CreateRefreshToken(saved)
	require.NoError(t, err)

	result, err := svc.Refresh(context.Background(), refreshToken.Token)
	require.NoError(t, err)
	require.NotEmpty(t, result.AccessToken.Token)
	require.NotEmpty(t, result.RefreshToken.Token)

	claims, err := issuer.ParseClaims(result.AccessToken.Token)
	require.NoError(t, err)
	assert.Equal(t, []string{"ROLE_USER"}, claims.Scopes)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	repo := account.NewInMemoryAccountRepository()
	issuer := token.NewIssuer("test-secret")
	svc := newTestService(repo, issuer, issuer, twofa.NewNoOpTwoFactorService())

	saved, err := repo.Save(context.Background(), account.Account{
		ID:          uuid.New(),
		Username:    "gamer",
		Authorities: []string{"ROLE_USER"},
	})
	require.NoError(t, err)

	accessToken, err := issuer.CreateAccessToken(saved)
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), accessToken.Token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefresh_DeletedAccount(t *testing.T) {
	repo := account.NewInMemoryAccountRepository()
	issuer := token.NewIssuer("test-secret")
	svc := newTestService(repo, issuer, issuer, twofa.NewNoOpTwoFactorService())

	saved, err := repo.Save(context.Background(), account.Account{
		ID:          uuid.New(),
		Username:    "gamer",
		Authorities: []string{"ROLE_USER"},
	})
	require.NoError(t, err)

	refreshToken, err := issuer.CreateRefreshToken(saved)
	require.NoError(t, err)
	require.NoError(t, repo.Delete(context.Background(), saved.ID))

	_, err = svc.Refresh(context.Background(), refreshToken.Token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHasherRoundTrip(t *testing.T) {
	hasher := &BcryptHasher{}

	hash, err := hasher.Hash("sup3rs3cret")
	require.NoError(t, err)
	require.NotEqual(t, "sup3rs3cret", hash)

	match, err := hasher.Verify("sup3rs3cret", hash)
	require.NoError(t, err)
	assert.True(t, match)

	match, err = hasher.Verify("notthepassword", hash)
	require.NoError(t, err)
	assert.False(t, match)
}
