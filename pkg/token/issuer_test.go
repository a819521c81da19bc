package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traklibrary/trak-auth/pkg/account"
)

func testAccount(authorities ...string) account.Account {
	return account.Account{
		ID:          uuid.New(),
		Username:    "gamer",
		Email:       "gamer@example.com",
		Authorities: authorities,
		Verified:    true,
	}
}

func TestCreateAccessToken_NoRoles(t *testing.T) {
	issuer := NewIssuer("test-secret")

	_, err := issuer.CreateAccessToken(testAccount())
	require.ErrorIs(t, err, ErrNoRoles)

	_, err = issuer.CreateAccessToken(account.Account{ID: uuid.New(), Username: "gamer", Authorities: nil})
	require.ErrorIs(t, err, ErrNoRoles)
}

func TestCreateAccessToken_ScopesMatchAuthorities(t *testing.T) {
	issuer := NewIssuer("test-secret")
	acct := testAccount("ROLE_ADMIN", "ROLE_USER", "ROLE_MODERATOR")

	tv, err := issuer.CreateAccessToken(acct)
	require.NoError(t, err)
	require.NotEmpty(t, tv.Token)

	claims, err := issuer.ParseClaims(tv.Token)
	require.NoError(t, err)
	assert.Equal(t, []string{"ROLE_ADMIN", "ROLE_USER", "ROLE_MODERATOR"}, claims.Scopes)
}

func TestCreateRefreshToken_FixedScope(t *testing.T) {
	issuer := NewIssuer("test-secret")

	// Refresh tokens never inherit the account's authorities
	tv, err := issuer.CreateRefreshToken(testAccount("ROLE_ADMIN", "ROLE_USER"))
	require.NoError(t, err)

	claims, err := issuer.ParseClaims(tv.Token)
	require.NoError(t, err)
	assert.Equal(t, []string{ScopeTokenRefresh}, claims.Scopes)

	// Even for accounts with no authorities at all
	tv, err = issuer.CreateRefreshToken(testAccount())
	require.NoError(t, err)

	claims, err = issuer.ParseClaims(tv.Token)
	require.NoError(t, err)
	assert.Equal(t, []string{ScopeTokenRefresh}, claims.Scopes)
}

func TestCreateTwoFactorToken_FixedScope(t *testing.T) {
	issuer := NewIssuer("test-secret")

	tv, err := issuer.CreateTwoFactorToken(testAccount("ROLE_USER"))
	require.NoError(t, err)

	claims, err := issuer.ParseClaims(tv.Token)
	require.NoError(t, err)
	assert.Equal(t, []string{ScopeTwoFactorAuth}, claims.Scopes)
	assert.False(t, claims.HasScope("ROLE_USER"))
	assert.False(t, claims.HasScope(ScopeTokenRefresh))
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewIssuer("test-secret",
		WithIssuer("trak-auth"),
		WithAudience("trak-api"),
		WithAccessTokenExpiry(15*time.Minute))
	acct := testAccount("ROLE_USER")

	tv, err := issuer.CreateAccessToken(acct)
	require.NoError(t, err)

	claims, err := issuer.ParseClaims(tv.Token)
	require.NoError(t, err)

	assert.Equal(t, "trak-auth", claims.Issuer)
	assert.Equal(t, "gamer", claims.Subject)
	require.Len(t, claims.Audience, 1)
	assert.Equal(t, "trak-api", claims.Audience[0])
	assert.Equal(t, acct.ID.String(), claims.UserID)
	assert.True(t, claims.Verified)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, tv.Expiry, claims.IssuedAt.Time.Add(15*time.Minute), time.Second)
}

func TestTokenIDsAreUnique(t *testing.T) {
	issuer := NewIssuer("test-secret")
	acct := testAccount("ROLE_USER")

	first, err := issuer.CreateAccessToken(acct)
	require.NoError(t, err)
	second, err := issuer.CreateAccessToken(acct)
	require.NoError(t, err)

	assert.NotEqual(t, first.Token, second.Token)

	firstClaims, err := issuer.ParseClaims(first.Token)
	require.NoError(t, err)
	secondClaims, err := issuer.ParseClaims(second.Token)
	require.NoError(t, err)
	assert.NotEqual(t, firstClaims.ID, secondClaims.ID)
}

func TestParseToken_WrongSecret(t *testing.T) {
	issuer := NewIssuer("test-secret")
	other := NewIssuer("other-secret")

	tv, err := issuer.CreateAccessToken(testAccount("ROLE_USER"))
	require.NoError(t, err)

	_, err = other.ParseClaims(tv.Token)
	require.Error(t, err)
}

func TestParseToken_Garbage(t *testing.T) {
	issuer := NewIssuer("test-secret")

	_, err := issuer.ParseToken("not.a.token")
	require.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	issuer := NewIssuer("test-secret", WithAccessTokenExpiry(time.Nanosecond))

	tv, err := issuer.CreateAccessToken(testAccount("ROLE_USER"))
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = issuer.ParseClaims(tv.Token)
	require.Error(t, err)
}
