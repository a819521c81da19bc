package totp

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/pquerna/otp/totp"
	"github.com/skip2/go-qrcode"
)

const (
	// Issuer is the product name shown in authenticator apps
	Issuer = "Trak Library"

	// Provisioning parameters per RFC 6238 defaults
	Algorithm = "SHA1"
	Digits    = 6
	Period    = 30
)

// ErrProvisioningRender is returned when the QR image for a secret cannot be produced
var ErrProvisioningRender = errors.New("failed to render provisioning image")

// SecretStore generates shared TOTP secrets and renders them as scannable
// provisioning QR codes.
type SecretStore struct {
	issuer        string
	imageSize     int
	recoveryLevel qrcode.RecoveryLevel
}

// SecretStoreOption configures a SecretStore
type SecretStoreOption func(*SecretStore)

// WithIssuer overrides the issuer shown in authenticator apps
func WithIssuer(issuer string) SecretStoreOption {
	return func(s *SecretStore) {
		s.issuer = issuer
	}
}

// WithImageSize sets the rendered QR image size in pixels
func WithImageSize(size int) SecretStoreOption {
	return func(s *SecretStore) {
		s.imageSize = size
	}
}

// NewSecretStore creates a new secret store
func NewSecretStore(opts ...SecretStoreOption) *SecretStore {
	s := &SecretStore{
		issuer:        Issuer,
		imageSize:     256,
		recoveryLevel: qrcode.Medium,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateSecret returns a new base32-encoded shared secret for the given
// account. Secrets come from crypto/rand and are independent across calls.
func (s *SecretStore) GenerateSecret(accountName string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: accountName,
	})
	if err != nil {
		slog.Error("Failed to generate totp secret", "accountName", accountName, "issuer", s.issuer, "err", err)
		return "", fmt.Errorf("failed to generate totp secret: %w", err)
	}
	return key.Secret(), nil
}

// ProvisioningURL builds the otpauth:// URL encoding the secret and its
// parameters for import into an authenticator app.
func (s *SecretStore) ProvisioningURL(secret, accountName string) string {
	v := url.Values{}
	v.Set("secret", secret)
	v.Set("issuer", s.issuer)
	v.Set("algorithm", Algorithm)
	v.Set("digits", fmt.Sprintf("%d", Digits))
	v.Set("period", fmt.Sprintf("%d", Period))

	u := url.URL{
		Scheme:   "otpauth",
		Host:     "totp",
		Path:     "/" + s.issuer + ":" + accountName,
		RawQuery: v.Encode(),
	}
	return u.String()
}

// RenderProvisioningImage renders the provisioning URL for the secret to a
// PNG QR code. Renderer failures surface as ErrProvisioningRender so callers
// never see a raw encoding error.
func (s *SecretStore) RenderProvisioningImage(secret, accountName string) ([]byte, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: empty secret", ErrProvisioningRender)
	}

	provisioningURL := s.ProvisioningURL(secret, accountName)

	png, err := qrcode.Encode(provisioningURL, s.recoveryLevel, s.imageSize)
	if err != nil {
		slog.Error("Failed to encode provisioning QR code", "accountName", accountName, "err", err)
		return nil, fmt.Errorf("%w: %v", ErrProvisioningRender, err)
	}
	return png, nil
}
