package keybackend

import (
	"crypto/subtle"
	"fmt"
	"os"
	"strings"
)

// TokenConfig locates the shared admin secret.
type TokenConfig struct {
	Token string `mapstructure:"admin_token"`
	File  string `mapstructure:"admin_token_file"`
}

// AdminToken is the single shared secret gating every mutating endpoint.
// The zero value is unconfigured and verifies nothing.
type AdminToken struct {
	secret []byte
}

// NewAdminToken wraps secret. Surrounding whitespace is ignored.
func NewAdminToken(secret string) AdminToken {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return AdminToken{}
	}
	return AdminToken{secret: []byte(secret)}
}

// LoadAdminToken returns the inline token, or the trimmed contents of the
// token file when no inline token is set. Neither being set yields an
// unconfigured token, not an error.
func LoadAdminToken(cfg TokenConfig) (AdminToken, error) {
	if strings.TrimSpace(cfg.Token) != "" || cfg.File == "" {
		return NewAdminToken(cfg.Token), nil
	}

	data, err := os.ReadFile(cfg.File) //nolint:gosec // Path is from trusted config file
	if err != nil {
		return AdminToken{}, fmt.Errorf("read admin token file: %w", err)
	}
	return NewAdminToken(string(data)), nil
}

func (t AdminToken) Configured() bool {
	return len(t.secret) > 0
}

// Verify reports whether candidate equals the secret, in constant time.
// An unconfigured token never verifies.
func (t AdminToken) Verify(candidate string) bool {
	if !t.Configured() || candidate == "" {
		return false
	}
	return subtle.ConstantTimeCompare(t.secret, []byte(candidate)) == 1
}

// Value returns the secret, for outbound calls that must present it.
func (t AdminToken) Value() string {
	return string(t.secret)
}
