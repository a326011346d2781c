package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/foodlink/foodlink-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenExpired means the credential was valid once; the client should re-authenticate.
	ErrTokenExpired = errors.New("identity token expired")
	// ErrInvalidToken covers every other verification failure.
	ErrInvalidToken = errors.New("invalid identity token")
)

// Identity is the verified subject of an identity token.
type Identity struct {
	UID     string
	Name    string
	Email   string
	Picture string
}

// Verifier checks a raw bearer token and returns the identity it asserts.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// identityClaims mirrors the claims carried by Firebase ID tokens.
type identityClaims struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Picture string `json:"picture,omitempty"`
	jwt.RegisteredClaims
}

func (c identityClaims) identity() (Identity, error) {
	uid := strings.TrimSpace(c.Subject)
	if uid == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return Identity{
		UID:     uid,
		Name:    c.Name,
		Email:   c.Email,
		Picture: c.Picture,
	}, nil
}

// classify folds jwt parse errors into the two verifier sentinels.
func classify(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return fmt.Errorf("%w: %v", ErrTokenExpired, err)
	}
	return fmt.Errorf("%w: %v", ErrInvalidToken, err)
}

// NewVerifier builds the verifier selected by the identity provider setting.
func NewVerifier(ctx context.Context, cfg config.IdentityConfig) (Verifier, error) {
	switch cfg.NormalizedProvider() {
	case config.IdentityProviderFirebase:
		return NewFirebaseVerifier(ctx, cfg)
	case config.IdentityProviderLocal:
		return NewHMACVerifier(cfg)
	default:
		return nil, fmt.Errorf("unsupported identity provider %q", cfg.Provider)
	}
}
