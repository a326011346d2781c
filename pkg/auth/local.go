package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/foodlink/foodlink-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
)

var localSigningMethod = jwt.SigningMethodHS256

// HMACVerifier accepts HS256 identity tokens minted with a shared secret.
// It stands in for Firebase in local runs and tests.
type HMACVerifier struct {
	secret []byte
	issuer string
}

func NewHMACVerifier(cfg config.IdentityConfig) (*HMACVerifier, error) {
	if cfg.LocalSecret == "" {
		return nil, fmt.Errorf("local identity secret is required")
	}
	return &HMACVerifier{secret: []byte(cfg.LocalSecret), issuer: cfg.LocalIssuer}, nil
}

// Verify implements Verifier.
func (v *HMACVerifier) Verify(_ context.Context, token string) (Identity, error) {
	claims := &identityClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{localSigningMethod.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return Identity{}, classify(err)
	}
	return claims.identity()
}

// MintIdentityToken issues a local identity token for the given identity.
func MintIdentityToken(cfg config.IdentityConfig, now time.Time, identity Identity) (string, error) {
	if cfg.LocalSecret == "" {
		return "", fmt.Errorf("local identity secret is required")
	}
	if identity.UID == "" {
		return "", fmt.Errorf("identity uid is required")
	}
	ttl := cfg.LocalTTL()
	if ttl <= 0 {
		return "", fmt.Errorf("local identity ttl must be positive")
	}

	claims := identityClaims{
		Name:    identity.Name,
		Email:   identity.Email,
		Picture: identity.Picture,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UID,
			Issuer:    cfg.LocalIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(localSigningMethod, claims).SignedString([]byte(cfg.LocalSecret))
	if err != nil {
		return "", fmt.Errorf("signing identity token: %w", err)
	}
	return signed, nil
}
