package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/foodlink/foodlink-backend/pkg/config"
	"github.com/golang-jwt/jwt/v5"
)

const firebaseIssuerPrefix = "https://securetoken.google.com/"

// FirebaseVerifier validates Firebase ID tokens against Google's published
// signing keys. The key set is refreshed in the background by keyfunc.
type FirebaseVerifier struct {
	jwks      *keyfunc.JWKS
	projectID string
	parser    *jwt.Parser
}

// NewFirebaseVerifier fetches the JWKS and starts the background refresh.
func NewFirebaseVerifier(ctx context.Context, cfg config.IdentityConfig) (*FirebaseVerifier, error) {
	if cfg.FirebaseProjectID == "" {
		return nil, fmt.Errorf("firebase project id is required")
	}
	refresh := cfg.JWKSRefresh
	if refresh <= 0 {
		refresh = time.Hour
	}
	jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   refresh,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching identity jwks: %w", err)
	}
	return newFirebaseVerifier(jwks, cfg.FirebaseProjectID), nil
}

func newFirebaseVerifier(jwks *keyfunc.JWKS, projectID string) *FirebaseVerifier {
	return &FirebaseVerifier{
		jwks:      jwks,
		projectID: projectID,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithIssuer(firebaseIssuerPrefix+projectID),
			jwt.WithAudience(projectID),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
		),
	}
}

// Verify implements Verifier.
func (v *FirebaseVerifier) Verify(_ context.Context, token string) (Identity, error) {
	claims := &identityClaims{}
	if _, err := v.parser.ParseWithClaims(token, claims, v.jwks.Keyfunc); err != nil {
		return Identity{}, classify(err)
	}
	return claims.identity()
}

// Close stops the background key refresh.
func (v *FirebaseVerifier) Close() error {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
	return nil
}
