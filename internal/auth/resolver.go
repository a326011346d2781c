package auth

import (
	"context"
	"errors"
	"strings"

	pkgauth "github.com/foodlink/foodlink-backend/pkg/auth"
	"github.com/foodlink/foodlink-backend/pkg/db/models"
	"github.com/foodlink/foodlink-backend/pkg/enums"
	pkgerrors "github.com/foodlink/foodlink-backend/pkg/errors"
)

// AuthenticatedContext is produced once per request and handed to controllers.
// Profile is nil when NeedsSetup is true.
type AuthenticatedContext struct {
	Profile    *models.Profile
	Identity   pkgauth.Identity
	NeedsSetup bool
}

// ProfileID returns the caller's profile id, or "" when setup is pending.
func (a AuthenticatedContext) ProfileID() string {
	if a.Profile == nil {
		return ""
	}
	return a.Profile.ID
}

// Role returns the caller's role, or "" when setup is pending.
func (a AuthenticatedContext) Role() enums.Role {
	if a.Profile == nil {
		return ""
	}
	return a.Profile.Role
}

type profileService interface {
	FindByUID(ctx context.Context, uid string) (*models.Profile, error)
	EnsureProfile(ctx context.Context, identity pkgauth.Identity, role enums.Role) (*models.Profile, error)
}

// Resolver turns a bearer credential into an AuthenticatedContext.
type Resolver struct {
	verifier    pkgauth.Verifier
	profiles    profileService
	defaultRole enums.Role
}

// NewResolver builds a resolver. An empty or invalid defaultRole means unknown
// identities are reported as NeedsSetup instead of being provisioned.
func NewResolver(verifier pkgauth.Verifier, profiles profileService, defaultRole string) (*Resolver, error) {
	if verifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "identity verifier required")
	}
	if profiles == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "profile service required")
	}
	role, _ := enums.ParseRole(defaultRole)
	return &Resolver{verifier: verifier, profiles: profiles, defaultRole: role}, nil
}

// Resolve verifies rawToken and loads or provisions the matching profile.
// roleHint, when valid, takes precedence over the default role for new profiles.
func (r *Resolver) Resolve(ctx context.Context, rawToken, roleHint string) (AuthenticatedContext, error) {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return AuthenticatedContext{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "No token provided")
	}

	identity, err := r.verifier.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, pkgauth.ErrTokenExpired) {
			return AuthenticatedContext{}, pkgerrors.Wrap(pkgerrors.CodeTokenExpired, err, "Token expired")
		}
		return AuthenticatedContext{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "Invalid token")
	}

	profile, err := r.profiles.FindByUID(ctx, identity.UID)
	if err == nil {
		return AuthenticatedContext{Profile: profile, Identity: identity}, nil
	}
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return AuthenticatedContext{}, err
	}

	role := r.defaultRole
	if hinted, hintErr := enums.ParseRole(roleHint); hintErr == nil {
		role = hinted
	}
	if role == "" {
		return AuthenticatedContext{Identity: identity, NeedsSetup: true}, nil
	}

	profile, err = r.profiles.EnsureProfile(ctx, identity, role)
	if err != nil {
		return AuthenticatedContext{}, err
	}
	return AuthenticatedContext{Profile: profile, Identity: identity}, nil
}
