package middleware

import (
	"context"
	"net/http"

	"github.com/foodlink/foodlink-backend/api/responses"
	"github.com/foodlink/foodlink-backend/api/validators"
	internalauth "github.com/foodlink/foodlink-backend/internal/auth"
	pkgerrors "github.com/foodlink/foodlink-backend/pkg/errors"
	"github.com/foodlink/foodlink-backend/pkg/logger"
)

// RoleHintHeader lets a first-time caller pick the role of the profile created for it.
const RoleHintHeader = "X-Profile-Role"

type authResolver interface {
	Resolve(ctx context.Context, rawToken, roleHint string) (internalauth.AuthenticatedContext, error)
}

// Auth resolves the bearer credential once per request and stores the result on the context.
func Auth(resolver authResolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := validators.ParseBearerToken(r.Header.Get("Authorization"))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "No token provided"))
				return
			}

			authCtx, err := resolver.Resolve(r.Context(), token, r.Header.Get(RoleHintHeader))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithAuthContext(r.Context(), authCtx)
			if logg != nil && authCtx.Profile != nil {
				ctx = logg.WithProfileID(ctx, authCtx.ProfileID())
				ctx = logg.WithActorRole(ctx, string(authCtx.Role()))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authenticated adapts a handler that needs the resolved caller passed explicitly.
func Authenticated(logg *logger.Logger, fn func(w http.ResponseWriter, r *http.Request, authCtx internalauth.AuthenticatedContext)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authCtx, ok := AuthFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}
		fn(w, r, authCtx)
	}
}
