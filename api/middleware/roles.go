package middleware

import (
	"net/http"

	"github.com/foodlink/foodlink-backend/api/responses"
	"github.com/foodlink/foodlink-backend/pkg/enums"
	pkgerrors "github.com/foodlink/foodlink-backend/pkg/errors"
	"github.com/foodlink/foodlink-backend/pkg/logger"
)

// RequireProfile rejects callers whose identity has no profile yet.
func RequireProfile(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx, ok := AuthFromContext(r.Context())
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}
			if authCtx.NeedsSetup || authCtx.Profile == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "Profile setup required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireCompletedProfile rejects callers whose profile lacks contact details.
func RequireCompletedProfile(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return RequireProfile(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx, _ := AuthFromContext(r.Context())
			if !authCtx.Profile.IsCompleted {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "Please complete your profile first"))
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

func RequireRole(role enums.Role, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return RequireProfile(logg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx, _ := AuthFromContext(r.Context())
			if authCtx.Role() != role {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "Only "+string(role)+"s can perform this action"))
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}
