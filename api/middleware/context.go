package middleware

import (
	"context"
	"strings"

	internalauth "github.com/foodlink/foodlink-backend/internal/auth"
)

type contextKey string

const ctxAuth contextKey = "auth_context"

// WithAuthContext stores the resolved caller on ctx.
func WithAuthContext(ctx context.Context, authCtx internalauth.AuthenticatedContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAuth, authCtx)
}

// AuthFromContext returns the caller resolved by Auth, if any.
func AuthFromContext(ctx context.Context) (internalauth.AuthenticatedContext, bool) {
	if ctx == nil {
		return internalauth.AuthenticatedContext{}, false
	}
	authCtx, ok := ctx.Value(ctxAuth).(internalauth.AuthenticatedContext)
	return authCtx, ok
}

// callerKey names the caller for per-caller state such as rate limit counters
// and idempotency records: the profile when one exists, otherwise the verified
// identity of a caller still in setup. It is "" for unauthenticated requests.
func callerKey(ctx context.Context) string {
	authCtx, ok := AuthFromContext(ctx)
	if !ok {
		return ""
	}
	if id := authCtx.ProfileID(); id != "" {
		return "profile:" + id
	}
	if uid := strings.TrimSpace(authCtx.Identity.UID); uid != "" {
		return "uid:" + uid
	}
	return ""
}
