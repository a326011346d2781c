package middleware

import (
	"fmt"
	"net/http"

	"github.com/foodlink/foodlink-backend/api/responses"
	pkgerrors "github.com/foodlink/foodlink-backend/pkg/errors"
	"github.com/foodlink/foodlink-backend/pkg/logger"
	"github.com/foodlink/foodlink-backend/pkg/metrics"
)

// Recoverer turns a handler panic into a 500 INTERNAL_ERROR envelope and
// counts it against the matched route. A panic after the handler already
// wrote its status only gets logged and counted.
func Recoverer(logg *logger.Logger, httpMetrics *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			defer func() {
				panicked := recover()
				if panicked == nil {
					return
				}
				if panicked == http.ErrAbortHandler {
					panic(panicked)
				}

				route := matchedRoute(r)
				httpMetrics.ObservePanic(r.Method, route)

				err := fmt.Errorf("panic on %s %s: %v", r.Method, route, panicked)
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithFields(ctx, map[string]any{"panic": panicked, "route": route})
					logg.Error(ctx, "panic.recovered", err)
				}
				if rec.status != 0 {
					return
				}
				responses.WriteError(ctx, logg, rec, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
			}()
			next.ServeHTTP(rec, r)
		})
	}
}
