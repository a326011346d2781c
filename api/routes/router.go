package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/foodlink/foodlink-backend/api/controllers"
	"github.com/foodlink/foodlink-backend/api/middleware"
	internalauth "github.com/foodlink/foodlink-backend/internal/auth"
	"github.com/foodlink/foodlink-backend/internal/donations"
	"github.com/foodlink/foodlink-backend/internal/profiles"
	"github.com/foodlink/foodlink-backend/pkg/config"
	"github.com/foodlink/foodlink-backend/pkg/enums"
	"github.com/foodlink/foodlink-backend/pkg/logger"
	"github.com/foodlink/foodlink-backend/pkg/metrics"
	"github.com/foodlink/foodlink-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	pingers map[string]controllers.Pinger,
	redisClient *redis.Client,
	resolver *internalauth.Resolver,
	profileService profiles.Service,
	donationService donations.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.ExposeStack(!cfg.App.IsProd()),
		middleware.Recoverer(logg, httpMetrics),
		middleware.RequestID(logg),
		middleware.Logging(logg, httpMetrics),
		middleware.CORS(cfg.CORS.Origins()),
	)

	// A nil *redis.Client must not reach the middleware as a non-nil interface.
	var (
		idempotencyStore redis.IdempotencyStore
		limiter          redis.RateLimiter
	)
	if redisClient != nil {
		idempotencyStore = redisClient
		limiter = redisClient
	}
	mutationPolicy := middleware.NewRateLimitPolicy("mutation", cfg.RateLimit.MutationWindow, cfg.RateLimit.MutationLimit)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingers))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/healthCheck", controllers.HealthCheck(cfg, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(resolver, logg))
			r.Use(middleware.MutationRateLimit(mutationPolicy, limiter, logg))
			r.Use(middleware.Idempotency(idempotencyStore, cfg.Idempotency.TTL, logg))
			r.Use(middleware.DonationLogFields(logg))

			r.Get("/profile/me", controllers.ProfileMe(logg))
			r.Post("/profile/setup", controllers.ProfileSetup(profileService, logg))
			r.With(middleware.RequireProfile(logg)).Put("/profile/me", controllers.ProfileUpdate(profileService, logg))

			r.Get("/donation", controllers.DonationList(donationService, logg))
			r.Get("/donation/{id}", controllers.DonationGet(donationService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireCompletedProfile(logg))

				r.With(middleware.RequireRole(enums.RoleDonor, logg)).Post("/donation", controllers.DonationCreate(donationService, logg))
				r.Patch("/donation/{id}/accept", controllers.DonationAccept(donationService, logg))
				r.Patch("/donation/{id}/complete", controllers.DonationComplete(donationService, logg))
				r.Patch("/donation/{id}/reject", controllers.DonationReject(donationService, logg))
			})
		})
	})

	return r
}
