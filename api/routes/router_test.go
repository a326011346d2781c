package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/foodlink/foodlink-backend/api/controllers"
	"github.com/foodlink/foodlink-backend/api/middleware"
	internalauth "github.com/foodlink/foodlink-backend/internal/auth"
	"github.com/foodlink/foodlink-backend/internal/donations"
	"github.com/foodlink/foodlink-backend/internal/profiles"
	pkgauth "github.com/foodlink/foodlink-backend/pkg/auth"
	"github.com/foodlink/foodlink-backend/pkg/config"
	"github.com/foodlink/foodlink-backend/pkg/db"
	"github.com/foodlink/foodlink-backend/pkg/logger"
	"github.com/foodlink/foodlink-backend/pkg/metrics"
	"github.com/foodlink/foodlink-backend/pkg/migrate"
	"github.com/foodlink/foodlink-backend/pkg/redis"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		Identity: config.IdentityConfig{
			Provider:        config.IdentityProviderLocal,
			LocalSecret:     "secret",
			LocalIssuer:     "foodlink-local",
			LocalTTLMinutes: 60,
			DefaultRole:     "donor",
		},
		CORS:        config.CORSConfig{RawOrigins: "http://localhost:3000"},
		Idempotency: config.IdempotencyConfig{TTL: time.Hour},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	ctx := context.Background()

	client, err := db.New(ctx, config.DBConfig{
		Driver: config.DBDriverSQLite,
		DSN:    fmt.Sprintf("file:routes_%s?mode=memory&cache=shared", uuid.NewString()),
	}, nil)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	sqlDB, err := client.SQL()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := migrate.Up(ctx, sqlDB, config.DBDriverSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	registry := prometheus.NewRegistry()

	profileService, err := profiles.NewService(profiles.NewRepository(client.DB()))
	if err != nil {
		t.Fatalf("profile service: %v", err)
	}
	donationService, err := donations.NewService(donations.ServiceParams{
		Repo:     donations.NewRepository(client.DB()),
		Profiles: profileService,
		Metrics:  metrics.NewDonationMetrics(registry),
		Logger:   logg,
	})
	if err != nil {
		t.Fatalf("donation service: %v", err)
	}
	verifier, err := pkgauth.NewHMACVerifier(cfg.Identity)
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}
	resolver, err := internalauth.NewResolver(verifier, profileService, cfg.Identity.DefaultRole)
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}

	return NewRouter(
		cfg,
		logg,
		registry,
		metrics.NewHTTPMetrics(registry),
		map[string]controllers.Pinger{"db": client, "redis": stubPinger{}},
		(*redis.Client)(nil),
		resolver,
		profileService,
		donationService,
	)
}

func buildToken(t *testing.T, cfg *config.Config, uid, name string) string {
	t.Helper()
	token, err := pkgauth.MintIdentityToken(cfg.Identity, time.Now(), pkgauth.Identity{
		UID:   uid,
		Name:  name,
		Email: uid + "@example.com",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

type apiResponse struct {
	Success    bool            `json:"success"`
	StatusCode int             `json:"statusCode"`
	Code       string          `json:"code"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Errors     map[string]any  `json:"errors"`
}

func call(t *testing.T, router http.Handler, method, path, token, role string, body any) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if role != "" {
		req.Header.Set(middleware.RoleHintHeader, role)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp apiResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, path, err, rec.Body.String())
		}
	}
	return rec, resp
}

func completeProfile(t *testing.T, router http.Handler, token, role string) profiles.ProfileResponse {
	t.Helper()
	rec, resp := call(t, router, http.MethodGet, "/api/v1/profile/me", token, role, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile me: expected 200 got %d", rec.Code)
	}
	rec, resp = call(t, router, http.MethodPut, "/api/v1/profile/me", token, "", map[string]any{
		"phone":   "555-1234",
		"address": "10 Market St",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("profile update: expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	var profile profiles.ProfileResponse
	if err := json.Unmarshal(resp.Data, &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if !profile.IsCompleted || string(profile.Role) != role {
		t.Fatalf("unexpected profile %+v", profile)
	}
	return profile
}

func decodeDonation(t *testing.T, resp apiResponse) donations.DonationResponse {
	t.Helper()
	var donation donations.DonationResponse
	if err := json.Unmarshal(resp.Data, &donation); err != nil {
		t.Fatalf("decode donation: %v", err)
	}
	return donation
}

func riceBody() map[string]any {
	return map[string]any{
		"name":       "Rice",
		"quantity":   10,
		"foodType":   "cooked",
		"phone":      "000-0000",
		"preparedAt": "2025-06-01T08:00:00Z",
		"pickupDate": "2025-06-01",
		"pickupTime": "2025-06-01T12:00:00Z",
	}
}

// The bare scenario payload carries no preparedAt, which create requires.
func TestRiceScenarioPayloadWithoutPreparedAt(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	donorToken := buildToken(t, cfg, "uid-donor", "Dana Donor")
	completeProfile(t, router, donorToken, "donor")

	body := map[string]any{
		"name":       "Rice",
		"quantity":   10,
		"foodType":   "raw",
		"pickupDate": "2024-01-01",
		"pickupTime": "2024-01-01T10:00",
	}
	rec, resp := call(t, router, http.MethodPost, "/api/v1/donation", donorToken, "", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d (%s)", rec.Code, rec.Body.String())
	}
	if resp.Code != "VALIDATION_ERROR" || resp.Message != "Field 'preparedAt' is required" {
		t.Fatalf("unexpected error %s %q", resp.Code, resp.Message)
	}

	body["preparedAt"] = "2024-01-01T08:00"
	rec, resp = call(t, router, http.MethodPost, "/api/v1/donation", donorToken, "", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 once preparedAt is set, got %d (%s)", rec.Code, rec.Body.String())
	}
	if created := decodeDonation(t, resp); created.Status != "Pending" || created.FoodType != "raw" {
		t.Fatalf("unexpected created donation %+v", created)
	}
}

func TestRiceDonationLifecycle(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)

	donorToken := buildToken(t, cfg, "uid-donor", "Dana Donor")
	recipientToken := buildToken(t, cfg, "uid-recipient", "Rae Recipient")
	donor := completeProfile(t, router, donorToken, "donor")
	recipient := completeProfile(t, router, recipientToken, "recipient")

	rec, resp := call(t, router, http.MethodPost, "/api/v1/donation", donorToken, "", riceBody())
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201 got %d (%s)", rec.Code, rec.Body.String())
	}
	created := decodeDonation(t, resp)
	if created.Status != "Pending" || created.Phone != "555-1234" || created.Donor.ID != donor.ID {
		t.Fatalf("unexpected created donation %+v", created)
	}

	rec, resp = call(t, router, http.MethodPatch, "/api/v1/donation/"+created.ID+"/accept", recipientToken, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("accept: expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	accepted := decodeDonation(t, resp)
	if accepted.Status != "In Process" || accepted.AcceptedBy == nil || accepted.AcceptedBy.ID != recipient.ID {
		t.Fatalf("unexpected accepted donation %+v", accepted)
	}

	rec, resp = call(t, router, http.MethodPatch, "/api/v1/donation/"+created.ID+"/complete", recipientToken, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	if completed := decodeDonation(t, resp); completed.Status != "Completed" || completed.CompletedAt == nil {
		t.Fatalf("unexpected completed donation %+v", completed)
	}

	rec, resp = call(t, router, http.MethodPatch, "/api/v1/donation/"+created.ID+"/reject", recipientToken, "", map[string]any{
		"reason":          "too late",
		"disposalPartner": map[string]string{"name": "Compost Co", "contact": "555-0000", "location": "Depot"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("reject: expected 400 got %d", rec.Code)
	}
	if resp.Code != "INVALID_TRANSITION" || resp.Errors["current"] != "Completed" {
		t.Fatalf("unexpected reject error %+v", resp)
	}

	rec, resp = call(t, router, http.MethodGet, "/api/v1/donation?mine=accepted", recipientToken, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200 got %d", rec.Code)
	}
	var items []donations.DonationResponse
	if err := json.Unmarshal(resp.Data, &items); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(items) != 1 || items[0].ID != created.ID {
		t.Fatalf("unexpected list %+v", items)
	}
}

func TestDonationRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t, testConfig())
	rec, resp := call(t, router, http.MethodGet, "/api/v1/donation", "", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
	if resp.Message != "No token provided" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}

func TestCreateRequiresCompletedDonorProfile(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)

	newcomer := buildToken(t, cfg, "uid-newcomer", "New Comer")
	rec, resp := call(t, router, http.MethodPost, "/api/v1/donation", newcomer, "donor", riceBody())
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
	if resp.Message != "Please complete your profile first" {
		t.Fatalf("unexpected message %q", resp.Message)
	}

	recipientToken := buildToken(t, cfg, "uid-recipient", "Rae Recipient")
	completeProfile(t, router, recipientToken, "recipient")
	rec, _ = call(t, router, http.MethodPost, "/api/v1/donation", recipientToken, "", riceBody())
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected recipient create to be forbidden, got %d", rec.Code)
	}
}

func TestProfileSetupFixesDefaultRoleUntilCompleted(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	token := buildToken(t, cfg, "uid-setup", "Set Up")

	// first request without a role hint provisions the default donor role
	rec, resp := call(t, router, http.MethodGet, "/api/v1/profile/me", token, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("profile me: expected 200 got %d", rec.Code)
	}
	var provisioned profiles.ProfileResponse
	if err := json.Unmarshal(resp.Data, &provisioned); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if provisioned.Role != "donor" {
		t.Fatalf("expected default donor role, got %q", provisioned.Role)
	}

	rec, resp = call(t, router, http.MethodPost, "/api/v1/profile/setup", token, "", map[string]string{"role": "recipient"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	var switched profiles.ProfileResponse
	if err := json.Unmarshal(resp.Data, &switched); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if switched.Role != "recipient" || switched.ID != provisioned.ID {
		t.Fatalf("expected same profile switched to recipient, got %+v", switched)
	}

	completeProfile(t, router, token, "recipient")
	rec, resp = call(t, router, http.MethodPost, "/api/v1/profile/setup", token, "", map[string]string{"role": "donor"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 once completed, got %d", rec.Code)
	}
	if resp.Code != "CONFLICT" {
		t.Fatalf("unexpected code %q", resp.Code)
	}
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	router := newTestRouter(t, testConfig())

	for _, path := range []string{"/health/live", "/health/ready", "/api/v1/healthCheck"} {
		rec, _ := call(t, router, http.MethodGet, path, "", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, rec.Code)
		}
	}

	rec, _ := call(t, router, http.MethodGet, "/metrics", "", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Fatalf("expected http metrics in exposition")
	}
}
