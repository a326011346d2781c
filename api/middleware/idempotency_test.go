package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	internalauth "github.com/foodlink/foodlink-backend/internal/auth"
	pkgauth "github.com/foodlink/foodlink-backend/pkg/auth"
	"github.com/foodlink/foodlink-backend/pkg/db/models"
	pkgerrors "github.com/foodlink/foodlink-backend/pkg/errors"
)

type fakeStore struct {
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func requestWithPattern(method, url, pattern string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, url, body)
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func withProfile(req *http.Request, id string) *http.Request {
	ctx := WithAuthContext(req.Context(), internalauth.AuthenticatedContext{Profile: &models.Profile{ID: id}})
	return req.WithContext(ctx)
}

func withPendingIdentity(req *http.Request, uid string) *http.Request {
	ctx := WithAuthContext(req.Context(), internalauth.AuthenticatedContext{
		Identity:   pkgauth.Identity{UID: uid},
		NeedsSetup: true,
	})
	return req.WithContext(ctx)
}

func TestIdempotentRouteSelection(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		pattern string
		ok      bool
	}{
		{"create donation", http.MethodPost, "/api/v1/donation", true},
		{"accept", http.MethodPatch, "/api/v1/donation/{id}/accept", true},
		{"complete", http.MethodPatch, "/api/v1/donation/{id}/complete", true},
		{"reject", http.MethodPatch, "/api/v1/donation/{id}/reject", true},
		{"profile setup", http.MethodPost, "/api/v1/profile/setup", true},
		{"list", http.MethodGet, "/api/v1/donation", false},
		{"profile update", http.MethodPut, "/api/v1/profile/me", false},
	}

	for _, tt := range tests {
		if got := idempotentRoute(tt.method, tt.pattern); got != tt.ok {
			t.Fatalf("%s: expected ok=%v got %v", tt.name, tt.ok, got)
		}
	}
}

func TestIdempotencyWithoutHeaderPassesThrough(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, time.Hour, nil)
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	})

	for i := 0; i < 2; i++ {
		req := requestWithPattern(http.MethodPost, "/api/v1/donation", "/api/v1/donation", strings.NewReader(`{"name":"Rice"}`))
		resp := httptest.NewRecorder()
		mw(handler).ServeHTTP(resp, req)
		if resp.Code != http.StatusCreated {
			t.Fatalf("expected 201 got %d", resp.Code)
		}
	}
	if calls != 2 {
		t.Fatalf("expected handler to run twice, ran %d", calls)
	}
	if len(store.data) != 0 {
		t.Fatalf("expected nothing stored, got %d records", len(store.data))
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, time.Hour, nil)
	var calls int
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	req := withProfile(requestWithPattern(http.MethodPost, "/api/v1/donation", "/api/v1/donation", strings.NewReader(`{"name":"Rice"}`)), "p1")
	req.Header.Set(IdempotencyKeyHeader, "abc")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected first response 201 got %d", resp.Code)
	}

	replay := withProfile(requestWithPattern(http.MethodPost, "/api/v1/donation", "/api/v1/donation", strings.NewReader(`{"name":"Rice"}`)), "p1")
	replay.Header.Set(IdempotencyKeyHeader, "abc")
	rec := httptest.NewRecorder()
	mw(handler).ServeHTTP(rec, replay)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected replay status 201 got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected content-type header preserved")
	}
	if rec.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("expected replay marker header")
	}
	if strings.TrimSpace(rec.Body.String()) != `{"ok":true}` {
		t.Fatalf("expected stored body got %s", rec.Body.String())
	}
	if calls != 1 {
		t.Fatalf("handler executed %d times, expected 1", calls)
	}

	other := withProfile(requestWithPattern(http.MethodPost, "/api/v1/donation", "/api/v1/donation", strings.NewReader(`{"name":"Rice"}`)), "p2")
	other.Header.Set(IdempotencyKeyHeader, "abc")
	mw(handler).ServeHTTP(httptest.NewRecorder(), other)
	if calls != 2 {
		t.Fatalf("expected key to be scoped per profile, handler ran %d times", calls)
	}
}

func TestIdempotencyDetectsBodyChange(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, time.Hour, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := withProfile(requestWithPattern(http.MethodPost, "/api/v1/donation", "/api/v1/donation", strings.NewReader(`{"name":"Rice"}`)), "p1")
	req.Header.Set(IdempotencyKeyHeader, "xyz")
	mw(handler).ServeHTTP(httptest.NewRecorder(), req)

	replay := withProfile(requestWithPattern(http.MethodPost, "/api/v1/donation", "/api/v1/donation", strings.NewReader(`{"name":"Beans"}`)), "p1")
	replay.Header.Set(IdempotencyKeyHeader, "xyz")
	resp := httptest.NewRecorder()
	mw(handler).ServeHTTP(resp, replay)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	var payload struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	if payload.Success || payload.Code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("expected error code %s got %+v", pkgerrors.CodeIdempotency, payload)
	}
}

func TestIdempotencySkipsServerErrors(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, time.Hour, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	req := withProfile(requestWithPattern(http.MethodPatch, "/api/v1/donation/1/accept", "/api/v1/donation/{id}/accept", nil), "p1")
	req.Header.Set(IdempotencyKeyHeader, "retry-me")
	mw(handler).ServeHTTP(httptest.NewRecorder(), req)

	if len(store.data) != 0 {
		t.Fatalf("expected 5xx responses not to be stored")
	}
}

func TestIdempotencyScopesSetupByIdentity(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, time.Hour, nil)
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authCtx, _ := AuthFromContext(r.Context())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = fmt.Fprintf(w, `{"uid":%q}`, authCtx.Identity.UID)
	})

	bodies := map[string]string{}
	for _, uid := range []string{"alice", "bob"} {
		req := withPendingIdentity(requestWithPattern(http.MethodPost, "/api/v1/profile/setup", "/api/v1/profile/setup", strings.NewReader(`{"role":"donor"}`)), uid)
		req.Header.Set(IdempotencyKeyHeader, "setup-1")
		resp := httptest.NewRecorder()
		mw(handler).ServeHTTP(resp, req)
		if resp.Header().Get("Idempotent-Replayed") != "" {
			t.Fatalf("%s: response replayed from another caller", uid)
		}
		bodies[uid] = resp.Body.String()
	}

	if bodies["alice"] != `{"uid":"alice"}` || bodies["bob"] != `{"uid":"bob"}` {
		t.Fatalf("unexpected setup responses %v", bodies)
	}
	if len(store.data) != 2 {
		t.Fatalf("expected one record per identity, got %d", len(store.data))
	}
}

func TestIdempotencyWithoutCallerIsNotCached(t *testing.T) {
	store := newFakeStore()
	mw := Idempotency(store, time.Hour, nil)
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	})

	for i := 0; i < 2; i++ {
		req := requestWithPattern(http.MethodPost, "/api/v1/donation", "/api/v1/donation", strings.NewReader(`{}`))
		req.Header.Set(IdempotencyKeyHeader, "anon")
		mw(handler).ServeHTTP(httptest.NewRecorder(), req)
	}
	if calls != 2 || len(store.data) != 0 {
		t.Fatalf("expected anonymous requests to bypass the cache, calls=%d stored=%d", calls, len(store.data))
	}
}
