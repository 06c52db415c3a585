package http

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	_ "github.com/lib/pq"

	"github.com/pm-health/patient-service/internal/auth"
)

// lazyDB opens a connection pool that is never dialed during routing tests;
// queries against it fail with a connection error instead of panicking.
func lazyDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("postgres", "host=127.0.0.1 port=1 user=none dbname=none sslmode=disable connect_timeout=1")
	if err != nil {
		t.Fatalf("Failed to open lazy database handle: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestRouter_HealthEndpoints tests that the health and info endpoints are
// public and reachable.
func TestRouter_HealthEndpoints(t *testing.T) {
	router := SetupRouter(lazyDB(t), nil, nil, nil, nil)

	for _, path := range []string{"/health", "/actuator/health", "/info"} {
		req := httptest.NewRequest("GET", path, nil)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected status 200, got %d", path, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("%s: expected JSON content type, got '%s'", path, ct)
		}
	}
}

// TestRouter_AuthRequired tests that patient routes reject unauthenticated
// requests when a verifier is configured.
func TestRouter_AuthRequired(t *testing.T) {
	verifier := auth.NewVerifier("test-secret")
	router := SetupRouter(lazyDB(t), nil, nil, verifier, nil)

	req := httptest.NewRequest("GET", "/patients/count", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rec.Code)
	}

	// Health stays public even with auth enabled.
	req = httptest.NewRequest("GET", "/health", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200 for /health, got %d", rec.Code)
	}
}

// TestRouter_AuthAccepted tests that a signed token reaches the handler. The
// handler then fails on the nil database, which is enough to show the
// middleware let the request through.
func TestRouter_AuthAccepted(t *testing.T) {
	verifier := auth.NewVerifier("test-secret")
	router := SetupRouter(lazyDB(t), nil, nil, verifier, nil)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	req := httptest.NewRequest("GET", "/patients/count", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code == http.StatusUnauthorized {
		t.Errorf("Expected authenticated request to pass the middleware, got 401")
	}
}

// TestCORSMiddleware tests origin matching and preflight handling
func TestCORSMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := CORSMiddleware("http://localhost:3000,https://app.example.com", next)

	req := httptest.NewRequest("GET", "/patients", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Expected allowed origin to be echoed, got '%s'", got)
	}

	// Unknown origins get no allow header.
	req = httptest.NewRequest("GET", "/patients", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Expected no allow header for unknown origin, got '%s'", got)
	}

	// Preflight short-circuits.
	req = httptest.NewRequest("OPTIONS", "/patients", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected status 204 for preflight, got %d", rec.Code)
	}
}
