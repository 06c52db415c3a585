package billing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pm-health/patient-service/internal/testutil"
)

// TestCreateBillingAccount_Success tests the request shape on a healthy upstream
func TestCreateBillingAccount_Success(t *testing.T) {
	var received createAccountRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/billing/accounts" {
			t.Errorf("Expected path /billing/accounts, got %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	err = client.CreateBillingAccount(context.Background(), "patient-123", "John Doe", "john@example.com")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if received.PatientID != "patient-123" {
		t.Errorf("Expected patient_id 'patient-123', got '%s'", received.PatientID)
	}
	if received.Name != "John Doe" || received.Email != "john@example.com" {
		t.Errorf("Unexpected request payload: %+v", received)
	}
}

// TestCreateBillingAccount_ServerError tests that upstream 5xx maps to the
// unavailability sentinel.
func TestCreateBillingAccount_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	err = client.CreateBillingAccount(context.Background(), "patient-123", "John Doe", "john@example.com")
	if !errors.Is(err, ErrBillingUnavailable) {
		t.Fatalf("Expected ErrBillingUnavailable, got: %v", err)
	}
}

// TestCreateBillingAccount_ConnectionRefused tests transport failures
func TestCreateBillingAccount_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client, err := NewClient(Config{BaseURL: server.URL, Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	err = client.CreateBillingAccount(context.Background(), "patient-123", "John Doe", "john@example.com")
	if !errors.Is(err, ErrBillingUnavailable) {
		t.Fatalf("Expected ErrBillingUnavailable, got: %v", err)
	}
}

// TestCreateBillingAccount_Outage drives the client against the shared mock
// billing server through a provisioned-then-unavailable cycle: the outage
// surfaces as the sentinel and records no further accounts.
func TestCreateBillingAccount_Outage(t *testing.T) {
	server := testutil.NewMockBillingServer()
	defer server.Close()

	client, err := NewClient(Config{BaseURL: server.URL()})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	err = client.CreateBillingAccount(context.Background(), "patient-123", "John Doe", "john@example.com")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if server.AccountCount() != 1 {
		t.Fatalf("Expected 1 account recorded, got %d", server.AccountCount())
	}
	if account := server.LastAccount(); account == nil || account.PatientID != "patient-123" {
		t.Errorf("Unexpected recorded account: %+v", account)
	}

	server.SetUnavailable(true)

	err = client.CreateBillingAccount(context.Background(), "patient-456", "Jane Smith", "jane@example.com")
	if !errors.Is(err, ErrBillingUnavailable) {
		t.Fatalf("Expected ErrBillingUnavailable during outage, got: %v", err)
	}
	if server.AccountCount() != 1 {
		t.Errorf("Expected no account recorded during outage, got %d", server.AccountCount())
	}
}

// TestNewClient_MissingBaseURL tests config validation
func TestNewClient_MissingBaseURL(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("Expected error for missing base URL")
	}
}
