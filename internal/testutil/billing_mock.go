package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
)

// BillingAccount records one provisioning request received by the mock server
type BillingAccount struct {
	PatientID string `json:"patient_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}

// MockBillingServer is an httptest-backed stand-in for the billing service.
// It records every account creation request and can be switched to return
// 503 to simulate an outage.
type MockBillingServer struct {
	mu          sync.Mutex
	server      *httptest.Server
	accounts    []BillingAccount
	unavailable bool
}

// NewMockBillingServer starts the mock server; callers must Close it.
func NewMockBillingServer() *MockBillingServer {
	m := &MockBillingServer{}

	mux := http.NewServeMux()
	mux.HandleFunc("/billing/accounts", m.handleCreateAccount)
	m.server = httptest.NewServer(mux)

	return m
}

func (m *MockBillingServer) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.unavailable {
		http.Error(w, "billing service unavailable", http.StatusServiceUnavailable)
		return
	}

	var account BillingAccount
	if err := json.NewDecoder(r.Body).Decode(&account); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	m.accounts = append(m.accounts, account)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(account)
}

// URL returns the base URL of the mock server
func (m *MockBillingServer) URL() string {
	return m.server.URL
}

// Close shuts down the mock server
func (m *MockBillingServer) Close() {
	m.server.Close()
}

// SetUnavailable makes subsequent requests fail with 503
func (m *MockBillingServer) SetUnavailable(unavailable bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unavailable = unavailable
}

// AccountCount returns the number of accounts created so far
func (m *MockBillingServer) AccountCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.accounts)
}

// LastAccount returns the most recently created account, or nil
func (m *MockBillingServer) LastAccount() *BillingAccount {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.accounts) == 0 {
		return nil
	}
	account := m.accounts[len(m.accounts)-1]
	return &account
}
