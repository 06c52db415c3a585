package testutil

import (
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq"

	"github.com/pm-health/patient-service/internal/db"
)

// SetupTestDB creates a connection to the test database and ensures the
// schema exists. Override the DSN with TEST_DATABASE_URL.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	connStr := os.Getenv("TEST_DATABASE_URL")
	if connStr == "" {
		connStr = "host=localhost port=5432 user=postgres password=postgres dbname=patientservice_test sslmode=disable"
	}

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := conn.Ping(); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	if err := db.EnsureSchema(conn); err != nil {
		t.Fatalf("Failed to ensure test schema: %v", err)
	}

	return conn
}

// CleanupTestDB removes all patient rows between tests
func CleanupTestDB(t *testing.T, conn *sql.DB) {
	t.Helper()

	if _, err := conn.Exec("TRUNCATE TABLE patients"); err != nil {
		t.Logf("Warning: Failed to clean up patients: %v", err)
	}
}
