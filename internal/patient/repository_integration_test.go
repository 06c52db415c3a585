//go:build integration

package patient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pm-health/patient-service/internal/testutil"
)

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("Bad test date %q: %v", value, err)
	}
	return parsed
}

// TestRepository_CreateAndGet tests the full round trip through Postgres
func TestRepository_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	defer testutil.CleanupTestDB(t, db)

	repo := NewRepository(db)
	ctx := context.Background()

	req := PatientRequest{
		Name:        "John Doe",
		Address:     "123 Main St",
		Email:       "john@example.com",
		DateOfBirth: "1980-01-01",
	}

	created, err := repo.CreatePatient(ctx, req, mustDate(t, req.DateOfBirth))
	if err != nil {
		t.Fatalf("Failed to create patient: %v", err)
	}
	if created.ID == "" {
		t.Fatal("Expected generated patient ID")
	}
	if created.DateOfBirth != "1980-01-01" {
		t.Errorf("Expected date of birth '1980-01-01', got '%s'", created.DateOfBirth)
	}
	if created.UpdatedAt != nil {
		t.Error("Expected nil UpdatedAt on a fresh record")
	}

	fetched, err := repo.GetPatient(ctx, created.ID)
	if err != nil {
		t.Fatalf("Failed to get patient: %v", err)
	}
	if fetched.Email != "john@example.com" {
		t.Errorf("Expected email 'john@example.com', got '%s'", fetched.Email)
	}
}

// TestRepository_DuplicateEmail tests that the unique constraint maps to the
// duplicate-email error.
func TestRepository_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	defer testutil.CleanupTestDB(t, db)

	repo := NewRepository(db)
	ctx := context.Background()

	req := PatientRequest{
		Name:        "John Doe",
		Address:     "123 Main St",
		Email:       "dup@example.com",
		DateOfBirth: "1980-01-01",
	}

	if _, err := repo.CreatePatient(ctx, req, mustDate(t, req.DateOfBirth)); err != nil {
		t.Fatalf("Failed to create first patient: %v", err)
	}

	req.Name = "Someone Else"
	_, err := repo.CreatePatient(ctx, req, mustDate(t, req.DateOfBirth))
	if !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("Expected ErrEmailAlreadyExists, got: %v", err)
	}
}

// TestRepository_ConcurrentDuplicateEmail tests that the unique constraint,
// not any pre-check, carries correctness: of N simultaneous creates with the
// same email exactly one wins and the rest get the duplicate error.
func TestRepository_ConcurrentDuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	defer testutil.CleanupTestDB(t, db)

	repo := NewRepository(db)
	ctx := context.Background()
	dob := mustDate(t, "1980-01-01")

	const workers = 8
	results := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = repo.CreatePatient(ctx, PatientRequest{
				Name:        fmt.Sprintf("Racer %d", i),
				Address:     "1 Race St",
				Email:       "race@example.com",
				DateOfBirth: "1980-01-01",
			}, dob)
		}(i)
	}
	wg.Wait()

	successes := 0
	for i, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrEmailAlreadyExists):
		default:
			t.Errorf("Worker %d: expected nil or ErrEmailAlreadyExists, got: %v", i, err)
		}
	}
	if successes != 1 {
		t.Errorf("Expected exactly 1 successful create, got %d", successes)
	}

	count, err := repo.CountPatients(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected exactly 1 stored row, got %d", count)
	}
}

// TestRepository_GetPatient_NotFound tests the not-found mapping
func TestRepository_GetPatient_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	defer testutil.CleanupTestDB(t, db)

	repo := NewRepository(db)

	_, err := repo.GetPatient(context.Background(), "00000000-0000-0000-0000-000000000000")
	if !errors.Is(err, ErrPatientNotFound) {
		t.Fatalf("Expected ErrPatientNotFound, got: %v", err)
	}
}

// TestRepository_Update tests the whole-record overwrite, including keeping
// the record's own email.
func TestRepository_Update(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	defer testutil.CleanupTestDB(t, db)

	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.CreatePatient(ctx, PatientRequest{
		Name:        "John Doe",
		Address:     "123 Main St",
		Email:       "john@example.com",
		DateOfBirth: "1980-01-01",
	}, mustDate(t, "1980-01-01"))
	if err != nil {
		t.Fatalf("Failed to create patient: %v", err)
	}

	// Keeping the same email must not conflict with the record itself.
	updated, err := repo.UpdatePatient(ctx, created.ID, PatientRequest{
		Name:        "John Q. Doe",
		Address:     "456 Oak Ave",
		Email:       "john@example.com",
		DateOfBirth: "1980-01-01",
	}, mustDate(t, "1980-01-01"))
	if err != nil {
		t.Fatalf("Failed to update patient: %v", err)
	}
	if updated.Name != "John Q. Doe" {
		t.Errorf("Expected updated name, got '%s'", updated.Name)
	}
	if updated.UpdatedAt == nil {
		t.Error("Expected UpdatedAt to be set after update")
	}
}

// TestRepository_Update_NotFound tests updating a missing record
func TestRepository_Update_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	defer testutil.CleanupTestDB(t, db)

	repo := NewRepository(db)

	_, err := repo.UpdatePatient(context.Background(), "00000000-0000-0000-0000-000000000000", PatientRequest{
		Name:        "Nobody",
		Address:     "Nowhere",
		Email:       "nobody@example.com",
		DateOfBirth: "1980-01-01",
	}, mustDate(t, "1980-01-01"))
	if !errors.Is(err, ErrPatientNotFound) {
		t.Fatalf("Expected ErrPatientNotFound, got: %v", err)
	}
}

// TestRepository_Delete_Idempotent tests that deleting twice succeeds
func TestRepository_Delete_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	defer testutil.CleanupTestDB(t, db)

	repo := NewRepository(db)
	ctx := context.Background()

	created, err := repo.CreatePatient(ctx, PatientRequest{
		Name:        "John Doe",
		Address:     "123 Main St",
		Email:       "john@example.com",
		DateOfBirth: "1980-01-01",
	}, mustDate(t, "1980-01-01"))
	if err != nil {
		t.Fatalf("Failed to create patient: %v", err)
	}

	if err := repo.DeletePatient(ctx, created.ID); err != nil {
		t.Fatalf("First delete failed: %v", err)
	}
	if err := repo.DeletePatient(ctx, created.ID); err != nil {
		t.Fatalf("Second delete should be a no-op, got: %v", err)
	}

	if _, err := repo.GetPatient(ctx, created.ID); !errors.Is(err, ErrPatientNotFound) {
		t.Fatalf("Expected ErrPatientNotFound after delete, got: %v", err)
	}
}

// TestRepository_Search tests case-insensitive substring matching
func TestRepository_Search(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	defer testutil.CleanupTestDB(t, db)

	repo := NewRepository(db)
	ctx := context.Background()

	seed := []PatientRequest{
		{Name: "Bob Martin", Address: "1 First St", Email: "Bob@Example.com", DateOfBirth: "1970-01-01"},
		{Name: "Alice Wong", Address: "2 Second St", Email: "alice@test.org", DateOfBirth: "1985-06-15"},
	}
	for _, req := range seed {
		if _, err := repo.CreatePatient(ctx, req, mustDate(t, req.DateOfBirth)); err != nil {
			t.Fatalf("Failed to seed patient %s: %v", req.Email, err)
		}
	}

	byName, err := repo.SearchPatientsByName(ctx, "bob")
	if err != nil {
		t.Fatalf("Search by name failed: %v", err)
	}
	if len(byName) != 1 || byName[0].Name != "Bob Martin" {
		t.Errorf("Expected Bob Martin for 'bob', got %+v", byName)
	}

	byTerm, err := repo.SearchPatients(ctx, "EXAMPLE")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(byTerm) != 1 || byTerm[0].Email != "Bob@Example.com" {
		t.Errorf("Expected email match for 'EXAMPLE', got %+v", byTerm)
	}

	all, err := repo.SearchPatients(ctx, "  ")
	if err != nil {
		t.Fatalf("Blank search failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected blank search to list all 2 patients, got %d", len(all))
	}
}

// TestRepository_Search_WildcardLiteral tests that pattern characters in a
// term match literally instead of as wildcards.
func TestRepository_Search_WildcardLiteral(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	defer testutil.CleanupTestDB(t, db)

	repo := NewRepository(db)
	ctx := context.Background()

	seed := []PatientRequest{
		{Name: "100% Care Clinic Contact", Address: "1 First St", Email: "percent@example.com", DateOfBirth: "1970-01-01"},
		{Name: "1000 Care Contact", Address: "2 Second St", Email: "thousand@example.com", DateOfBirth: "1985-06-15"},
	}
	for _, req := range seed {
		if _, err := repo.CreatePatient(ctx, req, mustDate(t, req.DateOfBirth)); err != nil {
			t.Fatalf("Failed to seed patient %s: %v", req.Email, err)
		}
	}

	matches, err := repo.SearchPatientsByName(ctx, "100%")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Email != "percent@example.com" {
		t.Errorf("Expected only the literal '100%%' name to match, got %+v", matches)
	}
}

// TestRepository_Count tests that count matches the listing
func TestRepository_Count(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()
	defer testutil.CleanupTestDB(t, db)

	repo := NewRepository(db)
	ctx := context.Background()

	for i, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		req := PatientRequest{
			Name:        "Patient",
			Address:     "Somewhere",
			Email:       email,
			DateOfBirth: "1980-01-01",
		}
		if _, err := repo.CreatePatient(ctx, req, mustDate(t, req.DateOfBirth)); err != nil {
			t.Fatalf("Failed to seed patient %d: %v", i, err)
		}
	}

	count, err := repo.CountPatients(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}

	listed, err := repo.ListPatients(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if count != int64(len(listed)) {
		t.Errorf("Expected count %d to match listing length %d", count, len(listed))
	}

	exists, err := repo.EmailExists(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("EmailExists failed: %v", err)
	}
	if !exists {
		t.Error("Expected a@example.com to exist")
	}
}
