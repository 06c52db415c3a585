package patient

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const patientColumns = "id, name, address, email, date_of_birth, created_at, updated_at"

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreatePatient inserts a new patient with a fresh id. Email uniqueness is
// enforced by the unique constraint on the patients table, atomically with the
// insert itself; a violation is reported as ErrEmailAlreadyExists.
func (r *Repository) CreatePatient(ctx context.Context, req PatientRequest, dateOfBirth time.Time) (*PatientResponse, error) {
	patientID := uuid.New()
	createdAt := time.Now()

	query := `
		INSERT INTO patients (id, name, address, email, date_of_birth, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + patientColumns

	row := r.db.QueryRowContext(ctx, query,
		patientID,
		req.Name,
		req.Address,
		req.Email,
		dateOfBirth,
		createdAt,
	)

	patient, err := scanPatient(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("failed to insert patient: %w", err)
	}

	return patient, nil
}

// ListPatients returns all patients in insertion order.
func (r *Repository) ListPatients(ctx context.Context) ([]PatientResponse, error) {
	query := `SELECT ` + patientColumns + ` FROM patients ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query patients: %w", err)
	}
	defer rows.Close()

	return collectPatients(rows)
}

func (r *Repository) GetPatient(ctx context.Context, id string) (*PatientResponse, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`

	patient, err := scanPatient(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query patient: %w", err)
	}

	return patient, nil
}

// UpdatePatient overwrites all mutable fields of an existing patient. A missing
// id is reported as ErrPatientNotFound; an email already held by a different
// row trips the unique constraint and is reported as ErrEmailAlreadyExists.
// Updating a row to its own current email does not violate the constraint.
func (r *Repository) UpdatePatient(ctx context.Context, id string, req PatientRequest, dateOfBirth time.Time) (*PatientResponse, error) {
	query := `
		UPDATE patients
		SET name = $1, address = $2, email = $3, date_of_birth = $4, updated_at = $5
		WHERE id = $6
		RETURNING ` + patientColumns

	row := r.db.QueryRowContext(ctx, query,
		req.Name,
		req.Address,
		req.Email,
		dateOfBirth,
		time.Now(),
		id,
	)

	patient, err := scanPatient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}

	return patient, nil
}

// DeletePatient removes a patient. Deleting an id that does not exist is not
// an error; the operation is idempotent.
func (r *Repository) DeletePatient(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	return nil
}

func (r *Repository) CountPatients(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM patients`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count patients: %w", err)
	}
	return count, nil
}

// SearchPatientsByName returns patients whose name contains the given
// substring, case-insensitively.
func (r *Repository) SearchPatientsByName(ctx context.Context, name string) ([]PatientResponse, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE name ILIKE $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, "%"+escapeLike(name)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to search patients by name: %w", err)
	}
	defer rows.Close()

	return collectPatients(rows)
}

// SearchPatients matches the term against name, email or address,
// case-insensitively. A blank term returns all patients.
func (r *Repository) SearchPatients(ctx context.Context, term string) ([]PatientResponse, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return r.ListPatients(ctx)
	}

	query := `
		SELECT ` + patientColumns + `
		FROM patients
		WHERE name ILIKE $1 OR email ILIKE $1 OR address ILIKE $1
		ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, "%"+escapeLike(term)+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to search patients: %w", err)
	}
	defer rows.Close()

	return collectPatients(rows)
}

// EmailExists is an advisory fast-path check used before inserting. It is not
// the uniqueness guarantee; concurrent creates are caught by the constraint.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM patients WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

// EmailInUseByOther reports whether the email belongs to a patient other than
// the given id. Advisory only, like EmailExists.
func (r *Repository) EmailInUseByOther(ctx context.Context, email string, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM patients WHERE email = $1 AND id <> $2)`, email, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return exists, nil
}

// escapeLike neutralizes ILIKE wildcards so a search term matches as a plain
// substring. Postgres treats backslash as the default escape character.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPatient(row rowScanner) (*PatientResponse, error) {
	var patient PatientResponse
	var dob time.Time
	var updatedAt sql.NullTime

	err := row.Scan(
		&patient.ID,
		&patient.Name,
		&patient.Address,
		&patient.Email,
		&dob,
		&patient.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	patient.DateOfBirth = dob.Format("2006-01-02")
	if updatedAt.Valid {
		patient.UpdatedAt = &updatedAt.Time
	}

	return &patient, nil
}

func collectPatients(rows *sql.Rows) ([]PatientResponse, error) {
	var patients []PatientResponse
	for rows.Next() {
		patient, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		patients = append(patients, *patient)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating patients: %w", err)
	}

	return patients, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
