package patient

import (
	"context"
	"time"
)

// RepositoryInterface defines the contract for patient data access
// This allows for easy mocking in tests
type RepositoryInterface interface {
	CreatePatient(ctx context.Context, req PatientRequest, dateOfBirth time.Time) (*PatientResponse, error)
	ListPatients(ctx context.Context) ([]PatientResponse, error)
	GetPatient(ctx context.Context, id string) (*PatientResponse, error)
	UpdatePatient(ctx context.Context, id string, req PatientRequest, dateOfBirth time.Time) (*PatientResponse, error)
	DeletePatient(ctx context.Context, id string) error
	CountPatients(ctx context.Context) (int64, error)
	SearchPatientsByName(ctx context.Context, name string) ([]PatientResponse, error)
	SearchPatients(ctx context.Context, term string) ([]PatientResponse, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	EmailInUseByOther(ctx context.Context, email string, id string) (bool, error)
}

// Ensure Repository implements RepositoryInterface
var _ RepositoryInterface = (*Repository)(nil)
