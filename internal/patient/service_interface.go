package patient

import "context"

// ServiceInterface defines the contract for patient lifecycle operations
// This allows for easy mocking in tests
type ServiceInterface interface {
	CreatePatient(ctx context.Context, req PatientRequest) (*PatientResponse, error)
	GetPatient(ctx context.Context, id string) (*PatientResponse, error)
	ListPatients(ctx context.Context) ([]PatientResponse, error)
	SearchPatients(ctx context.Context, term string) ([]PatientResponse, error)
	SearchPatientsByName(ctx context.Context, name string) ([]PatientResponse, error)
	CountPatients(ctx context.Context) (int64, error)
	UpdatePatient(ctx context.Context, id string, req PatientRequest) (*PatientResponse, error)
	DeletePatient(ctx context.Context, id string) error
}

// Ensure Service implements ServiceInterface
var _ ServiceInterface = (*Service)(nil)
