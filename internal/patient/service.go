package patient

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pm-health/patient-service/internal/billing"
	"github.com/pm-health/patient-service/internal/messaging"
	"github.com/pm-health/patient-service/internal/telemetry"
)

// Service sequences the patient lifecycle across the store, the billing
// provisioning client and the event publisher. It owns no state of its own.
//
// The create pipeline is: store insert, then a blocking billing call, then a
// best-effort publish, in that fixed order. There is no checkpointing between
// the steps: if the billing call fails, the patient row stays persisted with
// no billing account and no event, and recovering that record is an operator
// concern (manual reconciliation or an explicit retry). No compensating
// delete, retry or outbox is performed here.
type Service struct {
	repo    RepositoryInterface
	billing billing.ClientInterface
	events  messaging.PublisherInterface
	metrics *telemetry.Metrics
}

// NewService creates a patient service wired to its three collaborators.
func NewService(repo RepositoryInterface, billingClient billing.ClientInterface, events messaging.PublisherInterface) *Service {
	return NewServiceWithMetrics(repo, billingClient, events, nil)
}

// NewServiceWithMetrics creates a patient service with metrics recording.
// metrics may be nil.
func NewServiceWithMetrics(repo RepositoryInterface, billingClient billing.ClientInterface, events messaging.PublisherInterface, metrics *telemetry.Metrics) *Service {
	return &Service{
		repo:    repo,
		billing: billingClient,
		events:  events,
		metrics: metrics,
	}
}

// CreatePatient persists a new patient, provisions its billing account and
// publishes a patient.created event.
//
// A duplicate email aborts before the billing call. A billing failure
// propagates to the caller as-is while the patient row stays persisted, and
// the event is never published. A publish failure is logged and swallowed:
// the creation is still reported as successful.
func (s *Service) CreatePatient(ctx context.Context, req PatientRequest) (*PatientResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	dateOfBirth, err := parseDateOfBirth(req.DateOfBirth)
	if err != nil {
		return nil, err
	}

	// Advisory fast path; the unique constraint on the store is what actually
	// guarantees uniqueness under concurrent creates.
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailAlreadyExists
	}

	created, err := s.repo.CreatePatient(ctx, req, dateOfBirth)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	err = s.billing.CreateBillingAccount(ctx, created.ID, created.Name, created.Email)
	if s.metrics != nil {
		s.metrics.RecordBillingCall(ctx, float64(time.Since(start).Milliseconds()), err == nil)
	}
	if err != nil {
		log.Printf("Billing provisioning failed for patient %s, record kept for reconciliation: %v", created.ID, err)
		return nil, err
	}

	s.publishPatientCreated(ctx, created)

	return created, nil
}

// publishPatientCreated sends the patient.created event. Failures are logged
// and never surfaced: a broker outage must not fail the request.
func (s *Service) publishPatientCreated(ctx context.Context, p *PatientResponse) {
	if s.events == nil {
		return
	}

	event := messaging.NewPatientCreatedEvent(p.ID, p.Name, p.Email, p.CreatedAt)
	if err := s.events.Publish(ctx, messaging.EventPatientCreated, event); err != nil {
		log.Printf("Warning: failed to publish %s event for patient %s: %v", messaging.EventPatientCreated, p.ID, err)
		if s.metrics != nil {
			s.metrics.RecordPublishFailure(ctx, messaging.EventPatientCreated)
		}
	}
}

func (s *Service) GetPatient(ctx context.Context, id string) (*PatientResponse, error) {
	return s.repo.GetPatient(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context) ([]PatientResponse, error) {
	patients, err := s.repo.ListPatients(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

// SearchPatients matches the term against name, email and address. A blank
// term falls back to listing all patients.
func (s *Service) SearchPatients(ctx context.Context, term string) ([]PatientResponse, error) {
	patients, err := s.repo.SearchPatients(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("failed to search patients: %w", err)
	}
	return patients, nil
}

func (s *Service) SearchPatientsByName(ctx context.Context, name string) ([]PatientResponse, error) {
	patients, err := s.repo.SearchPatientsByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to search patients by name: %w", err)
	}
	return patients, nil
}

func (s *Service) CountPatients(ctx context.Context) (int64, error) {
	count, err := s.repo.CountPatients(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count patients: %w", err)
	}
	return count, nil
}

// UpdatePatient overwrites all four mutable fields of an existing patient.
// Fetch, construct the updated value, persist: the stored row is never
// mutated in place. Updates have no billing or publish side effects.
func (s *Service) UpdatePatient(ctx context.Context, id string, req PatientRequest) (*PatientResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	dateOfBirth, err := parseDateOfBirth(req.DateOfBirth)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.GetPatient(ctx, id); err != nil {
		return nil, err
	}

	// Advisory, like the create pre-check. A record may keep its own email.
	inUse, err := s.repo.EmailInUseByOther(ctx, req.Email, id)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if inUse {
		return nil, ErrEmailAlreadyExists
	}

	updated, err := s.repo.UpdatePatient(ctx, id, req, dateOfBirth)
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeletePatient removes the patient record. Deletion is idempotent and has no
// billing or publish side effects; a previously provisioned billing account
// and previously published events are left as they are.
func (s *Service) DeletePatient(ctx context.Context, id string) error {
	if err := s.repo.DeletePatient(ctx, id); err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	return nil
}

func parseDateOfBirth(value string) (time.Time, error) {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateOfBirth, value)
	}
	return parsed, nil
}
