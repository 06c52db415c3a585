package patient

import "time"

// PatientRequest is the request body for creating a patient. Updates use the
// same shape: an update overwrites the whole record, partial updates are not
// supported.
type PatientRequest struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	Email       string `json:"email"`
	DateOfBirth string `json:"date_of_birth"` // Format: YYYY-MM-DD
}

// Validate checks that every field required for a whole-record write is present.
func (r PatientRequest) Validate() error {
	if r.Name == "" {
		return ErrMissingName
	}
	if r.Address == "" {
		return ErrMissingAddress
	}
	if r.Email == "" {
		return ErrMissingEmail
	}
	if r.DateOfBirth == "" {
		return ErrMissingDateOfBirth
	}
	return nil
}

// PatientResponse represents the patient data returned to clients
type PatientResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Address     string     `json:"address"`
	Email       string     `json:"email"`
	DateOfBirth string     `json:"date_of_birth"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}
