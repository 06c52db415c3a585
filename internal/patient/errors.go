package patient

import "errors"

var (
	ErrMissingName        = errors.New("name is required")
	ErrMissingAddress     = errors.New("address is required")
	ErrMissingEmail       = errors.New("email is required")
	ErrMissingDateOfBirth = errors.New("date of birth is required")
	ErrInvalidDateOfBirth = errors.New("date of birth must be a valid YYYY-MM-DD date")
	ErrEmailAlreadyExists = errors.New("a patient with this email already exists")
	ErrPatientNotFound    = errors.New("patient not found")
)

// IsValidationError reports whether err is caused by malformed client input,
// as opposed to a conflict, a missing record or an infrastructure failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingName) ||
		errors.Is(err, ErrMissingAddress) ||
		errors.Is(err, ErrMissingEmail) ||
		errors.Is(err, ErrMissingDateOfBirth) ||
		errors.Is(err, ErrInvalidDateOfBirth)
}
