package application

import "errors"

var (
	// ErrUnauthorized is passed through when the identity collaborator denies
	// the acting principal; the engines never generate it themselves.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a write collides with an existing
	// record, such as an overlapping sanction.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrPolicyViolation is returned when a business rule rejects the
	// operation: wrong slot count, disallowed status transition, edit
	// outside the allowed window.
	ErrPolicyViolation = errors.New("application: policy violation")
	// ErrSanctionBlocked is returned when a participant is under an active
	// sanction and therefore ineligible to book.
	ErrSanctionBlocked = errors.New("application: participant sanctioned")
	// ErrSlotConflict is returned when an active reservation already
	// occupies the requested room, date and slot.
	ErrSlotConflict = errors.New("application: slot already booked")
)

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// policyError wraps ErrPolicyViolation with a human-readable reason.
type policyError struct {
	reason string
}

func policyViolation(reason string) error {
	return &policyError{reason: reason}
}

func (e *policyError) Error() string {
	return "policy violation: " + e.reason
}

func (e *policyError) Unwrap() error {
	return ErrPolicyViolation
}
