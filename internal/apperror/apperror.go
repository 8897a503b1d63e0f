// Package apperror defines the domain error taxonomy shared by every layer.
//
// Each error carries one KIND (ErrNotFound, ErrValidation, ...) that callers
// test with errors.Is. Some kinds have named sub-reasons such as
// ErrSelfReview; a sub-reason wraps its kind, so
//
//	errors.Is(err, apperror.ErrSelfReview) // the precise reason
//	errors.Is(err, apperror.ErrForbidden)  // the broad kind, also true
//
// Handlers map kinds to HTTP statuses; the service layer never sees HTTP.
package apperror

import (
	"errors"
	"fmt"
)

// Kinds.
var (
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation error")
	ErrConflict       = errors.New("conflict")
	ErrForbidden      = errors.New("forbidden")
	ErrImmutableField = errors.New("immutable field")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInternal       = errors.New("internal error")
)

// Sub-reasons. Each one wraps exactly one kind.
var (
	ErrOwnerNotFound  = fmt.Errorf("%w: owner", ErrNotFound)
	ErrInvalidAmenity = fmt.Errorf("%w: amenity", ErrNotFound)
	ErrPlaceNotFound  = fmt.Errorf("%w: place", ErrNotFound)
	ErrUserNotFound   = fmt.Errorf("%w: user", ErrNotFound)

	ErrAdminRequired   = fmt.Errorf("%w: admin privileges required", ErrForbidden)
	ErrNotOwner        = fmt.Errorf("%w: not the owner", ErrForbidden)
	ErrForbiddenField  = fmt.Errorf("%w: field may not be changed", ErrForbidden)
	ErrSelfReview      = fmt.Errorf("%w: cannot review your own place", ErrForbidden)
	ErrDuplicateReview = fmt.Errorf("%w: place already reviewed", ErrForbidden)

	ErrDuplicateEmail = fmt.Errorf("%w: email already registered", ErrConflict)
	ErrDuplicateName  = fmt.Errorf("%w: name already in use", ErrConflict)
)

type AppError struct {
	Err     error  // kind or sub-reason sentinel
	Message string // human-readable error message
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// NotFoundBy reports a lookup by an attribute other than the id.
func NotFoundBy(resource, attribute string, value any) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with %s %v", resource, attribute, value),
	}
}

// Missing reports a referenced entity that does not exist, tagged with a
// NotFound sub-reason such as ErrOwnerNotFound.
func Missing(reason error, field, id string) *AppError {
	return &AppError{
		Err:     reason,
		Message: fmt.Sprintf("%s %s does not exist", field, id),
		Field:   field,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(reason error, field, message string) *AppError {
	return &AppError{
		Err:     reason,
		Message: message,
		Field:   field,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// reason is ErrForbidden or one of its sub-reasons.
func Forbidden(reason error, message string) *AppError {
	return &AppError{
		Err:     reason,
		Message: message,
	}
}

// ForbiddenField reports an attempt to change a field the actor may not touch.
func ForbiddenField(field string) *AppError {
	return &AppError{
		Err:     ErrForbiddenField,
		Message: fmt.Sprintf("you are not allowed to modify %s", field),
		Field:   field,
	}
}

func ImmutableField(field string) *AppError {
	return &AppError{
		Err:     ErrImmutableField,
		Message: fmt.Sprintf("%s cannot be changed once set", field),
		Field:   field,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Internal hides cause from the message while keeping it in the chain for logs.
func Internal(op string, cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %s: %w", ErrInternal, op, cause),
		Message: "an internal error occurred",
	}
}

// IsKnown reports whether err already carries a domain kind.
func IsKnown(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}
