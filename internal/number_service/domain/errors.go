package domain

import "errors"

var (
	// ErrNotFound indicates that a requested resource was not found.
	ErrNotFound = errors.New("resource not found")
	// ErrNotAssignable is returned when an association transition conflicts with the current binding.
	ErrNotAssignable = errors.New("number is not assignable")
	// ErrNumberDeleted is returned for mutations on a deleted number.
	ErrNumberDeleted = errors.New("number is deleted")
	// ErrInvalidArgument indicates malformed input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUserDisabled is returned when a number would be bound to a disabled account.
	ErrUserDisabled = errors.New("user account is disabled")
	// ErrDuplicateEntry indicates a unique constraint violation.
	ErrDuplicateEntry = errors.New("duplicate entry")
	// ErrInconsistentAssociation is returned when stored association columns disagree with the kind.
	ErrInconsistentAssociation = errors.New("inconsistent association columns")
)
