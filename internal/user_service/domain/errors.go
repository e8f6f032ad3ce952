package domain

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("user account is disabled")
	ErrTokenInvalid       = errors.New("token is invalid or expired")
	ErrRoleNotFound       = errors.New("role not found")
	ErrOTPInvalid         = errors.New("otp is invalid or expired")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOTPThrottled       = errors.New("too many otp requests, try again later")
	// ErrOwnershipConflict is returned when a user still owns a number that a replacement set leaves out.
	ErrOwnershipConflict = errors.New("user owns numbers outside the requested set")
)
