package services

import "errors"

var (
	// ErrAdminEmail is returned when a flow is attempted with the
	// built-in administrator's email (registration, password reset).
	ErrAdminEmail = errors.New("operation not allowed for admin credentials")

	// ErrAccountExists is returned when registration collides with an
	// existing email or phone number.
	ErrAccountExists = errors.New("account with this email or phone already exists")

	// ErrInvalidCredentials is returned for any login failure. Callers
	// must not distinguish unknown email from wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidOTP is returned when a submitted code does not verify.
	ErrInvalidOTP = errors.New("invalid or expired otp")

	// ErrInvalidVerification is returned when a reset request names an
	// unknown verification type or omits the matching identifier.
	ErrInvalidVerification = errors.New("invalid verification type or missing identifier")
)
