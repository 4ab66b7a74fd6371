package types

import "time"

// Roles assignable to an account. The built-in administrator also uses
// RoleAdmin but never exists as a User row.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a stored account.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the display name chosen at registration.
	Username string `json:"username" db:"username"`

	// Email is the user's email address, unique across accounts.
	Email string `json:"email" db:"email"`

	// PhoneNumber is the user's phone number with country code,
	// unique across accounts.
	PhoneNumber string `json:"phonenumber" db:"phone_number"`

	// Role indicates the user's authorization level ("admin", "user").
	Role string `json:"role" db:"role"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
