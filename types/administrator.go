package types

import "time"

// DefaultAdminRole is the role stored for administrators provisioned without one.
const DefaultAdminRole = "admin"

// Administrator is an account allowed into the admin panel.
// Administrators are provisioned from the command line, never over HTTP.
type Administrator struct {
	// ID is the unique identifier of the administrator.
	ID int `json:"id" db:"id"`

	// Username is the unique login name.
	Username string `json:"username" db:"username"`

	// PasswordHash stores the bcrypt hash of the password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// Role is returned to the panel on a successful login.
	Role string `json:"role" db:"role"`

	// CreatedAt is the timestamp when the account was provisioned.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
