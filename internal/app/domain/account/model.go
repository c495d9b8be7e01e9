// Package account defines users and their delivery addresses.
package account

import "time"

// Role gates administrative operations such as order status advancement.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is a registered customer or administrator. PasswordHash is a bcrypt
// hash and never leaves the storage layer in API responses.
type User struct {
	ID           string
	Email        string
	Name         string
	Phone        string
	PasswordHash string
	Role         Role
	ReferralCode string
	ReferredBy   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Address is a delivery destination. City and state are free text; the
// delivery fee table decides what they cost to reach. At most one address per
// user is the default.
type Address struct {
	ID        string
	UserID    string
	Label     string
	Street    string
	City      string
	State     string
	Country   string
	Phone     string
	IsDefault bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
