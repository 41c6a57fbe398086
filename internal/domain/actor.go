package domain

import "time"

// Role enumerates the three actor roles around an incident.
type Role string

const (
	RoleReporter Role = "REPORTER"
	RoleControl  Role = "CONTROL"
	RoleVendor   Role = "VENDOR"
)

// Actor is an already-authenticated caller as seen by the core.
type Actor struct {
	ID   string
	Role Role
	// VendorID is set when Role is VENDOR and ties the account to its vendor
	// organization.
	VendorID *string
}

// IsVendor reports whether the actor acts on behalf of a vendor.
func (a Actor) IsVendor() bool {
	return a.Role == RoleVendor
}

// AccountStatus represents lifecycle states for a login account.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "ACTIVE"
	AccountStatusSuspended AccountStatus = "SUSPENDED"
)

// Account is a login identity mapped to one role.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	VendorID     *string
	Status       AccountStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Token represents issued authentication token metadata.
type Token struct {
	ID        string
	SubjectID string
	Role      Role
	VendorID  *string
	ExpiresAt time.Time
	IssuedAt  time.Time
}
