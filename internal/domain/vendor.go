package domain

import "time"

// Vendor models an external repair provider organization.
type Vendor struct {
	ID        string
	Name      string
	TaxID     string
	Email     string
	Phone     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
