package domain

import "time"

// Center represents a reporting center or institution.
type Center struct {
	ID        string
	Name      string
	Address   string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
