package auth

import (
	"time"

	"github.com/google/uuid"
)

// User represents an authenticated user account together with the role and
// affiliations the permission layer consumes.
type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	Role         string
	AgencyID     string
	BrokerID     string
	LicenseID    string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
