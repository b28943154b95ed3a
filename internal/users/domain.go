// Package users provides administrative account management: listing agency
// staff and assigning roles within the hierarchy.
package users

import (
	"time"

	"github.com/google/uuid"
)

// User is the administrative view of an account.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	AgencyID  string    `json:"agencyId,omitempty"`
	BrokerID  string    `json:"brokerId,omitempty"`
	LicenseID string    `json:"licenseId,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
