// Package agreements implements the agreement lifecycle: drafting,
// dispatch for signature, per-slot signing, approval and cancellation.
// Every operation is gated by the authorization model in internal/authz.
package agreements

import (
	"time"

	"github.com/google/uuid"

	"github.com/imovia-saas/imovia/internal/authz"
)

// Agreement is the persisted aggregate for a rental/service agreement.
type Agreement struct {
	ID       uuid.UUID
	Number   string
	Title    string
	Terms    string
	Status   authz.AgreementStatus
	AgencyID string
	BrokerID string
	TenantID string
	OwnerID  string

	TenantSignature  string
	OwnerSignature   string
	AgencySignature  string
	BrokerSignature  string
	WitnessSignature string

	EndDate   *time.Time
	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Snapshot projects the agreement into the read-only form the
// authorization policy evaluates.
func (a *Agreement) Snapshot() authz.AgreementSnapshot {
	return authz.AgreementSnapshot{
		Status:           a.Status,
		TenantID:         a.TenantID,
		OwnerID:          a.OwnerID,
		AgencyID:         a.AgencyID,
		BrokerID:         a.BrokerID,
		TenantSignature:  a.TenantSignature,
		OwnerSignature:   a.OwnerSignature,
		AgencySignature:  a.AgencySignature,
		BrokerSignature:  a.BrokerSignature,
		WitnessSignature: a.WitnessSignature,
	}
}

// fullySigned reports whether every mandatory signer slot is populated.
// Broker and witness signatures are optional.
func (a *Agreement) fullySigned() bool {
	return a.TenantSignature != "" && a.OwnerSignature != "" && a.AgencySignature != ""
}
