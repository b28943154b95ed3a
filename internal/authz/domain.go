// Package authz implements the Imovia authorization model: the role
// hierarchy, the static per-module permission matrix and the resource-state
// policy that gates the agreement signing workflow. Everything in this
// package is a pure function over its arguments and static tables; unknown
// roles, statuses and missing identities always resolve to a denial.
package authz

// Role identifies one of the closed set of platform roles. Roles are
// assigned by the backend and never mutated here.
type Role string

const (
	RoleCEO              Role = "CEO"
	RoleAdmin            Role = "ADMIN"
	RolePlatformManager  Role = "PLATFORM_MANAGER"
	RoleAgencyAdmin      Role = "AGENCY_ADMIN"
	RoleAgencyManager    Role = "AGENCY_MANAGER"
	RoleLegalAuditor     Role = "LEGAL_AUDITOR"
	RoleBroker           Role = "BROKER"
	RoleIndependentOwner Role = "INDEPENDENT_OWNER"
	RoleProprietario     Role = "PROPRIETARIO"
	RoleBuildingManager  Role = "BUILDING_MANAGER"
	RoleRepresentative   Role = "REPRESENTATIVE"
	RoleInquilino        Role = "INQUILINO"
	RoleAPIClient        Role = "API_CLIENT"
)

// Module names a business area with its own permission table.
type Module string

const (
	ModuleDashboard        Module = "dashboard"
	ModuleProperties       Module = "properties"
	ModuleTenantAnalysis   Module = "tenant_analysis"
	ModulePayments         Module = "payments"
	ModuleInvoices         Module = "invoices"
	ModuleContracts        Module = "contracts"
	ModuleServiceContracts Module = "service_contracts"
	ModuleInspections      Module = "inspections"
	ModuleAgreements       Module = "agreements"
	ModuleReports          Module = "reports"
	ModuleNotifications    Module = "notifications"
	ModuleChat             Module = "chat"
	ModuleProfile          Module = "profile"
	ModuleDocuments        Module = "documents"
)

// Modules lists every recognized module in declaration order.
func Modules() []Module {
	return []Module{
		ModuleDashboard,
		ModuleProperties,
		ModuleTenantAnalysis,
		ModulePayments,
		ModuleInvoices,
		ModuleContracts,
		ModuleServiceContracts,
		ModuleInspections,
		ModuleAgreements,
		ModuleReports,
		ModuleNotifications,
		ModuleChat,
		ModuleProfile,
		ModuleDocuments,
	}
}

// Action enumerates the verbs the permission model reasons about.
type Action string

const (
	ActionView             Action = "VIEW"
	ActionCreate           Action = "CREATE"
	ActionEdit             Action = "EDIT"
	ActionDelete           Action = "DELETE"
	ActionSign             Action = "SIGN"
	ActionApprove          Action = "APPROVE"
	ActionReject           Action = "REJECT"
	ActionCancel           Action = "CANCEL"
	ActionSendForSignature Action = "SEND_FOR_SIGNATURE"
	ActionExport           Action = "EXPORT"
)

// SignatureType names a signer slot on a signable resource.
type SignatureType string

const (
	SignatureTenant  SignatureType = "TENANT"
	SignatureOwner   SignatureType = "OWNER"
	SignatureAgency  SignatureType = "AGENCY"
	SignatureBroker  SignatureType = "BROKER"
	SignatureWitness SignatureType = "WITNESS"
)

// SignatureTypes lists the signer slots in canonical order.
func SignatureTypes() []SignatureType {
	return []SignatureType{
		SignatureTenant,
		SignatureOwner,
		SignatureAgency,
		SignatureBroker,
		SignatureWitness,
	}
}

// ModulePermission is the static capability record for one (role, module)
// pair. Message, when set, explains a denial to the end user.
type ModulePermission struct {
	CanView    bool   `json:"canView"`
	CanCreate  bool   `json:"canCreate"`
	CanEdit    bool   `json:"canEdit"`
	CanDelete  bool   `json:"canDelete"`
	CanSign    bool   `json:"canSign"`
	CanApprove bool   `json:"canApprove"`
	CanExport  bool   `json:"canExport"`
	Message    string `json:"message,omitempty"`
}

// ReadOnly reports whether the record grants no mutating capability.
func (p ModulePermission) ReadOnly() bool {
	return !p.CanCreate && !p.CanEdit && !p.CanDelete
}

// Decision is the outcome of a static permission check. Message is only
// populated on denial and is suitable for direct display.
type Decision struct {
	Allowed bool
	Message string
}

// UserContext is the authenticated identity as seen by this package. It is
// supplied per call by the session layer and never persisted here. A zero
// UserContext represents an unauthenticated caller and denies everything.
type UserContext struct {
	UserID    string
	Role      Role
	AgencyID  string
	BrokerID  string
	LicenseID string
}

// Authenticated reports whether the context carries an identity.
func (c UserContext) Authenticated() bool {
	return c.UserID != "" && c.Role != ""
}

// AgreementStatus enumerates the agreement lifecycle states.
type AgreementStatus string

const (
	StatusRascunho           AgreementStatus = "RASCUNHO"
	StatusPendenteAssinatura AgreementStatus = "PENDENTE_ASSINATURA"
	StatusAtivo              AgreementStatus = "ATIVO"
	StatusAprovado           AgreementStatus = "APROVADO"
	StatusRejeitado          AgreementStatus = "REJEITADO"
	StatusCancelado          AgreementStatus = "CANCELADO"
	StatusEncerrado          AgreementStatus = "ENCERRADO"
)

// AgreementSnapshot is the read-only projection of an agreement that the
// resource-state policy needs. Callers build it from their own data; this
// package never fetches or caches resources.
type AgreementSnapshot struct {
	Status   AgreementStatus
	TenantID string
	OwnerID  string
	AgencyID string
	BrokerID string

	TenantSignature  string
	OwnerSignature   string
	AgencySignature  string
	BrokerSignature  string
	WitnessSignature string
}

// Signature returns the stored signature for the given slot, empty when the
// slot is unsigned or unknown.
func (s AgreementSnapshot) Signature(t SignatureType) string {
	switch t {
	case SignatureTenant:
		return s.TenantSignature
	case SignatureOwner:
		return s.OwnerSignature
	case SignatureAgency:
		return s.AgencySignature
	case SignatureBroker:
		return s.BrokerSignature
	case SignatureWitness:
		return s.WitnessSignature
	default:
		return ""
	}
}
