package authz

// GenericRestrictionMessage is shown when a denial has no module-specific
// explanation.
const GenericRestrictionMessage = "Esta ação é realizada pela imobiliária em seu nome"

var (
	fullPermission = ModulePermission{
		CanView:    true,
		CanCreate:  true,
		CanEdit:    true,
		CanDelete:  true,
		CanSign:    true,
		CanApprove: true,
		CanExport:  true,
	}

	viewOnlyPermission = ModulePermission{CanView: true}

	noPermission = ModulePermission{}
)

// proprietarioMatrix lists the explicit overrides for the agency-managed
// owner role. Anything not listed falls back to the restricted view-only
// default: a PROPRIETARIO delegates to their agency unless a module says
// otherwise.
var proprietarioMatrix = map[Module]ModulePermission{
	ModuleDashboard: {CanView: true},
	ModuleProperties: {
		CanView: true, CanExport: true,
		Message: "Imóveis são gerenciados pela imobiliária",
	},
	ModuleTenantAnalysis: {
		CanView: true,
		Message: "A análise de inquilinos é conduzida pela imobiliária",
	},
	ModulePayments: {
		CanView: true, CanExport: true,
		Message: "Pagamentos são processados pela imobiliária",
	},
	ModuleInvoices: {
		CanView: true, CanExport: true,
		Message: "Faturas são emitidas pela imobiliária",
	},
	ModuleContracts: {
		CanView: true, CanExport: true,
		Message: "Contratos de aluguel são assinados pela imobiliária em nome do proprietário",
	},
	// Owners sign only the service contract with the agency, never the
	// rental contracts managed on their behalf.
	ModuleServiceContracts: {
		CanView: true, CanSign: true, CanExport: true,
	},
	ModuleInspections: {
		CanView: true,
		Message: "Vistorias são agendadas pela imobiliária",
	},
	ModuleAgreements: {
		CanView: true, CanSign: true,
		Message: "Acordos são intermediados pela imobiliária",
	},
	ModuleReports: {CanView: true, CanExport: true},
}

// inquilinoMatrix lists the explicit overrides for tenants. Unlisted
// modules take the permissive full default like every other role.
var inquilinoMatrix = map[Module]ModulePermission{
	ModuleProperties:     {CanView: true},
	ModuleContracts:      {CanView: true, CanSign: true, CanExport: true},
	ModuleAgreements:     {CanView: true, CanSign: true},
	ModulePayments:       {CanView: true, CanCreate: true, CanExport: true},
	ModuleTenantAnalysis: {CanView: true, CanCreate: true},
	ModuleInspections:    {CanView: true},
}

// brokerMatrix curtails brokers on the workflow modules they operate in:
// they draft and sign but never approve.
var brokerMatrix = map[Module]ModulePermission{
	ModuleAgreements: {
		CanView: true, CanCreate: true, CanEdit: true, CanDelete: true,
		CanSign: true, CanExport: true,
	},
	ModuleContracts: {
		CanView: true, CanCreate: true, CanEdit: true, CanDelete: true,
		CanSign: true, CanExport: true,
	},
}

// overrideMatrices maps roles to their module override tables. Roles absent
// here have no overrides at all.
var overrideMatrices = map[Role]map[Module]ModulePermission{
	RoleProprietario: proprietarioMatrix,
	RoleInquilino:    inquilinoMatrix,
	RoleBroker:       brokerMatrix,
}

// moduleMessages carries the canned per-module denial explanations used for
// display when no role-specific message applies.
var moduleMessages = map[Module]string{
	ModuleProperties:     "Imóveis são gerenciados pela imobiliária",
	ModuleTenantAnalysis: "A análise de inquilinos é conduzida pela imobiliária",
	ModulePayments:       "Pagamentos são processados pela imobiliária",
	ModuleInvoices:       "Faturas são emitidas pela imobiliária",
	ModuleContracts:      "Contratos de aluguel são assinados pela imobiliária em nome do proprietário",
	ModuleInspections:    "Vistorias são agendadas pela imobiliária",
	ModuleAgreements:     "Acordos são intermediados pela imobiliária",
}

// GetModulePermission returns the configured permissions for (role, module).
//
// Two default tiers apply to unlisted modules. PROPRIETARIO falls back to a
// restricted view-only record; every other known role falls back to the full
// record. The asymmetry is intentional product behavior: agency-managed
// owners are subordinate to their agency by default while all other roles
// are unrestricted unless explicitly curtailed. Unknown roles get nothing.
func GetModulePermission(role Role, module Module) ModulePermission {
	if !KnownRole(role) {
		return noPermission
	}
	if overrides, ok := overrideMatrices[role]; ok {
		if perm, ok := overrides[module]; ok {
			return perm
		}
	}
	if role == RoleProprietario {
		return viewOnlyPermission
	}
	return fullPermission
}

// IsReadOnlyModule reports whether the module is restricted to read-only for
// the agency-managed owner role.
func IsReadOnlyModule(role Role, module Module) bool {
	if role != RoleProprietario {
		return false
	}
	return GetModulePermission(role, module).ReadOnly()
}

// RestrictionMessage returns the canned denial explanation for a module,
// falling back to the generic message. Display only; never consulted for
// access decisions.
func RestrictionMessage(module Module) string {
	if msg, ok := moduleMessages[module]; ok {
		return msg
	}
	return GenericRestrictionMessage
}

// ActionAllowed maps an action onto the corresponding capability bit for
// (role, module). On denial the decision carries the role's module message
// when one is configured, otherwise the generic restriction message.
func ActionAllowed(role Role, module Module, action Action) Decision {
	perm := GetModulePermission(role, module)
	if permissionBit(perm, action) {
		return Decision{Allowed: true}
	}
	msg := perm.Message
	if msg == "" {
		msg = GenericRestrictionMessage
	}
	return Decision{Allowed: false, Message: msg}
}

// permissionBit resolves an action to its capability field. Lifecycle verbs
// without a dedicated bit ride on the capability that governs the same kind
// of mutation: REJECT on approve, CANCEL on delete, SEND_FOR_SIGNATURE on
// edit.
func permissionBit(perm ModulePermission, action Action) bool {
	switch action {
	case ActionView:
		return perm.CanView
	case ActionCreate:
		return perm.CanCreate
	case ActionEdit:
		return perm.CanEdit
	case ActionDelete:
		return perm.CanDelete
	case ActionSign:
		return perm.CanSign
	case ActionApprove, ActionReject:
		return perm.CanApprove
	case ActionCancel:
		return perm.CanDelete
	case ActionSendForSignature:
		return perm.CanEdit
	case ActionExport:
		return perm.CanExport
	default:
		return false
	}
}
