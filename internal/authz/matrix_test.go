package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnknownRoleGetsNothing(t *testing.T) {
	for _, module := range Modules() {
		perm := GetModulePermission(Role("SUPERUSER"), module)
		assert.Equal(t, noPermission, perm, "module %s", module)
	}
}

func TestEveryKnownRoleHasTotalMatrix(t *testing.T) {
	// Every (role, module, action) triple must resolve to a definite
	// decision; a denial always carries a displayable message.
	actions := []Action{
		ActionView, ActionCreate, ActionEdit, ActionDelete, ActionSign,
		ActionApprove, ActionReject, ActionCancel, ActionSendForSignature,
		ActionExport,
	}
	for _, role := range Roles() {
		for _, module := range Modules() {
			for _, action := range actions {
				decision := ActionAllowed(role, module, action)
				if !decision.Allowed {
					assert.NotEmpty(t, decision.Message,
						"denial without message: %s %s %s", role, module, action)
				}
			}
		}
	}
}

func TestProprietarioDefaultsToViewOnly(t *testing.T) {
	// Modules without an explicit entry are view-only for the
	// agency-managed owner.
	perm := GetModulePermission(RoleProprietario, ModuleNotifications)
	assert.Equal(t, viewOnlyPermission, perm)
	assert.True(t, IsReadOnlyModule(RoleProprietario, ModuleNotifications))
}

func TestOtherRolesDefaultToFull(t *testing.T) {
	perm := GetModulePermission(RoleAgencyManager, ModuleNotifications)
	assert.Equal(t, fullPermission, perm)

	// Tenants also take the full default outside their override table.
	perm = GetModulePermission(RoleInquilino, ModuleNotifications)
	assert.Equal(t, fullPermission, perm)
}

func TestProprietarioServiceContractCarveOut(t *testing.T) {
	// Owners sign the service contract with their agency themselves.
	perm := GetModulePermission(RoleProprietario, ModuleServiceContracts)
	assert.True(t, perm.CanSign)
	assert.True(t, perm.CanView)
	assert.False(t, perm.CanCreate)
	assert.Empty(t, perm.Message)
}

func TestProprietarioDenialCarriesModuleMessage(t *testing.T) {
	decision := ActionAllowed(RoleProprietario, ModuleProperties, ActionCreate)
	require.False(t, decision.Allowed)
	assert.Equal(t, "Imóveis são gerenciados pela imobiliária", decision.Message)

	decision = ActionAllowed(RoleProprietario, ModuleContracts, ActionSign)
	require.False(t, decision.Allowed)
	assert.Equal(t, "Contratos de aluguel são assinados pela imobiliária em nome do proprietário", decision.Message)
}

func TestInquilinoDenialFallsBackToGenericMessage(t *testing.T) {
	// The tenant's properties entry has no message of its own, so a denial
	// falls back to the generic text rather than the module display message.
	decision := ActionAllowed(RoleInquilino, ModuleProperties, ActionCreate)
	require.False(t, decision.Allowed)
	assert.Equal(t, GenericRestrictionMessage, decision.Message)
}

func TestBrokerNeverApproves(t *testing.T) {
	decision := ActionAllowed(RoleBroker, ModuleAgreements, ActionApprove)
	assert.False(t, decision.Allowed)
	decision = ActionAllowed(RoleBroker, ModuleAgreements, ActionReject)
	assert.False(t, decision.Allowed)

	assert.True(t, ActionAllowed(RoleBroker, ModuleAgreements, ActionSign).Allowed)
	assert.True(t, ActionAllowed(RoleBroker, ModuleContracts, ActionCreate).Allowed)
}

func TestLifecycleVerbsRideOnBaseCapabilities(t *testing.T) {
	// CANCEL follows the delete capability, SEND_FOR_SIGNATURE the edit
	// capability, REJECT the approve capability.
	assert.True(t, ActionAllowed(RoleBroker, ModuleAgreements, ActionCancel).Allowed)
	assert.True(t, ActionAllowed(RoleBroker, ModuleAgreements, ActionSendForSignature).Allowed)
	assert.False(t, ActionAllowed(RoleInquilino, ModuleAgreements, ActionSendForSignature).Allowed)
	assert.False(t, ActionAllowed(RoleProprietario, ModuleAgreements, ActionCancel).Allowed)
}

func TestInquilinoAgreements(t *testing.T) {
	assert.True(t, ActionAllowed(RoleInquilino, ModuleAgreements, ActionView).Allowed)
	assert.True(t, ActionAllowed(RoleInquilino, ModuleAgreements, ActionSign).Allowed)
	assert.False(t, ActionAllowed(RoleInquilino, ModuleAgreements, ActionCreate).Allowed)
	assert.False(t, ActionAllowed(RoleInquilino, ModuleAgreements, ActionExport).Allowed)
}

func TestRestrictionMessage(t *testing.T) {
	assert.Equal(t, "Vistorias são agendadas pela imobiliária", RestrictionMessage(ModuleInspections))
	assert.Equal(t, GenericRestrictionMessage, RestrictionMessage(ModuleDashboard))
	assert.Equal(t, GenericRestrictionMessage, RestrictionMessage(Module("bogus")))
}

func TestReadOnlyHelper(t *testing.T) {
	assert.True(t, ModulePermission{CanView: true, CanSign: true, CanExport: true}.ReadOnly())
	assert.False(t, ModulePermission{CanView: true, CanEdit: true}.ReadOnly())
	assert.False(t, IsReadOnlyModule(RoleAgencyManager, ModuleProperties))
}
