package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckUnauthenticated(t *testing.T) {
	a := NewAuthorizer()
	decision := a.Check(UserContext{}, ModuleAgreements, ActionView)
	require.False(t, decision.Allowed)
	assert.Equal(t, GenericRestrictionMessage, decision.Message)
}

func TestCanPerformAction(t *testing.T) {
	a := NewAuthorizer()
	assert.True(t, a.CanPerformAction(testManager, ModuleAgreements, ActionApprove))
	assert.False(t, a.CanPerformAction(testBroker, ModuleAgreements, ActionApprove))
	assert.False(t, a.CanPerformAction(UserContext{}, ModuleAgreements, ActionView))
}

func TestSummaryForProprietario(t *testing.T) {
	a := NewAuthorizer()
	summary := a.Summary(testOwner)

	assert.True(t, summary.CanView)
	assert.True(t, summary.CanSign)
	assert.False(t, summary.CanCreate)
	assert.False(t, summary.CanEdit)
	assert.False(t, summary.CanApprove)
	assert.False(t, summary.CanSendForSignature)
	assert.False(t, summary.IsPlatformRole)
}

func TestSummaryForManager(t *testing.T) {
	a := NewAuthorizer()
	summary := a.Summary(testManager)

	assert.True(t, summary.CanApprove)
	assert.True(t, summary.CanSendForSignature)

	strict := NewAuthorizer(WithStrictApproval())
	assert.False(t, strict.Summary(testManager).CanApprove)
}

func TestSummaryUnauthenticated(t *testing.T) {
	a := NewAuthorizer()
	assert.Equal(t, PermissionsSummary{}, a.Summary(UserContext{}))
}

func TestPermissionsForRole(t *testing.T) {
	a := NewAuthorizer()
	profile := a.PermissionsForRole(RoleAgencyManager)

	assert.Equal(t, RoleAgencyManager, profile.Role)
	assert.Equal(t, RankAgencyManager, profile.Rank)
	assert.False(t, profile.Platform)
	assert.NotEmpty(t, profile.DisplayName)
	require.Len(t, profile.Modules, len(Modules()))

	// Module rows come back in declaration order.
	assert.Equal(t, ModuleDashboard, profile.Modules[0].Module)

	// The profile module gets a row like any other.
	var profileRow ModuleEntry
	for _, entry := range profile.Modules {
		if entry.Module == ModuleProfile {
			profileRow = entry
		}
	}
	assert.Equal(t, ModuleProfile, profileRow.Module)
}

func TestPermissionsForUnknownRole(t *testing.T) {
	a := NewAuthorizer()
	profile := a.PermissionsForRole(Role("SUPERUSER"))

	assert.Zero(t, profile.Rank)
	for _, row := range profile.Modules {
		assert.Equal(t, ModulePermission{}, row.Permission, "module %s", row.Module)
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Agency Manager", displayName("AGENCY_MANAGER"))
	assert.Equal(t, "Tenant Analysis", displayName("tenant_analysis"))
}
