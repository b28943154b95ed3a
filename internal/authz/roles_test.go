package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankOrdering(t *testing.T) {
	// INDEPENDENT_OWNER sits between PROPRIETARIO and BROKER on the
	// fractional scale.
	owner, ok := Rank(RoleIndependentOwner)
	require.True(t, ok)
	proprietario, _ := Rank(RoleProprietario)
	broker, _ := Rank(RoleBroker)

	assert.Greater(t, owner, proprietario)
	assert.Less(t, owner, broker)
	assert.Equal(t, 5.5, owner)
}

func TestRankUnknownRole(t *testing.T) {
	_, ok := Rank(Role("SUPERUSER"))
	assert.False(t, ok)
	_, ok = Rank(Role(""))
	assert.False(t, ok)
}

func TestRolesDescendingRank(t *testing.T) {
	roles := Roles()
	require.NotEmpty(t, roles)
	prev, _ := Rank(roles[0])
	for _, role := range roles[1:] {
		rank, ok := Rank(role)
		require.True(t, ok, "role %s must be ranked", role)
		assert.Less(t, rank, prev, "role %s out of order", role)
		prev = rank
	}
}

func TestOutranks(t *testing.T) {
	assert.True(t, Outranks(RoleCEO, RoleInquilino))
	assert.True(t, Outranks(RoleBroker, RoleIndependentOwner))
	assert.False(t, Outranks(RoleBroker, RoleBroker))
	assert.False(t, Outranks(RoleInquilino, RoleCEO))
}

func TestOutranksUnknownRoles(t *testing.T) {
	// Unknown roles never outrank and are never outranked into a grant.
	assert.False(t, Outranks(Role("SUPERUSER"), RoleInquilino))
	assert.False(t, Outranks(RoleCEO, Role("SUPERUSER")))
	assert.False(t, Outranks(Role("A"), Role("B")))
}

func TestIsPlatformRole(t *testing.T) {
	assert.True(t, IsPlatformRole(RoleCEO))
	assert.True(t, IsPlatformRole(RoleAdmin))
	assert.True(t, IsPlatformRole(RolePlatformManager))
	assert.False(t, IsPlatformRole(RoleAgencyAdmin))
	assert.False(t, IsPlatformRole(Role("SUPERUSER")))
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole("  broker ")
	require.True(t, ok)
	assert.Equal(t, RoleBroker, role)

	role, ok = ParseRole("proprietario")
	require.True(t, ok)
	assert.Equal(t, RoleProprietario, role)

	_, ok = ParseRole("superuser")
	assert.False(t, ok)
	_, ok = ParseRole("")
	assert.False(t, ok)
}
