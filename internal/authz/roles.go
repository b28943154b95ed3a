package authz

import "strings"

// Hierarchy ranks. The scale is a float so intermediate roles can be slotted
// between existing ones without renumbering: INDEPENDENT_OWNER sits at 5.5,
// between BROKER and PROPRIETARIO.
const (
	RankCEO              = 10.0
	RankAdmin            = 9.0
	RankPlatformManager  = 8.5
	RankAgencyAdmin      = 8.0
	RankAgencyManager    = 7.0
	RankLegalAuditor     = 6.5
	RankBroker           = 6.0
	RankIndependentOwner = 5.5
	RankProprietario     = 5.0
	RankBuildingManager  = 4.0
	RankRepresentative   = 3.0
	RankInquilino        = 2.0
	RankAPIClient        = 1.0
)

var roleRanks = map[Role]float64{
	RoleCEO:              RankCEO,
	RoleAdmin:            RankAdmin,
	RolePlatformManager:  RankPlatformManager,
	RoleAgencyAdmin:      RankAgencyAdmin,
	RoleAgencyManager:    RankAgencyManager,
	RoleLegalAuditor:     RankLegalAuditor,
	RoleBroker:           RankBroker,
	RoleIndependentOwner: RankIndependentOwner,
	RoleProprietario:     RankProprietario,
	RoleBuildingManager:  RankBuildingManager,
	RoleRepresentative:   RankRepresentative,
	RoleInquilino:        RankInquilino,
	RoleAPIClient:        RankAPIClient,
}

// platformRoles bypass ownership scoping entirely.
var platformRoles = map[Role]struct{}{
	RoleCEO:             {},
	RoleAdmin:           {},
	RolePlatformManager: {},
}

// Roles lists every known role ordered by descending rank.
func Roles() []Role {
	return []Role{
		RoleCEO,
		RoleAdmin,
		RolePlatformManager,
		RoleAgencyAdmin,
		RoleAgencyManager,
		RoleLegalAuditor,
		RoleBroker,
		RoleIndependentOwner,
		RoleProprietario,
		RoleBuildingManager,
		RoleRepresentative,
		RoleInquilino,
		RoleAPIClient,
	}
}

// Rank returns the hierarchy rank for a role. ok is false for roles outside
// the closed set; callers must treat such roles as rank-less and deny.
func Rank(role Role) (float64, bool) {
	rank, ok := roleRanks[role]
	return rank, ok
}

// KnownRole reports whether the role belongs to the closed set.
func KnownRole(role Role) bool {
	_, ok := roleRanks[role]
	return ok
}

// Outranks reports whether a ranks strictly above b. Unknown roles never
// outrank anything and are never outranked into a grant.
func Outranks(a, b Role) bool {
	ra, ok := Rank(a)
	if !ok {
		return false
	}
	rb, ok := Rank(b)
	if !ok {
		return false
	}
	return ra > rb
}

// IsPlatformRole reports whether the role is a platform operator role,
// exempt from agency/broker/tenant ownership scoping.
func IsPlatformRole(role Role) bool {
	_, ok := platformRoles[role]
	return ok
}

// ParseRole normalizes a raw role string from the session boundary. Unknown
// values yield ok=false and the zero Role so downstream checks fail closed.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if !KnownRole(role) {
		return "", false
	}
	return role, true
}
