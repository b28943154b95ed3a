package authz

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Authorizer is the single entry surface consuming code calls. It is
// stateless apart from policy knobs fixed at construction, so one instance
// serves the whole process.
type Authorizer struct {
	strictApproval bool
}

// Option customizes an Authorizer.
type Option func(*Authorizer)

// WithStrictApproval requires approvers to rank strictly above the agency
// manager instead of at-or-above. Whether approval belongs to the manager
// rank itself is contested product behavior, so both readings are
// supported.
func WithStrictApproval() Option {
	return func(a *Authorizer) { a.strictApproval = true }
}

// NewAuthorizer constructs an Authorizer.
func NewAuthorizer(opts ...Option) *Authorizer {
	a := &Authorizer{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CanPerformAction is the role-level static check with no resource in play,
// e.g. "can this role ever sign anything in this module".
func (a *Authorizer) CanPerformAction(ctx UserContext, module Module, action Action) bool {
	if !ctx.Authenticated() {
		return false
	}
	return ActionAllowed(ctx.Role, module, action).Allowed
}

// Check returns the full decision, including the restriction message on
// denial, for callers that surface the explanation to the user.
func (a *Authorizer) Check(ctx UserContext, module Module, action Action) Decision {
	if !ctx.Authenticated() {
		return Decision{Allowed: false, Message: GenericRestrictionMessage}
	}
	return ActionAllowed(ctx.Role, module, action)
}

// ModuleEntry is one row of a role's static permission profile.
type ModuleEntry struct {
	Module      Module           `json:"module"`
	DisplayName string           `json:"displayName"`
	Permission  ModulePermission `json:"permission"`
	ReadOnly    bool             `json:"readOnly"`
}

// RolePermissionProfile is the full static profile for a role across all
// modules, used by admin-facing "what can role X do" displays.
type RolePermissionProfile struct {
	Role        Role            `json:"role"`
	DisplayName string          `json:"displayName"`
	Rank        float64         `json:"rank"`
	Platform    bool            `json:"platform"`
	Modules     []ModuleEntry `json:"modules"`
}

var titleCaser = cases.Title(language.BrazilianPortuguese)

// displayName renders an enum identifier like AGENCY_MANAGER or
// tenant_analysis for human consumption.
func displayName(raw string) string {
	return titleCaser.String(strings.ReplaceAll(strings.ToLower(raw), "_", " "))
}

// PermissionsForRole returns the static profile for a role across every
// module, in module declaration order. Unknown roles get a profile with
// every capability denied.
func (a *Authorizer) PermissionsForRole(role Role) RolePermissionProfile {
	rank, _ := Rank(role)
	profile := RolePermissionProfile{
		Role:        role,
		DisplayName: displayName(string(role)),
		Rank:        rank,
		Platform:    IsPlatformRole(role),
	}
	for _, module := range Modules() {
		profile.Modules = append(profile.Modules, ModuleEntry{
			Module:      module,
			DisplayName: displayName(string(module)),
			Permission:  GetModulePermission(role, module),
			ReadOnly:    IsReadOnlyModule(role, module),
		})
	}
	return profile
}
