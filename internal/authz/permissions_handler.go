package authz

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/imovia-saas/imovia/internal/platform/httpx"
)

// PermissionsHandler exposes the permission query API: the caller's own
// summary and the static role profiles for admin displays.
type PermissionsHandler struct {
	logger     *slog.Logger
	authorizer *Authorizer
	mw         Middleware
}

// NewPermissionsHandler builds a PermissionsHandler instance.
func NewPermissionsHandler(logger *slog.Logger, authorizer *Authorizer, mw Middleware) *PermissionsHandler {
	return &PermissionsHandler{logger: logger, authorizer: authorizer, mw: mw}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Get("/me", h.mySummary)
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireMinRank(RankAgencyManager))
		r.Get("/roles", h.listRoles)
		r.Get("/roles/{role}", h.roleProfile)
	})
}

func (h *PermissionsHandler) mySummary(w http.ResponseWriter, r *http.Request) {
	ctx := Identity(r)
	if !ctx.Authenticated() {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"role":    ctx.Role,
		"summary": h.authorizer.Summary(ctx),
	})
}

func (h *PermissionsHandler) listRoles(w http.ResponseWriter, r *http.Request) {
	profiles := make([]RolePermissionProfile, 0, len(Roles()))
	for _, role := range Roles() {
		profiles = append(profiles, h.authorizer.PermissionsForRole(role))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": profiles})
}

func (h *PermissionsHandler) roleProfile(w http.ResponseWriter, r *http.Request) {
	role, ok := ParseRole(chi.URLParam(r, "role"))
	if !ok {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown role")
		return
	}
	httpx.JSON(w, http.StatusOK, h.authorizer.PermissionsForRole(role))
}
