package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/imovia-saas/imovia/internal/authz"
	"github.com/imovia-saas/imovia/internal/platform/httpx"
	"github.com/imovia-saas/imovia/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	authorizer     *authz.Authorizer
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, authorizer *authz.Authorizer, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		authorizer:     authorizer,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/session", h.handleSession)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type sessionResponse struct {
	UserID    string                   `json:"userId"`
	Name      string                   `json:"name"`
	Email     string                   `json:"email"`
	Role      authz.Role               `json:"role"`
	CSRFToken string                   `json:"csrfToken,omitempty"`
	Summary   authz.PermissionsSummary `json:"permissions"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "Email ou senha inválidos")
		return
	}

	role, ok := authz.ParseRole(user.Role)
	if !ok {
		// Accounts with a role outside the closed set never get a session.
		h.logger.Warn("login with unknown role", slog.String("role", user.Role))
		httpx.Problem(w, http.StatusForbidden, "Forbidden", authz.GenericRestrictionMessage)
		return
	}

	sess.SetUser(user.ID.String())
	sess.Set(authz.SessionKeyRole, string(role))
	sess.Set(authz.SessionKeyAgencyID, user.AgencyID)
	sess.Set(authz.SessionKeyBrokerID, user.BrokerID)
	sess.Set(authz.SessionKeyLicenseID, user.LicenseID)

	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)

	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}

	identity := authz.IdentityFromSession(sess)
	httpx.JSON(w, http.StatusOK, sessionResponse{
		UserID:    user.ID.String(),
		Name:      user.Name,
		Email:     user.Email,
		Role:      role,
		CSRFToken: csrfToken,
		Summary:   h.authorizer.Summary(identity),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// LoginForTest exposes the login handler for tests.
func (h *Handler) LoginForTest(w http.ResponseWriter, r *http.Request) {
	h.handleLogin(w, r)
}

// SessionForTest exposes the session handler for tests.
func (h *Handler) SessionForTest(w http.ResponseWriter, r *http.Request) {
	h.handleSession(w, r)
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	identity := authz.IdentityFromSession(sess)
	if !identity.Authenticated() {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	httpx.JSON(w, http.StatusOK, sessionResponse{
		UserID:  identity.UserID,
		Role:    identity.Role,
		Summary: h.authorizer.Summary(identity),
	})
}
