package authz

import (
	"log/slog"
	"net/http"

	"github.com/imovia-saas/imovia/internal/platform/httpx"
	"github.com/imovia-saas/imovia/internal/shared"
)

// Session value keys under which the auth handler stores the identity.
const (
	SessionKeyRole      = "role"
	SessionKeyAgencyID  = "agency_id"
	SessionKeyBrokerID  = "broker_id"
	SessionKeyLicenseID = "license_id"
)

// IdentityFromSession rebuilds the UserContext from session values. A nil
// session or an unknown stored role yields the zero (unauthenticated)
// context, never an error: permission checks downstream fail closed.
func IdentityFromSession(sess *shared.Session) UserContext {
	if sess == nil {
		return UserContext{}
	}
	role, ok := ParseRole(sess.Get(SessionKeyRole))
	if !ok {
		return UserContext{}
	}
	return UserContext{
		UserID:    sess.User(),
		Role:      role,
		AgencyID:  sess.Get(SessionKeyAgencyID),
		BrokerID:  sess.Get(SessionKeyBrokerID),
		LicenseID: sess.Get(SessionKeyLicenseID),
	}
}

// Identity extracts the UserContext for the current request.
func Identity(r *http.Request) UserContext {
	return IdentityFromSession(shared.SessionFromContext(r.Context()))
}

// DecisionRecorder receives authorization outcomes for metrics.
type DecisionRecorder interface {
	RecordDecision(module, action, outcome string)
}

// Middleware wires authorization helpers for HTTP handlers.
type Middleware struct {
	Authorizer *Authorizer
	Logger     *slog.Logger
	Decisions  DecisionRecorder
}

// RequireAction gates a route on the static capability for (module, action).
// Denials carry the restriction message in the problem detail.
func (m Middleware) RequireAction(module Module, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := Identity(r)
			if !ctx.Authenticated() {
				m.record(module, action, "unauthenticated")
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
				return
			}
			decision := m.Authorizer.Check(ctx, module, action)
			if !decision.Allowed {
				m.record(module, action, "deny")
				if m.Logger != nil {
					m.Logger.Warn("authz deny",
						slog.String("role", string(ctx.Role)),
						slog.String("module", string(module)),
						slog.String("action", string(action)))
				}
				httpx.Problem(w, http.StatusForbidden, "Forbidden", decision.Message)
				return
			}
			m.record(module, action, "allow")
			next.ServeHTTP(w, r)
		})
	}
}

// RequireMinRank gates a route on hierarchy rank, e.g. agency-manager and
// above for administrative listings.
func (m Middleware) RequireMinRank(min float64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := Identity(r)
			if !ctx.Authenticated() {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
				return
			}
			rank, ok := Rank(ctx.Role)
			if !ok || rank < min {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", GenericRestrictionMessage)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) record(module Module, action Action, outcome string) {
	if m.Decisions != nil {
		m.Decisions.RecordDecision(string(module), string(action), outcome)
	}
}
