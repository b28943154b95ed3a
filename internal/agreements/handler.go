package agreements

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/imovia-saas/imovia/internal/authz"
	"github.com/imovia-saas/imovia/internal/platform/httpx"
)

// Handler exposes the agreement lifecycle over HTTP.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	mw        authz.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		mw:        mw,
		validator: validator.New(),
	}
}

// MountRoutes registers agreement routes on the provided router. Each route
// is gated on the static capability; resource state and scope are checked
// again in the service.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.mw.RequireAction(authz.ModuleAgreements, authz.ActionView)).Get("/", h.handleList)
	r.With(h.mw.RequireAction(authz.ModuleAgreements, authz.ActionCreate)).Post("/", h.handleCreate)

	r.Route("/{id}", func(r chi.Router) {
		r.With(h.mw.RequireAction(authz.ModuleAgreements, authz.ActionView)).Get("/", h.handleGet)
		r.With(h.mw.RequireAction(authz.ModuleAgreements, authz.ActionEdit)).Put("/", h.handleUpdate)
		r.With(h.mw.RequireAction(authz.ModuleAgreements, authz.ActionDelete)).Delete("/", h.handleDelete)

		r.With(h.mw.RequireAction(authz.ModuleAgreements, authz.ActionSendForSignature)).Post("/send", h.handleSend)
		r.With(h.mw.RequireAction(authz.ModuleAgreements, authz.ActionSign)).Post("/sign", h.handleSign)
		r.With(h.mw.RequireAction(authz.ModuleAgreements, authz.ActionApprove)).Post("/approve", h.handleApprove)
		r.With(h.mw.RequireAction(authz.ModuleAgreements, authz.ActionReject)).Post("/reject", h.handleReject)
		r.With(h.mw.RequireAction(authz.ModuleAgreements, authz.ActionCancel)).Post("/cancel", h.handleCancel)

		r.With(h.mw.RequireAction(authz.ModuleAgreements, authz.ActionView)).Get("/actions", h.handleActions)
		r.With(h.mw.RequireAction(authz.ModuleAgreements, authz.ActionView)).Get("/history", h.handleHistory)
	})
}

type createRequest struct {
	Title    string     `json:"title" validate:"required,min=3"`
	Terms    string     `json:"terms"`
	TenantID string     `json:"tenantId"`
	OwnerID  string     `json:"ownerId"`
	AgencyID string     `json:"agencyId"`
	BrokerID string     `json:"brokerId"`
	EndDate  *time.Time `json:"endDate"`
}

type updateRequest struct {
	Title   string     `json:"title"`
	Terms   string     `json:"terms"`
	EndDate *time.Time `json:"endDate"`
}

type signRequest struct {
	Slot      authz.SignatureType `json:"slot" validate:"required"`
	Signature string              `json:"signature" validate:"required"`
}

type noteRequest struct {
	Note string `json:"note"`
}

type agreementResponse struct {
	ID         uuid.UUID             `json:"id"`
	Number     string                `json:"number"`
	Title      string                `json:"title"`
	Terms      string                `json:"terms,omitempty"`
	Status     authz.AgreementStatus `json:"status"`
	AgencyID   string                `json:"agencyId,omitempty"`
	BrokerID   string                `json:"brokerId,omitempty"`
	TenantID   string                `json:"tenantId,omitempty"`
	OwnerID    string                `json:"ownerId,omitempty"`
	Signatures map[string]bool       `json:"signatures"`
	EndDate    *time.Time            `json:"endDate,omitempty"`
	CreatedAt  time.Time             `json:"createdAt"`
	UpdatedAt  time.Time             `json:"updatedAt"`
}

func toResponse(a *Agreement) agreementResponse {
	snap := a.Snapshot()
	signatures := make(map[string]bool, len(authz.SignatureTypes()))
	for _, slot := range authz.SignatureTypes() {
		signatures[string(slot)] = snap.Signature(slot) != ""
	}
	return agreementResponse{
		ID:         a.ID,
		Number:     a.Number,
		Title:      a.Title,
		Terms:      a.Terms,
		Status:     a.Status,
		AgencyID:   a.AgencyID,
		BrokerID:   a.BrokerID,
		TenantID:   a.TenantID,
		OwnerID:    a.OwnerID,
		Signatures: signatures,
		EndDate:    a.EndDate,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	agreement, err := h.service.Create(r.Context(), authz.Identity(r), CreateInput{
		Title:    req.Title,
		Terms:    req.Terms,
		TenantID: req.TenantID,
		OwnerID:  req.OwnerID,
		AgencyID: req.AgencyID,
		BrokerID: req.BrokerID,
		EndDate:  req.EndDate,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(agreement))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	status := authz.AgreementStatus(r.URL.Query().Get("status"))

	agreements, pagination, err := h.service.List(r.Context(), authz.Identity(r), status, page, perPage)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	items := make([]agreementResponse, 0, len(agreements))
	for i := range agreements {
		items = append(items, toResponse(&agreements[i]))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":      items,
		"pagination": pagination,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	agreement, err := h.service.Get(r.Context(), authz.Identity(r), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(agreement))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	agreement, err := h.service.Update(r.Context(), authz.Identity(r), id, UpdateInput{
		Title:   req.Title,
		Terms:   req.Terms,
		EndDate: req.EndDate,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(agreement))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), authz.Identity(r), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	agreement, err := h.service.SendForSignature(r.Context(), authz.Identity(r), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(agreement))
}

func (h *Handler) handleSign(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req signRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	agreement, err := h.service.Sign(r.Context(), authz.Identity(r), id, req.Slot, req.Signature)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(agreement))
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.service.Approve)
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.service.Reject)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, h.service.Cancel)
}

type resolveFunc func(ctx context.Context, identity authz.UserContext, id uuid.UUID, note string) (*Agreement, error)

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request, fn resolveFunc) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req noteRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
			return
		}
	}
	agreement, err := fn(r.Context(), authz.Identity(r), id, req.Note)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(agreement))
}

func (h *Handler) handleActions(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	menu, err := h.service.Actions(r.Context(), authz.Identity(r), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, menu)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	logs, err := h.service.History(r.Context(), authz.Identity(r), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": logs})
}

func (h *Handler) pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid agreement id", httpx.ErrValidation)
	}
	return id, nil
}
