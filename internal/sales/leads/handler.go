package leads

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-hq/meridian/internal/platform/httpx"
	"github.com/meridian-hq/meridian/internal/rbac"
	"github.com/meridian-hq/meridian/internal/shared"
)

// Handler exposes the lead funnel endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	rbac     rbac.Middleware
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: mw, validate: validator.New()}
}

// MountRoutes registers lead routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAuth)
	r.Use(h.rbac.RequireAny(shared.PermLeadsView))
	r.Get("/", h.list)
	r.Get("/stats", h.stats)
	r.Get("/{id}", h.get)
	r.Get("/{id}/activities", h.activities)
	r.With(h.rbac.RequireAny(shared.PermLeadsManage)).Post("/", h.create)
	r.With(h.rbac.RequireAny(shared.PermLeadsManage)).Put("/{id}", h.update)
	r.With(h.rbac.RequireAny(shared.PermLeadsManage)).Post("/{id}/activities", h.logActivity)
}

type createLeadRequest struct {
	Name           string  `json:"name" validate:"required,max=200"`
	Company        string  `json:"company" validate:"max=200"`
	Email          string  `json:"email" validate:"omitempty,email"`
	Phone          string  `json:"phone" validate:"max=30"`
	Source         string  `json:"source" validate:"max=100"`
	EstimatedValue float64 `json:"estimated_value" validate:"gte=0"`
	AssignedTo     string  `json:"assigned_to" validate:"omitempty,uuid"`
	Notes          string  `json:"notes" validate:"max=5000"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createLeadRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	lead, err := h.service.Create(r.Context(), sess.UserID(), CreateInput{
		Name:           req.Name,
		Company:        req.Company,
		Email:          req.Email,
		Phone:          req.Phone,
		Source:         req.Source,
		EstimatedValue: req.EstimatedValue,
		AssignedTo:     req.AssignedTo,
		Notes:          req.Notes,
	})
	if err != nil {
		h.respondErr(w, "create lead", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, lead)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	list, err := h.service.List(r.Context(), sess.UserID(), sess.Role())
	if err != nil {
		h.respondErr(w, "list leads", err)
		return
	}
	if list == nil {
		list = []Lead{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	lead, err := h.service.Get(r.Context(), chi.URLParam(r, "id"), sess.UserID(), sess.Role())
	if err != nil {
		h.respondErr(w, "get lead", err)
		return
	}
	httpx.JSON(w, http.StatusOK, lead)
}

type updateLeadRequest struct {
	Name           *string  `json:"name" validate:"omitempty,max=200"`
	Company        *string  `json:"company" validate:"omitempty,max=200"`
	Email          *string  `json:"email" validate:"omitempty,email"`
	Phone          *string  `json:"phone" validate:"omitempty,max=30"`
	Source         *string  `json:"source" validate:"omitempty,max=100"`
	EstimatedValue *float64 `json:"estimated_value" validate:"omitempty,gte=0"`
	Status         *string  `json:"status"`
	Notes          *string  `json:"notes" validate:"omitempty,max=5000"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateLeadRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	input := UpdateInput{
		Name:           req.Name,
		Company:        req.Company,
		Email:          req.Email,
		Phone:          req.Phone,
		Source:         req.Source,
		EstimatedValue: req.EstimatedValue,
		Notes:          req.Notes,
	}
	if req.Status != nil {
		status := Status(*req.Status)
		input.Status = &status
	}

	sess := shared.SessionFromContext(r.Context())
	lead, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), sess.UserID(), sess.Role(), input)
	if err != nil {
		h.respondErr(w, "update lead", err)
		return
	}
	httpx.JSON(w, http.StatusOK, lead)
}

type activityRequest struct {
	Kind string `json:"kind" validate:"required,max=50"`
	Note string `json:"note" validate:"max=5000"`
}

func (h *Handler) logActivity(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	act, err := h.service.LogActivity(r.Context(), chi.URLParam(r, "id"), sess.UserID(), req.Kind, req.Note)
	if err != nil {
		h.respondErr(w, "log lead activity", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, act)
}

func (h *Handler) activities(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Activities(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, "list lead activities", err)
		return
	}
	if list == nil {
		list = []Activity{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	stats, err := h.service.StatsFor(r.Context(), sess.UserID(), sess.Role())
	if err != nil {
		h.respondErr(w, "lead stats", err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) respondErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrInvalidState):
		httpx.Problem(w, http.StatusBadRequest, "Invalid State", err.Error())
	case errors.Is(err, ErrForbidden):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
