package customers

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

// Handler exposes customer account endpoints.
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

// MountRoutes registers customer routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAuth)
	r.Use(h.rbac.RequireAny(shared.PermCustomersView))
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.With(h.rbac.RequireAny(shared.PermCustomersManage)).Post("/", h.create)
	r.With(h.rbac.RequireAny(shared.PermCustomersManage)).Post("/convert/{leadID}", h.convert)
	r.With(h.rbac.RequireAny(shared.PermCustomersManage)).Put("/{id}", h.update)
}

type createCustomerRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Company string `json:"company" validate:"max=200"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"max=30"`
	Notes   string `json:"notes" validate:"max=5000"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	c, err := h.service.Create(r.Context(), sess.UserID(), CreateInput{
		Name:    req.Name,
		Company: req.Company,
		Email:   req.Email,
		Phone:   req.Phone,
		Notes:   req.Notes,
	})
	if err != nil {
		h.respondErr(w, "create customer", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) convert(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	c, err := h.service.ConvertLead(r.Context(), chi.URLParam(r, "leadID"), sess.UserID(), sess.Role())
	if err != nil {
		h.respondErr(w, "convert lead", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	list, err := h.service.List(r.Context(), sess.UserID(), sess.Role())
	if err != nil {
		h.respondErr(w, "list customers", err)
		return
	}
	if list == nil {
		list = []Customer{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	c, err := h.service.Get(r.Context(), chi.URLParam(r, "id"), sess.UserID(), sess.Role())
	if err != nil {
		h.respondErr(w, "get customer", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

type updateCustomerRequest struct {
	Name    *string `json:"name" validate:"omitempty,max=200"`
	Company *string `json:"company" validate:"omitempty,max=200"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Phone   *string `json:"phone" validate:"omitempty,max=30"`
	Notes   *string `json:"notes" validate:"omitempty,max=5000"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateCustomerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	c, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), sess.UserID(), sess.Role(), UpdateInput{
		Name:    req.Name,
		Company: req.Company,
		Email:   req.Email,
		Phone:   req.Phone,
		Notes:   req.Notes,
	})
	if err != nil {
		h.respondErr(w, "update customer", err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) respondErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrInvalidState):
		httpx.Problem(w, http.StatusBadRequest, "Invalid State", err.Error())
	case errors.Is(err, ErrAlreadyConverted):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrForbidden):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
