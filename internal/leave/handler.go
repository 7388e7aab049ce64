package leave

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-hq/meridian/internal/platform/httpx"
	"github.com/meridian-hq/meridian/internal/rbac"
	"github.com/meridian-hq/meridian/internal/shared"
)

const dateLayout = "2006-01-02"

// CacheInvalidator drops a user's cached dashboard aggregates after a
// request changes state, so balances never serve stale for the TTL.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

// Handler exposes the leave workflow endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	rbac     rbac.Middleware
	cache    CacheInvalidator
	validate *validator.Validate
}

// NewHandler constructs a Handler instance. cache may be nil.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware, cache CacheInvalidator) *Handler {
	return &Handler{logger: logger, service: service, rbac: mw, cache: cache, validate: validator.New()}
}

// MountRoutes registers leave routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAuth)
	r.With(h.rbac.RequireAny(shared.PermLeaveRequest)).Post("/", h.create)
	r.Get("/", h.listOwn)
	r.Get("/balance", h.balance)
	r.With(h.rbac.RequireAny(shared.PermLeaveApprove)).Get("/pending", h.listPending)
	r.Get("/{id}", h.get)
	r.With(h.rbac.RequireAny(shared.PermLeaveRequest)).Put("/{id}", h.update)
	r.With(h.rbac.RequireAny(shared.PermLeaveApprove)).Post("/{id}/decision", h.decide)
	r.With(h.rbac.RequireAny(shared.PermLeaveRequest)).Post("/{id}/cancel", h.cancel)
}

type createRequest struct {
	UserID    string `json:"user_id" validate:"omitempty,uuid"`
	LeaveType string `json:"leave_type" validate:"required"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
	Reason    string `json:"reason" validate:"max=2000"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "start_date must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "end_date must be YYYY-MM-DD")
		return
	}

	sess := shared.SessionFromContext(r.Context())
	created, err := h.service.Create(r.Context(), sess.UserID(), CreateInput{
		UserID:    req.UserID,
		LeaveType: Type(req.LeaveType),
		StartDate: start,
		EndDate:   end,
		Reason:    req.Reason,
	})
	if err != nil {
		h.respondErr(w, "create leave request", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) listOwn(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	list, err := h.service.ListOwn(r.Context(), sess.UserID(), Status(r.URL.Query().Get("status")))
	if err != nil {
		h.respondErr(w, "list own leave", err)
		return
	}
	if list == nil {
		list = []Request{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) listPending(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	list, err := h.service.ListPendingForApprover(r.Context(), sess.UserID(), sess.Role())
	if err != nil {
		h.respondErr(w, "list pending leave", err)
		return
	}
	if list == nil {
		list = []Request{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) balance(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	balance, err := h.service.BalanceFor(r.Context(), sess.UserID())
	if err != nil {
		h.respondErr(w, "leave balance", err)
		return
	}
	httpx.JSON(w, http.StatusOK, balance)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	req, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, "get leave request", err)
		return
	}
	ok, err := h.service.CanView(r.Context(), req, sess.UserID(), sess.Role())
	if err != nil {
		h.respondErr(w, "check leave visibility", err)
		return
	}
	if !ok {
		httpx.RespondError(w, httpx.ErrForbidden)
		return
	}
	httpx.JSON(w, http.StatusOK, req)
}

type updateRequest struct {
	LeaveType string `json:"leave_type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason" validate:"max=2000"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	input := UpdateInput{LeaveType: Type(req.LeaveType), Reason: req.Reason}
	if req.StartDate != "" {
		start, err := time.Parse(dateLayout, req.StartDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "start_date must be YYYY-MM-DD")
			return
		}
		input.StartDate = start
	}
	if req.EndDate != "" {
		end, err := time.Parse(dateLayout, req.EndDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "end_date must be YYYY-MM-DD")
			return
		}
		input.EndDate = end
	}

	sess := shared.SessionFromContext(r.Context())
	updated, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), sess.UserID(), input)
	if err != nil {
		h.respondErr(w, "update leave request", err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

type decisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approved rejected"`
	Comments string `json:"comments" validate:"max=2000"`
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "decision must be approved or rejected")
		return
	}

	sess := shared.SessionFromContext(r.Context())
	decided, err := h.service.Decide(r.Context(), chi.URLParam(r, "id"), sess.UserID(), sess.Role(), Status(req.Decision), req.Comments)
	if err != nil {
		h.respondErr(w, "decide leave request", err)
		return
	}
	h.dropCached(r.Context(), decided.UserID)
	httpx.JSON(w, http.StatusOK, decided)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	cancelled, err := h.service.Cancel(r.Context(), chi.URLParam(r, "id"), sess.UserID())
	if err != nil {
		h.respondErr(w, "cancel leave request", err)
		return
	}
	h.dropCached(r.Context(), cancelled.UserID)
	httpx.JSON(w, http.StatusOK, cancelled)
}

// dropCached is best effort; a failed delete only delays freshness by
// the cache TTL.
func (h *Handler) dropCached(ctx context.Context, userID string) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Invalidate(ctx, userID); err != nil {
		h.logger.Warn("invalidate dashboard cache",
			slog.String("user_id", userID), slog.Any("error", err))
	}
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
