package reports

import (
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

// Handler exposes the daily report endpoints.
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

// MountRoutes registers report routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAuth)
	r.With(h.rbac.RequireAny(shared.PermReportsSubmit)).Post("/", h.submit)
	r.Get("/", h.listRange)
	r.Get("/today", h.today)
	r.With(h.rbac.RequireAny(shared.PermReportsViewTeam)).Get("/team", h.team)
	r.With(h.rbac.RequireAny(shared.PermReportsSubmit)).Put("/{id}", h.update)
}

type submitRequest struct {
	Content  string `json:"content" validate:"required,max=5000"`
	Blockers string `json:"blockers" validate:"max=2000"`
	Plans    string `json:"plans" validate:"max=2000"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	created, err := h.service.Submit(r.Context(), sess.UserID(), SubmitInput{
		Content:  req.Content,
		Blockers: req.Blockers,
		Plans:    req.Plans,
	})
	if err != nil {
		h.respondErr(w, "submit report", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) today(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	rep, err := h.service.Today(r.Context(), sess.UserID())
	if err != nil {
		h.respondErr(w, "today report", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rep)
}

func (h *Handler) listRange(w http.ResponseWriter, r *http.Request) {
	from, ok := parseDateParam(w, r, "from")
	if !ok {
		return
	}
	to, ok := parseDateParam(w, r, "to")
	if !ok {
		return
	}

	sess := shared.SessionFromContext(r.Context())
	list, err := h.service.ListRange(r.Context(), sess.UserID(), from, to)
	if err != nil {
		h.respondErr(w, "list reports", err)
		return
	}
	if list == nil {
		list = []Report{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) team(w http.ResponseWriter, r *http.Request) {
	date, ok := parseDateParam(w, r, "date")
	if !ok {
		return
	}

	sess := shared.SessionFromContext(r.Context())
	list, err := h.service.TeamForDate(r.Context(), sess.UserID(), sess.Role(), date)
	if err != nil {
		h.respondErr(w, "team reports", err)
		return
	}
	if list == nil {
		list = []Report{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

type updateRequest struct {
	Content  string  `json:"content" validate:"max=5000"`
	Blockers *string `json:"blockers"`
	Plans    *string `json:"plans"`
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

	sess := shared.SessionFromContext(r.Context())
	updated, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), sess.UserID(), UpdateInput{
		Content:  req.Content,
		Blockers: req.Blockers,
		Plans:    req.Plans,
	})
	if err != nil {
		h.respondErr(w, "update report", err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func parseDateParam(w http.ResponseWriter, r *http.Request, name string) (time.Time, bool) {
	raw := r.URL.Query().Get(name)
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", name+" must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return t, true
}

func (h *Handler) respondErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrDuplicate):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrValidation):
		httpx.RespondError(w, httpx.ErrValidation)
	case errors.Is(err, ErrForbidden):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
