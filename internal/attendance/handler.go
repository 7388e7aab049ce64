package attendance

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-hq/meridian/internal/platform/httpx"
	"github.com/meridian-hq/meridian/internal/rbac"
	"github.com/meridian-hq/meridian/internal/shared"
)

const dateLayout = "2006-01-02"

// Handler exposes attendance endpoints.
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

// MountRoutes registers attendance routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAuth)
	r.With(h.rbac.RequireAny(shared.PermAttendanceRecord)).Post("/check-in", h.checkIn)
	r.With(h.rbac.RequireAny(shared.PermAttendanceRecord)).Post("/check-out", h.checkOut)
	r.Get("/today", h.today)
	r.Get("/", h.listRange)
	r.Get("/stats", h.stats)
	r.With(h.rbac.RequireAny(shared.PermAttendanceViewTeam)).Get("/team", h.teamToday)
}

type checkInRequest struct {
	Location string `json:"location" validate:"max=200"`
	Note     string `json:"note" validate:"max=2000"`
}

func (h *Handler) checkIn(w http.ResponseWriter, r *http.Request) {
	var req checkInRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
		if err := h.validate.Struct(req); err != nil {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
	}

	sess := shared.SessionFromContext(r.Context())
	rec, err := h.service.CheckIn(r.Context(), sess.UserID(), req.Location, req.Note)
	if err != nil {
		h.respondErr(w, "check in", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rec)
}

func (h *Handler) checkOut(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	rec, err := h.service.CheckOut(r.Context(), sess.UserID())
	if err != nil {
		h.respondErr(w, "check out", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) today(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	rec, err := h.service.Today(r.Context(), sess.UserID())
	if err != nil {
		h.respondErr(w, "today's attendance", err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) listRange(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse(dateLayout, r.URL.Query().Get("from"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "from must be YYYY-MM-DD")
		return
	}
	to, err := time.Parse(dateLayout, r.URL.Query().Get("to"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "to must be YYYY-MM-DD")
		return
	}

	sess := shared.SessionFromContext(r.Context())
	list, err := h.service.ListRange(r.Context(), sess.UserID(), from, to)
	if err != nil {
		h.respondErr(w, "list attendance", err)
		return
	}
	if list == nil {
		list = []Record{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "year is required")
		return
	}
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "month is required")
		return
	}

	sess := shared.SessionFromContext(r.Context())
	stats, err := h.service.StatsForMonth(r.Context(), sess.UserID(), year, time.Month(month))
	if err != nil {
		h.respondErr(w, "attendance stats", err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) teamToday(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	list, err := h.service.TeamToday(r.Context(), sess.UserID())
	if err != nil {
		h.respondErr(w, "team attendance", err)
		return
	}
	if list == nil {
		list = []Record{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) respondErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrAlreadyCheckedIn), errors.Is(err, ErrAlreadyCheckedOut):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrNotCheckedIn):
		httpx.Problem(w, http.StatusBadRequest, "Invalid State", err.Error())
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
