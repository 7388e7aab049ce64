package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-hq/meridian/internal/platform/httpx"
	"github.com/meridian-hq/meridian/internal/rbac"
	"github.com/meridian-hq/meridian/internal/shared"
)

// Handler exposes the dashboard endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: mw}
}

// MountRoutes registers dashboard routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAuth)
	r.Get("/", h.employee)
	r.With(h.rbac.RequireAny(shared.PermLeadsView)).Get("/sales", h.sales)
}

func (h *Handler) employee(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	overview, err := h.service.Employee(r.Context(), sess.UserID(), sess.Role())
	if err != nil {
		h.logger.Error("employee dashboard", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, overview)
}

func (h *Handler) sales(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	overview, err := h.service.Sales(r.Context(), sess.UserID(), sess.Role())
	if err != nil {
		h.logger.Error("sales dashboard", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, overview)
}
