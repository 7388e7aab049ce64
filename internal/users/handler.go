package users

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

// Handler exposes directory endpoints.
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

// MountRoutes registers directory routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAuth)
	r.Get("/me", h.me)
	r.Put("/me", h.updateProfile)
	r.With(h.rbac.RequireAny(shared.PermUsersView)).Get("/", h.list)
	r.With(h.rbac.RequireAny(shared.PermUsersView)).Get("/{id}", h.get)
	r.With(h.rbac.RequireAny(shared.PermTeamsView)).Get("/{id}/team", h.team)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	user, err := h.service.Get(r.Context(), sess.UserID())
	if err != nil {
		h.respondErr(w, "load profile", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

type profileUpdateRequest struct {
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Phone     string `json:"phone" validate:"max=30"`
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileUpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	user, err := h.service.UpdateProfile(r.Context(), sess.UserID(), req.FirstName, req.LastName, req.Phone)
	if err != nil {
		h.respondErr(w, "update profile", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.respondErr(w, "list users", err)
		return
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, "get user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) team(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.TeamMembersByManager(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, "resolve team", err)
		return
	}
	if members == nil {
		members = []User{}
	}
	httpx.JSON(w, http.StatusOK, members)
}

func (h *Handler) respondErr(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	h.logger.Error(op, slog.Any("error", err))
	httpx.RespondError(w, err)
}
