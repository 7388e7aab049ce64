package projects

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

// Handler exposes project and task endpoints.
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

// MountRoutes registers project routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAuth)
	r.Use(h.rbac.RequireAny(shared.PermProjectsView))
	r.With(h.rbac.RequireAny(shared.PermProjectsManage)).Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/stats", h.stats)
	r.Get("/{id}", h.get)
	r.With(h.rbac.RequireAny(shared.PermProjectsManage)).Put("/{id}", h.update)
	r.Get("/{id}/tasks", h.tasks)
	r.Post("/{id}/tasks", h.addTask)
	r.Put("/tasks/{taskID}/status", h.updateTaskStatus)
}

type createRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=2000"`
	ManagerID   string   `json:"manager_id" validate:"omitempty,uuid"`
	MemberIDs   []string `json:"member_ids" validate:"dive,uuid"`
	Deadline    string   `json:"deadline"`
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
	deadline, ok := parseOptionalDate(w, "deadline", req.Deadline)
	if !ok {
		return
	}

	sess := shared.SessionFromContext(r.Context())
	created, err := h.service.Create(r.Context(), CreateInput{
		Name:        req.Name,
		Description: req.Description,
		ManagerID:   req.ManagerID,
		MemberIDs:   req.MemberIDs,
		Deadline:    deadline,
	}, sess.UserID(), sess.Role())
	if err != nil {
		h.respondErr(w, "create project", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	list, err := h.service.List(r.Context(), sess.UserID(), sess.Role())
	if err != nil {
		h.respondErr(w, "list projects", err)
		return
	}
	if list == nil {
		list = []Project{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"), sess.UserID(), sess.Role())
	if err != nil {
		h.respondErr(w, "get project", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

type updateRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Status      *string   `json:"status"`
	MemberIDs   *[]string `json:"member_ids"`
	Deadline    string    `json:"deadline"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	deadline, ok := parseOptionalDate(w, "deadline", req.Deadline)
	if !ok {
		return
	}

	sess := shared.SessionFromContext(r.Context())
	updated, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		MemberIDs:   req.MemberIDs,
		Deadline:    deadline,
	}, sess.UserID(), sess.Role())
	if err != nil {
		h.respondErr(w, "update project", err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

type taskRequest struct {
	Title      string `json:"title" validate:"required,max=200"`
	Details    string `json:"details" validate:"max=2000"`
	AssigneeID string `json:"assignee_id" validate:"omitempty,uuid"`
	DueDate    string `json:"due_date"`
}

func (h *Handler) addTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	dueDate, ok := parseOptionalDate(w, "due_date", req.DueDate)
	if !ok {
		return
	}

	sess := shared.SessionFromContext(r.Context())
	task, err := h.service.AddTask(r.Context(), chi.URLParam(r, "id"), TaskInput{
		Title:      req.Title,
		Details:    req.Details,
		AssigneeID: req.AssigneeID,
		DueDate:    dueDate,
	}, sess.UserID(), sess.Role())
	if err != nil {
		h.respondErr(w, "add task", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, task)
}

func (h *Handler) tasks(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	list, err := h.service.Tasks(r.Context(), chi.URLParam(r, "id"), sess.UserID(), sess.Role())
	if err != nil {
		h.respondErr(w, "list tasks", err)
		return
	}
	if list == nil {
		list = []Task{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

type taskStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) updateTaskStatus(w http.ResponseWriter, r *http.Request) {
	var req taskStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	task, err := h.service.UpdateTaskStatus(r.Context(), chi.URLParam(r, "taskID"), req.Status, sess.UserID(), sess.Role())
	if err != nil {
		h.respondErr(w, "update task status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, task)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.PortfolioStats(r.Context())
	if err != nil {
		h.respondErr(w, "project stats", err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func parseOptionalDate(w http.ResponseWriter, field, value string) (*time.Time, bool) {
	if value == "" {
		return nil, true
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", field+" must be YYYY-MM-DD")
		return nil, false
	}
	return &t, true
}

func (h *Handler) respondErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrValidation):
		httpx.RespondError(w, httpx.ErrValidation)
	case errors.Is(err, ErrInvalidState):
		httpx.Problem(w, http.StatusBadRequest, "Invalid State", err.Error())
	case errors.Is(err, ErrForbidden):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
