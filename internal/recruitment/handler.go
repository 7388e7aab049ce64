package recruitment

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

// Handler exposes the hiring pipeline endpoints.
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

// MountRoutes registers recruitment routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAuth)
	r.Use(h.rbac.RequireAny(shared.PermRecruitmentView))
	r.Get("/postings", h.listPostings)
	r.Get("/postings/{id}", h.getPosting)
	r.Get("/postings/{id}/applications", h.applications)
	r.With(h.rbac.RequireAny(shared.PermRecruitmentManage)).Post("/postings", h.createPosting)
	r.With(h.rbac.RequireAny(shared.PermRecruitmentManage)).Put("/postings/{id}", h.updatePosting)
	r.With(h.rbac.RequireAny(shared.PermRecruitmentManage)).Post("/postings/{id}/applications", h.apply)
	r.With(h.rbac.RequireAny(shared.PermRecruitmentManage)).Post("/applications/{id}/advance", h.advance)
}

type postingRequest struct {
	Title        string `json:"title" validate:"required,max=200"`
	Department   string `json:"department" validate:"required,max=100"`
	Description  string `json:"description" validate:"max=5000"`
	Requirements string `json:"requirements" validate:"max=5000"`
}

func (h *Handler) createPosting(w http.ResponseWriter, r *http.Request) {
	var req postingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	created, err := h.service.CreatePosting(r.Context(), PostingInput{
		Title:        req.Title,
		Department:   req.Department,
		Description:  req.Description,
		Requirements: req.Requirements,
	}, sess.UserID())
	if err != nil {
		h.respondErr(w, "create posting", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) listPostings(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListPostings(r.Context(), PostingStatus(r.URL.Query().Get("status")))
	if err != nil {
		h.respondErr(w, "list postings", err)
		return
	}
	if list == nil {
		list = []Posting{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

func (h *Handler) getPosting(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetPosting(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, "get posting", err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

type postingPatchRequest struct {
	Title        *string `json:"title"`
	Department   *string `json:"department"`
	Description  *string `json:"description"`
	Requirements *string `json:"requirements"`
	Status       *string `json:"status"`
}

func (h *Handler) updatePosting(w http.ResponseWriter, r *http.Request) {
	var req postingPatchRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	updated, err := h.service.UpdatePosting(r.Context(), chi.URLParam(r, "id"), PostingPatch{
		Title:        req.Title,
		Department:   req.Department,
		Description:  req.Description,
		Requirements: req.Requirements,
		Status:       req.Status,
	})
	if err != nil {
		h.respondErr(w, "update posting", err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

type applyRequest struct {
	CandidateName  string `json:"candidate_name" validate:"required,max=200"`
	CandidateEmail string `json:"candidate_email" validate:"required,email"`
	ResumeURL      string `json:"resume_url" validate:"omitempty,url"`
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	created, err := h.service.Apply(r.Context(), chi.URLParam(r, "id"), ApplyInput{
		CandidateName:  req.CandidateName,
		CandidateEmail: req.CandidateEmail,
		ResumeURL:      req.ResumeURL,
	})
	if err != nil {
		h.respondErr(w, "apply", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) applications(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Applications(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondErr(w, "list applications", err)
		return
	}
	if list == nil {
		list = []Application{}
	}
	httpx.JSON(w, http.StatusOK, list)
}

type advanceRequest struct {
	Stage string `json:"stage" validate:"required"`
	Notes string `json:"notes" validate:"max=2000"`
}

func (h *Handler) advance(w http.ResponseWriter, r *http.Request) {
	var req advanceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	moved, err := h.service.Advance(r.Context(), chi.URLParam(r, "id"), Stage(req.Stage), req.Notes)
	if err != nil {
		h.respondErr(w, "advance application", err)
		return
	}
	httpx.JSON(w, http.StatusOK, moved)
}

func (h *Handler) respondErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrValidation):
		httpx.RespondError(w, httpx.ErrValidation)
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrPostingClosed):
		httpx.Problem(w, http.StatusBadRequest, "Invalid State", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
