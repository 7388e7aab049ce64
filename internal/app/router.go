package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/meridian-hq/meridian/internal/attendance"
	"github.com/meridian-hq/meridian/internal/auth"
	"github.com/meridian-hq/meridian/internal/dashboard"
	"github.com/meridian-hq/meridian/internal/leave"
	"github.com/meridian-hq/meridian/internal/observability"
	"github.com/meridian-hq/meridian/internal/projects"
	"github.com/meridian-hq/meridian/internal/recruitment"
	"github.com/meridian-hq/meridian/internal/reports"
	"github.com/meridian-hq/meridian/internal/sales/customers"
	"github.com/meridian-hq/meridian/internal/sales/leads"
	"github.com/meridian-hq/meridian/internal/shared"
	"github.com/meridian-hq/meridian/internal/users"
	"github.com/meridian-hq/meridian/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	LeaveHandler       *leave.Handler
	AttendanceHandler  *attendance.Handler
	ReportsHandler     *reports.Handler
	LeadsHandler       *leads.Handler
	CustomersHandler   *customers.Handler
	ProjectsHandler    *projects.Handler
	RecruitmentHandler *recruitment.Handler
	DashboardHandler   *dashboard.Handler
	JobHandler         *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with Meridian defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	if params.UsersHandler != nil {
		r.Route("/users", params.UsersHandler.MountRoutes)
	}
	if params.LeaveHandler != nil {
		r.Route("/leave", params.LeaveHandler.MountRoutes)
	}
	if params.AttendanceHandler != nil {
		r.Route("/attendance", params.AttendanceHandler.MountRoutes)
	}
	if params.ReportsHandler != nil {
		r.Route("/reports", params.ReportsHandler.MountRoutes)
	}
	if params.LeadsHandler != nil {
		r.Route("/sales/leads", params.LeadsHandler.MountRoutes)
	}
	if params.CustomersHandler != nil {
		r.Route("/sales/customers", params.CustomersHandler.MountRoutes)
	}
	if params.ProjectsHandler != nil {
		r.Route("/projects", params.ProjectsHandler.MountRoutes)
	}
	if params.RecruitmentHandler != nil {
		r.Route("/recruitment", params.RecruitmentHandler.MountRoutes)
	}
	if params.DashboardHandler != nil {
		r.Route("/dashboard", params.DashboardHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
