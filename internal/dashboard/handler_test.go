package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/meridian-hq/meridian/internal/rbac"
	"github.com/meridian-hq/meridian/internal/shared"
)

func newDashboardHandler(t *testing.T) (*Handler, *shared.SessionManager) {
	t.Helper()
	svc, _, mr := newDashboard(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(logger, svc, rbac.Middleware{Logger: logger}), sessions
}

func serveAs(t *testing.T, h *Handler, sessions *shared.SessionManager, userID, role, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	sess, err := sessions.Load(context.Background(), req)
	require.NoError(t, err)
	if userID != "" {
		sess.SetIdentity(userID, role)
	}
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))

	router := chi.NewRouter()
	router.Route("/dashboard", h.MountRoutes)

	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestEmployeeDashboardSmoke(t *testing.T) {
	h, sessions := newDashboardHandler(t)

	res := serveAs(t, h, sessions, "emp-1", rbac.RoleEmployee, "/dashboard/")
	require.Equal(t, http.StatusOK, res.Code)

	var overview EmployeeOverview
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &overview))
	require.Equal(t, 2024, overview.LeaveBalance.Year)
	require.Len(t, overview.Projects, 1)
}

func TestDashboardRequiresSession(t *testing.T) {
	h, sessions := newDashboardHandler(t)

	res := serveAs(t, h, sessions, "", "", "/dashboard/")
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestSalesDashboardNeedsLeadsPermission(t *testing.T) {
	h, sessions := newDashboardHandler(t)

	res := serveAs(t, h, sessions, "dev-1", rbac.RoleDevManager, "/dashboard/sales")
	require.Equal(t, http.StatusForbidden, res.Code)

	res = serveAs(t, h, sessions, "emp-1", rbac.RoleEmployee, "/dashboard/sales")
	require.Equal(t, http.StatusOK, res.Code)
}
