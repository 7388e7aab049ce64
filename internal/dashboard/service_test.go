package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/meridian-hq/meridian/internal/attendance"
	"github.com/meridian-hq/meridian/internal/leave"
	"github.com/meridian-hq/meridian/internal/projects"
	"github.com/meridian-hq/meridian/internal/rbac"
	"github.com/meridian-hq/meridian/internal/sales/leads"
)

type stubSources struct {
	balanceCalls int
	statsCalls   int
	leadCalls    int
}

func (s *stubSources) BalanceFor(context.Context, string) (*leave.Balance, error) {
	s.balanceCalls++
	return &leave.Balance{Year: 2024}, nil
}

func (s *stubSources) StatsForMonth(context.Context, string, int, time.Month) (*attendance.MonthStats, error) {
	s.statsCalls++
	return &attendance.MonthStats{PresentDays: 10}, nil
}

func (s *stubSources) List(context.Context, string, string) ([]projects.Project, error) {
	return []projects.Project{{ID: "p-1", Name: "Alpha"}}, nil
}

func (s *stubSources) StatsFor(context.Context, string, string) (*leads.Stats, error) {
	s.leadCalls++
	return &leads.Stats{Total: 3}, nil
}

func newDashboard(t *testing.T) (*Service, *stubSources, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	src := &stubSources{}
	svc := NewService(client, src, src, src, src)
	svc.now = func() time.Time { return time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC) }
	return svc, src, mr
}

func TestEmployeeOverviewAssembled(t *testing.T) {
	svc, _, _ := newDashboard(t)

	overview, err := svc.Employee(context.Background(), "emp-1", rbac.RoleEmployee)
	require.NoError(t, err)
	require.Equal(t, 2024, overview.LeaveBalance.Year)
	require.Equal(t, 10, overview.Attendance.PresentDays)
	require.Len(t, overview.Projects, 1)
}

func TestEmployeeOverviewCached(t *testing.T) {
	svc, src, _ := newDashboard(t)

	_, err := svc.Employee(context.Background(), "emp-1", rbac.RoleEmployee)
	require.NoError(t, err)
	_, err = svc.Employee(context.Background(), "emp-1", rbac.RoleEmployee)
	require.NoError(t, err)

	require.Equal(t, 1, src.balanceCalls)
	require.Equal(t, 1, src.statsCalls)
}

func TestEmployeeCacheExpires(t *testing.T) {
	svc, src, mr := newDashboard(t)

	_, err := svc.Employee(context.Background(), "emp-1", rbac.RoleEmployee)
	require.NoError(t, err)

	mr.FastForward(cacheTTL + time.Second)

	_, err = svc.Employee(context.Background(), "emp-1", rbac.RoleEmployee)
	require.NoError(t, err)
	require.Equal(t, 2, src.balanceCalls)
}

func TestInvalidateDropsCache(t *testing.T) {
	svc, src, _ := newDashboard(t)

	_, err := svc.Employee(context.Background(), "emp-1", rbac.RoleEmployee)
	require.NoError(t, err)

	require.NoError(t, svc.Invalidate(context.Background(), "emp-1"))

	_, err = svc.Employee(context.Background(), "emp-1", rbac.RoleEmployee)
	require.NoError(t, err)
	require.Equal(t, 2, src.balanceCalls)
}

func TestSalesOverviewPerUserCache(t *testing.T) {
	svc, src, _ := newDashboard(t)

	_, err := svc.Sales(context.Background(), "mgr-1", rbac.RoleManager)
	require.NoError(t, err)
	_, err = svc.Sales(context.Background(), "mgr-1", rbac.RoleManager)
	require.NoError(t, err)
	require.Equal(t, 1, src.leadCalls)

	_, err = svc.Sales(context.Background(), "emp-1", rbac.RoleEmployee)
	require.NoError(t, err)
	require.Equal(t, 2, src.leadCalls)
}

func TestWarmPopulatesCache(t *testing.T) {
	svc, src, _ := newDashboard(t)

	require.NoError(t, svc.Warm(context.Background(), "emp-1", rbac.RoleEmployee))
	require.Equal(t, 1, src.balanceCalls)

	_, err := svc.Employee(context.Background(), "emp-1", rbac.RoleEmployee)
	require.NoError(t, err)
	require.Equal(t, 1, src.balanceCalls)
}
