// Package dashboard assembles per-user and sales overview aggregates.
// Aggregates are cached in Redis for a short TTL; cache misses are
// collapsed through singleflight so one slow rebuild serves all
// concurrent viewers.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/meridian-hq/meridian/internal/attendance"
	"github.com/meridian-hq/meridian/internal/leave"
	"github.com/meridian-hq/meridian/internal/projects"
	"github.com/meridian-hq/meridian/internal/sales/leads"
)

const cacheTTL = 5 * time.Minute

// LeavePort supplies the caller's leave balance.
type LeavePort interface {
	BalanceFor(ctx context.Context, userID string) (*leave.Balance, error)
}

// AttendancePort supplies the caller's monthly attendance stats.
type AttendancePort interface {
	StatsForMonth(ctx context.Context, userID string, year int, month time.Month) (*attendance.MonthStats, error)
}

// ProjectsPort supplies the projects visible to the caller.
type ProjectsPort interface {
	List(ctx context.Context, callerID, callerRole string) ([]projects.Project, error)
}

// LeadsPort supplies the sales funnel stats visible to the caller.
type LeadsPort interface {
	StatsFor(ctx context.Context, callerID, callerRole string) (*leads.Stats, error)
}

// EmployeeOverview is the home screen aggregate for one user.
type EmployeeOverview struct {
	LeaveBalance *leave.Balance         `json:"leave_balance"`
	Attendance   *attendance.MonthStats `json:"attendance"`
	Projects     []projects.Project     `json:"projects"`
	GeneratedAt  time.Time              `json:"generated_at"`
}

// SalesOverview is the sales department aggregate.
type SalesOverview struct {
	Leads       *leads.Stats `json:"leads"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// Service builds and caches dashboard aggregates.
type Service struct {
	redis      *redis.Client
	leave      LeavePort
	attendance AttendancePort
	projects   ProjectsPort
	leads      LeadsPort
	group      singleflight.Group
	now        func() time.Time
}

// NewService constructs a Service.
func NewService(client *redis.Client, lv LeavePort, at AttendancePort, pr ProjectsPort, ld LeadsPort) *Service {
	return &Service{
		redis:      client,
		leave:      lv,
		attendance: at,
		projects:   pr,
		leads:      ld,
		now:        time.Now,
	}
}

func employeeKey(userID string) string { return "dashboard:employee:" + userID }
func salesKey(userID string) string    { return "dashboard:sales:" + userID }

// Employee returns the cached home aggregate for one user, rebuilding
// it on miss.
func (s *Service) Employee(ctx context.Context, userID, role string) (*EmployeeOverview, error) {
	key := employeeKey(userID)
	if cached, ok := fetch[EmployeeOverview](ctx, s.redis, key); ok {
		return cached, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		overview, err := s.buildEmployee(ctx, userID, role)
		if err != nil {
			return nil, err
		}
		s.store(ctx, key, overview)
		return overview, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*EmployeeOverview), nil
}

// Sales returns the cached sales aggregate for one user, rebuilding it
// on miss. The funnel is scoped by the caller's role, so the cache key
// carries the user id.
func (s *Service) Sales(ctx context.Context, userID, role string) (*SalesOverview, error) {
	key := salesKey(userID)
	if cached, ok := fetch[SalesOverview](ctx, s.redis, key); ok {
		return cached, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		stats, err := s.leads.StatsFor(ctx, userID, role)
		if err != nil {
			return nil, err
		}
		overview := &SalesOverview{Leads: stats, GeneratedAt: s.now().UTC()}
		s.store(ctx, key, overview)
		return overview, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*SalesOverview), nil
}

// Warm rebuilds and caches one user's home aggregate, for the
// background warmup job.
func (s *Service) Warm(ctx context.Context, userID, role string) error {
	overview, err := s.buildEmployee(ctx, userID, role)
	if err != nil {
		return fmt.Errorf("dashboard: warm %s: %w", userID, err)
	}
	s.store(ctx, employeeKey(userID), overview)
	return nil
}

// Invalidate drops one user's cached aggregates.
func (s *Service) Invalidate(ctx context.Context, userID string) error {
	return s.redis.Del(ctx, employeeKey(userID), salesKey(userID)).Err()
}

func (s *Service) buildEmployee(ctx context.Context, userID, role string) (*EmployeeOverview, error) {
	now := s.now().UTC()

	balance, err := s.leave.BalanceFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.attendance.StatsForMonth(ctx, userID, now.Year(), now.Month())
	if err != nil {
		return nil, err
	}
	list, err := s.projects.List(ctx, userID, role)
	if err != nil {
		return nil, err
	}

	return &EmployeeOverview{
		LeaveBalance: balance,
		Attendance:   stats,
		Projects:     list,
		GeneratedAt:  now,
	}, nil
}

func (s *Service) store(ctx context.Context, key string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.redis.Set(ctx, key, payload, cacheTTL)
}

func fetch[T any](ctx context.Context, client *redis.Client, key string) (*T, bool) {
	payload, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, false
	}
	return &v, true
}
