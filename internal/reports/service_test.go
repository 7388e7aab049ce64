package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-hq/meridian/internal/rbac"
)

type memoryReportRepo struct {
	reports map[string]Report
	byDay   map[string]string
}

func newMemoryReportRepo() *memoryReportRepo {
	return &memoryReportRepo{
		reports: make(map[string]Report),
		byDay:   make(map[string]string),
	}
}

func dayKey(userID string, date time.Time) string {
	return userID + "|" + date.Format("2006-01-02")
}

func (m *memoryReportRepo) Insert(_ context.Context, rep Report) error {
	key := dayKey(rep.UserID, rep.ReportDate)
	if _, exists := m.byDay[key]; exists {
		return ErrDuplicate
	}
	m.byDay[key] = rep.ID
	m.reports[rep.ID] = rep
	return nil
}

func (m *memoryReportRepo) Get(_ context.Context, id string) (*Report, error) {
	rep, ok := m.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := rep
	return &clone, nil
}

func (m *memoryReportRepo) GetByUserDate(_ context.Context, userID string, date time.Time) (*Report, error) {
	id, ok := m.byDay[dayKey(userID, date)]
	if !ok {
		return nil, ErrNotFound
	}
	return m.Get(nil, id)
}

func (m *memoryReportRepo) ListRange(_ context.Context, userID string, from, to time.Time) ([]Report, error) {
	var out []Report
	for _, rep := range m.reports {
		if rep.UserID != userID {
			continue
		}
		if rep.ReportDate.Before(from) || rep.ReportDate.After(to) {
			continue
		}
		out = append(out, rep)
	}
	return out, nil
}

func (m *memoryReportRepo) ListByUsersDate(_ context.Context, userIDs []string, date time.Time) ([]Report, error) {
	var out []Report
	for _, id := range userIDs {
		if repID, ok := m.byDay[dayKey(id, date)]; ok {
			out = append(out, m.reports[repID])
		}
	}
	return out, nil
}

func (m *memoryReportRepo) Update(_ context.Context, rep Report) (int64, error) {
	if _, ok := m.reports[rep.ID]; !ok {
		return 0, nil
	}
	m.reports[rep.ID] = rep
	return 1, nil
}

type stubTeam map[string]struct{}

func (s stubTeam) TeamMemberIDs(context.Context, string) (map[string]struct{}, error) {
	return s, nil
}

func newReportService(t *testing.T, team stubTeam) (*Service, *memoryReportRepo) {
	t.Helper()
	repo := newMemoryReportRepo()
	svc := NewService(repo, team)
	svc.now = func() time.Time { return time.Date(2024, 5, 15, 17, 30, 0, 0, time.UTC) }
	return svc, repo
}

func TestSubmitOncePerDay(t *testing.T) {
	svc, _ := newReportService(t, nil)

	rep, err := svc.Submit(context.Background(), "emp-1", SubmitInput{Content: "Shipped the importer"})
	require.NoError(t, err)
	require.Equal(t, time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC), rep.ReportDate)

	_, err = svc.Submit(context.Background(), "emp-1", SubmitInput{Content: "Second try"})
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestSubmitEmptyContentRejected(t *testing.T) {
	svc, _ := newReportService(t, nil)

	_, err := svc.Submit(context.Background(), "emp-1", SubmitInput{Content: "   "})
	require.ErrorIs(t, err, ErrValidation)
}

func TestTodayReturnsOwnReport(t *testing.T) {
	svc, _ := newReportService(t, nil)

	_, err := svc.Today(context.Background(), "emp-1")
	require.ErrorIs(t, err, ErrNotFound)

	submitted, err := svc.Submit(context.Background(), "emp-1", SubmitInput{Content: "Done"})
	require.NoError(t, err)

	got, err := svc.Today(context.Background(), "emp-1")
	require.NoError(t, err)
	require.Equal(t, submitted.ID, got.ID)
}

func TestUpdateOwnReportOnly(t *testing.T) {
	svc, _ := newReportService(t, nil)

	rep, err := svc.Submit(context.Background(), "emp-1", SubmitInput{Content: "Draft"})
	require.NoError(t, err)

	blockers := "waiting on review"
	updated, err := svc.Update(context.Background(), rep.ID, "emp-1", UpdateInput{
		Content:  "Final",
		Blockers: &blockers,
	})
	require.NoError(t, err)
	require.Equal(t, "Final", updated.Content)
	require.Equal(t, "waiting on review", updated.Blockers)

	_, err = svc.Update(context.Background(), rep.ID, "emp-2", UpdateInput{Content: "Hijack"})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestUpdateMissingReport(t *testing.T) {
	svc, _ := newReportService(t, nil)

	_, err := svc.Update(context.Background(), "nope", "emp-1", UpdateInput{Content: "x"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListRangeValidatesOrder(t *testing.T) {
	svc, _ := newReportService(t, nil)

	from := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	_, err := svc.ListRange(context.Background(), "emp-1", from, to)
	require.ErrorIs(t, err, ErrValidation)
}

func TestTeamForDateScopedToTeam(t *testing.T) {
	team := stubTeam{"emp-1": {}, "emp-2": {}}
	svc, _ := newReportService(t, team)

	_, err := svc.Submit(context.Background(), "emp-1", SubmitInput{Content: "A"})
	require.NoError(t, err)
	_, err = svc.Submit(context.Background(), "emp-9", SubmitInput{Content: "Outsider"})
	require.NoError(t, err)

	list, err := svc.TeamForDate(context.Background(), "mgr-1", rbac.RoleManager, time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "emp-1", list[0].UserID)
}

func TestTeamForDateEmployeeForbidden(t *testing.T) {
	svc, _ := newReportService(t, stubTeam{})

	_, err := svc.TeamForDate(context.Background(), "emp-1", rbac.RoleEmployee, time.Now())
	require.ErrorIs(t, err, ErrForbidden)
}

func TestTeamForDateEmptyTeam(t *testing.T) {
	svc, _ := newReportService(t, stubTeam{})

	list, err := svc.TeamForDate(context.Background(), "mgr-1", rbac.RoleManager, time.Now())
	require.NoError(t, err)
	require.Nil(t, list)
}
