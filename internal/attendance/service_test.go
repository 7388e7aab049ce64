package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryAttendanceRepo struct {
	records map[string]Record // keyed by user|date
	byID    map[string]string
}

func newMemoryAttendanceRepo() *memoryAttendanceRepo {
	return &memoryAttendanceRepo{
		records: make(map[string]Record),
		byID:    make(map[string]string),
	}
}

func key(userID string, date time.Time) string {
	return userID + "|" + date.Format("2006-01-02")
}

func (r *memoryAttendanceRepo) Insert(ctx context.Context, rec Record) error {
	k := key(rec.UserID, rec.Date)
	if _, ok := r.records[k]; ok {
		return ErrAlreadyCheckedIn
	}
	r.records[k] = rec
	r.byID[rec.ID] = k
	return nil
}

func (r *memoryAttendanceRepo) GetByUserDate(ctx context.Context, userID string, date time.Time) (*Record, error) {
	rec, ok := r.records[key(userID, date)]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (r *memoryAttendanceRepo) SetCheckOut(ctx context.Context, id string, checkOut time.Time, workHours float64, updatedAt time.Time) (int64, error) {
	k, ok := r.byID[id]
	if !ok {
		return 0, nil
	}
	rec := r.records[k]
	if rec.CheckOut != nil {
		return 0, nil
	}
	rec.CheckOut = &checkOut
	rec.WorkHours = workHours
	rec.UpdatedAt = updatedAt
	r.records[k] = rec
	return 1, nil
}

func (r *memoryAttendanceRepo) ListRange(ctx context.Context, userID string, from, to time.Time) ([]Record, error) {
	var out []Record
	for _, rec := range r.records {
		if rec.UserID != userID {
			continue
		}
		if rec.Date.Before(from) || rec.Date.After(to) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *memoryAttendanceRepo) ListByUsersDate(ctx context.Context, userIDs []string, date time.Time) ([]Record, error) {
	var out []Record
	for _, id := range userIDs {
		if rec, ok := r.records[key(id, date)]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *memoryAttendanceRepo) MonthAggregate(ctx context.Context, userID string, year int, month time.Month) (int, int, float64, error) {
	present, late := 0, 0
	hours := 0.0
	for _, rec := range r.records {
		if rec.UserID != userID || rec.Date.Year() != year || rec.Date.Month() != month {
			continue
		}
		present++
		if rec.IsLate {
			late++
		}
		hours += rec.WorkHours
	}
	return present, late, hours, nil
}

func (r *memoryAttendanceRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	for k, rec := range r.records {
		if rec.Date.Before(cutoff) {
			delete(r.records, k)
			delete(r.byID, rec.ID)
			deleted++
		}
	}
	return deleted, nil
}

type noTeamDirectory struct{}

func (noTeamDirectory) TeamMemberIDs(ctx context.Context, managerID string) (map[string]struct{}, error) {
	return nil, nil
}

func newAttendanceService(now time.Time) (*Service, *memoryAttendanceRepo) {
	repo := newMemoryAttendanceRepo()
	svc := NewService(repo, noTeamDirectory{})
	svc.now = func() time.Time { return now }
	return svc, repo
}

func TestCheckInOnTime(t *testing.T) {
	svc, _ := newAttendanceService(time.Date(2024, 3, 4, 9, 15, 0, 0, time.UTC))

	rec, err := svc.CheckIn(context.Background(), "u1", "office", "")
	require.NoError(t, err)
	require.False(t, rec.IsLate)
	require.Equal(t, "office", rec.Location)
	require.Nil(t, rec.CheckOut)
}

func TestCheckInLateAfterThreshold(t *testing.T) {
	svc, _ := newAttendanceService(time.Date(2024, 3, 4, 9, 31, 0, 0, time.UTC))

	rec, err := svc.CheckIn(context.Background(), "u1", "", "")
	require.NoError(t, err)
	require.True(t, rec.IsLate)
}

func TestCheckInExactlyAtThreshold(t *testing.T) {
	svc, _ := newAttendanceService(time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC))

	rec, err := svc.CheckIn(context.Background(), "u1", "", "")
	require.NoError(t, err)
	require.False(t, rec.IsLate)
}

func TestDoubleCheckInSameDay(t *testing.T) {
	svc, _ := newAttendanceService(time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC))

	_, err := svc.CheckIn(context.Background(), "u1", "", "")
	require.NoError(t, err)
	_, err = svc.CheckIn(context.Background(), "u1", "", "")
	require.ErrorIs(t, err, ErrAlreadyCheckedIn)
}

func TestCheckOutComputesHours(t *testing.T) {
	start := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	svc, _ := newAttendanceService(start)

	_, err := svc.CheckIn(context.Background(), "u1", "", "")
	require.NoError(t, err)

	svc.now = func() time.Time { return start.Add(8*time.Hour + 30*time.Minute) }
	rec, err := svc.CheckOut(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, rec.CheckOut)
	require.InDelta(t, 8.5, rec.WorkHours, 0.001)
}

func TestCheckOutWithoutCheckIn(t *testing.T) {
	svc, _ := newAttendanceService(time.Date(2024, 3, 4, 17, 0, 0, 0, time.UTC))

	_, err := svc.CheckOut(context.Background(), "u1")
	require.ErrorIs(t, err, ErrNotCheckedIn)
}

func TestDoubleCheckOut(t *testing.T) {
	start := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	svc, _ := newAttendanceService(start)

	_, err := svc.CheckIn(context.Background(), "u1", "", "")
	require.NoError(t, err)
	svc.now = func() time.Time { return start.Add(8 * time.Hour) }
	_, err = svc.CheckOut(context.Background(), "u1")
	require.NoError(t, err)
	_, err = svc.CheckOut(context.Background(), "u1")
	require.ErrorIs(t, err, ErrAlreadyCheckedOut)
}

func TestStatsForMonth(t *testing.T) {
	svc, _ := newAttendanceService(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))

	// Three days in March 2024, one of them late.
	days := []struct {
		day  int
		hour int
		min  int
	}{{1, 9, 0}, {4, 9, 45}, {5, 8, 30}}
	for _, d := range days {
		svc.now = func() time.Time { return time.Date(2024, 3, d.day, d.hour, d.min, 0, 0, time.UTC) }
		_, err := svc.CheckIn(context.Background(), "u1", "", "")
		require.NoError(t, err)
	}

	stats, err := svc.StatsForMonth(context.Background(), "u1", 2024, time.March)
	require.NoError(t, err)
	require.Equal(t, 3, stats.PresentDays)
	require.Equal(t, 1, stats.LateDays)
	// March 2024 has 21 weekdays.
	require.Equal(t, 21, stats.WorkDays)
}

func TestStatsInvalidMonth(t *testing.T) {
	svc, _ := newAttendanceService(time.Now())
	_, err := svc.StatsForMonth(context.Background(), "u1", 2024, time.Month(13))
	require.ErrorIs(t, err, ErrValidation)
}

func TestListRangeInverted(t *testing.T) {
	svc, _ := newAttendanceService(time.Now())
	_, err := svc.ListRange(context.Background(), "u1",
		time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, ErrValidation)
}

func TestPurgeOlderThan(t *testing.T) {
	svc, repo := newAttendanceService(time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC))

	_, err := svc.CheckIn(context.Background(), "u1", "", "")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC) }
	_, err = svc.CheckIn(context.Background(), "u1", "", "")
	require.NoError(t, err)

	deleted, err := svc.PurgeOlderThan(context.Background(), 30)
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)
	require.Len(t, repo.records, 1)
}

func TestWorkdaysExcludesWeekends(t *testing.T) {
	// February 2024: 29 days, 21 weekdays.
	require.Equal(t, 21, Workdays(2024, time.February))
}
