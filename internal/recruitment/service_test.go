package recruitment

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryRecruitmentRepo struct {
	postings     map[string]Posting
	applications map[string]Application
	seq          int
}

func newMemoryRecruitmentRepo() *memoryRecruitmentRepo {
	return &memoryRecruitmentRepo{
		postings:     make(map[string]Posting),
		applications: make(map[string]Application),
	}
}

func (m *memoryRecruitmentRepo) stamp() time.Time {
	m.seq++
	return time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC).Add(time.Duration(m.seq) * time.Minute)
}

func (m *memoryRecruitmentRepo) InsertPosting(_ context.Context, p Posting) error {
	p.CreatedAt = m.stamp()
	m.postings[p.ID] = p
	return nil
}

func (m *memoryRecruitmentRepo) GetPosting(_ context.Context, id string) (*Posting, error) {
	p, ok := m.postings[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := p
	return &clone, nil
}

func (m *memoryRecruitmentRepo) ListPostings(_ context.Context, status PostingStatus) ([]Posting, error) {
	var out []Posting
	for _, p := range m.postings {
		if status != "" && p.Status != status {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryRecruitmentRepo) UpdatePosting(_ context.Context, p Posting) (int64, error) {
	stored, ok := m.postings[p.ID]
	if !ok {
		return 0, nil
	}
	p.CreatedAt = stored.CreatedAt
	m.postings[p.ID] = p
	return 1, nil
}

func (m *memoryRecruitmentRepo) InsertApplication(_ context.Context, a Application) error {
	a.CreatedAt = m.stamp()
	m.applications[a.ID] = a
	return nil
}

func (m *memoryRecruitmentRepo) GetApplication(_ context.Context, id string) (*Application, error) {
	a, ok := m.applications[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := a
	return &clone, nil
}

func (m *memoryRecruitmentRepo) ListApplications(_ context.Context, postingID string) ([]Application, error) {
	var out []Application
	for _, a := range m.applications {
		if a.PostingID == postingID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryRecruitmentRepo) AdvanceApplication(_ context.Context, id string, from, to Stage, notes string, updatedAt time.Time) (int64, error) {
	a, ok := m.applications[id]
	if !ok || a.Stage != from {
		return 0, nil
	}
	a.Stage = to
	if notes != "" {
		a.Notes = notes
	}
	a.UpdatedAt = updatedAt
	m.applications[id] = a
	return 1, nil
}

func newRecruitmentService(t *testing.T) (*Service, *memoryRecruitmentRepo) {
	t.Helper()
	repo := newMemoryRecruitmentRepo()
	svc := NewService(repo)
	svc.now = func() time.Time { return time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC) }
	return svc, repo
}

func activePosting(t *testing.T, svc *Service) *Posting {
	t.Helper()
	p, err := svc.CreatePosting(context.Background(), PostingInput{
		Title:      "Backend Engineer",
		Department: "engineering",
	}, "mgr-1")
	require.NoError(t, err)

	active := string(PostingActive)
	p, err = svc.UpdatePosting(context.Background(), p.ID, PostingPatch{Status: &active})
	require.NoError(t, err)
	return p
}

func TestCreatePostingStartsDraft(t *testing.T) {
	svc, _ := newRecruitmentService(t)

	p, err := svc.CreatePosting(context.Background(), PostingInput{
		Title:      "  Backend Engineer ",
		Department: "engineering",
	}, "mgr-1")
	require.NoError(t, err)
	require.Equal(t, PostingDraft, p.Status)
	require.Equal(t, "Backend Engineer", p.Title)
	require.Equal(t, "mgr-1", p.PostedBy)
}

func TestCreatePostingRequiresTitleAndDepartment(t *testing.T) {
	svc, _ := newRecruitmentService(t)

	_, err := svc.CreatePosting(context.Background(), PostingInput{Title: "X"}, "mgr-1")
	require.ErrorIs(t, err, ErrValidation)
}

func TestUpdateClosedPostingFrozen(t *testing.T) {
	svc, _ := newRecruitmentService(t)
	p := activePosting(t, svc)

	closed := string(PostingClosed)
	_, err := svc.UpdatePosting(context.Background(), p.ID, PostingPatch{Status: &closed})
	require.NoError(t, err)

	title := "Renamed"
	_, err = svc.UpdatePosting(context.Background(), p.ID, PostingPatch{Title: &title})
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestListPostingsFilter(t *testing.T) {
	svc, _ := newRecruitmentService(t)
	activePosting(t, svc)
	_, err := svc.CreatePosting(context.Background(), PostingInput{Title: "Designer", Department: "design"}, "mgr-1")
	require.NoError(t, err)

	active, err := svc.ListPostings(context.Background(), PostingActive)
	require.NoError(t, err)
	require.Len(t, active, 1)

	all, err := svc.ListPostings(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 2)

	_, err = svc.ListPostings(context.Background(), "archived")
	require.ErrorIs(t, err, ErrValidation)
}

func TestApplyToActivePosting(t *testing.T) {
	svc, _ := newRecruitmentService(t)
	p := activePosting(t, svc)

	a, err := svc.Apply(context.Background(), p.ID, ApplyInput{
		CandidateName:  "Ada Quinn",
		CandidateEmail: "ada@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, StageSubmitted, a.Stage)
}

func TestApplyToDraftPostingRejected(t *testing.T) {
	svc, _ := newRecruitmentService(t)

	p, err := svc.CreatePosting(context.Background(), PostingInput{Title: "QA", Department: "engineering"}, "mgr-1")
	require.NoError(t, err)

	_, err = svc.Apply(context.Background(), p.ID, ApplyInput{
		CandidateName:  "Ada Quinn",
		CandidateEmail: "ada@example.com",
	})
	require.ErrorIs(t, err, ErrPostingClosed)
}

func TestApplyMissingPosting(t *testing.T) {
	svc, _ := newRecruitmentService(t)

	_, err := svc.Apply(context.Background(), "nope", ApplyInput{
		CandidateName:  "Ada Quinn",
		CandidateEmail: "ada@example.com",
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAdvanceFollowsPipeline(t *testing.T) {
	svc, _ := newRecruitmentService(t)
	p := activePosting(t, svc)

	a, err := svc.Apply(context.Background(), p.ID, ApplyInput{
		CandidateName:  "Ada Quinn",
		CandidateEmail: "ada@example.com",
	})
	require.NoError(t, err)

	for _, next := range []Stage{StageReviewing, StageShortlisted, StageInterview, StageSelected} {
		a, err = svc.Advance(context.Background(), a.ID, next, "")
		require.NoError(t, err)
		require.Equal(t, next, a.Stage)
	}

	_, err = svc.Advance(context.Background(), a.ID, StageRejected, "")
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestAdvanceSkippingStageRejected(t *testing.T) {
	svc, _ := newRecruitmentService(t)
	p := activePosting(t, svc)

	a, err := svc.Apply(context.Background(), p.ID, ApplyInput{
		CandidateName:  "Ada Quinn",
		CandidateEmail: "ada@example.com",
	})
	require.NoError(t, err)

	_, err = svc.Advance(context.Background(), a.ID, StageInterview, "")
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestRejectFromAnyOpenStage(t *testing.T) {
	svc, _ := newRecruitmentService(t)
	p := activePosting(t, svc)

	a, err := svc.Apply(context.Background(), p.ID, ApplyInput{
		CandidateName:  "Ada Quinn",
		CandidateEmail: "ada@example.com",
	})
	require.NoError(t, err)

	a, err = svc.Advance(context.Background(), a.ID, StageReviewing, "")
	require.NoError(t, err)

	a, err = svc.Advance(context.Background(), a.ID, StageRejected, "not a fit")
	require.NoError(t, err)
	require.Equal(t, StageRejected, a.Stage)
	require.Equal(t, "not a fit", a.Notes)
}

// racingRecruitmentRepo lets a rival move the application between the
// service's read and its conditional write.
type racingRecruitmentRepo struct {
	*memoryRecruitmentRepo
	rival func()
}

func (r *racingRecruitmentRepo) GetApplication(ctx context.Context, id string) (*Application, error) {
	a, err := r.memoryRecruitmentRepo.GetApplication(ctx, id)
	if err == nil && r.rival != nil {
		rival := r.rival
		r.rival = nil
		rival()
	}
	return a, err
}

func TestAdvanceLostRace(t *testing.T) {
	inner := newMemoryRecruitmentRepo()
	racing := &racingRecruitmentRepo{memoryRecruitmentRepo: inner}
	svc := NewService(racing)
	svc.now = func() time.Time { return time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC) }
	p := activePosting(t, svc)

	a, err := svc.Apply(context.Background(), p.ID, ApplyInput{
		CandidateName:  "Ada Quinn",
		CandidateEmail: "ada@example.com",
	})
	require.NoError(t, err)

	racing.rival = func() {
		_, err := inner.AdvanceApplication(context.Background(), a.ID, StageSubmitted, StageRejected, "", time.Now())
		require.NoError(t, err)
	}

	_, err = svc.Advance(context.Background(), a.ID, StageReviewing, "")
	require.ErrorIs(t, err, ErrInvalidState)
	require.Equal(t, StageRejected, inner.applications[a.ID].Stage)
}
