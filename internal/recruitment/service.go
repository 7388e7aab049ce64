package recruitment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RepositoryPort is the persistence contract consumed by the service.
type RepositoryPort interface {
	InsertPosting(ctx context.Context, p Posting) error
	GetPosting(ctx context.Context, id string) (*Posting, error)
	ListPostings(ctx context.Context, status PostingStatus) ([]Posting, error)
	UpdatePosting(ctx context.Context, p Posting) (int64, error)
	InsertApplication(ctx context.Context, a Application) error
	GetApplication(ctx context.Context, id string) (*Application, error)
	ListApplications(ctx context.Context, postingID string) ([]Application, error)
	AdvanceApplication(ctx context.Context, id string, from, to Stage, notes string, updatedAt time.Time) (int64, error)
}

// Service implements the hiring pipeline.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService constructs a Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// PostingInput carries the fields for a new posting.
type PostingInput struct {
	Title        string
	Department   string
	Description  string
	Requirements string
}

// CreatePosting registers a new posting in draft.
func (s *Service) CreatePosting(ctx context.Context, in PostingInput, postedBy string) (*Posting, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Department) == "" {
		return nil, ErrValidation
	}

	now := s.now().UTC()
	p := Posting{
		ID:           uuid.NewString(),
		Title:        strings.TrimSpace(in.Title),
		Department:   strings.TrimSpace(in.Department),
		Description:  in.Description,
		Requirements: in.Requirements,
		Status:       PostingDraft,
		PostedBy:     postedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.InsertPosting(ctx, p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPosting returns one posting.
func (s *Service) GetPosting(ctx context.Context, id string) (*Posting, error) {
	return s.repo.GetPosting(ctx, id)
}

// ListPostings returns postings, optionally filtered by status.
func (s *Service) ListPostings(ctx context.Context, status PostingStatus) ([]Posting, error) {
	if status != "" && !KnownPostingStatus(status) {
		return nil, ErrValidation
	}
	return s.repo.ListPostings(ctx, status)
}

// PostingPatch is a partial update for a posting.
type PostingPatch struct {
	Title        *string
	Department   *string
	Description  *string
	Requirements *string
	Status       *string
}

// UpdatePosting patches a posting. Closed postings stay frozen.
func (s *Service) UpdatePosting(ctx context.Context, id string, in PostingPatch) (*Posting, error) {
	p, err := s.repo.GetPosting(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status == PostingClosed {
		return nil, ErrInvalidState
	}

	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, ErrValidation
		}
		p.Title = strings.TrimSpace(*in.Title)
	}
	if in.Department != nil {
		if strings.TrimSpace(*in.Department) == "" {
			return nil, ErrValidation
		}
		p.Department = strings.TrimSpace(*in.Department)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Requirements != nil {
		p.Requirements = *in.Requirements
	}
	if in.Status != nil {
		next := PostingStatus(*in.Status)
		if !KnownPostingStatus(next) {
			return nil, ErrValidation
		}
		p.Status = next
	}
	p.UpdatedAt = s.now().UTC()

	rows, err := s.repo.UpdatePosting(ctx, *p)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrNotFound
	}
	return p, nil
}

// ApplyInput carries a candidate's submission.
type ApplyInput struct {
	CandidateName  string
	CandidateEmail string
	ResumeURL      string
}

// Apply files a candidate against an active posting.
func (s *Service) Apply(ctx context.Context, postingID string, in ApplyInput) (*Application, error) {
	if strings.TrimSpace(in.CandidateName) == "" || strings.TrimSpace(in.CandidateEmail) == "" {
		return nil, ErrValidation
	}
	p, err := s.repo.GetPosting(ctx, postingID)
	if err != nil {
		return nil, err
	}
	if p.Status != PostingActive {
		return nil, ErrPostingClosed
	}

	now := s.now().UTC()
	a := Application{
		ID:             uuid.NewString(),
		PostingID:      postingID,
		CandidateName:  strings.TrimSpace(in.CandidateName),
		CandidateEmail: strings.TrimSpace(in.CandidateEmail),
		ResumeURL:      in.ResumeURL,
		Stage:          StageSubmitted,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.InsertApplication(ctx, a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Applications lists a posting's pipeline.
func (s *Service) Applications(ctx context.Context, postingID string) ([]Application, error) {
	if _, err := s.repo.GetPosting(ctx, postingID); err != nil {
		return nil, err
	}
	return s.repo.ListApplications(ctx, postingID)
}

// Advance moves an application along the pipeline. Only the transitions
// the stage map allows succeed, and the write is conditional on the
// stage observed here.
func (s *Service) Advance(ctx context.Context, applicationID string, to Stage, notes string) (*Application, error) {
	a, err := s.repo.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if !CanAdvance(a.Stage, to) {
		return nil, ErrInvalidState
	}

	updatedAt := s.now().UTC()
	rows, err := s.repo.AdvanceApplication(ctx, applicationID, a.Stage, to, notes, updatedAt)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		// A concurrent move changed the stage between our read and write.
		return nil, ErrInvalidState
	}
	a.Stage = to
	if notes != "" {
		a.Notes = notes
	}
	a.UpdatedAt = updatedAt
	return a, nil
}
