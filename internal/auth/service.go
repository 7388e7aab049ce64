package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-hq/meridian/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials. Failing lookups,
// inactive accounts and bad passwords all collapse into the same error so
// responses do not reveal which part failed.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Credential, error) {
	cred, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !cred.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return cred, nil
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, rec SessionRecord) error {
	return s.repo.CreateSession(ctx, rec)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}
