package users

import (
	"context"
	"time"

	"github.com/paperfix/paperfix/backend/go-services/internal/models"
	"github.com/paperfix/paperfix/backend/go-services/internal/session"
)

// Service records who has signed in. Document ownership never depends on it.
type Service struct {
	repo UserRepository
	now  func() time.Time
}

func NewService(r UserRepository) *Service {
	return &Service{repo: r, now: func() time.Time { return time.Now().UTC() }}
}

// UpsertFromSession creates or refreshes the profile for an authenticated session.
// An anonymous session yields (nil, nil).
func (s *Service) UpsertFromSession(ctx context.Context, sess session.Session) (*models.User, error) {
	if !sess.Authenticated() {
		return nil, nil
	}
	now := s.now()
	return s.repo.UpsertBySub(ctx, &models.User{
		Sub:         sess.UserID,
		Email:       sess.Email,
		Name:        sess.Name,
		AvatarURL:   sess.AvatarURL,
		Provider:    sess.Provider,
		CreatedAt:   now,
		LastLoginAt: now,
	})
}

// GetProfile returns the stored profile for sub, or nil when none exists.
func (s *Service) GetProfile(ctx context.Context, sub string) (*models.User, error) {
	return s.repo.GetBySub(ctx, sub)
}
