package admin

import (
	"context"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/user"
)

// UserDirectory is the slice of user management the admin surface needs.
type UserDirectory interface {
	Users(ctx context.Context, f user.UserFilter, limit, offset int) ([]*user.User, int, error)
	ToggleStatus(ctx context.Context, userID, actorID uuid.UUID) (bool, error)
}

type Service struct {
	users UserDirectory
	repo  Repository
}

func NewService(users UserDirectory, repo Repository) *Service {
	return &Service{users: users, repo: repo}
}

func (s *Service) Users(ctx context.Context, f user.UserFilter, limit, offset int) ([]*user.User, int, error) {
	return s.users.Users(ctx, f, limit, offset)
}

// ToggleStatus flips a user's active flag and returns the new state.
// Deactivated users cannot log in.
func (s *Service) ToggleStatus(ctx context.Context, userID, actorID uuid.UUID) (bool, error) {
	return s.users.ToggleStatus(ctx, userID, actorID)
}

func (s *Service) Statistics(ctx context.Context) (*SystemStats, error) {
	return s.repo.SystemStats(ctx)
}
