package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("audit log not found")

// Filter narrows Search. Zero values are ignored.
type Filter struct {
	UserID     *uuid.UUID
	Action     string
	Category   string
	Severity   string
	Status     string
	Suspicious *bool
	From       *time.Time
	To         *time.Time
}

type Repository interface {
	Create(ctx context.Context, l *Log) error
	GetByID(ctx context.Context, id uuid.UUID) (*Log, error)
	Search(ctx context.Context, f Filter, limit, offset int) ([]*Log, int, error)
	CountDistinctIPs(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
	CountFailedLogins(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
	CountActions(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
	Statistics(ctx context.Context, since time.Time) (*Statistics, error)
	MarkReviewed(ctx context.Context, id, reviewerID uuid.UUID) error
	MarkSuspicious(ctx context.Context, id uuid.UUID) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
