package admin

import "context"

// Repository gathers the cross-table counts for system statistics.
type Repository interface {
	SystemStats(ctx context.Context) (*SystemStats, error)
}
