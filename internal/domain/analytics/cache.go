package analytics

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Cache is the memoization layer behind the aggregations. Implementations
// must treat expired entries as misses.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, prefix string) (int64, error)
	CleanExpired(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (*CacheStats, error)
}

// cachePG stores entries in the analytics_cache table so they survive
// restarts and are shared across instances.
type cachePG struct {
	pool *pgxpool.Pool
}

func NewCache(pool *pgxpool.Pool) Cache {
	return &cachePG{pool: pool}
}

// Get returns the cached blob and bumps the hit counter. An expired entry is
// a miss; the row is left for the cleanup sweep.
func (c *cachePG) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := c.pool.QueryRow(ctx, `
		UPDATE analytics_cache
		SET hit_count = hit_count + 1, last_accessed = NOW()
		WHERE key = $1 AND expires_at > NOW()
		RETURNING data`, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *cachePG) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	_, err := c.pool.Exec(ctx, `
		INSERT INTO analytics_cache (key, data, expires_at)
		VALUES ($1, $2, NOW() + $3)
		ON CONFLICT (key) DO UPDATE SET
			data = EXCLUDED.data,
			expires_at = EXCLUDED.expires_at,
			hit_count = 0,
			last_accessed = NOW()`,
		key, data, ttl)
	return err
}

// Invalidate drops entries whose key starts with prefix; an empty prefix
// drops everything.
func (c *cachePG) Invalidate(ctx context.Context, prefix string) (int64, error) {
	tag, err := c.pool.Exec(ctx, `DELETE FROM analytics_cache WHERE key LIKE $1 || '%'`, prefix)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (c *cachePG) CleanExpired(ctx context.Context) (int64, error) {
	tag, err := c.pool.Exec(ctx, `DELETE FROM analytics_cache WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (c *cachePG) Stats(ctx context.Context) (*CacheStats, error) {
	var stats CacheStats
	err := c.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE expires_at <= NOW()),
		       COALESCE(SUM(hit_count), 0),
		       MIN(created_at)
		FROM analytics_cache`).
		Scan(&stats.Entries, &stats.Expired, &stats.TotalHits, &stats.Oldest)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
