package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const logCols = `id, user_id, action, resource_type, resource_id, description, status,
	ip, user_agent, severity, category, suspicious, reviewed_by, reviewed_at, created_at`

func (r *repoPG) Create(ctx context.Context, l *Log) error {
	l.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO audit_logs (
			id, user_id, action, resource_type, resource_id, description, status,
			ip, user_agent, severity, category, suspicious
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		l.ID, l.UserID, l.Action, l.ResourceType, l.ResourceID, l.Description, l.Status,
		l.IP, l.UserAgent, l.Severity, l.Category, l.Suspicious,
	)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Log, error) {
	l, err := scanLog(r.conn(ctx).QueryRow(ctx, `SELECT `+logCols+` FROM audit_logs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return l, err
}

func (r *repoPG) Search(ctx context.Context, f Filter, limit, offset int) ([]*Log, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	idx := 1
	if f.UserID != nil {
		where += fmt.Sprintf(" AND user_id = $%d", idx)
		args = append(args, *f.UserID)
		idx++
	}
	if f.Action != "" {
		where += fmt.Sprintf(" AND action = $%d", idx)
		args = append(args, f.Action)
		idx++
	}
	if f.Category != "" {
		where += fmt.Sprintf(" AND category = $%d", idx)
		args = append(args, f.Category)
		idx++
	}
	if f.Severity != "" {
		where += fmt.Sprintf(" AND severity = $%d", idx)
		args = append(args, f.Severity)
		idx++
	}
	if f.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", idx)
		args = append(args, f.Status)
		idx++
	}
	if f.Suspicious != nil {
		where += fmt.Sprintf(" AND suspicious = $%d", idx)
		args = append(args, *f.Suspicious)
		idx++
	}
	if f.From != nil {
		where += fmt.Sprintf(" AND created_at >= $%d", idx)
		args = append(args, *f.From)
		idx++
	}
	if f.To != nil {
		where += fmt.Sprintf(" AND created_at <= $%d", idx)
		args = append(args, *f.To)
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM audit_logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + logCols + ` FROM audit_logs` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectLogs(rows, total)
}

func (r *repoPG) CountDistinctIPs(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(DISTINCT ip) FROM audit_logs WHERE user_id = $1 AND ip IS NOT NULL AND created_at >= $2`,
		userID, since).Scan(&n)
	return n, err
}

func (r *repoPG) CountFailedLogins(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM audit_logs WHERE user_id = $1 AND action = $2 AND created_at >= $3`,
		userID, ActionLoginFailed, since).Scan(&n)
	return n, err
}

func (r *repoPG) CountActions(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM audit_logs WHERE user_id = $1 AND created_at >= $2`,
		userID, since).Scan(&n)
	return n, err
}

func (r *repoPG) Statistics(ctx context.Context, since time.Time) (*Statistics, error) {
	stats := &Statistics{
		BySeverity: map[string]int{},
		ByCategory: map[string]int{},
		ByAction:   map[string]int{},
	}

	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'failure'),
		       COUNT(*) FILTER (WHERE suspicious)
		FROM audit_logs WHERE created_at >= $1`, since).
		Scan(&stats.Total, &stats.Failures, &stats.Suspicious)
	if err != nil {
		return nil, err
	}

	for _, group := range []struct {
		col  string
		dest map[string]int
	}{
		{"severity", stats.BySeverity},
		{"category", stats.ByCategory},
		{"action", stats.ByAction},
	} {
		rows, err := r.conn(ctx).Query(ctx,
			`SELECT `+group.col+`, COUNT(*) FROM audit_logs WHERE created_at >= $1 GROUP BY `+group.col, since)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var key string
			var n int
			if err := rows.Scan(&key, &n); err != nil {
				rows.Close()
				return nil, err
			}
			group.dest[key] = n
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return stats, nil
}

func (r *repoPG) MarkReviewed(ctx context.Context, id, reviewerID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE audit_logs SET reviewed_by = $2, reviewed_at = NOW() WHERE id = $1`, id, reviewerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) MarkSuspicious(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE audit_logs SET suspicious = TRUE, severity = $2 WHERE id = $1`, id, SeverityHigh)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM audit_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanLog(row pgx.Row) (*Log, error) {
	var l Log
	err := row.Scan(
		&l.ID, &l.UserID, &l.Action, &l.ResourceType, &l.ResourceID, &l.Description, &l.Status,
		&l.IP, &l.UserAgent, &l.Severity, &l.Category, &l.Suspicious, &l.ReviewedBy, &l.ReviewedAt, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func collectLogs(rows pgx.Rows, total int) ([]*Log, int, error) {
	var logs []*Log
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, 0, err
		}
		logs = append(logs, l)
	}
	return logs, total, rows.Err()
}
