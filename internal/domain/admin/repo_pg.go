package admin

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) SystemStats(ctx context.Context) (*SystemStats, error) {
	var stats SystemStats

	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE role = 'patient'),
		       COUNT(*) FILTER (WHERE role = 'doctor'),
		       COUNT(*) FILTER (WHERE role = 'admin'),
		       COUNT(*) FILTER (WHERE active),
		       COUNT(*) FILTER (WHERE NOT active),
		       COUNT(*) FILTER (WHERE NOT email_verified),
		       COUNT(*) FILTER (WHERE created_at >= CURRENT_DATE)
		FROM users`).Scan(
		&stats.TotalPatients,
		&stats.TotalDoctors,
		&stats.TotalAdmins,
		&stats.ActiveUsers,
		&stats.InactiveUsers,
		&stats.UnverifiedUsers,
		&stats.RegisteredToday,
	)
	if err != nil {
		return nil, err
	}

	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE date = CURRENT_DATE)
		FROM appointments`).Scan(&stats.TotalAppointments, &stats.AppointmentsToday)
	if err != nil {
		return nil, err
	}

	err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM medical_records`).Scan(&stats.TotalRecords)
	if err != nil {
		return nil, err
	}
	err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM prescriptions`).Scan(&stats.TotalPrescriptions)
	if err != nil {
		return nil, err
	}

	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM audit_logs WHERE suspicious AND reviewed_at IS NULL`).
		Scan(&stats.SuspiciousLogs)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
