package analytics

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

func (r *repoPG) Dashboard(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{AppointmentsByStatus: map[string]int{}}

	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE role = 'patient' AND active),
		       COUNT(*) FILTER (WHERE role = 'doctor' AND active)
		FROM users`).Scan(&stats.Patients, &stats.Doctors)
	if err != nil {
		return nil, err
	}

	err = r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM appointments WHERE date = CURRENT_DATE`).
		Scan(&stats.AppointmentsToday)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*) FROM appointments GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.AppointmentsByStatus[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(fee), 0) FROM appointments WHERE status = 'completed'`).
		Scan(&stats.TotalRevenue)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *repoPG) PatientBreakdown(ctx context.Context) (*PatientStats, error) {
	stats := &PatientStats{ByBloodGroup: map[string]int{}, NewPerMonth: []MonthCount{}}

	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM users WHERE role = 'patient'`).Scan(&stats.Total)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT COALESCE(blood_group, 'unknown'), COUNT(*)
		FROM patient_profiles
		GROUP BY blood_group`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var group string
		var count int
		if err := rows.Scan(&group, &count); err != nil {
			return nil, err
		}
		stats.ByBloodGroup[group] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.pool.Query(ctx, `
		SELECT to_char(created_at, 'YYYY-MM') AS month, COUNT(*)
		FROM users
		WHERE role = 'patient' AND created_at >= NOW() - INTERVAL '12 months'
		GROUP BY month
		ORDER BY month`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var mc MonthCount
		if err := rows.Scan(&mc.Month, &mc.Count); err != nil {
			return nil, err
		}
		stats.NewPerMonth = append(stats.NewPerMonth, mc)
	}
	return stats, rows.Err()
}

func (r *repoPG) AppointmentBreakdown(ctx context.Context) (*AppointmentStats, error) {
	stats := &AppointmentStats{ByStatus: map[string]int{}, PerMonth: []MonthCount{}}

	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*) FROM appointments GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.pool.Query(ctx, `
		SELECT to_char(date, 'YYYY-MM') AS month, COUNT(*)
		FROM appointments
		WHERE date >= NOW() - INTERVAL '12 months'
		GROUP BY month
		ORDER BY month`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var mc MonthCount
		if err := rows.Scan(&mc.Month, &mc.Count); err != nil {
			return nil, err
		}
		stats.PerMonth = append(stats.PerMonth, mc)
	}
	return stats, rows.Err()
}

func (r *repoPG) DoctorWorkload(ctx context.Context) ([]DoctorLoad, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.name,
		       COUNT(a.id),
		       COUNT(a.id) FILTER (WHERE a.status = 'completed')
		FROM users u
		LEFT JOIN appointments a ON a.doctor_id = u.id
		WHERE u.role = 'doctor'
		GROUP BY u.id, u.name
		ORDER BY COUNT(a.id) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	loads := []DoctorLoad{}
	for rows.Next() {
		var dl DoctorLoad
		if err := rows.Scan(&dl.DoctorID, &dl.Name, &dl.Appointments, &dl.Completed); err != nil {
			return nil, err
		}
		loads = append(loads, dl)
	}
	return loads, rows.Err()
}

func (r *repoPG) Revenue(ctx context.Context) (*RevenueStats, error) {
	stats := &RevenueStats{PerMonth: []MonthAmount{}}

	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(fee), 0) FROM appointments WHERE status = 'completed'`).
		Scan(&stats.Total)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT to_char(date, 'YYYY-MM') AS month, COALESCE(SUM(fee), 0)
		FROM appointments
		WHERE status = 'completed' AND date >= NOW() - INTERVAL '12 months'
		GROUP BY month
		ORDER BY month`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var ma MonthAmount
		if err := rows.Scan(&ma.Month, &ma.Amount); err != nil {
			return nil, err
		}
		stats.PerMonth = append(stats.PerMonth, ma)
	}
	return stats, rows.Err()
}
