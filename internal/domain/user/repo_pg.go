package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
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

const uniqueViolation = "23505"

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation &&
		strings.Contains(pgErr.ConstraintName, constraint)
}

const userCols = `id, name, email, phone, password_hash, role, gender, date_of_birth, address,
	active, email_verified, last_login,
	verify_token_hash, verify_token_expiry, reset_token_hash, reset_token_expiry,
	created_at, updated_at`

func (r *repoPG) CreateUser(ctx context.Context, u *User) error {
	u.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO users (
			id, name, email, phone, password_hash, role, gender, date_of_birth, address,
			active, email_verified, verify_token_hash, verify_token_expiry
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		u.ID, u.Name, u.Email, u.Phone, u.PasswordHash, u.Role, u.Gender, u.DateOfBirth, u.Address,
		u.Active, u.EmailVerified, u.VerifyTokenHash, u.VerifyTokenExpiry,
	)
	if isUniqueViolation(err, "email") {
		return ErrEmailTaken
	}
	return err
}

func (r *repoPG) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getUser(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id)
}

func (r *repoPG) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return r.getUser(ctx, `SELECT `+userCols+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
}

func (r *repoPG) GetUserByVerifyToken(ctx context.Context, tokenHash string) (*User, error) {
	return r.getUser(ctx, `SELECT `+userCols+` FROM users WHERE verify_token_hash = $1`, tokenHash)
}

func (r *repoPG) GetUserByResetToken(ctx context.Context, tokenHash string) (*User, error) {
	return r.getUser(ctx, `SELECT `+userCols+` FROM users WHERE reset_token_hash = $1`, tokenHash)
}

func (r *repoPG) getUser(ctx context.Context, query string, args ...interface{}) (*User, error) {
	u, err := scanUser(r.conn(ctx).QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

func (r *repoPG) UpdateUser(ctx context.Context, u *User) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE users SET name=$2, phone=$3, gender=$4, date_of_birth=$5, address=$6, updated_at=NOW()
		WHERE id = $1`,
		u.ID, u.Name, u.Phone, u.Gender, u.DateOfBirth, u.Address,
	)
	return err
}

func (r *repoPG) SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE users SET password_hash=$2, reset_token_hash=NULL, reset_token_expiry=NULL, updated_at=NOW() WHERE id = $1`,
		id, passwordHash)
	return err
}

func (r *repoPG) SetVerifyToken(ctx context.Context, id uuid.UUID, tokenHash *string, expiry *time.Time) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE users SET verify_token_hash=$2, verify_token_expiry=$3, updated_at=NOW() WHERE id = $1`,
		id, tokenHash, expiry)
	return err
}

func (r *repoPG) SetResetToken(ctx context.Context, id uuid.UUID, tokenHash *string, expiry *time.Time) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE users SET reset_token_hash=$2, reset_token_expiry=$3, updated_at=NOW() WHERE id = $1`,
		id, tokenHash, expiry)
	return err
}

func (r *repoPG) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE users SET email_verified=TRUE, verify_token_hash=NULL, verify_token_expiry=NULL, updated_at=NOW() WHERE id = $1`,
		id)
	return err
}

func (r *repoPG) SetLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE users SET last_login=$2 WHERE id = $1`, id, at)
	return err
}

func (r *repoPG) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE users SET active=$2, updated_at=NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListUsers(ctx context.Context, f UserFilter, limit, offset int) ([]*User, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	idx := 1
	if f.Role != "" {
		where += fmt.Sprintf(" AND role = $%d", idx)
		args = append(args, f.Role)
		idx++
	}
	if f.Active != nil {
		where += fmt.Sprintf(" AND active = $%d", idx)
		args = append(args, *f.Active)
		idx++
	}
	if f.Search != "" {
		where += fmt.Sprintf(" AND (name ILIKE $%d OR email ILIKE $%d)", idx, idx)
		args = append(args, "%"+f.Search+"%")
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + userCols + ` FROM users` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

func (r *repoPG) CountByRole(ctx context.Context, role string) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role = $1`, role).Scan(&n)
	return n, err
}

// -- Patient profiles --

const patientCols = `id, user_id, registration_number, blood_group, genotype,
	emergency_name, emergency_relation, emergency_phone, assigned_doctor_id, created_at, updated_at`

func (r *repoPG) CreatePatientProfile(ctx context.Context, p *PatientProfile) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_profiles (
			id, user_id, registration_number, blood_group, genotype,
			emergency_name, emergency_relation, emergency_phone, assigned_doctor_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.UserID, p.RegistrationNumber, p.BloodGroup, p.Genotype,
		p.EmergencyName, p.EmergencyRelation, p.EmergencyPhone, p.AssignedDoctorID,
	)
	return err
}

func (r *repoPG) GetPatientProfile(ctx context.Context, userID uuid.UUID) (*PatientProfile, error) {
	var p PatientProfile
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient_profiles WHERE user_id = $1`, userID).
		Scan(&p.ID, &p.UserID, &p.RegistrationNumber, &p.BloodGroup, &p.Genotype,
			&p.EmergencyName, &p.EmergencyRelation, &p.EmergencyPhone, &p.AssignedDoctorID,
			&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) UpdatePatientProfile(ctx context.Context, p *PatientProfile) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient_profiles SET
			blood_group=$2, genotype=$3, emergency_name=$4, emergency_relation=$5,
			emergency_phone=$6, assigned_doctor_id=$7, updated_at=NOW()
		WHERE user_id = $1`,
		p.UserID, p.BloodGroup, p.Genotype, p.EmergencyName, p.EmergencyRelation,
		p.EmergencyPhone, p.AssignedDoctorID,
	)
	return err
}

// -- Doctor profiles --

const doctorCols = `id, user_id, employee_id, specialization, license_number,
	consultation_fee, slot_minutes, availability, created_at, updated_at`

func (r *repoPG) CreateDoctorProfile(ctx context.Context, d *DoctorProfile) error {
	d.ID = uuid.New()
	if d.Availability == nil {
		d.Availability = Availability{}
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctor_profiles (
			id, user_id, employee_id, specialization, license_number,
			consultation_fee, slot_minutes, availability
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		d.ID, d.UserID, d.EmployeeID, d.Specialization, d.LicenseNumber,
		d.ConsultationFee, d.SlotMinutes, d.Availability,
	)
	if isUniqueViolation(err, "license") {
		return ErrLicenseTaken
	}
	return err
}

func (r *repoPG) GetDoctorProfile(ctx context.Context, userID uuid.UUID) (*DoctorProfile, error) {
	var d DoctorProfile
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctor_profiles WHERE user_id = $1`, userID).
		Scan(&d.ID, &d.UserID, &d.EmployeeID, &d.Specialization, &d.LicenseNumber,
			&d.ConsultationFee, &d.SlotMinutes, &d.Availability, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repoPG) UpdateDoctorProfile(ctx context.Context, d *DoctorProfile) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE doctor_profiles SET
			specialization=$2, consultation_fee=$3, slot_minutes=$4, availability=$5, updated_at=NOW()
		WHERE user_id = $1`,
		d.UserID, d.Specialization, d.ConsultationFee, d.SlotMinutes, d.Availability,
	)
	return err
}

func (r *repoPG) ListDoctors(ctx context.Context, specialization string, limit, offset int) ([]*DoctorSummary, int, error) {
	where := ` WHERE u.role = 'doctor' AND u.active`
	args := []interface{}{}
	idx := 1
	if specialization != "" {
		where += fmt.Sprintf(" AND d.specialization ILIKE $%d", idx)
		args = append(args, "%"+specialization+"%")
		idx++
	}

	var total int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM doctor_profiles d JOIN users u ON u.id = d.user_id`+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT d.user_id, u.name, d.specialization, d.consultation_fee, d.slot_minutes, d.employee_id
		FROM doctor_profiles d JOIN users u ON u.id = d.user_id` + where +
		fmt.Sprintf(" ORDER BY u.name LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var doctors []*DoctorSummary
	for rows.Next() {
		var d DoctorSummary
		if err := rows.Scan(&d.UserID, &d.Name, &d.Specialization, &d.ConsultationFee, &d.SlotMinutes, &d.EmployeeID); err != nil {
			return nil, 0, err
		}
		doctors = append(doctors, &d)
	}
	return doctors, total, rows.Err()
}

// -- Admin profiles --

func (r *repoPG) CreateAdminProfile(ctx context.Context, a *AdminProfile) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO admin_profiles (id, user_id, employee_id, department)
		VALUES ($1,$2,$3,$4)`,
		a.ID, a.UserID, a.EmployeeID, a.Department,
	)
	return err
}

func (r *repoPG) GetAdminProfile(ctx context.Context, userID uuid.UUID) (*AdminProfile, error) {
	var a AdminProfile
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT id, user_id, employee_id, department, created_at, updated_at
		FROM admin_profiles WHERE user_id = $1`, userID).
		Scan(&a.ID, &a.UserID, &a.EmployeeID, &a.Department, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// -- Sequences --

func (r *repoPG) NextPatientSeq(ctx context.Context) (int64, error) {
	return r.nextSeq(ctx, "patient_number_seq")
}

func (r *repoPG) NextDoctorSeq(ctx context.Context) (int64, error) {
	return r.nextSeq(ctx, "doctor_number_seq")
}

func (r *repoPG) NextAdminSeq(ctx context.Context) (int64, error) {
	return r.nextSeq(ctx, "admin_number_seq")
}

func (r *repoPG) nextSeq(ctx context.Context, name string) (int64, error) {
	var n int64
	err := r.conn(ctx).QueryRow(ctx, `SELECT nextval($1)`, name).Scan(&n)
	return n, err
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.Gender, &u.DateOfBirth, &u.Address,
		&u.Active, &u.EmailVerified, &u.LastLogin,
		&u.VerifyTokenHash, &u.VerifyTokenExpiry, &u.ResetTokenHash, &u.ResetTokenExpiry,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
