package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrLicenseTaken       = errors.New("license number already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is deactivated")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// ValidationError reports per-field problems found before any write happens.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Fields, ", "))
}

// UserFilter narrows ListUsers. Zero values are ignored.
type UserFilter struct {
	Role   string
	Active *bool
	Search string
}

type Repository interface {
	CreateUser(ctx context.Context, u *User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByVerifyToken(ctx context.Context, tokenHash string) (*User, error)
	GetUserByResetToken(ctx context.Context, tokenHash string) (*User, error)
	UpdateUser(ctx context.Context, u *User) error
	SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetVerifyToken(ctx context.Context, id uuid.UUID, tokenHash *string, expiry *time.Time) error
	SetResetToken(ctx context.Context, id uuid.UUID, tokenHash *string, expiry *time.Time) error
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
	SetLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	ListUsers(ctx context.Context, f UserFilter, limit, offset int) ([]*User, int, error)
	CountByRole(ctx context.Context, role string) (int, error)

	CreatePatientProfile(ctx context.Context, p *PatientProfile) error
	GetPatientProfile(ctx context.Context, userID uuid.UUID) (*PatientProfile, error)
	UpdatePatientProfile(ctx context.Context, p *PatientProfile) error

	CreateDoctorProfile(ctx context.Context, d *DoctorProfile) error
	GetDoctorProfile(ctx context.Context, userID uuid.UUID) (*DoctorProfile, error)
	UpdateDoctorProfile(ctx context.Context, d *DoctorProfile) error
	ListDoctors(ctx context.Context, specialization string, limit, offset int) ([]*DoctorSummary, int, error)

	CreateAdminProfile(ctx context.Context, a *AdminProfile) error
	GetAdminProfile(ctx context.Context, userID uuid.UUID) (*AdminProfile, error)

	NextPatientSeq(ctx context.Context) (int64, error)
	NextDoctorSeq(ctx context.Context) (int64, error)
	NextAdminSeq(ctx context.Context) (int64, error)
}
