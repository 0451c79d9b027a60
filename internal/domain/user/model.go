package user

import (
	"time"

	"github.com/google/uuid"
)

// Roles.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

// User is the base identity shared by every role. Role is immutable once the
// account exists; exactly one role profile row accompanies each user.
type User struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	Email         string     `db:"email" json:"email"`
	Phone         string     `db:"phone" json:"phone"`
	PasswordHash  string     `db:"password_hash" json:"-"`
	Role          string     `db:"role" json:"role"`
	Gender        *string    `db:"gender" json:"gender,omitempty"`
	DateOfBirth   *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Address       *string    `db:"address" json:"address,omitempty"`
	Active        bool       `db:"active" json:"active"`
	EmailVerified bool       `db:"email_verified" json:"email_verified"`
	LastLogin     *time.Time `db:"last_login" json:"last_login,omitempty"`

	VerifyTokenHash   *string    `db:"verify_token_hash" json:"-"`
	VerifyTokenExpiry *time.Time `db:"verify_token_expiry" json:"-"`
	ResetTokenHash    *string    `db:"reset_token_hash" json:"-"`
	ResetTokenExpiry  *time.Time `db:"reset_token_expiry" json:"-"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// PatientProfile extends a patient user.
type PatientProfile struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	UserID             uuid.UUID  `db:"user_id" json:"user_id"`
	RegistrationNumber string     `db:"registration_number" json:"registration_number"`
	BloodGroup         string     `db:"blood_group" json:"blood_group"`
	Genotype           *string    `db:"genotype" json:"genotype,omitempty"`
	EmergencyName      string     `db:"emergency_name" json:"emergency_name"`
	EmergencyRelation  string     `db:"emergency_relation" json:"emergency_relation"`
	EmergencyPhone     string     `db:"emergency_phone" json:"emergency_phone"`
	AssignedDoctorID   *uuid.UUID `db:"assigned_doctor_id" json:"assigned_doctor_id,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// TimeWindow is one availability window within a day, "HH:MM" bounds.
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Availability maps lowercase weekday names to windows.
type Availability map[string][]TimeWindow

// DoctorProfile extends a doctor user. Availability is stored as JSONB.
type DoctorProfile struct {
	ID              uuid.UUID    `db:"id" json:"id"`
	UserID          uuid.UUID    `db:"user_id" json:"user_id"`
	EmployeeID      string       `db:"employee_id" json:"employee_id"`
	Specialization  string       `db:"specialization" json:"specialization"`
	LicenseNumber   string       `db:"license_number" json:"license_number"`
	ConsultationFee float64      `db:"consultation_fee" json:"consultation_fee"`
	SlotMinutes     int          `db:"slot_minutes" json:"slot_minutes"`
	Availability    Availability `db:"availability" json:"availability"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
}

// AdminProfile extends an admin user.
type AdminProfile struct {
	ID         uuid.UUID `db:"id" json:"id"`
	UserID     uuid.UUID `db:"user_id" json:"user_id"`
	EmployeeID string    `db:"employee_id" json:"employee_id"`
	Department string    `db:"department" json:"department"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Account bundles a user with its role profile. Exactly one of the profile
// fields is non-nil, matching User.Role.
type Account struct {
	User    *User           `json:"user"`
	Patient *PatientProfile `json:"patient,omitempty"`
	Doctor  *DoctorProfile  `json:"doctor,omitempty"`
	Admin   *AdminProfile   `json:"admin,omitempty"`
}

// RegisterInput is the registration payload. Role selects which of the
// role-specific groups is required.
type RegisterInput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	Gender      string `json:"gender"`
	DateOfBirth string `json:"date_of_birth"`

	// Patient fields.
	BloodGroup        string `json:"blood_group"`
	Genotype          string `json:"genotype"`
	EmergencyName     string `json:"emergency_name"`
	EmergencyRelation string `json:"emergency_relation"`
	EmergencyPhone    string `json:"emergency_phone"`

	// Doctor fields.
	Specialization  string       `json:"specialization"`
	LicenseNumber   string       `json:"license_number"`
	ConsultationFee float64      `json:"consultation_fee"`
	SlotMinutes     int          `json:"slot_minutes"`
	Availability    Availability `json:"availability"`

	// Admin fields.
	Department string `json:"department"`
}

// ProfileUpdate carries the mutable base fields plus role profile fields.
// Nil pointers leave the current value untouched.
type ProfileUpdate struct {
	Name        *string `json:"name"`
	Phone       *string `json:"phone"`
	Gender      *string `json:"gender"`
	DateOfBirth *string `json:"date_of_birth"`
	Address     *string `json:"address"`

	BloodGroup        *string `json:"blood_group"`
	Genotype          *string `json:"genotype"`
	EmergencyName     *string `json:"emergency_name"`
	EmergencyRelation *string `json:"emergency_relation"`
	EmergencyPhone    *string `json:"emergency_phone"`

	Specialization  *string       `json:"specialization"`
	ConsultationFee *float64      `json:"consultation_fee"`
	SlotMinutes     *int          `json:"slot_minutes"`
	Availability    *Availability `json:"availability"`

	Department *string `json:"department"`
}

// DoctorSummary is the public doctor-directory projection.
type DoctorSummary struct {
	UserID          uuid.UUID `json:"user_id"`
	Name            string    `json:"name"`
	Specialization  string    `json:"specialization"`
	ConsultationFee float64   `json:"consultation_fee"`
	SlotMinutes     int       `json:"slot_minutes"`
	EmployeeID      string    `json:"employee_id"`
}
