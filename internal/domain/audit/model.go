package audit

import (
	"time"

	"github.com/google/uuid"
)

// Actions recorded in the activity log.
const (
	ActionLogin            = "login"
	ActionLoginFailed      = "login_failed"
	ActionLogout           = "logout"
	ActionRegister         = "register"
	ActionEmailVerify      = "email_verify"
	ActionPasswordReset    = "password_reset"
	ActionPasswordChange   = "password_change"
	ActionProfileUpdate    = "profile_update"
	ActionAppointmentBook  = "appointment_book"
	ActionAppointmentState = "appointment_state"
	ActionAppointmentMove  = "appointment_reschedule"
	ActionRecordCreate     = "record_create"
	ActionRecordView       = "record_view"
	ActionPrescription     = "prescription_create"
	ActionUserToggle       = "user_toggle_status"
	ActionDoctorAssign     = "doctor_assign"
	ActionCacheClear       = "cache_clear"
)

// Severity levels.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Categories.
const (
	CategoryAuth     = "auth"
	CategoryData     = "data"
	CategoryAdmin    = "admin"
	CategorySecurity = "security"
	CategoryGeneral  = "general"
)

// Statuses.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Log maps to the audit_logs table. Rows are append-only; only the review
// annotations are ever updated.
type Log struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	UserID       *uuid.UUID `db:"user_id" json:"user_id,omitempty"`
	Action       string     `db:"action" json:"action"`
	ResourceType string     `db:"resource_type" json:"resource_type"`
	ResourceID   *string    `db:"resource_id" json:"resource_id,omitempty"`
	Description  *string    `db:"description" json:"description,omitempty"`
	Status       string     `db:"status" json:"status"`
	IP           *string    `db:"ip" json:"ip,omitempty"`
	UserAgent    *string    `db:"user_agent" json:"user_agent,omitempty"`
	Severity     string     `db:"severity" json:"severity"`
	Category     string     `db:"category" json:"category"`
	Suspicious   bool       `db:"suspicious" json:"suspicious"`
	ReviewedBy   *uuid.UUID `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// Entry is the caller-facing shape of a log write. Zero-valued severity,
// category and status default to low/general/success.
type Entry struct {
	UserID       *uuid.UUID
	Action       string
	ResourceType string
	ResourceID   string
	Description  string
	Status       string
	IP           string
	UserAgent    string
	Severity     string
	Category     string
}

// Anomaly is one heuristic finding over a user's recent activity.
type Anomaly struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Count    int    `json:"count"`
	Details  string `json:"details"`
}

// Statistics summarizes the log over a window.
type Statistics struct {
	Total      int            `json:"total"`
	Failures   int            `json:"failures"`
	Suspicious int            `json:"suspicious"`
	BySeverity map[string]int `json:"by_severity"`
	ByCategory map[string]int `json:"by_category"`
	ByAction   map[string]int `json:"by_action"`
}

// Anomaly detection thresholds over the scan window.
const (
	anomalyMaxIPs          = 3
	anomalyMaxFailedLogins = 5
	anomalyMaxActions      = 1000
)
