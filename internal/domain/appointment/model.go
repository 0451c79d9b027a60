package appointment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Appointment statuses.
const (
	StatusScheduled  = "scheduled"
	StatusConfirmed  = "confirmed"
	StatusCheckedIn  = "checked-in"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
	StatusNoShow     = "no-show"
)

// transitions lists the valid next states per current state. Terminal states
// have no entries.
var transitions = map[string][]string{
	StatusScheduled:  {StatusConfirmed, StatusCheckedIn, StatusCancelled, StatusNoShow},
	StatusConfirmed:  {StatusCheckedIn, StatusCancelled, StatusNoShow},
	StatusCheckedIn:  {StatusInProgress, StatusCancelled, StatusNoShow},
	StatusInProgress: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
	StatusNoShow:     {},
}

// CanTransition reports whether moving from one status to another is allowed.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status has no outgoing transitions.
func IsTerminal(status string) bool {
	next, ok := transitions[status]
	return ok && len(next) == 0
}

// TransitionError names both states of a rejected transition.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot move appointment from %s to %s", e.From, e.To)
}

// Appointment holds non-owning references to the patient and doctor. The fee
// is snapshotted from the doctor profile at booking time.
type Appointment struct {
	ID                uuid.UUID `db:"id" json:"id"`
	AppointmentNumber string    `db:"appointment_number" json:"appointment_number"`
	PatientID         uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID          uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Date              time.Time `db:"date" json:"date"`
	Time              string    `db:"time" json:"time"`
	Status            string    `db:"status" json:"status"`
	Reason            string    `db:"reason" json:"reason"`
	Fee               float64   `db:"fee" json:"fee"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// BookInput is the booking payload. Date is YYYY-MM-DD, Time is HH:MM.
type BookInput struct {
	PatientID uuid.UUID `json:"patient_id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Reason    string    `json:"reason"`
}
