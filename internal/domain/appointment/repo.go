package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("appointment not found")
	ErrSlotTaken      = errors.New("the requested slot is already booked")
	ErrNotAvailable   = errors.New("the doctor is not available at the requested time")
	ErrUnknownDoctor  = errors.New("doctor not found or inactive")
	ErrUnknownPatient = errors.New("patient not found or inactive")
	ErrInvalidDate    = errors.New("date must be YYYY-MM-DD")
)

// Filter narrows List. Zero values are ignored.
type Filter struct {
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
	Status    string
	Date      *time.Time
	From      *time.Time
	To        *time.Time
}

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateSchedule(ctx context.Context, id uuid.UUID, date time.Time, t string) error
	List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error)
	BookedTimes(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]string, error)
	PatientIDsForDoctor(ctx context.Context, doctorID uuid.UUID) ([]uuid.UUID, error)
	CountByStatus(ctx context.Context, doctorID, patientID *uuid.UUID) (map[string]int, error)
	NextSeq(ctx context.Context) (int64, error)
}
