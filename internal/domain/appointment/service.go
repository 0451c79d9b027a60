package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/domain/audit"
	"github.com/hms/hms/internal/platform/notification"
)

// DoctorSchedule is the booking-relevant slice of a doctor profile.
type DoctorSchedule struct {
	Name        string
	Windows     map[string][]Window
	SlotMinutes int
	Fee         float64
}

// DoctorDirectory resolves a doctor's schedule. Implemented over the identity
// service so this package stays decoupled from it.
type DoctorDirectory interface {
	Schedule(ctx context.Context, doctorID uuid.UUID) (*DoctorSchedule, error)
}

// Contact is a notification recipient looked up by user id.
type Contact struct {
	Name  string
	Email string
	Phone string
}

// PatientDirectory resolves a patient's contact details.
type PatientDirectory interface {
	Contact(ctx context.Context, patientID uuid.UUID) (*Contact, error)
}

type Service struct {
	repo     Repository
	doctors  DoctorDirectory
	patients PatientDirectory
	audit    audit.Recorder
	notify   *notification.Dispatcher
	log      zerolog.Logger
}

func NewService(repo Repository, doctors DoctorDirectory, patients PatientDirectory, recorder audit.Recorder, notify *notification.Dispatcher, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		doctors:  doctors,
		patients: patients,
		audit:    recorder,
		notify:   notify,
		log:      logger.With().Str("component", "appointment").Logger(),
	}
}

// AvailableSlotsFor computes the bookable times for a doctor on a date. The
// result is freshly computed per call.
func (s *Service) AvailableSlotsFor(ctx context.Context, doctorID uuid.UUID, dateStr string) ([]string, error) {
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, ErrInvalidDate
	}
	schedule, err := s.doctors.Schedule(ctx, doctorID)
	if err != nil {
		return nil, ErrUnknownDoctor
	}
	candidates := GenerateSlots(schedule.Windows[dayName(date)], schedule.SlotMinutes)
	if len(candidates) == 0 {
		return []string{}, nil
	}
	booked, err := s.repo.BookedTimes(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	return AvailableSlots(candidates, booked), nil
}

// Book creates an appointment in the scheduled state. Both parties must
// resolve to active accounts of the right role. The requested time must be
// one of the doctor's generated slots and not already booked; the storage
// uniqueness constraint closes the check-then-insert race, so a concurrent
// duplicate surfaces as ErrSlotTaken.
func (s *Service) Book(ctx context.Context, in BookInput, actorID uuid.UUID, ip string) (*Appointment, error) {
	date, err := time.Parse("2006-01-02", in.Date)
	if err != nil {
		return nil, ErrInvalidDate
	}
	contact, err := s.patients.Contact(ctx, in.PatientID)
	if err != nil {
		return nil, ErrUnknownPatient
	}
	schedule, err := s.doctors.Schedule(ctx, in.DoctorID)
	if err != nil {
		return nil, ErrUnknownDoctor
	}

	candidates := GenerateSlots(schedule.Windows[dayName(date)], schedule.SlotMinutes)
	if !contains(candidates, in.Time) {
		return nil, ErrNotAvailable
	}
	booked, err := s.repo.BookedTimes(ctx, in.DoctorID, date)
	if err != nil {
		return nil, err
	}
	if contains(booked, in.Time) {
		return nil, ErrSlotTaken
	}

	seq, err := s.repo.NextSeq(ctx)
	if err != nil {
		return nil, err
	}
	a := &Appointment{
		AppointmentNumber: fmt.Sprintf("APT%d%05d", time.Now().Year(), seq),
		PatientID:         in.PatientID,
		DoctorID:          in.DoctorID,
		Date:              date,
		Time:              in.Time,
		Status:            StatusScheduled,
		Reason:            in.Reason,
		Fee:               schedule.Fee,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		UserID:       &actorID,
		Action:       audit.ActionAppointmentBook,
		ResourceType: "appointment",
		ResourceID:   a.ID.String(),
		Description:  fmt.Sprintf("%s %s with doctor %s", in.Date, in.Time, in.DoctorID),
		Category:     audit.CategoryData,
		IP:           ip,
	})

	s.dispatch(ctx, a.PatientID, contact, notification.TplAppointmentBooked, map[string]string{
		"number": a.AppointmentNumber,
		"doctor": schedule.Name,
		"date":   in.Date,
		"time":   in.Time,
	})

	return a, nil
}

// Reschedule moves a scheduled or confirmed appointment to a new slot with
// the same doctor. The new slot goes through the same availability checks as
// booking.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, dateStr, timeStr string, actorID uuid.UUID, ip string) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != StatusScheduled && a.Status != StatusConfirmed {
		return nil, &TransitionError{From: a.Status, To: StatusScheduled}
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, ErrInvalidDate
	}
	schedule, err := s.doctors.Schedule(ctx, a.DoctorID)
	if err != nil {
		return nil, ErrUnknownDoctor
	}
	candidates := GenerateSlots(schedule.Windows[dayName(date)], schedule.SlotMinutes)
	if !contains(candidates, timeStr) {
		return nil, ErrNotAvailable
	}

	sameSlot := date.Equal(dateOnly(a.Date)) && timeStr == a.Time
	if sameSlot {
		return a, nil
	}
	booked, err := s.repo.BookedTimes(ctx, a.DoctorID, date)
	if err != nil {
		return nil, err
	}
	if contains(booked, timeStr) {
		return nil, ErrSlotTaken
	}

	if err := s.repo.UpdateSchedule(ctx, id, date, timeStr); err != nil {
		return nil, err
	}
	a.Date = date
	a.Time = timeStr

	s.audit.Record(ctx, audit.Entry{
		UserID:       &actorID,
		Action:       audit.ActionAppointmentMove,
		ResourceType: "appointment",
		ResourceID:   a.ID.String(),
		Description:  fmt.Sprintf("moved to %s %s", dateStr, timeStr),
		Category:     audit.CategoryData,
		IP:           ip,
	})

	s.notifyPatient(ctx, a, notification.TplAppointmentMoved, map[string]string{
		"number": a.AppointmentNumber,
		"doctor": schedule.Name,
		"date":   dateStr,
		"time":   timeStr,
	})

	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

// Guarded transitions. Each validates against the state machine and fails
// with a TransitionError naming both states.

func (s *Service) Confirm(ctx context.Context, id, actorID uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, StatusConfirmed, actorID)
}

func (s *Service) CheckIn(ctx context.Context, id, actorID uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, StatusCheckedIn, actorID)
}

func (s *Service) StartConsultation(ctx context.Context, id, actorID uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, StatusInProgress, actorID)
}

func (s *Service) Complete(ctx context.Context, id, actorID uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, StatusCompleted, actorID)
}

func (s *Service) Cancel(ctx context.Context, id, actorID uuid.UUID) (*Appointment, error) {
	a, err := s.transition(ctx, id, StatusCancelled, actorID)
	if err != nil {
		return nil, err
	}
	s.notifyPatient(ctx, a, notification.TplAppointmentCancel, map[string]string{
		"number": a.AppointmentNumber,
		"date":   a.Date.Format("2006-01-02"),
		"time":   a.Time,
	})
	return a, nil
}

func (s *Service) NoShow(ctx context.Context, id, actorID uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, StatusNoShow, actorID)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, to string, actorID uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(a.Status, to) {
		return nil, &TransitionError{From: a.Status, To: to}
	}
	if err := s.repo.UpdateStatus(ctx, id, to); err != nil {
		return nil, err
	}
	a.Status = to

	s.audit.Record(ctx, audit.Entry{
		UserID:       &actorID,
		Action:       audit.ActionAppointmentState,
		ResourceType: "appointment",
		ResourceID:   a.ID.String(),
		Description:  fmt.Sprintf("status -> %s", to),
		Category:     audit.CategoryData,
	})
	return a, nil
}

// Today lists appointments for the current date, optionally scoped to one
// doctor.
func (s *Service) Today(ctx context.Context, doctorID *uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	today := dateOnly(time.Now())
	return s.repo.List(ctx, Filter{DoctorID: doctorID, Date: &today}, limit, offset)
}

// TodayForDoctor loads a doctor's appointments for the current date.
func (s *Service) TodayForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Appointment, error) {
	appts, _, err := s.Today(ctx, &doctorID, 100, 0)
	return appts, err
}

// Upcoming lists future appointments matching the filter.
func (s *Service) Upcoming(ctx context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	from := dateOnly(time.Now())
	f.From = &from
	return s.repo.List(ctx, f, limit, offset)
}

// UpcomingForPatient loads a patient's next appointments.
func (s *Service) UpcomingForPatient(ctx context.Context, patientID uuid.UUID, limit int) ([]*Appointment, error) {
	appts, _, err := s.Upcoming(ctx, Filter{PatientID: &patientID}, limit, 0)
	return appts, err
}

// Stats counts appointments grouped by status.
func (s *Service) Stats(ctx context.Context, doctorID, patientID *uuid.UUID) (map[string]int, error) {
	return s.repo.CountByStatus(ctx, doctorID, patientID)
}

// PatientIDsForDoctor lists the distinct patients a doctor has seen.
func (s *Service) PatientIDsForDoctor(ctx context.Context, doctorID uuid.UUID) ([]uuid.UUID, error) {
	return s.repo.PatientIDsForDoctor(ctx, doctorID)
}

// StartReminders dispatches a reminder for every scheduled or confirmed
// appointment happening the next day, on the given interval until done is
// closed. Run it once per day.
func (s *Service) StartReminders(done <-chan struct{}, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				s.remindUpcoming(ctx)
				cancel()
			}
		}
	}()
}

func (s *Service) remindUpcoming(ctx context.Context) {
	tomorrow := dateOnly(time.Now().AddDate(0, 0, 1))
	appts, _, err := s.repo.List(ctx, Filter{Date: &tomorrow}, 500, 0)
	if err != nil {
		s.log.Error().Err(err).Msg("reminder sweep failed")
		return
	}
	sent := 0
	for _, a := range appts {
		if a.Status != StatusScheduled && a.Status != StatusConfirmed {
			continue
		}
		doctor := ""
		if schedule, err := s.doctors.Schedule(ctx, a.DoctorID); err == nil {
			doctor = schedule.Name
		}
		s.notifyPatient(ctx, a, notification.TplAppointmentRemind, map[string]string{
			"number": a.AppointmentNumber,
			"doctor": doctor,
			"date":   a.Date.Format("2006-01-02"),
			"time":   a.Time,
		})
		sent++
	}
	if sent > 0 {
		s.log.Info().Int("sent", sent).Msg("appointment reminders dispatched")
	}
}

func (s *Service) notifyPatient(ctx context.Context, a *Appointment, tpl string, data map[string]string) {
	if s.patients == nil {
		return
	}
	contact, err := s.patients.Contact(ctx, a.PatientID)
	if err != nil {
		s.log.Warn().Err(err).Str("patient_id", a.PatientID.String()).Msg("patient contact lookup failed")
		return
	}
	s.dispatch(ctx, a.PatientID, contact, tpl, data)
}

func (s *Service) dispatch(ctx context.Context, patientID uuid.UUID, contact *Contact, tpl string, data map[string]string) {
	if s.notify == nil {
		return
	}
	s.notify.Dispatch(ctx, notification.Recipient{
		UserID: &patientID,
		Email:  contact.Email,
		Phone:  contact.Phone,
		Name:   contact.Name,
	}, tpl, data)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
