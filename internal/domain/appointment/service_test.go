package appointment

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/domain/audit"
	"github.com/hms/hms/internal/platform/notification"
)

// -- Mocks --

type mockRepo struct {
	appts map[uuid.UUID]*Appointment
	seq   int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{appts: map[uuid.UUID]*Appointment{}}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	for _, existing := range m.appts {
		if existing.DoctorID == a.DoctorID && existing.Date.Equal(a.Date) && existing.Time == a.Time &&
			existing.Status != StatusCancelled && existing.Status != StatusNoShow {
			return ErrSlotTaken
		}
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	m.appts[a.ID] = a
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	a, ok := m.appts[id]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	return nil
}

func (m *mockRepo) List(_ context.Context, f Filter, limit, offset int) ([]*Appointment, int, error) {
	var out []*Appointment
	for _, a := range m.appts {
		if f.PatientID != nil && a.PatientID != *f.PatientID {
			continue
		}
		if f.DoctorID != nil && a.DoctorID != *f.DoctorID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.Date != nil && !a.Date.Equal(*f.Date) {
			continue
		}
		if f.From != nil && a.Date.Before(*f.From) {
			continue
		}
		out = append(out, a)
	}
	return out, len(out), nil
}

func (m *mockRepo) BookedTimes(_ context.Context, doctorID uuid.UUID, date time.Time) ([]string, error) {
	var times []string
	for _, a := range m.appts {
		if a.DoctorID == doctorID && a.Date.Equal(date) &&
			a.Status != StatusCancelled && a.Status != StatusNoShow {
			times = append(times, a.Time)
		}
	}
	return times, nil
}

func (m *mockRepo) PatientIDsForDoctor(_ context.Context, doctorID uuid.UUID) ([]uuid.UUID, error) {
	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for _, a := range m.appts {
		if a.DoctorID == doctorID && !seen[a.PatientID] {
			seen[a.PatientID] = true
			ids = append(ids, a.PatientID)
		}
	}
	return ids, nil
}

func (m *mockRepo) CountByStatus(_ context.Context, doctorID, patientID *uuid.UUID) (map[string]int, error) {
	counts := map[string]int{}
	for _, a := range m.appts {
		if doctorID != nil && a.DoctorID != *doctorID {
			continue
		}
		if patientID != nil && a.PatientID != *patientID {
			continue
		}
		counts[a.Status]++
	}
	return counts, nil
}

func (m *mockRepo) UpdateSchedule(_ context.Context, id uuid.UUID, date time.Time, t string) error {
	a, ok := m.appts[id]
	if !ok {
		return ErrNotFound
	}
	for _, existing := range m.appts {
		if existing.ID != id && existing.DoctorID == a.DoctorID && existing.Date.Equal(date) &&
			existing.Time == t && existing.Status != StatusCancelled && existing.Status != StatusNoShow {
			return ErrSlotTaken
		}
	}
	a.Date = date
	a.Time = t
	return nil
}

func (m *mockRepo) NextSeq(_ context.Context) (int64, error) {
	m.seq++
	return m.seq, nil
}

type mockDirectory struct {
	schedules map[uuid.UUID]*DoctorSchedule
	contacts  map[uuid.UUID]*Contact
}

func (m *mockDirectory) Schedule(_ context.Context, id uuid.UUID) (*DoctorSchedule, error) {
	s, ok := m.schedules[id]
	if !ok {
		return nil, errors.New("doctor not found")
	}
	return s, nil
}

func (m *mockDirectory) Contact(_ context.Context, id uuid.UUID) (*Contact, error) {
	c, ok := m.contacts[id]
	if !ok {
		return nil, errors.New("patient not found")
	}
	return c, nil
}

type spyRecorder struct {
	entries []audit.Entry
}

func (s *spyRecorder) Record(_ context.Context, e audit.Entry) {
	s.entries = append(s.entries, e)
}

type testEnv struct {
	repo     *mockRepo
	dir      *mockDirectory
	audit    *spyRecorder
	email    *notification.MockEmailSender
	svc      *Service
	doctorID uuid.UUID
	patient  uuid.UUID
}

func newTestEnv() *testEnv {
	repo := newMockRepo()
	doctorID := uuid.New()
	patientID := uuid.New()
	dir := &mockDirectory{
		schedules: map[uuid.UUID]*DoctorSchedule{
			doctorID: {
				Name: "Dr. Grey",
				Windows: map[string][]Window{
					"monday": {{Start: "09:00", End: "10:00"}},
				},
				SlotMinutes: 30,
				Fee:         150,
			},
		},
		contacts: map[uuid.UUID]*Contact{
			patientID: {Name: "Alice", Email: "alice@x.com"},
		},
	}
	rec := &spyRecorder{}
	email := &notification.MockEmailSender{}
	dispatcher := notification.NewDispatcher(email, nil, nil, zerolog.Nop())
	svc := NewService(repo, dir, dir, rec, dispatcher, zerolog.Nop())
	return &testEnv{repo: repo, dir: dir, audit: rec, email: email, svc: svc, doctorID: doctorID, patient: patientID}
}

// nextMonday returns the next Monday as YYYY-MM-DD.
func nextMonday() string {
	d := time.Now().UTC()
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d.Format("2006-01-02")
}

// -- Tests --

func TestAvailableSlotsForDate(t *testing.T) {
	env := newTestEnv()

	slots, err := env.svc.AvailableSlotsFor(context.Background(), env.doctorID, nextMonday())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"09:00", "09:30"}
	if !reflect.DeepEqual(slots, want) {
		t.Errorf("slots = %v, want %v", slots, want)
	}
}

func TestAvailableSlotsOffDay(t *testing.T) {
	env := newTestEnv()

	// Sunday has no windows configured.
	d := time.Now().UTC()
	for d.Weekday() != time.Sunday {
		d = d.AddDate(0, 0, 1)
	}
	slots, err := env.svc.AvailableSlotsFor(context.Background(), env.doctorID, d.Format("2006-01-02"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("expected no slots, got %v", slots)
	}
}

func TestBookAndRecomputeSlots(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	date := nextMonday()

	a, err := env.svc.Book(ctx, BookInput{
		PatientID: env.patient,
		DoctorID:  env.doctorID,
		Date:      date,
		Time:      "09:00",
		Reason:    "checkup",
	}, env.patient, "1.1.1.1")
	if err != nil {
		t.Fatalf("book failed: %v", err)
	}
	if a.Status != StatusScheduled {
		t.Errorf("expected scheduled, got %s", a.Status)
	}
	if a.Fee != 150 {
		t.Errorf("expected fee snapshot 150, got %v", a.Fee)
	}
	if len(a.AppointmentNumber) == 0 || a.AppointmentNumber[:3] != "APT" {
		t.Errorf("unexpected appointment number %q", a.AppointmentNumber)
	}

	slots, err := env.svc.AvailableSlotsFor(ctx, env.doctorID, date)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(slots, []string{"09:30"}) {
		t.Errorf("slots after booking = %v, want [09:30]", slots)
	}

	if len(env.email.Calls()) != 1 {
		t.Errorf("expected booking notification, got %d emails", len(env.email.Calls()))
	}
	if len(env.audit.entries) == 0 || env.audit.entries[0].Action != audit.ActionAppointmentBook {
		t.Error("expected booking audit entry")
	}
}

func TestBookTakenSlot(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	date := nextMonday()

	in := BookInput{PatientID: env.patient, DoctorID: env.doctorID, Date: date, Time: "09:00"}
	if _, err := env.svc.Book(ctx, in, env.patient, ""); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}
	if _, err := env.svc.Book(ctx, in, env.patient, ""); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
}

func TestBookOutsideSchedule(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.Book(context.Background(), BookInput{
		PatientID: env.patient,
		DoctorID:  env.doctorID,
		Date:      nextMonday(),
		Time:      "13:00",
	}, env.patient, "")
	if !errors.Is(err, ErrNotAvailable) {
		t.Fatalf("expected ErrNotAvailable, got %v", err)
	}
}

func TestBookCancelledSlotReopens(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	date := nextMonday()

	in := BookInput{PatientID: env.patient, DoctorID: env.doctorID, Date: date, Time: "09:00"}
	a, err := env.svc.Book(ctx, in, env.patient, "")
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}
	if _, err := env.svc.Cancel(ctx, a.ID, env.patient); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	slots, err := env.svc.AvailableSlotsFor(ctx, env.doctorID, date)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(slots, []string{"09:00", "09:30"}) {
		t.Errorf("cancelled slot should reopen, got %v", slots)
	}

	if _, err := env.svc.Book(ctx, in, env.patient, ""); err != nil {
		t.Fatalf("rebooking a cancelled slot failed: %v", err)
	}
}

func TestTransitionFlow(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	actor := uuid.New()

	a, err := env.svc.Book(ctx, BookInput{
		PatientID: env.patient, DoctorID: env.doctorID, Date: nextMonday(), Time: "09:00",
	}, env.patient, "")
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}

	steps := []struct {
		name string
		fn   func(context.Context, uuid.UUID, uuid.UUID) (*Appointment, error)
		want string
	}{
		{"confirm", env.svc.Confirm, StatusConfirmed},
		{"check-in", env.svc.CheckIn, StatusCheckedIn},
		{"start", env.svc.StartConsultation, StatusInProgress},
		{"complete", env.svc.Complete, StatusCompleted},
	}
	for _, step := range steps {
		got, err := step.fn(ctx, a.ID, actor)
		if err != nil {
			t.Fatalf("%s failed: %v", step.name, err)
		}
		if got.Status != step.want {
			t.Fatalf("%s: status = %s, want %s", step.name, got.Status, step.want)
		}
	}

	// Completed is terminal.
	if _, err := env.svc.Cancel(ctx, a.ID, actor); err == nil {
		t.Fatal("expected cancel of completed appointment to fail")
	}
}

func TestCompleteRequiresInProgress(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a, err := env.svc.Book(ctx, BookInput{
		PatientID: env.patient, DoctorID: env.doctorID, Date: nextMonday(), Time: "09:00",
	}, env.patient, "")
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}

	_, err = env.svc.Complete(ctx, a.ID, env.patient)
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransitionError, got %v", err)
	}
	if te.From != StatusScheduled || te.To != StatusCompleted {
		t.Errorf("error should name both states, got %+v", te)
	}
	if env.repo.appts[a.ID].Status != StatusScheduled {
		t.Error("status must be unchanged after a rejected transition")
	}
}

func TestCancelFromAnyNonTerminal(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	date := nextMonday()

	times := []string{"09:00", "09:30"}
	for i, status := range []string{StatusScheduled, StatusCheckedIn} {
		a, err := env.svc.Book(ctx, BookInput{
			PatientID: env.patient, DoctorID: env.doctorID, Date: date, Time: times[i],
		}, env.patient, "")
		if err != nil {
			t.Fatalf("booking failed: %v", err)
		}
		env.repo.appts[a.ID].Status = status

		got, err := env.svc.Cancel(ctx, a.ID, env.patient)
		if err != nil {
			t.Fatalf("cancel from %s failed: %v", status, err)
		}
		if got.Status != StatusCancelled {
			t.Errorf("expected cancelled, got %s", got.Status)
		}
	}
}

func TestCanTransitionTable(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{StatusScheduled, StatusConfirmed, true},
		{StatusScheduled, StatusCheckedIn, true},
		{StatusScheduled, StatusCompleted, false},
		{StatusConfirmed, StatusCheckedIn, true},
		{StatusConfirmed, StatusScheduled, false},
		{StatusCheckedIn, StatusInProgress, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusNoShow, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusScheduled, false},
		{StatusNoShow, StatusConfirmed, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}

	for _, s := range []string{StatusCompleted, StatusCancelled, StatusNoShow} {
		if !IsTerminal(s) {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []string{StatusScheduled, StatusConfirmed, StatusCheckedIn, StatusInProgress} {
		if IsTerminal(s) {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestStatsAndPatientList(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a, err := env.svc.Book(ctx, BookInput{
		PatientID: env.patient, DoctorID: env.doctorID, Date: nextMonday(), Time: "09:00",
	}, env.patient, "")
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}
	if _, err := env.svc.Book(ctx, BookInput{
		PatientID: env.patient, DoctorID: env.doctorID, Date: nextMonday(), Time: "09:30",
	}, env.patient, ""); err != nil {
		t.Fatalf("booking failed: %v", err)
	}
	if _, err := env.svc.Cancel(ctx, a.ID, env.patient); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	stats, err := env.svc.Stats(ctx, &env.doctorID, nil)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats[StatusScheduled] != 1 || stats[StatusCancelled] != 1 {
		t.Errorf("unexpected stats %v", stats)
	}

	ids, err := env.svc.PatientIDsForDoctor(ctx, env.doctorID)
	if err != nil {
		t.Fatalf("patient list failed: %v", err)
	}
	if len(ids) != 1 || ids[0] != env.patient {
		t.Errorf("unexpected patient ids %v", ids)
	}
}

func TestBookRejectsUnknownPatient(t *testing.T) {
	env := newTestEnv()

	_, err := env.svc.Book(context.Background(), BookInput{
		PatientID: uuid.New(), DoctorID: env.doctorID, Date: nextMonday(), Time: "09:00",
	}, uuid.New(), "")
	if !errors.Is(err, ErrUnknownPatient) {
		t.Fatalf("err = %v, want ErrUnknownPatient", err)
	}
	if len(env.repo.appts) != 0 {
		t.Fatalf("appointment was created for an unknown patient")
	}
}

func TestReschedule(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	date := nextMonday()

	a, err := env.svc.Book(ctx, BookInput{
		PatientID: env.patient, DoctorID: env.doctorID, Date: date, Time: "09:00",
	}, env.patient, "")
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}

	moved, err := env.svc.Reschedule(ctx, a.ID, date, "09:30", env.patient, "1.1.1.1")
	if err != nil {
		t.Fatalf("reschedule failed: %v", err)
	}
	if moved.Time != "09:30" {
		t.Errorf("time = %s, want 09:30", moved.Time)
	}

	// The old slot is bookable again.
	slots, err := env.svc.AvailableSlotsFor(ctx, env.doctorID, date)
	if err != nil {
		t.Fatalf("slots failed: %v", err)
	}
	if !reflect.DeepEqual(slots, []string{"09:00"}) {
		t.Errorf("slots = %v, want [09:00]", slots)
	}

	var found bool
	for _, e := range env.audit.entries {
		if e.Action == audit.ActionAppointmentMove {
			found = true
		}
	}
	if !found {
		t.Error("reschedule was not audited")
	}
}

func TestRescheduleToTakenSlot(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	date := nextMonday()

	a, err := env.svc.Book(ctx, BookInput{
		PatientID: env.patient, DoctorID: env.doctorID, Date: date, Time: "09:00",
	}, env.patient, "")
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}
	if _, err := env.svc.Book(ctx, BookInput{
		PatientID: env.patient, DoctorID: env.doctorID, Date: date, Time: "09:30",
	}, env.patient, ""); err != nil {
		t.Fatalf("booking failed: %v", err)
	}

	if _, err := env.svc.Reschedule(ctx, a.ID, date, "09:30", env.patient, ""); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("err = %v, want ErrSlotTaken", err)
	}
}

func TestRescheduleTerminalRejected(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	a, err := env.svc.Book(ctx, BookInput{
		PatientID: env.patient, DoctorID: env.doctorID, Date: nextMonday(), Time: "09:00",
	}, env.patient, "")
	if err != nil {
		t.Fatalf("booking failed: %v", err)
	}
	if _, err := env.svc.Cancel(ctx, a.ID, env.patient); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	_, err = env.svc.Reschedule(ctx, a.ID, nextMonday(), "09:30", env.patient, "")
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want TransitionError", err)
	}
}

func TestReminderSweep(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	tomorrow := dateOnly(time.Now().AddDate(0, 0, 1))

	due := &Appointment{
		AppointmentNumber: "APT202600001",
		PatientID:         env.patient,
		DoctorID:          env.doctorID,
		Date:              tomorrow,
		Time:              "09:00",
		Status:            StatusScheduled,
	}
	cancelled := &Appointment{
		AppointmentNumber: "APT202600002",
		PatientID:         env.patient,
		DoctorID:          env.doctorID,
		Date:              tomorrow,
		Time:              "09:30",
		Status:            StatusCancelled,
	}
	if err := env.repo.Create(ctx, due); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := env.repo.Create(ctx, cancelled); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	env.svc.remindUpcoming(ctx)

	calls := env.email.Calls()
	if len(calls) != 1 {
		t.Fatalf("sent %d reminders, want 1", len(calls))
	}
	if calls[0].To != "alice@x.com" {
		t.Errorf("reminder sent to %s", calls[0].To)
	}
}
