package user

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/domain/audit"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/notification"
)

// -- Mock Repository --

type mockRepo struct {
	users    map[uuid.UUID]*User
	patients map[uuid.UUID]*PatientProfile
	doctors  map[uuid.UUID]*DoctorProfile
	admins   map[uuid.UUID]*AdminProfile
	seq      int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		users:    map[uuid.UUID]*User{},
		patients: map[uuid.UUID]*PatientProfile{},
		doctors:  map[uuid.UUID]*DoctorProfile{},
		admins:   map[uuid.UUID]*AdminProfile{},
	}
}

func (m *mockRepo) CreateUser(_ context.Context, u *User) error {
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrEmailTaken
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = u
	return nil
}

func (m *mockRepo) GetUserByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (m *mockRepo) GetUserByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) GetUserByVerifyToken(_ context.Context, hash string) (*User, error) {
	for _, u := range m.users {
		if u.VerifyTokenHash != nil && *u.VerifyTokenHash == hash {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) GetUserByResetToken(_ context.Context, hash string) (*User, error) {
	for _, u := range m.users {
		if u.ResetTokenHash != nil && *u.ResetTokenHash == hash {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) UpdateUser(_ context.Context, u *User) error {
	if _, ok := m.users[u.ID]; !ok {
		return ErrNotFound
	}
	m.users[u.ID] = u
	return nil
}

func (m *mockRepo) SetPassword(_ context.Context, id uuid.UUID, hash string) error {
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = hash
	u.ResetTokenHash = nil
	u.ResetTokenExpiry = nil
	return nil
}

func (m *mockRepo) SetVerifyToken(_ context.Context, id uuid.UUID, hash *string, exp *time.Time) error {
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.VerifyTokenHash = hash
	u.VerifyTokenExpiry = exp
	return nil
}

func (m *mockRepo) SetResetToken(_ context.Context, id uuid.UUID, hash *string, exp *time.Time) error {
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.ResetTokenHash = hash
	u.ResetTokenExpiry = exp
	return nil
}

func (m *mockRepo) MarkEmailVerified(_ context.Context, id uuid.UUID) error {
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.EmailVerified = true
	u.VerifyTokenHash = nil
	u.VerifyTokenExpiry = nil
	return nil
}

func (m *mockRepo) SetLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.LastLogin = &at
	return nil
}

func (m *mockRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.Active = active
	return nil
}

func (m *mockRepo) ListUsers(_ context.Context, f UserFilter, limit, offset int) ([]*User, int, error) {
	var out []*User
	for _, u := range m.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Active != nil && u.Active != *f.Active {
			continue
		}
		out = append(out, u)
	}
	return out, len(out), nil
}

func (m *mockRepo) CountByRole(_ context.Context, role string) (int, error) {
	n := 0
	for _, u := range m.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func (m *mockRepo) CreatePatientProfile(_ context.Context, p *PatientProfile) error {
	p.ID = uuid.New()
	m.patients[p.UserID] = p
	return nil
}

func (m *mockRepo) GetPatientProfile(_ context.Context, userID uuid.UUID) (*PatientProfile, error) {
	p, ok := m.patients[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *mockRepo) UpdatePatientProfile(_ context.Context, p *PatientProfile) error {
	m.patients[p.UserID] = p
	return nil
}

func (m *mockRepo) CreateDoctorProfile(_ context.Context, d *DoctorProfile) error {
	for _, existing := range m.doctors {
		if existing.LicenseNumber == d.LicenseNumber {
			return ErrLicenseTaken
		}
	}
	d.ID = uuid.New()
	m.doctors[d.UserID] = d
	return nil
}

func (m *mockRepo) GetDoctorProfile(_ context.Context, userID uuid.UUID) (*DoctorProfile, error) {
	d, ok := m.doctors[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

func (m *mockRepo) UpdateDoctorProfile(_ context.Context, d *DoctorProfile) error {
	m.doctors[d.UserID] = d
	return nil
}

func (m *mockRepo) ListDoctors(_ context.Context, specialization string, limit, offset int) ([]*DoctorSummary, int, error) {
	var out []*DoctorSummary
	for _, d := range m.doctors {
		u := m.users[d.UserID]
		if u == nil || !u.Active {
			continue
		}
		out = append(out, &DoctorSummary{
			UserID:          d.UserID,
			Name:            u.Name,
			Specialization:  d.Specialization,
			ConsultationFee: d.ConsultationFee,
			SlotMinutes:     d.SlotMinutes,
			EmployeeID:      d.EmployeeID,
		})
	}
	return out, len(out), nil
}

func (m *mockRepo) CreateAdminProfile(_ context.Context, a *AdminProfile) error {
	a.ID = uuid.New()
	m.admins[a.UserID] = a
	return nil
}

func (m *mockRepo) GetAdminProfile(_ context.Context, userID uuid.UUID) (*AdminProfile, error) {
	a, ok := m.admins[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func (m *mockRepo) NextPatientSeq(_ context.Context) (int64, error) { m.seq++; return m.seq, nil }
func (m *mockRepo) NextDoctorSeq(_ context.Context) (int64, error)  { m.seq++; return m.seq, nil }
func (m *mockRepo) NextAdminSeq(_ context.Context) (int64, error)   { m.seq++; return m.seq, nil }

// -- Audit spy --

type spyRecorder struct {
	entries []audit.Entry
}

func (s *spyRecorder) Record(_ context.Context, e audit.Entry) {
	s.entries = append(s.entries, e)
}

func (s *spyRecorder) last() *audit.Entry {
	if len(s.entries) == 0 {
		return nil
	}
	return &s.entries[len(s.entries)-1]
}

func testTokens() auth.TokenConfig {
	return auth.TokenConfig{
		Secret:     []byte("test-secret-key-that-is-long-enough"),
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	}
}

type testEnv struct {
	repo   *mockRepo
	audit  *spyRecorder
	email  *notification.MockEmailSender
	svc    *Service
}

func newTestEnv() *testEnv {
	repo := newMockRepo()
	rec := &spyRecorder{}
	email := &notification.MockEmailSender{}
	dispatcher := notification.NewDispatcher(email, nil, nil, zerolog.Nop())
	svc := NewService(repo, nil, testTokens(), rec, dispatcher, zerolog.Nop())
	return &testEnv{repo: repo, audit: rec, email: email, svc: svc}
}

func patientInput(email string) RegisterInput {
	return RegisterInput{
		Name:              "Alice Smith",
		Email:             email,
		Phone:             "08030000000",
		Password:          "secret-password",
		Role:              RolePatient,
		BloodGroup:        "O+",
		EmergencyName:     "Bob Smith",
		EmergencyRelation: "spouse",
		EmergencyPhone:    "08031111111",
	}
}

func doctorInput(email, license string) RegisterInput {
	return RegisterInput{
		Name:            "Dr. Grey",
		Email:           email,
		Phone:           "08040000000",
		Password:        "secret-password",
		Role:            RoleDoctor,
		Specialization:  "Cardiology",
		LicenseNumber:   license,
		ConsultationFee: 150,
		SlotMinutes:     30,
		Availability: Availability{
			"monday": {{Start: "09:00", End: "10:00"}},
		},
	}
}

// -- Tests --

func TestRegisterPatient(t *testing.T) {
	env := newTestEnv()

	account, err := env.svc.Register(context.Background(), patientInput("alice@x.com"), "1.1.1.1", "test")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if account.Patient == nil {
		t.Fatal("expected patient profile")
	}
	if !strings.HasPrefix(account.Patient.RegistrationNumber, "PT") {
		t.Errorf("unexpected registration number %q", account.Patient.RegistrationNumber)
	}
	if account.User.PasswordHash == "secret-password" {
		t.Error("password stored in plaintext")
	}
	if account.User.VerifyTokenHash == nil {
		t.Error("expected a verification token to be issued")
	}
	// Welcome plus verification email.
	if got := len(env.email.Calls()); got != 2 {
		t.Errorf("expected 2 emails, got %d", got)
	}
	if e := env.audit.last(); e == nil || e.Action != audit.ActionRegister {
		t.Error("expected register audit entry")
	}
}

func TestRegisterMissingRoleFields(t *testing.T) {
	env := newTestEnv()

	in := patientInput("alice@x.com")
	in.BloodGroup = ""
	_, err := env.svc.Register(context.Background(), in, "", "")

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	found := false
	for _, f := range ve.Fields {
		if strings.Contains(f, "blood_group") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected blood_group message, got %v", ve.Fields)
	}
	if len(env.repo.users) != 0 {
		t.Error("no user should be created on validation failure")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv()

	if _, err := env.svc.Register(context.Background(), patientInput("alice@x.com"), "", ""); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	_, err := env.svc.Register(context.Background(), patientInput("Alice@X.com"), "", "")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if len(env.repo.users) != 1 {
		t.Errorf("expected 1 user, got %d", len(env.repo.users))
	}
}

func TestRegisterDoctorDuplicateLicense(t *testing.T) {
	env := newTestEnv()

	if _, err := env.svc.Register(context.Background(), doctorInput("a@x.com", "LIC-1"), "", ""); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	_, err := env.svc.Register(context.Background(), doctorInput("b@x.com", "LIC-1"), "", "")
	if !errors.Is(err, ErrLicenseTaken) {
		t.Fatalf("expected ErrLicenseTaken, got %v", err)
	}
}

func TestLoginSuccess(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.svc.Register(ctx, patientInput("alice@x.com"), "", ""); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	account, pair, err := env.svc.Login(ctx, "alice@x.com", "secret-password", "1.1.1.1", "test")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Error("expected a token pair")
	}
	if account.User.LastLogin == nil {
		t.Error("expected last login to be set")
	}
	if e := env.audit.last(); e == nil || e.Action != audit.ActionLogin {
		t.Error("expected login audit entry")
	}
}

func TestLoginUnknownEmailAuditsWithNilUser(t *testing.T) {
	env := newTestEnv()

	_, _, err := env.svc.Login(context.Background(), "ghost@x.com", "whatever", "1.1.1.1", "test")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(env.audit.entries) != 1 {
		t.Fatalf("expected exactly 1 audit entry, got %d", len(env.audit.entries))
	}
	e := env.audit.entries[0]
	if e.UserID != nil {
		t.Error("expected nil user id on unknown email")
	}
	if e.Status != audit.StatusFailure {
		t.Errorf("expected failure status, got %s", e.Status)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.svc.Register(ctx, patientInput("alice@x.com"), "", ""); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	_, _, err := env.svc.Login(ctx, "alice@x.com", "wrong", "", "")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if e := env.audit.last(); e == nil || e.Action != audit.ActionLoginFailed || e.UserID == nil {
		t.Error("expected failed-login audit entry referencing the user")
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	account, err := env.svc.Register(ctx, patientInput("alice@x.com"), "", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := env.repo.SetActive(ctx, account.User.ID, false); err != nil {
		t.Fatal(err)
	}
	_, _, err = env.svc.Login(ctx, "alice@x.com", "secret-password", "", "")
	if !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
}

func TestVerifyEmailConsumedOnce(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	account, err := env.svc.Register(ctx, patientInput("alice@x.com"), "", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	// Pull the raw token off the verification email.
	calls := env.email.Calls()
	var raw string
	for _, call := range calls {
		if strings.Contains(call.Body, "verify") {
			parts := strings.Split(call.Body, "token: ")
			raw = strings.Split(parts[1], ".")[0]
		}
	}
	if raw == "" {
		t.Fatal("no verification token in email")
	}

	if err := env.svc.VerifyEmail(ctx, raw); err != nil {
		t.Fatalf("first verify failed: %v", err)
	}
	u := env.repo.users[account.User.ID]
	if !u.EmailVerified {
		t.Error("expected email_verified set")
	}
	if u.VerifyTokenHash != nil {
		t.Error("expected token cleared after use")
	}

	if err := env.svc.VerifyEmail(ctx, raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("second verify should fail with ErrInvalidToken, got %v", err)
	}
}

func TestPasswordResetRoundTrip(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	if _, err := env.svc.Register(ctx, patientInput("alice@x.com"), "", ""); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := env.svc.RequestPasswordReset(ctx, "alice@x.com"); err != nil {
		t.Fatalf("request reset failed: %v", err)
	}

	calls := env.email.Calls()
	last := calls[len(calls)-1]
	parts := strings.Split(last.Body, "minutes: ")
	raw := strings.Split(parts[1], ".")[0]

	if err := env.svc.ResetPassword(ctx, raw, "brand-new-password"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	// The consumed token must not work a second time.
	if err := env.svc.ResetPassword(ctx, raw, "another-password"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken on reuse, got %v", err)
	}

	if _, _, err := env.svc.Login(ctx, "alice@x.com", "brand-new-password", "", ""); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
}

func TestResetPasswordWeak(t *testing.T) {
	env := newTestEnv()
	if err := env.svc.ResetPassword(context.Background(), "whatever", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestRequestPasswordResetUnknownEmail(t *testing.T) {
	env := newTestEnv()
	// Anti-enumeration: unknown email still succeeds.
	if err := env.svc.RequestPasswordReset(context.Background(), "ghost@x.com"); err != nil {
		t.Fatalf("expected nil for unknown email, got %v", err)
	}
	if len(env.email.Calls()) != 0 {
		t.Error("no email should be sent for unknown address")
	}
}

func TestRequestPasswordResetRollsBackOnEmailFailure(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	account, err := env.svc.Register(ctx, patientInput("alice@x.com"), "", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	env.email.ShouldFail = true
	env.email.FailError = "smtp down"
	if err := env.svc.RequestPasswordReset(ctx, "alice@x.com"); err != nil {
		t.Fatalf("expected nil even on email failure, got %v", err)
	}

	u := env.repo.users[account.User.ID]
	if u.ResetTokenHash != nil {
		t.Error("reset token must be rolled back when the email fails")
	}
}

func TestUpdatePassword(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	account, err := env.svc.Register(ctx, patientInput("alice@x.com"), "", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	err = env.svc.UpdatePassword(ctx, account.User.ID, "wrong", "new-password-1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if err := env.svc.UpdatePassword(ctx, account.User.ID, "secret-password", "new-password-1"); err != nil {
		t.Fatalf("update password failed: %v", err)
	}
	if _, _, err := env.svc.Login(ctx, "alice@x.com", "new-password-1", "", ""); err != nil {
		t.Fatalf("login with updated password failed: %v", err)
	}
}

func TestPrincipalSource(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	account, err := env.svc.Register(ctx, patientInput("alice@x.com"), "", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	p, err := env.svc.Principal(ctx, account.User.ID)
	if err != nil {
		t.Fatalf("principal failed: %v", err)
	}
	if p.Role != RolePatient || p.Email != "alice@x.com" {
		t.Errorf("unexpected principal %+v", p)
	}

	if err := env.repo.SetActive(ctx, account.User.ID, false); err != nil {
		t.Fatal(err)
	}
	if _, err := env.svc.Principal(ctx, account.User.ID); !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}
}

func TestToggleStatus(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	account, err := env.svc.Register(ctx, patientInput("alice@x.com"), "", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	admin := uuid.New()

	active, err := env.svc.ToggleStatus(ctx, account.User.ID, admin)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if active {
		t.Error("expected account deactivated")
	}
	if e := env.audit.last(); e == nil || e.Action != audit.ActionUserToggle {
		t.Error("expected toggle audit entry")
	}

	active, err = env.svc.ToggleStatus(ctx, account.User.ID, admin)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if !active {
		t.Error("expected account reactivated")
	}
}

func TestUpdateDoctorScheduleValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	account, err := env.svc.Register(ctx, doctorInput("doc@x.com", "LIC-9"), "", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, err = env.svc.UpdateDoctorSchedule(ctx, account.User.ID, Availability{
		"funday": {{Start: "09:00", End: "10:00"}},
	}, 0)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for bad weekday, got %v", err)
	}

	_, err = env.svc.UpdateDoctorSchedule(ctx, account.User.ID, Availability{
		"monday": {{Start: "10:00", End: "09:00"}},
	}, 0)
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError for inverted window, got %v", err)
	}

	d, err := env.svc.UpdateDoctorSchedule(ctx, account.User.ID, Availability{
		"tuesday": {{Start: "13:00", End: "17:00"}},
	}, 20)
	if err != nil {
		t.Fatalf("valid update failed: %v", err)
	}
	if d.SlotMinutes != 20 {
		t.Errorf("expected slot minutes 20, got %d", d.SlotMinutes)
	}
}

func TestAssignDoctor(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	patient, err := env.svc.Register(ctx, patientInput("p@x.com"), "", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	doctor, err := env.svc.Register(ctx, doctorInput("d@x.com", "LIC-1"), "", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	adminID := uuid.New()

	account, err := env.svc.AssignDoctor(ctx, patient.User.ID, doctor.User.ID, adminID)
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if account.Patient.AssignedDoctorID == nil || *account.Patient.AssignedDoctorID != doctor.User.ID {
		t.Errorf("assigned doctor = %v, want %s", account.Patient.AssignedDoctorID, doctor.User.ID)
	}
	if e := env.audit.last(); e == nil || e.Action != audit.ActionDoctorAssign {
		t.Error("expected doctor_assign audit entry")
	}

	// A non-doctor target is rejected.
	if _, err := env.svc.AssignDoctor(ctx, patient.User.ID, patient.User.ID, adminID); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}

	// A deactivated doctor is rejected.
	env.repo.users[doctor.User.ID].Active = false
	if _, err := env.svc.AssignDoctor(ctx, patient.User.ID, doctor.User.ID, adminID); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeactivateBlocksLogin(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	acct, err := env.svc.Register(ctx, patientInput("p@x.com"), "", "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := env.svc.Deactivate(ctx, acct.User.ID, uuid.New()); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if env.repo.users[acct.User.ID].Active {
		t.Fatal("account still active")
	}
	if _, _, err := env.svc.Login(ctx, "p@x.com", "secret-password", "", ""); !errors.Is(err, ErrAccountInactive) {
		t.Errorf("login err = %v, want ErrAccountInactive", err)
	}

	// Repeating is a no-op.
	if err := env.svc.Deactivate(ctx, acct.User.ID, uuid.New()); err != nil {
		t.Fatalf("second deactivate: %v", err)
	}
}
