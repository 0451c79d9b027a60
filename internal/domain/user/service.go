package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/domain/audit"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/internal/platform/notification"
)

const hospitalName = "HMS General Hospital"

type Service struct {
	repo   Repository
	pool   *pgxpool.Pool
	tokens auth.TokenConfig
	audit  audit.Recorder
	notify *notification.Dispatcher
	log    zerolog.Logger
}

// NewService wires the identity service. pool may be nil in tests; it is only
// used to wrap multi-row writes in a transaction.
func NewService(repo Repository, pool *pgxpool.Pool, tokens auth.TokenConfig, recorder audit.Recorder, notify *notification.Dispatcher, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		pool:   pool,
		tokens: tokens,
		audit:  recorder,
		notify: notify,
		log:    logger.With().Str("component", "user").Logger(),
	}
}

func (s *Service) runTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.pool == nil {
		return fn(ctx)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if err := fn(db.WithTx(ctx, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Register creates a user plus its role profile, issues an email-verification
// token and dispatches welcome/verification notifications best-effort.
func (s *Service) Register(ctx context.Context, in RegisterInput, ip, userAgent string) (*Account, error) {
	if err := validateRegister(&in); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	rawToken, tokenDigest, err := auth.NewOneTimeToken()
	if err != nil {
		return nil, err
	}
	tokenExpiry := time.Now().UTC().Add(auth.VerifyTokenTTL)

	u := &User{
		Name:              strings.TrimSpace(in.Name),
		Email:             strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:             strings.TrimSpace(in.Phone),
		PasswordHash:      hash,
		Role:              strings.ToLower(in.Role),
		Active:            true,
		VerifyTokenHash:   &tokenDigest,
		VerifyTokenExpiry: &tokenExpiry,
	}
	if in.Gender != "" {
		u.Gender = &in.Gender
	}
	if in.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", in.DateOfBirth)
		if err != nil {
			return nil, &ValidationError{Fields: []string{"date_of_birth must be YYYY-MM-DD"}}
		}
		u.DateOfBirth = &dob
	}

	account := &Account{User: u}
	regNumber := ""

	err = s.runTx(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateUser(ctx, u); err != nil {
			return err
		}
		switch u.Role {
		case RolePatient:
			seq, err := s.repo.NextPatientSeq(ctx)
			if err != nil {
				return err
			}
			p := &PatientProfile{
				UserID:             u.ID,
				RegistrationNumber: fmt.Sprintf("PT%d%05d", time.Now().Year(), seq),
				BloodGroup:         in.BloodGroup,
				EmergencyName:      in.EmergencyName,
				EmergencyRelation:  in.EmergencyRelation,
				EmergencyPhone:     in.EmergencyPhone,
			}
			if in.Genotype != "" {
				p.Genotype = &in.Genotype
			}
			if err := s.repo.CreatePatientProfile(ctx, p); err != nil {
				return err
			}
			account.Patient = p
			regNumber = p.RegistrationNumber
		case RoleDoctor:
			seq, err := s.repo.NextDoctorSeq(ctx)
			if err != nil {
				return err
			}
			slotMinutes := in.SlotMinutes
			if slotMinutes <= 0 {
				slotMinutes = 30
			}
			d := &DoctorProfile{
				UserID:          u.ID,
				EmployeeID:      fmt.Sprintf("DR%d%04d", time.Now().Year(), seq),
				Specialization:  in.Specialization,
				LicenseNumber:   in.LicenseNumber,
				ConsultationFee: in.ConsultationFee,
				SlotMinutes:     slotMinutes,
				Availability:    in.Availability,
			}
			if err := s.repo.CreateDoctorProfile(ctx, d); err != nil {
				return err
			}
			account.Doctor = d
			regNumber = d.EmployeeID
		case RoleAdmin:
			seq, err := s.repo.NextAdminSeq(ctx)
			if err != nil {
				return err
			}
			a := &AdminProfile{
				UserID:     u.ID,
				EmployeeID: fmt.Sprintf("ADM%d%04d", time.Now().Year(), seq),
				Department: in.Department,
			}
			if err := s.repo.CreateAdminProfile(ctx, a); err != nil {
				return err
			}
			account.Admin = a
			regNumber = a.EmployeeID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		UserID:       &u.ID,
		Action:       audit.ActionRegister,
		ResourceType: "user",
		ResourceID:   u.ID.String(),
		Category:     audit.CategoryAuth,
		IP:           ip,
		UserAgent:    userAgent,
	})

	if s.notify != nil {
		rcpt := notification.Recipient{UserID: &u.ID, Email: u.Email, Phone: u.Phone, Name: u.Name}
		s.notify.Dispatch(ctx, rcpt, notification.TplWelcome, map[string]string{
			"hospital": hospitalName,
			"number":   regNumber,
		})
		s.notify.Dispatch(ctx, rcpt, notification.TplVerifyEmail, map[string]string{
			"token": rawToken,
		})
	}

	return account, nil
}

// Login authenticates by email and password. Every attempt is audited; a
// failed lookup records with no user reference.
func (s *Service) Login(ctx context.Context, email, password, ip, userAgent string) (*Account, auth.TokenPair, error) {
	fail := func(userID *uuid.UUID, reason string) {
		s.audit.Record(ctx, audit.Entry{
			UserID:       userID,
			Action:       audit.ActionLoginFailed,
			ResourceType: "user",
			Description:  reason,
			Status:       audit.StatusFailure,
			Severity:     audit.SeverityMedium,
			Category:     audit.CategoryAuth,
			IP:           ip,
			UserAgent:    userAgent,
		})
	}

	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		fail(nil, "unknown email")
		return nil, auth.TokenPair{}, ErrInvalidCredentials
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		fail(&u.ID, "wrong password")
		return nil, auth.TokenPair{}, ErrInvalidCredentials
	}
	if !u.Active {
		fail(&u.ID, "inactive account")
		return nil, auth.TokenPair{}, ErrAccountInactive
	}

	pair, err := s.tokens.IssuePair(u.ID)
	if err != nil {
		return nil, auth.TokenPair{}, err
	}

	now := time.Now().UTC()
	if err := s.repo.SetLastLogin(ctx, u.ID, now); err != nil {
		s.log.Warn().Err(err).Str("user_id", u.ID.String()).Msg("failed to record last login")
	}
	u.LastLogin = &now

	s.audit.Record(ctx, audit.Entry{
		UserID:       &u.ID,
		Action:       audit.ActionLogin,
		ResourceType: "user",
		ResourceID:   u.ID.String(),
		Category:     audit.CategoryAuth,
		IP:           ip,
		UserAgent:    userAgent,
	})

	if s.notify != nil && ip != "" {
		s.notify.Dispatch(ctx, notification.Recipient{UserID: &u.ID, Email: u.Email, Name: u.Name},
			notification.TplLoginAlert, map[string]string{
				"ip":   ip,
				"when": now.Format(time.RFC1123),
			})
	}

	account, err := s.Account(ctx, u.ID)
	if err != nil {
		return nil, auth.TokenPair{}, err
	}
	return account, pair, nil
}

// Logout only audits; token invalidation is cookie removal on the client.
func (s *Service) Logout(ctx context.Context, userID uuid.UUID, ip, userAgent string) {
	s.audit.Record(ctx, audit.Entry{
		UserID:       &userID,
		Action:       audit.ActionLogout,
		ResourceType: "user",
		ResourceID:   userID.String(),
		Category:     audit.CategoryAuth,
		IP:           ip,
		UserAgent:    userAgent,
	})
}

// VerifyEmail consumes a verification token. The token is cleared on success,
// so a second presentation fails.
func (s *Service) VerifyEmail(ctx context.Context, rawToken string) error {
	u, err := s.repo.GetUserByVerifyToken(ctx, auth.HashToken(rawToken))
	if err != nil {
		return ErrInvalidToken
	}
	if u.VerifyTokenExpiry == nil || time.Now().UTC().After(*u.VerifyTokenExpiry) {
		return ErrInvalidToken
	}
	if err := s.repo.MarkEmailVerified(ctx, u.ID); err != nil {
		return err
	}
	s.audit.Record(ctx, audit.Entry{
		UserID:       &u.ID,
		Action:       audit.ActionEmailVerify,
		ResourceType: "user",
		ResourceID:   u.ID.String(),
		Category:     audit.CategoryAuth,
	})
	return nil
}

// ResendVerification issues a fresh verification token for an unverified
// account.
func (s *Service) ResendVerification(ctx context.Context, userID uuid.UUID) error {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.EmailVerified {
		return nil
	}
	rawToken, digest, err := auth.NewOneTimeToken()
	if err != nil {
		return err
	}
	expiry := time.Now().UTC().Add(auth.VerifyTokenTTL)
	if err := s.repo.SetVerifyToken(ctx, u.ID, &digest, &expiry); err != nil {
		return err
	}
	if s.notify != nil {
		s.notify.Dispatch(ctx, notification.Recipient{UserID: &u.ID, Email: u.Email, Name: u.Name},
			notification.TplVerifyEmail, map[string]string{"token": rawToken})
	}
	return nil
}

// RequestPasswordReset issues a short-lived reset token. The caller gets the
// same nil result whether or not the email exists. If the notification cannot
// be delivered the token is rolled back so it can never be used.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil
	}

	rawToken, digest, err := auth.NewOneTimeToken()
	if err != nil {
		return err
	}
	expiry := time.Now().UTC().Add(auth.ResetTokenTTL)
	if err := s.repo.SetResetToken(ctx, u.ID, &digest, &expiry); err != nil {
		return err
	}

	if s.notify != nil {
		rcpt := notification.Recipient{UserID: &u.ID, Email: u.Email, Name: u.Name}
		if err := s.notify.Send(ctx, rcpt, notification.TplPasswordReset, map[string]string{"token": rawToken}); err != nil {
			s.log.Error().Err(err).Str("user_id", u.ID.String()).Msg("reset email failed, rolling back token")
			if rbErr := s.repo.SetResetToken(ctx, u.ID, nil, nil); rbErr != nil {
				s.log.Error().Err(rbErr).Str("user_id", u.ID.String()).Msg("reset token rollback failed")
			}
			return nil
		}
	}

	s.audit.Record(ctx, audit.Entry{
		UserID:       &u.ID,
		Action:       audit.ActionPasswordReset,
		ResourceType: "user",
		ResourceID:   u.ID.String(),
		Description:  "reset requested",
		Category:     audit.CategoryAuth,
	})
	return nil
}

// ResetPassword consumes a reset token and replaces the password.
func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if len(newPassword) < auth.MinPasswordLength {
		return ErrWeakPassword
	}
	u, err := s.repo.GetUserByResetToken(ctx, auth.HashToken(rawToken))
	if err != nil {
		return ErrInvalidToken
	}
	if u.ResetTokenExpiry == nil || time.Now().UTC().After(*u.ResetTokenExpiry) {
		return ErrInvalidToken
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.SetPassword(ctx, u.ID, hash); err != nil {
		return err
	}
	s.audit.Record(ctx, audit.Entry{
		UserID:       &u.ID,
		Action:       audit.ActionPasswordChange,
		ResourceType: "user",
		ResourceID:   u.ID.String(),
		Description:  "password reset via token",
		Category:     audit.CategoryAuth,
		Severity:     audit.SeverityMedium,
	})
	if s.notify != nil {
		s.notify.Dispatch(ctx, notification.Recipient{UserID: &u.ID, Email: u.Email, Name: u.Name},
			notification.TplPasswordChanged, map[string]string{
				"when": time.Now().UTC().Format(time.RFC1123),
			})
	}
	return nil
}

// UpdatePassword changes the password for an authenticated user after
// verifying the current one.
func (s *Service) UpdatePassword(ctx context.Context, userID uuid.UUID, current, newPassword string) error {
	if len(newPassword) < auth.MinPasswordLength {
		return ErrWeakPassword
	}
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(u.PasswordHash, current) {
		return ErrInvalidCredentials
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.SetPassword(ctx, u.ID, hash); err != nil {
		return err
	}
	s.audit.Record(ctx, audit.Entry{
		UserID:       &u.ID,
		Action:       audit.ActionPasswordChange,
		ResourceType: "user",
		ResourceID:   u.ID.String(),
		Category:     audit.CategoryAuth,
	})
	return nil
}

// UpdateProfile applies the non-nil fields of the update to the user and its
// role profile.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileUpdate) (*Account, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		u.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Gender != nil {
		u.Gender = in.Gender
	}
	if in.Address != nil {
		u.Address = in.Address
	}
	if in.DateOfBirth != nil {
		dob, err := time.Parse("2006-01-02", *in.DateOfBirth)
		if err != nil {
			return nil, &ValidationError{Fields: []string{"date_of_birth must be YYYY-MM-DD"}}
		}
		u.DateOfBirth = &dob
	}

	err = s.runTx(ctx, func(ctx context.Context) error {
		if err := s.repo.UpdateUser(ctx, u); err != nil {
			return err
		}
		switch u.Role {
		case RolePatient:
			p, err := s.repo.GetPatientProfile(ctx, u.ID)
			if err != nil {
				return err
			}
			if in.BloodGroup != nil {
				p.BloodGroup = *in.BloodGroup
			}
			if in.Genotype != nil {
				p.Genotype = in.Genotype
			}
			if in.EmergencyName != nil {
				p.EmergencyName = *in.EmergencyName
			}
			if in.EmergencyRelation != nil {
				p.EmergencyRelation = *in.EmergencyRelation
			}
			if in.EmergencyPhone != nil {
				p.EmergencyPhone = *in.EmergencyPhone
			}
			return s.repo.UpdatePatientProfile(ctx, p)
		case RoleDoctor:
			d, err := s.repo.GetDoctorProfile(ctx, u.ID)
			if err != nil {
				return err
			}
			if in.Specialization != nil {
				d.Specialization = *in.Specialization
			}
			if in.ConsultationFee != nil {
				if *in.ConsultationFee < 0 {
					return &ValidationError{Fields: []string{"consultation_fee must be >= 0"}}
				}
				d.ConsultationFee = *in.ConsultationFee
			}
			if in.SlotMinutes != nil {
				if *in.SlotMinutes <= 0 {
					return &ValidationError{Fields: []string{"slot_minutes must be > 0"}}
				}
				d.SlotMinutes = *in.SlotMinutes
			}
			if in.Availability != nil {
				if err := validateAvailability(*in.Availability); err != nil {
					return err
				}
				d.Availability = *in.Availability
			}
			return s.repo.UpdateDoctorProfile(ctx, d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		UserID:       &u.ID,
		Action:       audit.ActionProfileUpdate,
		ResourceType: "user",
		ResourceID:   u.ID.String(),
		Category:     audit.CategoryData,
	})

	return s.Account(ctx, userID)
}

// Account loads a user together with its role profile.
func (s *Service) Account(ctx context.Context, userID uuid.UUID) (*Account, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	account := &Account{User: u}
	switch u.Role {
	case RolePatient:
		account.Patient, err = s.repo.GetPatientProfile(ctx, u.ID)
	case RoleDoctor:
		account.Doctor, err = s.repo.GetDoctorProfile(ctx, u.ID)
	case RoleAdmin:
		account.Admin, err = s.repo.GetAdminProfile(ctx, u.ID)
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Principal implements auth.PrincipalSource. Deactivated accounts fail here,
// so a revoked user is locked out on the next request regardless of token
// validity.
func (s *Service) Principal(ctx context.Context, userID uuid.UUID) (*auth.Principal, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, ErrAccountInactive
	}
	return &auth.Principal{ID: u.ID, Role: u.Role, Email: u.Email}, nil
}

// Doctors lists the active doctor directory.
func (s *Service) Doctors(ctx context.Context, specialization string, limit, offset int) ([]*DoctorSummary, int, error) {
	return s.repo.ListDoctors(ctx, specialization, limit, offset)
}

// DoctorSchedule returns the booking-relevant slice of a doctor profile.
func (s *Service) DoctorSchedule(ctx context.Context, doctorID uuid.UUID) (*DoctorProfile, error) {
	u, err := s.repo.GetUserByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if u.Role != RoleDoctor {
		return nil, ErrNotFound
	}
	if !u.Active {
		return nil, ErrAccountInactive
	}
	return s.repo.GetDoctorProfile(ctx, doctorID)
}

// UpdateDoctorSchedule replaces a doctor's availability and slot duration.
func (s *Service) UpdateDoctorSchedule(ctx context.Context, doctorID uuid.UUID, availability Availability, slotMinutes int) (*DoctorProfile, error) {
	if err := validateAvailability(availability); err != nil {
		return nil, err
	}
	d, err := s.repo.GetDoctorProfile(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	d.Availability = availability
	if slotMinutes > 0 {
		d.SlotMinutes = slotMinutes
	}
	if err := s.repo.UpdateDoctorProfile(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Users lists accounts for the admin console.
func (s *Service) Users(ctx context.Context, f UserFilter, limit, offset int) ([]*User, int, error) {
	return s.repo.ListUsers(ctx, f, limit, offset)
}

// ToggleStatus flips the active flag and returns the new value.
func (s *Service) ToggleStatus(ctx context.Context, userID, actorID uuid.UUID) (bool, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return false, err
	}
	next := !u.Active
	if err := s.repo.SetActive(ctx, userID, next); err != nil {
		return false, err
	}
	s.audit.Record(ctx, audit.Entry{
		UserID:       &actorID,
		Action:       audit.ActionUserToggle,
		ResourceType: "user",
		ResourceID:   userID.String(),
		Description:  fmt.Sprintf("active=%t", next),
		Category:     audit.CategoryAdmin,
		Severity:     audit.SeverityMedium,
	})
	return next, nil
}

// Deactivate soft-deletes an account by clearing its active flag. Logins and
// principal resolution fail immediately afterward; the row itself stays.
func (s *Service) Deactivate(ctx context.Context, userID, actorID uuid.UUID) error {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !u.Active {
		return nil
	}
	if err := s.repo.SetActive(ctx, userID, false); err != nil {
		return err
	}
	s.audit.Record(ctx, audit.Entry{
		UserID:       &actorID,
		Action:       audit.ActionUserToggle,
		ResourceType: "user",
		ResourceID:   userID.String(),
		Description:  "active=false (soft delete)",
		Category:     audit.CategoryAdmin,
		Severity:     audit.SeverityMedium,
	})
	return nil
}

// AssignDoctor links a patient to a primary doctor. The doctor must be an
// active doctor account.
func (s *Service) AssignDoctor(ctx context.Context, patientID, doctorID, actorID uuid.UUID) (*Account, error) {
	p, err := s.repo.GetPatientProfile(ctx, patientID)
	if err != nil {
		return nil, err
	}
	d, err := s.repo.GetUserByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if d.Role != RoleDoctor || !d.Active {
		return nil, ErrNotFound
	}
	p.AssignedDoctorID = &doctorID
	if err := s.repo.UpdatePatientProfile(ctx, p); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, audit.Entry{
		UserID:       &actorID,
		Action:       audit.ActionDoctorAssign,
		ResourceType: "user",
		ResourceID:   patientID.String(),
		Description:  fmt.Sprintf("doctor %s", doctorID),
		Category:     audit.CategoryAdmin,
	})
	return s.Account(ctx, patientID)
}

var validBloodGroups = map[string]bool{
	"A+": true, "A-": true, "B+": true, "B-": true,
	"AB+": true, "AB-": true, "O+": true, "O-": true,
}

func validateRegister(in *RegisterInput) error {
	var fields []string
	if strings.TrimSpace(in.Name) == "" {
		fields = append(fields, "name is required")
	}
	if strings.TrimSpace(in.Email) == "" || !strings.Contains(in.Email, "@") {
		fields = append(fields, "a valid email is required")
	}
	if len(in.Password) < auth.MinPasswordLength {
		fields = append(fields, fmt.Sprintf("password must be at least %d characters", auth.MinPasswordLength))
	}

	switch strings.ToLower(in.Role) {
	case RolePatient:
		if in.BloodGroup == "" {
			fields = append(fields, "blood_group is required for patients")
		} else if !validBloodGroups[in.BloodGroup] {
			fields = append(fields, "blood_group is not a recognized type")
		}
		if in.EmergencyName == "" {
			fields = append(fields, "emergency_name is required for patients")
		}
		if in.EmergencyRelation == "" {
			fields = append(fields, "emergency_relation is required for patients")
		}
		if in.EmergencyPhone == "" {
			fields = append(fields, "emergency_phone is required for patients")
		}
	case RoleDoctor:
		if in.Specialization == "" {
			fields = append(fields, "specialization is required for doctors")
		}
		if in.LicenseNumber == "" {
			fields = append(fields, "license_number is required for doctors")
		}
		if in.ConsultationFee < 0 {
			fields = append(fields, "consultation_fee must be >= 0")
		}
		if in.Availability != nil {
			if err := validateAvailability(in.Availability); err != nil {
				if ve, ok := err.(*ValidationError); ok {
					fields = append(fields, ve.Fields...)
				}
			}
		}
	case RoleAdmin:
		if in.Department == "" {
			fields = append(fields, "department is required for admins")
		}
	default:
		fields = append(fields, "role must be patient, doctor or admin")
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

var validDays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

func validateAvailability(a Availability) error {
	var fields []string
	for day, windows := range a {
		if !validDays[day] {
			fields = append(fields, fmt.Sprintf("%q is not a weekday name", day))
			continue
		}
		for _, w := range windows {
			if !validClock(w.Start) || !validClock(w.End) {
				fields = append(fields, fmt.Sprintf("%s window times must be HH:MM", day))
				continue
			}
			if w.Start >= w.End {
				fields = append(fields, fmt.Sprintf("%s window start must be before end", day))
			}
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func validClock(v string) bool {
	_, err := time.Parse("15:04", v)
	return err == nil
}
