package user

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/domain/appointment"
	"github.com/hms/hms/internal/domain/record"
	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/pkg/pagination"
	"github.com/hms/hms/pkg/response"
)

type Handler struct {
	svc        *Service
	appts      *appointment.Service
	records    *record.Service
	tokens     auth.TokenConfig
	production bool
}

func NewHandler(svc *Service, appts *appointment.Service, records *record.Service, tokens auth.TokenConfig, production bool) *Handler {
	return &Handler{svc: svc, appts: appts, records: records, tokens: tokens, production: production}
}

// RegisterAuthRoutes mounts the identity endpoints. public carries no auth
// middleware; authed does.
func (h *Handler) RegisterAuthRoutes(public, authed *echo.Group) {
	public.POST("/register", h.Register)
	public.POST("/login", h.Login)
	public.POST("/verify-email", h.VerifyEmail)
	public.POST("/forgot-password", h.ForgotPassword)
	public.POST("/reset-password", h.ResetPassword)

	authed.GET("/me", h.Me)
	authed.POST("/logout", h.Logout)
	authed.PUT("/update-password", h.UpdatePassword)
	authed.PUT("/update-profile", h.UpdateProfile)
	authed.POST("/resend-verification", h.ResendVerification)
}

// RegisterPatientRoutes mounts /patients endpoints on an authenticated group.
func (h *Handler) RegisterPatientRoutes(g *echo.Group) {
	self := g.Group("", auth.RequireRole(auth.RolePatient))
	self.GET("/profile", h.PatientProfile)
	self.PUT("/profile", h.UpdateProfile)
	self.GET("/dashboard", h.PatientDashboard)

	g.GET("", h.ListPatients, auth.RequireRole(auth.RoleDoctor, auth.RoleAdmin))
	g.GET("/:id", h.GetPatient)
	g.PUT("/:id", h.UpdatePatient)
	g.DELETE("/:id", h.DeletePatient, auth.RequireRole(auth.RoleAdmin))
	g.PUT("/:id/assign-doctor", h.AssignDoctor, auth.RequireRole(auth.RoleAdmin))
}

// RegisterDoctorRoutes mounts /doctors endpoints. The directory is public;
// everything else requires auth.
func (h *Handler) RegisterDoctorRoutes(public, g *echo.Group) {
	public.GET("", h.ListDoctors)

	self := g.Group("", auth.RequireRole(auth.RoleDoctor))
	self.GET("/my-schedule", h.MySchedule)
	self.PUT("/my-schedule", h.UpdateMySchedule)
	self.GET("/my-patients", h.MyPatients)
	self.GET("/dashboard", h.DoctorDashboard)

	g.GET("/:id", h.GetDoctor)
}

func (h *Handler) Register(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	account, err := h.svc.Register(c.Request().Context(), in, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			return response.Fail(c, http.StatusBadRequest, "validation failed", ve.Fields...)
		}
		if errors.Is(err, ErrEmailTaken) {
			return echo.NewHTTPError(http.StatusConflict, "email already registered")
		}
		if errors.Is(err, ErrLicenseTaken) {
			return echo.NewHTTPError(http.StatusConflict, "license number already registered")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "registration failed")
	}
	return response.Created(c, "account created", account)
}

func (h *Handler) Login(c echo.Context) error {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	account, pair, err := h.svc.Login(c.Request().Context(), in.Email, in.Password, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		if errors.Is(err, ErrAccountInactive) {
			return echo.NewHTTPError(http.StatusUnauthorized, "account is deactivated")
		}
		if errors.Is(err, ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid email or password")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}

	c.SetCookie(auth.SessionCookie(pair.AccessToken, int(h.tokens.AccessTTL.Seconds()), h.production))
	return response.OK(c, "login successful", map[string]interface{}{
		"account": account,
		"tokens":  pair,
	})
}

func (h *Handler) Logout(c echo.Context) error {
	c.SetCookie(auth.SessionCookie("", -1, h.production))
	if p := auth.FromContext(c.Request().Context()); p != nil {
		h.svc.Logout(c.Request().Context(), p.ID, c.RealIP(), c.Request().UserAgent())
	}
	return response.OK(c, "logged out", nil)
}

func (h *Handler) VerifyEmail(c echo.Context) error {
	var in struct {
		Token string `json:"token"`
	}
	if err := c.Bind(&in); err != nil || in.Token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "token is required")
	}
	if err := h.svc.VerifyEmail(c.Request().Context(), in.Token); err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid or expired token")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "verification failed")
	}
	return response.OK(c, "email verified", nil)
}

func (h *Handler) ResendVerification(c echo.Context) error {
	p := auth.FromContext(c.Request().Context())
	if err := h.svc.ResendVerification(c.Request().Context(), p.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to resend verification")
	}
	return response.OK(c, "verification email sent", nil)
}

// ForgotPassword always responds identically whether or not the email exists.
func (h *Handler) ForgotPassword(c echo.Context) error {
	var in struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&in); err != nil || in.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}
	if err := h.svc.RequestPasswordReset(c.Request().Context(), in.Email); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "request failed")
	}
	return response.OK(c, "if the email exists, a reset link has been sent", nil)
}

func (h *Handler) ResetPassword(c echo.Context) error {
	var in struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.Bind(&in); err != nil || in.Token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "token and password are required")
	}
	if err := h.svc.ResetPassword(c.Request().Context(), in.Token, in.Password); err != nil {
		if errors.Is(err, ErrWeakPassword) {
			return echo.NewHTTPError(http.StatusBadRequest, ErrWeakPassword.Error())
		}
		if errors.Is(err, ErrInvalidToken) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid or expired token")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "reset failed")
	}
	return response.OK(c, "password updated", nil)
}

func (h *Handler) UpdatePassword(c echo.Context) error {
	p := auth.FromContext(c.Request().Context())
	var in struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.svc.UpdatePassword(c.Request().Context(), p.ID, in.CurrentPassword, in.NewPassword); err != nil {
		if errors.Is(err, ErrWeakPassword) {
			return echo.NewHTTPError(http.StatusBadRequest, ErrWeakPassword.Error())
		}
		if errors.Is(err, ErrInvalidCredentials) {
			return echo.NewHTTPError(http.StatusUnauthorized, "current password is incorrect")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "password update failed")
	}
	return response.OK(c, "password updated", nil)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	p := auth.FromContext(c.Request().Context())
	var in ProfileUpdate
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	account, err := h.svc.UpdateProfile(c.Request().Context(), p.ID, in)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			return response.Fail(c, http.StatusBadRequest, "validation failed", ve.Fields...)
		}
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "account not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "profile update failed")
	}
	return response.OK(c, "profile updated", account)
}

func (h *Handler) Me(c echo.Context) error {
	p := auth.FromContext(c.Request().Context())
	account, err := h.svc.Account(c.Request().Context(), p.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "account not found")
	}
	return response.OK(c, "", account)
}

// -- Patient endpoints --

func (h *Handler) PatientProfile(c echo.Context) error {
	p := auth.FromContext(c.Request().Context())
	account, err := h.svc.Account(c.Request().Context(), p.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "profile not found")
	}
	return response.OK(c, "", account)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p := auth.FromContext(c.Request().Context())
	if !auth.CanAccessPatient(p, id) {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}
	account, err := h.svc.Account(c.Request().Context(), id)
	if err != nil || account.User.Role != RolePatient {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return response.OK(c, "", account)
}

// ListPatients is the staff-facing patient search.
func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := UserFilter{Role: RolePatient, Search: c.QueryParam("search")}
	patients, total, err := h.svc.Users(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list patients")
	}
	return response.Paginated(c, "", patients, total, pg)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p := auth.FromContext(c.Request().Context())
	if !auth.CanAccessPatient(p, id) {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}
	var in ProfileUpdate
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	account, err := h.svc.Account(c.Request().Context(), id)
	if err != nil || account.User.Role != RolePatient {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	account, err = h.svc.UpdateProfile(c.Request().Context(), id, in)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			return response.Fail(c, http.StatusBadRequest, "validation failed", ve.Fields...)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "patient update failed")
	}
	return response.OK(c, "patient updated", account)
}

// DeletePatient soft-deletes by deactivating the account.
func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	account, err := h.svc.Account(c.Request().Context(), id)
	if err != nil || account.User.Role != RolePatient {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	p := auth.FromContext(c.Request().Context())
	if err := h.svc.Deactivate(c.Request().Context(), id, p.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "deactivation failed")
	}
	return response.OK(c, "patient deactivated", nil)
}

func (h *Handler) AssignDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in struct {
		DoctorID uuid.UUID `json:"doctor_id"`
	}
	if err := c.Bind(&in); err != nil || in.DoctorID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "doctor_id is required")
	}
	p := auth.FromContext(c.Request().Context())
	account, err := h.svc.AssignDoctor(c.Request().Context(), id, in.DoctorID, p.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "patient or doctor not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "assignment failed")
	}
	return response.OK(c, "doctor assigned", account)
}

func (h *Handler) PatientDashboard(c echo.Context) error {
	ctx := c.Request().Context()
	p := auth.FromContext(ctx)

	account, err := h.svc.Account(ctx, p.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "profile not found")
	}
	upcoming, err := h.appts.UpcomingForPatient(ctx, p.ID, 5)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load appointments")
	}
	recent, err := h.records.RecentRecords(ctx, p.ID, 5)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load records")
	}
	active, err := h.records.ActivePrescriptions(ctx, p.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load prescriptions")
	}

	return response.OK(c, "", map[string]interface{}{
		"profile":               account,
		"upcoming_appointments": upcoming,
		"recent_records":        recent,
		"active_prescriptions":  active,
	})
}

// -- Doctor endpoints --

func (h *Handler) ListDoctors(c echo.Context) error {
	pg := pagination.FromContext(c)
	doctors, total, err := h.svc.Doctors(c.Request().Context(), c.QueryParam("specialization"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list doctors")
	}
	return response.Paginated(c, "", doctors, total, pg)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	account, err := h.svc.Account(c.Request().Context(), id)
	if err != nil || account.User.Role != RoleDoctor {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}
	return response.OK(c, "", account)
}

func (h *Handler) MySchedule(c echo.Context) error {
	p := auth.FromContext(c.Request().Context())
	profile, err := h.svc.DoctorSchedule(c.Request().Context(), p.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "schedule not found")
	}
	return response.OK(c, "", map[string]interface{}{
		"availability": profile.Availability,
		"slot_minutes": profile.SlotMinutes,
	})
}

func (h *Handler) UpdateMySchedule(c echo.Context) error {
	p := auth.FromContext(c.Request().Context())
	var in struct {
		Availability Availability `json:"availability"`
		SlotMinutes  int          `json:"slot_minutes"`
	}
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	profile, err := h.svc.UpdateDoctorSchedule(c.Request().Context(), p.ID, in.Availability, in.SlotMinutes)
	if err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			return response.Fail(c, http.StatusBadRequest, "validation failed", ve.Fields...)
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "schedule update failed")
	}
	return response.OK(c, "schedule updated", map[string]interface{}{
		"availability": profile.Availability,
		"slot_minutes": profile.SlotMinutes,
	})
}

func (h *Handler) MyPatients(c echo.Context) error {
	ctx := c.Request().Context()
	p := auth.FromContext(ctx)

	ids, err := h.appts.PatientIDsForDoctor(ctx, p.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load patients")
	}
	patients := make([]*Account, 0, len(ids))
	for _, id := range ids {
		account, err := h.svc.Account(ctx, id)
		if err != nil {
			continue
		}
		patients = append(patients, account)
	}
	return response.OK(c, "", patients)
}

func (h *Handler) DoctorDashboard(c echo.Context) error {
	ctx := c.Request().Context()
	p := auth.FromContext(ctx)

	today, err := h.appts.TodayForDoctor(ctx, p.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load appointments")
	}
	stats, err := h.appts.Stats(ctx, &p.ID, nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load stats")
	}
	ids, err := h.appts.PatientIDsForDoctor(ctx, p.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load patients")
	}

	return response.OK(c, "", map[string]interface{}{
		"today":         today,
		"stats":         stats,
		"patient_count": len(ids),
	})
}
