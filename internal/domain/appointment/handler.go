package appointment

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/pkg/pagination"
	"github.com/hms/hms/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts /appointments on an authenticated group and the slot
// lookup on the public doctors group.
func (h *Handler) RegisterRoutes(g, doctors *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Book)
	g.GET("/today", h.Today, auth.RequireRole(auth.RoleDoctor, auth.RoleAdmin))
	g.GET("/upcoming", h.Upcoming)
	g.GET("/stats", h.Stats, auth.RequireRole(auth.RoleDoctor, auth.RoleAdmin))
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Reschedule)
	g.PUT("/:id/confirm", h.Confirm, auth.RequireRole(auth.RoleDoctor, auth.RoleAdmin))
	g.PUT("/:id/cancel", h.Cancel)
	g.PUT("/:id/check-in", h.CheckIn, auth.RequireRole(auth.RoleDoctor, auth.RoleAdmin))
	g.PUT("/:id/start-consultation", h.StartConsultation, auth.RequireRole(auth.RoleDoctor))
	g.PUT("/:id/complete", h.Complete, auth.RequireRole(auth.RoleDoctor))
	g.PUT("/:id/no-show", h.NoShow, auth.RequireRole(auth.RoleDoctor, auth.RoleAdmin))

	doctors.GET("/:id/available-slots", h.AvailableSlots)
}

// scope restricts a filter to the caller's own appointments unless the caller
// is an admin.
func scope(p *auth.Principal, f Filter) Filter {
	switch p.Role {
	case auth.RolePatient:
		f.PatientID = &p.ID
	case auth.RoleDoctor:
		f.DoctorID = &p.ID
	}
	return f
}

func (h *Handler) List(c echo.Context) error {
	p := auth.FromContext(c.Request().Context())
	pg := pagination.FromContext(c)

	f := scope(p, Filter{Status: c.QueryParam("status")})
	appts, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list appointments")
	}
	return response.Paginated(c, "", appts, total, pg)
}

func (h *Handler) Book(c echo.Context) error {
	p := auth.FromContext(c.Request().Context())
	var in BookInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	// Patients always book for themselves.
	if p.Role == auth.RolePatient {
		in.PatientID = p.ID
	}
	if in.PatientID == uuid.Nil || in.DoctorID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id and doctor_id are required")
	}
	if in.Date == "" || in.Time == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "date and time are required")
	}

	a, err := h.svc.Book(c.Request().Context(), in, p.ID, c.RealIP())
	if err != nil {
		return bookingError(err)
	}
	return response.Created(c, "appointment booked", a)
}

// bookingError maps slot and reference failures to HTTP codes without
// echoing unclassified errors to the client.
func bookingError(err error) error {
	switch {
	case errors.Is(err, ErrSlotTaken):
		return echo.NewHTTPError(http.StatusConflict, ErrSlotTaken.Error())
	case errors.Is(err, ErrNotAvailable):
		return echo.NewHTTPError(http.StatusBadRequest, ErrNotAvailable.Error())
	case errors.Is(err, ErrInvalidDate):
		return echo.NewHTTPError(http.StatusBadRequest, ErrInvalidDate.Error())
	case errors.Is(err, ErrUnknownDoctor):
		return echo.NewHTTPError(http.StatusNotFound, ErrUnknownDoctor.Error())
	case errors.Is(err, ErrUnknownPatient):
		return echo.NewHTTPError(http.StatusBadRequest, ErrUnknownPatient.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	default:
		var te *TransitionError
		if errors.As(err, &te) {
			return echo.NewHTTPError(http.StatusConflict, te.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "booking failed")
	}
}

func (h *Handler) Reschedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in struct {
		Date string `json:"date"`
		Time string `json:"time"`
	}
	if err := c.Bind(&in); err != nil || in.Date == "" || in.Time == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "date and time are required")
	}

	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	}
	p := auth.FromContext(c.Request().Context())
	if !auth.CanManageAppointment(p, a.PatientID) {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}

	a, err = h.svc.Reschedule(c.Request().Context(), id, in.Date, in.Time, p.ID, c.RealIP())
	if err != nil {
		return bookingError(err)
	}
	return response.OK(c, "appointment rescheduled", a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	}
	p := auth.FromContext(c.Request().Context())
	if !auth.CanManageAppointment(p, a.PatientID) {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}
	return response.OK(c, "", a)
}

func (h *Handler) Today(c echo.Context) error {
	p := auth.FromContext(c.Request().Context())
	pg := pagination.FromContext(c)

	var doctorID *uuid.UUID
	if p.Role == auth.RoleDoctor {
		doctorID = &p.ID
	}
	appts, total, err := h.svc.Today(c.Request().Context(), doctorID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list appointments")
	}
	return response.Paginated(c, "", appts, total, pg)
}

func (h *Handler) Upcoming(c echo.Context) error {
	p := auth.FromContext(c.Request().Context())
	pg := pagination.FromContext(c)

	appts, total, err := h.svc.Upcoming(c.Request().Context(), scope(p, Filter{}), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list appointments")
	}
	return response.Paginated(c, "", appts, total, pg)
}

func (h *Handler) Stats(c echo.Context) error {
	p := auth.FromContext(c.Request().Context())

	var doctorID *uuid.UUID
	if p.Role == auth.RoleDoctor {
		doctorID = &p.ID
	}
	stats, err := h.svc.Stats(c.Request().Context(), doctorID, nil)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to compute stats")
	}
	return response.OK(c, "", stats)
}

func (h *Handler) AvailableSlots(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	dateStr := c.QueryParam("date")
	if dateStr == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "date query parameter is required")
	}
	slots, err := h.svc.AvailableSlotsFor(c.Request().Context(), doctorID, dateStr)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return response.OK(c, "", map[string]interface{}{
		"date":  dateStr,
		"slots": slots,
	})
}

func (h *Handler) Confirm(c echo.Context) error {
	return h.applyTransition(c, h.svc.Confirm, "appointment confirmed")
}

func (h *Handler) CheckIn(c echo.Context) error {
	return h.applyTransition(c, h.svc.CheckIn, "patient checked in")
}

func (h *Handler) StartConsultation(c echo.Context) error {
	return h.applyTransition(c, h.svc.StartConsultation, "consultation started")
}

func (h *Handler) Complete(c echo.Context) error {
	return h.applyTransition(c, h.svc.Complete, "appointment completed")
}

func (h *Handler) NoShow(c echo.Context) error {
	return h.applyTransition(c, h.svc.NoShow, "appointment marked no-show")
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ctx := c.Request().Context()
	p := auth.FromContext(ctx)

	a, err := h.svc.Get(ctx, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	}
	if !auth.CanManageAppointment(p, a.PatientID) {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}

	a, err = h.svc.Cancel(ctx, id, p.ID)
	if err != nil {
		return transitionHTTPError(err)
	}
	return response.OK(c, "appointment cancelled", a)
}

func (h *Handler) applyTransition(c echo.Context, fn func(ctx context.Context, id, actorID uuid.UUID) (*Appointment, error), message string) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p := auth.FromContext(c.Request().Context())
	a, err := fn(c.Request().Context(), id, p.ID)
	if err != nil {
		return transitionHTTPError(err)
	}
	return response.OK(c, message, a)
}

func transitionHTTPError(err error) error {
	var te *TransitionError
	if errors.As(err, &te) {
		return echo.NewHTTPError(http.StatusConflict, te.Error())
	}
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "transition failed")
}
