package record

import (
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

// RegisterRoutes mounts /records and /prescriptions on authenticated groups.
func (h *Handler) RegisterRoutes(records, prescriptions *echo.Group) {
	records.POST("", h.CreateRecord, auth.RequireRole(auth.RoleDoctor))
	records.GET("", h.ListRecords)
	records.GET("/:id", h.GetRecord)

	prescriptions.POST("", h.CreatePrescription, auth.RequireRole(auth.RoleDoctor))
	prescriptions.GET("", h.ListPrescriptions)
	prescriptions.GET("/:id", h.GetPrescription)
	prescriptions.PUT("/:id/discontinue", h.Discontinue, auth.RequireRole(auth.RoleDoctor))
}

func (h *Handler) CreateRecord(c echo.Context) error {
	p := auth.FromContext(c.Request().Context())
	var in RecordInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	rec, err := h.svc.CreateRecord(c.Request().Context(), in, p.ID)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create record")
	}
	return response.Created(c, "medical record created", rec)
}

func (h *Handler) GetRecord(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p := auth.FromContext(c.Request().Context())
	rec, err := h.svc.Record(c.Request().Context(), id, p.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "record not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load record")
	}
	if !auth.CanAccessPatient(p, rec.PatientID) {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}
	return response.OK(c, "", rec)
}

// ListRecords scopes by role: patients see their own records, doctors see
// their own authored records unless they ask for a specific patient, admins
// need an explicit patient.
func (h *Handler) ListRecords(c echo.Context) error {
	ctx := c.Request().Context()
	p := auth.FromContext(ctx)
	pg := pagination.FromContext(c)

	if p.Role == auth.RolePatient {
		records, total, err := h.svc.RecordsForPatient(ctx, p.ID, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to list records")
		}
		return response.Paginated(c, "", records, total, pg)
	}

	if v := c.QueryParam("patient_id"); v != "" {
		patientID, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		if !auth.CanAccessPatient(p, patientID) {
			return echo.NewHTTPError(http.StatusForbidden, "access denied")
		}
		records, total, err := h.svc.RecordsForPatient(ctx, patientID, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to list records")
		}
		return response.Paginated(c, "", records, total, pg)
	}

	if p.Role == auth.RoleDoctor {
		records, total, err := h.svc.RecordsForDoctor(ctx, p.ID, pg.Limit, pg.Offset)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to list records")
		}
		return response.Paginated(c, "", records, total, pg)
	}

	return echo.NewHTTPError(http.StatusBadRequest, "patient_id query parameter is required")
}

func (h *Handler) CreatePrescription(c echo.Context) error {
	p := auth.FromContext(c.Request().Context())
	var in PrescriptionInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	prescription, err := h.svc.CreatePrescription(c.Request().Context(), in, p.ID)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create prescription")
	}
	return response.Created(c, "prescription issued", prescription)
}

func (h *Handler) GetPrescription(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p := auth.FromContext(c.Request().Context())
	prescription, err := h.svc.Prescription(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "prescription not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load prescription")
	}
	if !auth.CanAccessPatient(p, prescription.PatientID) {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}
	return response.OK(c, "", prescription)
}

func (h *Handler) ListPrescriptions(c echo.Context) error {
	ctx := c.Request().Context()
	p := auth.FromContext(ctx)
	pg := pagination.FromContext(c)

	patientID := p.ID
	if p.Role != auth.RolePatient {
		v := c.QueryParam("patient_id")
		if v == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "patient_id query parameter is required")
		}
		id, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient_id")
		}
		patientID = id
	}
	if !auth.CanAccessPatient(p, patientID) {
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	}

	list, total, err := h.svc.PrescriptionsForPatient(ctx, patientID, c.QueryParam("status"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list prescriptions")
	}
	return response.Paginated(c, "", list, total, pg)
}

func (h *Handler) Discontinue(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p := auth.FromContext(c.Request().Context())
	prescription, err := h.svc.Discontinue(c.Request().Context(), id, p.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "prescription not found")
		}
		if errors.Is(err, ErrValidation) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to discontinue prescription")
	}
	return response.OK(c, "prescription discontinued", prescription)
}
