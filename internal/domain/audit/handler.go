package audit

import (
	"errors"
	"net/http"
	"strconv"
	"time"

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

// RegisterRoutes mounts the audit endpoints, all admin-only.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	admin := auth.RequireRole(auth.RoleAdmin)
	g.GET("/audit-logs", h.List, admin)
	g.GET("/audit-logs/statistics", h.Statistics, admin)
	g.GET("/audit-logs/anomalies/:userId", h.Anomalies, admin)
	g.GET("/audit-logs/:id", h.Get, admin)
	g.PUT("/audit-logs/:id/review", h.Review, admin)
	g.PUT("/audit-logs/:id/suspicious", h.FlagSuspicious, admin)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)

	var f Filter
	if v := c.QueryParam("user_id"); v != "" {
		uid, err := uuid.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid user_id")
		}
		f.UserID = &uid
	}
	f.Action = c.QueryParam("action")
	f.Category = c.QueryParam("category")
	f.Severity = c.QueryParam("severity")
	f.Status = c.QueryParam("status")
	if v := c.QueryParam("suspicious"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid suspicious flag")
		}
		f.Suspicious = &b
	}
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from timestamp")
		}
		f.From = &t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to timestamp")
		}
		f.To = &t
	}

	logs, total, err := h.svc.Search(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list audit logs")
	}
	return response.Paginated(c, "", logs, total, pg)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	l, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "audit log not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load audit log")
	}
	return response.OK(c, "", l)
}

func (h *Handler) Statistics(c echo.Context) error {
	window := 24 * time.Hour
	if v := c.QueryParam("hours"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid hours")
		}
		window = time.Duration(hours) * time.Hour
	}
	stats, err := h.svc.Statistics(c.Request().Context(), window)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to compute statistics")
	}
	return response.OK(c, "", stats)
}

func (h *Handler) Anomalies(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	hours := 24
	if v := c.QueryParam("hours"); v != "" {
		hours, err = strconv.Atoi(v)
		if err != nil || hours <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid hours")
		}
	}
	anomalies, err := h.svc.DetectAnomalies(c.Request().Context(), userID, hours)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to scan activity")
	}
	return response.OK(c, "", map[string]interface{}{
		"user_id":   userID,
		"hours":     hours,
		"anomalies": anomalies,
	})
}

func (h *Handler) Review(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p := auth.FromContext(c.Request().Context())
	if p == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	if err := h.svc.Review(c.Request().Context(), id, p.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "audit log not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to mark reviewed")
	}
	return response.OK(c, "audit log reviewed", nil)
}

func (h *Handler) FlagSuspicious(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.FlagSuspicious(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "audit log not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to flag audit log")
	}
	return response.OK(c, "audit log flagged", nil)
}
