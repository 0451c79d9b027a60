package analytics

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/dashboard", h.Dashboard, auth.RequireRole(auth.RoleAdmin, auth.RoleDoctor))
	g.GET("/patients", h.Patients, auth.RequireRole(auth.RoleAdmin))
	g.GET("/appointments", h.Appointments, auth.RequireRole(auth.RoleAdmin))
	g.GET("/doctors", h.Doctors, auth.RequireRole(auth.RoleAdmin))
	g.GET("/revenue", h.Revenue, auth.RequireRole(auth.RoleAdmin))
	g.GET("/cache-stats", h.CacheStats, auth.RequireRole(auth.RoleAdmin))
	g.POST("/clear-cache", h.ClearCache, auth.RequireRole(auth.RoleAdmin))
}

func (h *Handler) Dashboard(c echo.Context) error {
	stats, err := h.svc.Dashboard(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load dashboard")
	}
	return response.OK(c, "", stats)
}

func (h *Handler) Patients(c echo.Context) error {
	stats, err := h.svc.Patients(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load patient statistics")
	}
	return response.OK(c, "", stats)
}

func (h *Handler) Appointments(c echo.Context) error {
	stats, err := h.svc.Appointments(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load appointment statistics")
	}
	return response.OK(c, "", stats)
}

func (h *Handler) Doctors(c echo.Context) error {
	loads, err := h.svc.Doctors(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load doctor workload")
	}
	return response.OK(c, "", loads)
}

func (h *Handler) Revenue(c echo.Context) error {
	stats, err := h.svc.Revenue(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load revenue statistics")
	}
	return response.OK(c, "", stats)
}

func (h *Handler) CacheStats(c echo.Context) error {
	stats, err := h.svc.CacheStats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load cache statistics")
	}
	return response.OK(c, "", stats)
}

func (h *Handler) ClearCache(c echo.Context) error {
	p := auth.FromContext(c.Request().Context())
	if p == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	n, err := h.svc.ClearCache(c.Request().Context(), p.ID, c.QueryParam("type"), c.RealIP())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to clear cache")
	}
	return response.OK(c, "cache cleared", map[string]int64{"removed": n})
}
