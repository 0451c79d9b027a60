package admin

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/domain/user"
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

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/users", h.Users, auth.RequireRole(auth.RoleAdmin))
	g.PUT("/users/:id/toggle-status", h.ToggleStatus, auth.RequireRole(auth.RoleAdmin))
	g.GET("/statistics", h.Statistics, auth.RequireRole(auth.RoleAdmin))
}

func (h *Handler) Users(c echo.Context) error {
	f := user.UserFilter{
		Role:   c.QueryParam("role"),
		Search: c.QueryParam("search"),
	}
	if raw := c.QueryParam("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid active filter")
		}
		f.Active = &active
	}
	pg := pagination.FromContext(c)

	users, total, err := h.svc.Users(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list users")
	}
	return response.Paginated(c, "", users, total, pg)
}

func (h *Handler) ToggleStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	p := auth.FromContext(c.Request().Context())
	if p == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	active, err := h.svc.ToggleStatus(c.Request().Context(), id, p.ID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update user status")
	}
	message := "user deactivated"
	if active {
		message = "user activated"
	}
	return response.OK(c, message, map[string]bool{"active": active})
}

func (h *Handler) Statistics(c echo.Context) error {
	stats, err := h.svc.Statistics(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load statistics")
	}
	return response.OK(c, "", stats)
}
