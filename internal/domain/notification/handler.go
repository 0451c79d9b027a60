package notification

import (
	"errors"
	"net/http"
	"strconv"

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

// RegisterRoutes mounts /notifications on an authenticated group. All
// endpoints are scoped to the caller.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("", h.List)
	g.GET("/unread-count", h.UnreadCount)
	g.PUT("/read-all", h.MarkAllRead)
	g.PUT("/:id/read", h.MarkRead)
}

func (h *Handler) List(c echo.Context) error {
	p := auth.FromContext(c.Request().Context())
	pg := pagination.FromContext(c)

	unreadOnly := false
	if v := c.QueryParam("unread"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid unread flag")
		}
		unreadOnly = b
	}

	list, total, err := h.svc.List(c.Request().Context(), p.ID, unreadOnly, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list notifications")
	}
	return response.Paginated(c, "", list, total, pg)
}

func (h *Handler) UnreadCount(c echo.Context) error {
	p := auth.FromContext(c.Request().Context())
	n, err := h.svc.UnreadCount(c.Request().Context(), p.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to count notifications")
	}
	return response.OK(c, "", map[string]int{"unread": n})
}

func (h *Handler) MarkRead(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p := auth.FromContext(c.Request().Context())
	if err := h.svc.MarkRead(c.Request().Context(), id, p.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "notification not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to mark notification")
	}
	return response.OK(c, "notification read", nil)
}

func (h *Handler) MarkAllRead(c echo.Context) error {
	p := auth.FromContext(c.Request().Context())
	n, err := h.svc.MarkAllRead(c.Request().Context(), p.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to mark notifications")
	}
	return response.OK(c, "notifications read", map[string]int64{"updated": n})
}
