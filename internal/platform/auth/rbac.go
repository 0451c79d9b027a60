package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Role names. Comparison is case-insensitive everywhere.
const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
)

// HasRole reports whether the principal holds one of the given roles.
// Admins pass every role check.
func HasRole(p *Principal, roles ...string) bool {
	if p == nil {
		return false
	}
	if strings.EqualFold(p.Role, RoleAdmin) {
		return true
	}
	for _, r := range roles {
		if strings.EqualFold(p.Role, r) {
			return true
		}
	}
	return false
}

// RequireRole returns middleware that rejects requests whose principal holds
// none of the given roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := FromContext(c.Request().Context())
			if p == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}
			if !HasRole(p, roles...) {
				return echo.NewHTTPError(http.StatusForbidden,
					fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
			}
			return next(c)
		}
	}
}

// CanAccessPatient encodes the clinical access model: admins see everything,
// any doctor may view any patient, a patient only themselves.
func CanAccessPatient(p *Principal, patientID uuid.UUID) bool {
	if p == nil {
		return false
	}
	switch strings.ToLower(p.Role) {
	case RoleAdmin, RoleDoctor:
		return true
	case RolePatient:
		return p.ID == patientID
	}
	return false
}

// CanManageAppointment allows the owning patient, any doctor, or an admin.
func CanManageAppointment(p *Principal, patientID uuid.UUID) bool {
	if p == nil {
		return false
	}
	switch strings.ToLower(p.Role) {
	case RoleAdmin, RoleDoctor:
		return true
	case RolePatient:
		return p.ID == patientID
	}
	return false
}
