package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func TestHasRole(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		required []string
		want     bool
	}{
		{"exact match", "doctor", []string{"doctor"}, true},
		{"case insensitive", "Doctor", []string{"doctor"}, true},
		{"admin bypass", "admin", []string{"doctor"}, true},
		{"no match", "patient", []string{"doctor"}, false},
		{"one of several", "patient", []string{"doctor", "patient"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Principal{ID: uuid.New(), Role: tt.role}
			if got := HasRole(p, tt.required...); got != tt.want {
				t.Errorf("HasRole(%s, %v) = %v, want %v", tt.role, tt.required, got, tt.want)
			}
		})
	}

	if HasRole(nil, "admin") {
		t.Error("nil principal must never pass")
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	handler := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }

	run := func(p *Principal) error {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if p != nil {
			req = req.WithContext(WithPrincipal(req.Context(), p))
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		return RequireRole("doctor")(handler)(c)
	}

	if err := run(&Principal{ID: uuid.New(), Role: "doctor"}); err != nil {
		t.Errorf("doctor should pass: %v", err)
	}
	if err := run(&Principal{ID: uuid.New(), Role: "admin"}); err != nil {
		t.Errorf("admin should pass: %v", err)
	}

	err := run(&Principal{ID: uuid.New(), Role: "patient"})
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusForbidden {
		t.Errorf("patient should be forbidden, got %v", err)
	}

	err = run(nil)
	he, ok = err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("anonymous should be unauthorized, got %v", err)
	}
}

func TestCanAccessPatient(t *testing.T) {
	patientID := uuid.New()
	otherID := uuid.New()

	if !CanAccessPatient(&Principal{ID: otherID, Role: "admin"}, patientID) {
		t.Error("admin should access any patient")
	}
	if !CanAccessPatient(&Principal{ID: otherID, Role: "doctor"}, patientID) {
		t.Error("doctor should access any patient")
	}
	if !CanAccessPatient(&Principal{ID: patientID, Role: "patient"}, patientID) {
		t.Error("patient should access own record")
	}
	if CanAccessPatient(&Principal{ID: otherID, Role: "patient"}, patientID) {
		t.Error("patient must not access another patient")
	}
	if CanAccessPatient(nil, patientID) {
		t.Error("nil principal must be denied")
	}
}

func TestCanManageAppointment(t *testing.T) {
	ownerID := uuid.New()

	if !CanManageAppointment(&Principal{ID: ownerID, Role: "patient"}, ownerID) {
		t.Error("owning patient should manage own appointment")
	}
	if CanManageAppointment(&Principal{ID: uuid.New(), Role: "patient"}, ownerID) {
		t.Error("other patient must not manage the appointment")
	}
	if !CanManageAppointment(&Principal{ID: uuid.New(), Role: "doctor"}, ownerID) {
		t.Error("doctor should manage appointments")
	}
}
