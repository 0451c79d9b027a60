package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func contextWithQuery(query string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec)
}

func TestFromContext(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", DefaultLimit, 0},
		{"explicit", "limit=10&offset=30", 10, 30},
		{"page style", "page=3&limit=10", 10, 20},
		{"page one", "page=1&limit=10", 10, 0},
		{"capped limit", "limit=9999", MaxLimit, 0},
		{"negative ignored", "limit=-5&offset=-2", DefaultLimit, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FromContext(contextWithQuery(tt.query))
			if p.Limit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", p.Limit, tt.wantLimit)
			}
			if p.Offset != tt.wantOffset {
				t.Errorf("offset = %d, want %d", p.Offset, tt.wantOffset)
			}
		})
	}
}

func TestNewMeta(t *testing.T) {
	m := NewMeta(55, 20, 20)
	if !m.HasMore {
		t.Error("expected HasMore for middle page")
	}
	m = NewMeta(55, 20, 40)
	if m.HasMore {
		t.Error("expected no more results on last page")
	}
}

func TestParams_NextOffset(t *testing.T) {
	p := Params{Limit: 20, Offset: 40}
	if p.NextOffset() != 60 {
		t.Errorf("NextOffset = %d, want 60", p.NextOffset())
	}
	if !p.HasNext(100) {
		t.Error("expected HasNext with total 100")
	}
	if p.HasNext(60) {
		t.Error("expected no next with total 60")
	}
}
