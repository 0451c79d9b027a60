package appointment

import (
	"reflect"
	"sort"
	"testing"
	"time"
)

func TestGenerateSlots(t *testing.T) {
	tests := []struct {
		name        string
		windows     []Window
		slotMinutes int
		want        []string
	}{
		{
			name:        "one hour at 30 minutes",
			windows:     []Window{{Start: "09:00", End: "10:00"}},
			slotMinutes: 30,
			want:        []string{"09:00", "09:30"},
		},
		{
			name:        "slot must fit fully inside the window",
			windows:     []Window{{Start: "09:00", End: "09:45"}},
			slotMinutes: 30,
			want:        []string{"09:00"},
		},
		{
			name:        "two windows keep order",
			windows:     []Window{{Start: "09:00", End: "10:00"}, {Start: "14:00", End: "15:00"}},
			slotMinutes: 30,
			want:        []string{"09:00", "09:30", "14:00", "14:30"},
		},
		{
			name:        "window shorter than slot yields nothing",
			windows:     []Window{{Start: "09:00", End: "09:15"}},
			slotMinutes: 30,
			want:        nil,
		},
		{
			name:        "malformed window skipped",
			windows:     []Window{{Start: "late", End: "later"}, {Start: "11:00", End: "12:00"}},
			slotMinutes: 60,
			want:        []string{"11:00"},
		},
		{
			name:        "zero duration falls back to 30",
			windows:     []Window{{Start: "09:00", End: "10:00"}},
			slotMinutes: 0,
			want:        []string{"09:00", "09:30"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateSlots(tt.windows, tt.slotMinutes)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("GenerateSlots() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAvailableSlots(t *testing.T) {
	candidates := []string{"09:00", "09:30", "10:00", "10:30"}

	got := AvailableSlots(candidates, []string{"09:30", "10:30"})
	want := []string{"09:00", "10:00"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AvailableSlots() = %v, want %v", got, want)
	}

	// No bookings returns the full candidate list.
	if got := AvailableSlots(candidates, nil); !reflect.DeepEqual(got, candidates) {
		t.Errorf("AvailableSlots() = %v, want %v", got, candidates)
	}

	// Booked time absent from candidates is ignored.
	if got := AvailableSlots(candidates, []string{"23:00"}); !reflect.DeepEqual(got, candidates) {
		t.Errorf("AvailableSlots() = %v, want %v", got, candidates)
	}
}

func TestAvailableSlotsSortedSubset(t *testing.T) {
	candidates := GenerateSlots([]Window{{Start: "08:00", End: "12:00"}}, 20)
	available := AvailableSlots(candidates, []string{"08:40", "10:20"})

	if !sort.StringsAreSorted(available) {
		t.Error("available slots must stay sorted")
	}
	set := map[string]bool{}
	for _, s := range candidates {
		set[s] = true
	}
	for _, s := range available {
		if !set[s] {
			t.Errorf("slot %s not in candidate set", s)
		}
	}
	if len(available) != len(candidates)-2 {
		t.Errorf("expected %d slots, got %d", len(candidates)-2, len(available))
	}
}

func TestDayName(t *testing.T) {
	// 2026-09-07 is a Monday.
	d := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	if got := dayName(d); got != "monday" {
		t.Errorf("dayName() = %q, want monday", got)
	}
}
