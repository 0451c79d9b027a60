package appointment

import (
	"strings"
	"time"
)

// Window is one availability window within a day, "HH:MM" bounds.
type Window struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// dayName returns the lowercase weekday name used as the availability key.
func dayName(t time.Time) string {
	return strings.ToLower(t.Weekday().String())
}

// GenerateSlots expands availability windows into the ordered candidate slot
// times, stepping by the slot duration. A slot is included only when the full
// duration fits inside the window. Malformed windows are skipped.
func GenerateSlots(windows []Window, slotMinutes int) []string {
	if slotMinutes <= 0 {
		slotMinutes = 30
	}
	dur := time.Duration(slotMinutes) * time.Minute

	var slots []string
	for _, w := range windows {
		start, err := time.Parse("15:04", w.Start)
		if err != nil {
			continue
		}
		end, err := time.Parse("15:04", w.End)
		if err != nil {
			continue
		}
		for cur := start; !cur.Add(dur).After(end); cur = cur.Add(dur) {
			slots = append(slots, cur.Format("15:04"))
		}
	}
	return slots
}

// AvailableSlots removes booked times from the candidate sequence by exact
// string match, preserving order.
func AvailableSlots(candidates, booked []string) []string {
	if len(booked) == 0 {
		return candidates
	}
	taken := make(map[string]bool, len(booked))
	for _, t := range booked {
		taken[t] = true
	}
	available := make([]string, 0, len(candidates))
	for _, t := range candidates {
		if !taken[t] {
			available = append(available, t)
		}
	}
	return available
}
