package db

import (
	"encoding/json"
	"testing"
)

func TestPoolStatsJSONShape(t *testing.T) {
	b, err := json.Marshal(PoolStats{
		TotalConns:    3,
		IdleConns:     1,
		AcquiredConns: 2,
		MaxConns:      10,
		AcquireCount:  42,
		AcquireWait:   "150ms",
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"total_conns", "idle_conns", "acquired_conns", "max_conns", "acquire_count", "acquire_wait"} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing key %q in %s", key, b)
		}
	}
	if m["acquire_wait"] != "150ms" {
		t.Errorf("acquire_wait = %v", m["acquire_wait"])
	}
}
