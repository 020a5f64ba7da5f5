package observability

import (
	"sync"
	"testing"
	"time"
)

func TestMetrics_Snapshot(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordRequest("/tickets/:id", "GET", 200, 2*time.Millisecond)
		}()
	}
	wg.Wait()
	m.RecordError("/tickets", "POST", "MISSING_TITLE")
	m.RecordProjection("ok")

	snap := m.Snapshot()
	if got := snap.Requests["/tickets/:id|GET|200"]; got != 50 {
		t.Errorf("Requests = %d, want 50", got)
	}
	if got := snap.RequestMillis["/tickets/:id|GET|200"]; got != 100 {
		t.Errorf("RequestMillis = %d, want 100", got)
	}
	if snap.Errors["/tickets|POST|MISSING_TITLE"] != 1 || snap.ProjectionCount["ok"] != 1 {
		t.Errorf("Snapshot() = %+v", snap)
	}

	snap.Requests["/tickets/:id|GET|200"] = 0
	if m.Snapshot().Requests["/tickets/:id|GET|200"] != 50 {
		t.Error("Snapshot() shares storage with Metrics")
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	m.RecordProjection("ok")
	if snap := m.Snapshot(); snap.Requests != nil {
		t.Errorf("nil Snapshot() = %+v", snap)
	}
}
