package observability

import (
	"maps"
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu              sync.Mutex
	requestCount    map[string]int64
	requestDuration map[string]time.Duration
	errorCount      map[string]int64
	projections     map[string]int64
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Requests        map[string]int64 `json:"requests"`
	RequestMillis   map[string]int64 `json:"request_millis"`
	Errors          map[string]int64 `json:"errors"`
	ProjectionCount map[string]int64 `json:"projections"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:    make(map[string]int64),
		requestDuration: make(map[string]time.Duration),
		errorCount:      make(map[string]int64),
		projections:     make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.requestDuration[key] += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordProjection counts projection outcomes by result, e.g. "ok" or an
// error code.
func (m *Metrics) RecordProjection(outcome string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projections[outcome]++
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	millis := make(map[string]int64, len(m.requestDuration))
	for k, d := range m.requestDuration {
		millis[k] = d.Milliseconds()
	}
	return Snapshot{
		Requests:        maps.Clone(m.requestCount),
		RequestMillis:   millis,
		Errors:          maps.Clone(m.errorCount),
		ProjectionCount: maps.Clone(m.projections),
	}
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
