package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu             sync.Mutex
	requestCount   map[string]int64
	errorCount     map[string]int64
	reassignCount  map[string]int64
	activityWrites map[string]int64
	scans          int64
	lastScanAlerts int
	lastScanAt     time.Time
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:   make(map[string]int64),
		errorCount:     make(map[string]int64),
		reassignCount:  make(map[string]int64),
		activityWrites: make(map[string]int64),
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

// RecordReassignment counts reassignment outcomes keyed by trigger and result code ("OK" on success).
func (m *Metrics) RecordReassignment(trigger, outcome string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reassignCount[trigger+"|"+outcome]++
}

// RecordActivityWrite counts presence writes by outcome: written, throttled, failed.
func (m *Metrics) RecordActivityWrite(outcome string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activityWrites[outcome]++
}

// RecordScan notes a completed inactivity scan.
func (m *Metrics) RecordScan(at time.Time, alerts int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scans++
	m.lastScanAt = at
	m.lastScanAlerts = alerts
}

// Snapshot is a point-in-time copy of the counters.
type Snapshot struct {
	Requests       map[string]int64 `json:"requests"`
	Errors         map[string]int64 `json:"errors"`
	Reassignments  map[string]int64 `json:"reassignments"`
	ActivityWrites map[string]int64 `json:"activity_writes"`
	Scans          int64            `json:"scans"`
	LastScanAlerts int              `json:"last_scan_alerts"`
	LastScanAt     time.Time        `json:"last_scan_at"`
}

// Snapshot copies current counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Requests:       copyCounts(m.requestCount),
		Errors:         copyCounts(m.errorCount),
		Reassignments:  copyCounts(m.reassignCount),
		ActivityWrites: copyCounts(m.activityWrites),
		Scans:          m.scans,
		LastScanAlerts: m.lastScanAlerts,
		LastScanAt:     m.lastScanAt,
	}
}

func copyCounts(in map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
