package observability

import (
	"sync"
	"sync/atomic"
)

type StatsSnapshot struct {
	AICalls           uint64            `json:"ai_calls"`
	OrgScans          uint64            `json:"org_scans"`
	AlertsCreated     uint64            `json:"alerts_created"`
	SnapshotsSaved    uint64            `json:"snapshots_saved"`
	ErrorsTotal       uint64            `json:"errors_total"`
	ScanSecondsAvg    float64           `json:"scan_seconds_avg"`
	AICallsByAgent    map[string]uint64 `json:"ai_calls_by_agent,omitempty"`
	ErrorsByType      map[string]uint64 `json:"errors_by_type,omitempty"`
	ErrorsByComponent map[string]uint64 `json:"errors_by_component,omitempty"`
}

var (
	aiCalls        uint64
	orgScans       uint64
	alertsCreated  uint64
	snapshotsSaved uint64
	errorsTotal    uint64

	scanCount uint64
	scanNanos uint64

	statsMu           sync.Mutex
	aiCallsByAgent    = map[string]uint64{}
	errorsByType      = map[string]uint64{}
	errorsByComponent = map[string]uint64{}
)

func IncAICall(agent string) {
	if agent == "" {
		agent = "unknown"
	}
	atomic.AddUint64(&aiCalls, 1)
	statsMu.Lock()
	aiCallsByAgent[agent]++
	statsMu.Unlock()
}

func IncAlertCreated() {
	atomic.AddUint64(&alertsCreated, 1)
}

func IncSnapshotSaved() {
	atomic.AddUint64(&snapshotsSaved, 1)
}

// ObserveScan records one organization scan and how long it took.
func ObserveScan(seconds float64) {
	atomic.AddUint64(&orgScans, 1)
	if seconds <= 0 {
		return
	}
	atomic.AddUint64(&scanCount, 1)
	atomic.AddUint64(&scanNanos, uint64(seconds*1e9))
}

func IncError(errType, component string) {
	if errType == "" {
		errType = ErrorUnknown
	}
	if component == "" {
		component = "unknown"
	}
	atomic.AddUint64(&errorsTotal, 1)
	statsMu.Lock()
	errorsByType[errType]++
	errorsByComponent[component]++
	statsMu.Unlock()
}

func Snapshot() StatsSnapshot {
	statsMu.Lock()
	agentCopy := copyMap(aiCallsByAgent)
	errorsTypeCopy := copyMap(errorsByType)
	errorsComponentCopy := copyMap(errorsByComponent)
	statsMu.Unlock()

	count := atomic.LoadUint64(&scanCount)
	avg := 0.0
	if count > 0 {
		avg = float64(atomic.LoadUint64(&scanNanos)) / float64(count) / 1e9
	}

	return StatsSnapshot{
		AICalls:           atomic.LoadUint64(&aiCalls),
		OrgScans:          atomic.LoadUint64(&orgScans),
		AlertsCreated:     atomic.LoadUint64(&alertsCreated),
		SnapshotsSaved:    atomic.LoadUint64(&snapshotsSaved),
		ErrorsTotal:       atomic.LoadUint64(&errorsTotal),
		ScanSecondsAvg:    avg,
		AICallsByAgent:    agentCopy,
		ErrorsByType:      errorsTypeCopy,
		ErrorsByComponent: errorsComponentCopy,
	}
}

func copyMap(src map[string]uint64) map[string]uint64 {
	if len(src) == 0 {
		return map[string]uint64{}
	}
	out := make(map[string]uint64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
