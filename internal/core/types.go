package core

import (
	"time"

	"github.com/baxromumarov/job-sentinel/internal/ai"
)

type ScanStatus string

const (
	StatusIdle     ScanStatus = "idle"
	StatusScanning ScanStatus = "scanning"
	StatusFound    ScanStatus = "found"
	StatusError    ScanStatus = "error"
)

// WatchEntry is one monitored organization.
type WatchEntry struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Domain      string     `json:"domain"`
	Status      ScanStatus `json:"status"`
	LastChecked *time.Time `json:"lastChecked,omitempty"`
}

// Alert is a matched posting. Link is unique across the whole ledger.
type Alert struct {
	ID          string    `json:"id"`
	CompanyName string    `json:"companyName"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Rationale   string    `json:"reason"`
	DetectedAt  time.Time `json:"detectedAt"`
	Archived    bool      `json:"archived"`
}

type Partition string

const (
	PartitionActive   Partition = "active"
	PartitionArchived Partition = "archived"
)

// Counters never decrease.
type Counters struct {
	TotalScans   int `json:"totalScans"`
	TotalMatches int `json:"totalMatches"`
}

// Stats is the counters projection shown to the dashboard.
type Stats struct {
	TotalScans      int    `json:"totalScans"`
	TotalMatches    int    `json:"totalMatches"`
	ActiveWatchlist int    `json:"activeWatchlist"`
	UpTime          string `json:"upTime"`
}

type AgentType string

const (
	AgentProfiler AgentType = "PROFILER"
	AgentScout    AgentType = "SCOUT"
	AgentCritic   AgentType = "CRITIC"
	AgentReporter AgentType = "REPORTER"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
)

type LogEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Agent     AgentType `json:"agent"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"type"`
}

type AgentStatus struct {
	Type     AgentType `json:"type"`
	IsActive bool      `json:"isActive"`
	Message  string    `json:"message"`
}

type MonitorState string

const (
	MonitorStopped MonitorState = "STOPPED"
	MonitorRunning MonitorState = "RUNNING"
)

// StateView is everything the presentation boundary reads in one call.
type StateView struct {
	SourceText string       `json:"resumeText"`
	Profile    *ai.Profile  `json:"profile"`
	Watchlist  []WatchEntry `json:"companies"`
	Stats      Stats        `json:"stats"`
	Monitor    MonitorState `json:"monitor"`
	Profiling  bool         `json:"profiling"`
}
