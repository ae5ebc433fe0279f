package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/baxromumarov/job-sentinel/internal/ai"
	"github.com/baxromumarov/job-sentinel/internal/observability"
)

// Monitor runs scan cycles over the watchlist while RUNNING. Stopping is
// cooperative: an in-flight pipeline call finishes and its result is kept,
// but no further organization or cycle starts once the stop is observed.
type Monitor struct {
	s          *Sentinel
	orgPause   time.Duration
	cycleDelay time.Duration

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

func newMonitor(s *Sentinel, orgPause, cycleDelay time.Duration) *Monitor {
	return &Monitor{s: s, orgPause: orgPause, cycleDelay: cycleDelay}
}

func (m *Monitor) State() MonitorState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return MonitorRunning
	}
	return MonitorStopped
}

// Start requires a locked profile. Starting while already running is a no-op
// that reports true. A run that is still draining after a stop is waited for
// before the new one scans anything.
func (m *Monitor) Start(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return true
	}
	if _, ok := m.s.Profile(); !ok {
		return false
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	prev := m.done
	m.running = true
	m.stop = stop
	m.done = done

	m.s.logs.Add(AgentReporter, SeverityInfo, "Monitoring engaged.")
	go m.run(ctx, stop, done, prev)
	return true
}

func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	m.running = false
	close(m.stop)
	m.s.logs.Add(AgentReporter, SeverityInfo, "Monitoring halted.")
}

// Wait blocks until the most recent run goroutine has exited.
func (m *Monitor) Wait() {
	m.mu.Lock()
	done := m.done
	m.mu.Unlock()
	if done != nil {
		<-done
	}
}

// settle marks the loop STOPPED when a run ends on its own.
func (m *Monitor) settle(stop chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running && m.stop == stop {
		m.running = false
		close(stop)
	}
}

func (m *Monitor) run(ctx context.Context, stop, done, prev chan struct{}) {
	defer close(done)
	defer m.settle(stop)

	if prev != nil {
		select {
		case <-prev:
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}

	for {
		if !m.runCycle(ctx, stop) {
			return
		}
		m.s.logs.Addf(AgentReporter, SeverityInfo, "Full cycle completed. Monitoring next batch in %s.", formatDelay(m.cycleDelay))
		if !pause(ctx, stop, m.cycleDelay) {
			return
		}
	}
}

// runCycle scans every organization once, in order. It reports whether the
// loop should schedule another cycle.
func (m *Monitor) runCycle(ctx context.Context, stop <-chan struct{}) bool {
	for _, entry := range m.s.Watchlist() {
		if stopped(ctx, stop) {
			return false
		}
		profile, ok := m.s.Profile()
		if !ok {
			m.s.logs.Add(AgentReporter, SeverityWarning, "Profile invalidated. Monitoring halted.")
			return false
		}
		gen, ok := m.s.beginScan(entry)
		if !ok {
			// removed since the cycle started
			continue
		}
		m.scan(ctx, gen, entry, profile.Clone())

		if !pause(ctx, stop, m.orgPause) {
			return false
		}
	}
	return !stopped(ctx, stop)
}

// scan runs scout then critic for one organization. Failures are logged and
// never leave the organization marked as scanning. Once a reset bumps the
// generation the remaining results are dropped.
func (m *Monitor) scan(ctx context.Context, gen uint64, entry WatchEntry, profile ai.Profile) {
	start := time.Now()
	defer func() {
		m.s.endScan(gen, entry)
		observability.ObserveScan(time.Since(start).Seconds())
	}()

	candidates, err := m.s.pipeline.Scout(ctx, entry, profile.PrimaryRole())
	if !m.s.countScan(gen, entry) {
		return
	}
	if err != nil {
		m.s.logger.Debug("scout failed", "org", entry.Name, "error", err)
		m.s.logs.Addf(AgentScout, SeverityWarning, "Search index error for %s.", entry.Name)
		observability.IncError(observability.ClassifyError(err), "scout")
		return
	}
	if len(candidates) == 0 {
		m.s.logs.Addf(AgentScout, SeverityWarning, "Zero recent postings for %s found in index.", entry.Name)
		return
	}

	m.s.logs.Addf(AgentScout, SeveritySuccess, "Found %d candidate links. Grounding check initiated.", len(candidates))
	m.s.agents.Set(AgentCritic, true, "Vetting leads...")

	for _, candidate := range candidates {
		verdict, err := m.s.pipeline.Critique(ctx, candidate, profile)
		if !m.s.current(gen) {
			return
		}
		if err != nil {
			m.s.logger.Debug("critic failed", "org", entry.Name, "link", candidate.Link, "error", err)
			m.s.logs.Addf(AgentCritic, SeverityWarning, "Critic error for %s. Remaining leads skipped.", entry.Name)
			observability.IncError(observability.ClassifyError(err), "critic")
			return
		}
		if !verdict.Accepted {
			continue
		}
		alert, created, current := m.s.recordMatch(gen, entry, candidate, verdict.Rationale)
		if !current {
			return
		}
		if !created {
			continue
		}
		m.s.logs.Addf(AgentReporter, SeveritySuccess, "HIGH-PRIORITY ALERT: %s", alert.Title)
		m.s.notify(ctx, gen, alert)
	}
}

func stopped(ctx context.Context, stop <-chan struct{}) bool {
	select {
	case <-stop:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// pause waits for d. It reports false when the wait was cut short by a stop.
func pause(ctx context.Context, stop <-chan struct{}, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-stop:
		return false
	case <-ctx.Done():
		return false
	}
}

// formatDelay renders whole-second delays as "60s" and anything else with
// time.Duration's own formatting.
func formatDelay(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%ds", int64(d/time.Second))
	}
	return d.String()
}
