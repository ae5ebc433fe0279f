package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/baxromumarov/job-sentinel/internal/ai"
	"github.com/baxromumarov/job-sentinel/internal/observability"
	"github.com/baxromumarov/job-sentinel/internal/store"
)

const (
	DefaultOrgPause   = 2 * time.Second
	DefaultCycleDelay = 60 * time.Second

	persistTimeout = 10 * time.Second
)

// SampleResume is the built-in test profile.
const SampleResume = `
PMP-certified project manager with 8 years steering cross-industry portfolios.
Expertise in Agile/Scrum, strategic resource allocation, and delivering $10M+ initiatives on time.
Proficient in Jira, Asana, and stakeholder management.
Seeking: Senior Project Manager or Program Manager roles in Tech/SaaS.
`

// Notifier delivers newly created alerts to an outside channel.
type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

// Options configures a Sentinel. A non-empty Seed replaces the built-in
// default watchlist.
type Options struct {
	Store      store.KV
	StorageKey string
	Client     ai.Client
	Notifier   Notifier
	Seed       []WatchEntry
	OrgPause   time.Duration
	CycleDelay time.Duration
	Logger     *slog.Logger
	Now        func() time.Time
}

// Sentinel is the orchestration context. It owns the profile, watchlist,
// alert ledger and counters, persists them after every change and drives
// the monitor loop.
type Sentinel struct {
	mu        sync.Mutex
	profile   ProfileStore
	watchlist *Watchlist
	ledger    *AlertLedger
	counters  Counters
	hydrated  bool
	runCtx    context.Context

	// generation is bumped by Reset. Scan results carrying an older
	// generation are dropped.
	generation uint64

	// persistMu serializes saves so the last write always carries the newest state.
	persistMu sync.Mutex
	persister *Persister

	seed      []WatchEntry
	pipeline  *Pipeline
	notifier  Notifier
	logs      *ActivityLog
	agents    *AgentBoard
	monitor   *Monitor
	logger    *slog.Logger
	now       func() time.Time
	startedAt time.Time
}

func New(opts Options) (*Sentinel, error) {
	if opts.Store == nil {
		return nil, errors.New("sentinel: store is required")
	}
	if opts.Client == nil {
		return nil, errors.New("sentinel: classification client is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OrgPause <= 0 {
		opts.OrgPause = DefaultOrgPause
	}
	if opts.CycleDelay <= 0 {
		opts.CycleDelay = DefaultCycleDelay
	}

	s := &Sentinel{
		persister: NewPersister(opts.Store, opts.StorageKey),
		seed:      opts.Seed,
		pipeline:  NewPipeline(opts.Client),
		notifier:  opts.Notifier,
		logs:      NewActivityLog(opts.Logger, opts.Now),
		agents:    NewAgentBoard(),
		logger:    opts.Logger,
		now:       opts.Now,
		startedAt: opts.Now(),
		ledger:    NewAlertLedger(nil),
	}
	s.watchlist = NewWatchlist(s.seedEntries())
	s.monitor = newMonitor(s, opts.OrgPause, opts.CycleDelay)
	return s, nil
}

func (s *Sentinel) seedEntries() []WatchEntry {
	if len(s.seed) > 0 {
		return s.seed
	}
	return DefaultWatchlist()
}

// Restore loads the durable snapshot. Saves are suppressed until it has run
// so startup defaults never overwrite stored state.
func (s *Sentinel) Restore(ctx context.Context) bool {
	snap, ok := s.persister.Restore(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if ok {
		s.applySnapshotLocked(snap)
		s.logger.Info("state restored",
			"companies", s.watchlist.Len(),
			"alerts", s.ledger.Len(),
			"profile", s.profile.profile != nil)
	}
	s.hydrated = true
	return ok
}

func (s *Sentinel) applySnapshotLocked(snap Snapshot) {
	s.profile.restore(snap.SourceText, snap.Profile)

	entries := snap.Watchlist
	if len(entries) == 0 {
		entries = s.seedEntries()
	}
	s.watchlist.Replace(entries)
	s.watchlist.resetStatuses()

	s.ledger = NewAlertLedger(snap.Alerts)
	s.counters = snap.Counters
}

// Hydrated reports whether Restore has run.
func (s *Sentinel) Hydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hydrated
}

// Run restores state unless that already happened, then serves monitor
// starts until ctx is done. On return the monitor has stopped and its
// goroutine has exited.
func (s *Sentinel) Run(ctx context.Context) error {
	if !s.Hydrated() {
		s.Restore(ctx)
	}

	s.mu.Lock()
	s.runCtx = ctx
	s.mu.Unlock()

	<-ctx.Done()
	s.monitor.Stop()
	s.monitor.Wait()
	return nil
}

func (s *Sentinel) loopContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runCtx == nil {
		return context.Background()
	}
	return s.runCtx
}

// Snapshot returns the persistable state.
func (s *Sentinel) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Sentinel) snapshotLocked() Snapshot {
	var profile *ai.Profile
	if p, ok := s.profile.Current(); ok {
		profile = &p
	}
	return Snapshot{
		SourceText: s.profile.SourceText(),
		Profile:    profile,
		Watchlist:  s.watchlist.Entries(),
		Alerts:     s.ledger.All(),
		Counters:   s.counters,
	}
}

func (s *Sentinel) persist() {
	s.save(nil)
}

// persistScan saves only while gen is still the current generation.
func (s *Sentinel) persistScan(gen uint64) {
	s.save(&gen)
}

func (s *Sentinel) save(gen *uint64) {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.Lock()
	if !s.hydrated || (gen != nil && *gen != s.generation) {
		s.mu.Unlock()
		return
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.persister.Save(ctx, snap); err != nil {
		s.logger.Warn("failed to persist state", "error", err)
		observability.IncError(observability.ErrorStore, "persistence")
	}
}

// Profile

func (s *Sentinel) Profile() (ai.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.Current()
}

func (s *Sentinel) SourceText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.SourceText()
}

// SetSourceText replaces the resume text. A different text drops the profile.
func (s *Sentinel) SetSourceText(text string) {
	s.mu.Lock()
	changed := s.profile.SetSourceText(text)
	s.mu.Unlock()
	if changed {
		s.persist()
	}
}

func (s *Sentinel) LoadSample() {
	s.SetSourceText(SampleResume)
	s.logs.Add(AgentReporter, SeverityInfo, "Loaded test profile: Project Manager.")
}

// ImportDocument installs text extracted from an uploaded file.
func (s *Sentinel) ImportDocument(name, text string) error {
	if strings.TrimSpace(text) == "" {
		return newError(ErrValidation, fmt.Sprintf("%s contains no readable text", name))
	}
	s.mu.Lock()
	_, hadProfile := s.profile.Current()
	changed := s.profile.SetSourceText(text)
	s.profile.Invalidate()
	s.mu.Unlock()

	s.logs.Addf(AgentReporter, SeverityInfo, "Imported raw document: %s", name)
	if changed || hadProfile {
		s.persist()
	}
	return nil
}

// LockProfile synthesizes a profile from the current source text. Only one
// lock may be in flight. If the text changes while the call runs the result
// is discarded.
func (s *Sentinel) LockProfile(ctx context.Context) (ai.Profile, error) {
	s.mu.Lock()
	text, err := s.profile.beginLock()
	s.mu.Unlock()
	if err != nil {
		return ai.Profile{}, err
	}

	s.agents.Set(AgentProfiler, true, "Synthesizing identity...")
	s.logs.Add(AgentProfiler, SeverityInfo, "Engaging Profiler Agent for Vector Synthesis...")

	profile, err := s.pipeline.Profile(ctx, text)

	s.mu.Lock()
	if err != nil {
		s.profile.abortLock()
	} else {
		err = s.profile.finishLock(text, profile)
	}
	s.mu.Unlock()

	switch {
	case errors.Is(err, ErrSourceChanged):
		s.agents.Idle(AgentProfiler)
		s.logs.Add(AgentProfiler, SeverityWarning, "Source text changed during synthesis. Result discarded.")
		return ai.Profile{}, err
	case err != nil:
		s.agents.Idle(AgentProfiler)
		s.logs.Add(AgentProfiler, SeverityWarning, "Synthesis error. API key or network failure.")
		observability.IncError(observability.ClassifyError(err), "profiler")
		return ai.Profile{}, err
	}

	s.agents.Set(AgentProfiler, false, "Identity Locked")
	s.logs.Add(AgentProfiler, SeveritySuccess, "VECTOR LOCKED: Subject identity successfully synthesized.")
	s.persist()
	profile.SourceText = text
	return profile.Clone(), nil
}

func (s *Sentinel) Profiling() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.Locking()
}

// Watchlist

func (s *Sentinel) Watchlist() []WatchEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watchlist.Entries()
}

func (s *Sentinel) AddWatch(name, domain string) (WatchEntry, error) {
	s.mu.Lock()
	entry, err := s.watchlist.Add("", name, domain)
	s.mu.Unlock()
	if err != nil {
		return WatchEntry{}, err
	}
	s.logs.Addf(AgentReporter, SeverityInfo, "Added %s (%s) to the watchlist.", entry.Name, entry.Domain)
	s.persist()
	return entry, nil
}

func (s *Sentinel) RemoveWatch(id string) error {
	s.mu.Lock()
	entry, _ := s.watchlist.Find(id)
	err := s.watchlist.Remove(id)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.logs.Addf(AgentReporter, SeverityInfo, "Removed %s from the watchlist.", entry.Name)
	s.persist()
	return nil
}

// Alerts

func (s *Sentinel) Alerts(p Partition) []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.View(p)
}

func (s *Sentinel) ToggleArchive(id string) (Alert, error) {
	s.mu.Lock()
	alert, err := s.ledger.ToggleArchive(id)
	s.mu.Unlock()
	if err != nil {
		return Alert{}, err
	}
	s.persist()
	return alert, nil
}

// Projections

func (s *Sentinel) Logs() []LogEntry {
	return s.logs.Entries()
}

func (s *Sentinel) Agents() []AgentStatus {
	return s.agents.Statuses()
}

func (s *Sentinel) Counters() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters
}

func (s *Sentinel) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		TotalScans:      s.counters.TotalScans,
		TotalMatches:    s.counters.TotalMatches,
		ActiveWatchlist: s.watchlist.Len(),
		UpTime:          formatUptime(s.now().Sub(s.startedAt)),
	}
}

func formatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs/60)%60, secs%60)
}

func (s *Sentinel) State() StateView {
	stats := s.Stats()
	monitor := s.MonitorState()

	s.mu.Lock()
	defer s.mu.Unlock()
	var profile *ai.Profile
	if p, ok := s.profile.Current(); ok {
		profile = &p
	}
	return StateView{
		SourceText: s.profile.SourceText(),
		Profile:    profile,
		Watchlist:  s.watchlist.Entries(),
		Stats:      stats,
		Monitor:    monitor,
		Profiling:  s.profile.Locking(),
	}
}

// Monitor

// StartMonitor moves the loop to RUNNING. It reports false and changes
// nothing when no profile is locked.
func (s *Sentinel) StartMonitor() bool {
	return s.monitor.Start(s.loopContext())
}

func (s *Sentinel) StopMonitor() {
	s.monitor.Stop()
}

func (s *Sentinel) MonitorState() MonitorState {
	return s.monitor.State()
}

// WaitMonitor blocks until the current monitor goroutine has exited.
func (s *Sentinel) WaitMonitor() {
	s.monitor.Wait()
}

// Reset stops the loop, deletes the durable snapshot and returns every
// entity to its defaults. A scan still draining from before the reset
// leaves no trace in the new state.
func (s *Sentinel) Reset(ctx context.Context) error {
	s.monitor.Stop()

	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if err := s.persister.Clear(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	s.generation++
	locking := s.profile.locking
	s.profile = ProfileStore{locking: locking}
	s.watchlist.Replace(s.seedEntries())
	s.ledger = NewAlertLedger(nil)
	s.counters = Counters{}
	s.startedAt = s.now()
	s.mu.Unlock()

	s.logs.Clear()
	s.agents.Reset()
	s.logger.Info("state reset to defaults")
	return nil
}

// Loop-facing accessors. Each takes the lock for a single step and never
// across a pipeline call. The gen argument is the generation returned by
// beginScan; a stale one turns the call into a no-op that reports false.

func (s *Sentinel) beginScan(entry WatchEntry) (uint64, bool) {
	s.mu.Lock()
	gen := s.generation
	ok := s.watchlist.SetStatus(entry.ID, StatusScanning)
	s.mu.Unlock()
	if !ok {
		return 0, false
	}
	s.agents.Set(AgentScout, true, "Scanning "+entry.Name)
	s.logs.Addf(AgentScout, SeverityInfo, "Scanning 7-day index for %s...", entry.Name)
	s.persistScan(gen)
	return gen, true
}

func (s *Sentinel) countScan(gen uint64, entry WatchEntry) bool {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return false
	}
	s.counters.TotalScans++
	s.watchlist.MarkChecked(entry.ID, s.now())
	s.mu.Unlock()
	s.persistScan(gen)
	return true
}

// recordMatch reports whether the alert is new. current is false when a
// reset happened since the scan began.
func (s *Sentinel) recordMatch(gen uint64, entry WatchEntry, candidate ai.Candidate, rationale string) (alert Alert, created, current bool) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return Alert{}, false, false
	}
	alert, created = s.ledger.InsertIfNew(entry.Name, candidate, rationale, s.now())
	if created {
		s.counters.TotalMatches++
	}
	s.mu.Unlock()
	if created {
		observability.IncAlertCreated()
		s.persistScan(gen)
	}
	return alert, created, true
}

func (s *Sentinel) endScan(gen uint64, entry WatchEntry) {
	s.agents.Idle(AgentScout)
	s.agents.Idle(AgentCritic)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.watchlist.SetStatus(entry.ID, StatusIdle)
	s.mu.Unlock()
	s.persistScan(gen)
}

func (s *Sentinel) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.generation
}

func (s *Sentinel) notify(ctx context.Context, gen uint64, alert Alert) {
	if s.notifier == nil || !s.current(gen) {
		return
	}
	if err := s.notifier.Notify(ctx, alert); err != nil {
		s.logger.Warn("alert notification failed", "alert", alert.ID, "link", alert.Link, "error", err)
		s.logs.Addf(AgentReporter, SeverityWarning, "Alert delivery failed for %s.", alert.CompanyName)
		observability.IncError(observability.ClassifyError(err), "notify")
	}
}
