package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const logCapacity = 50

// ActivityLog keeps the most recent diagnostic entries, dropping the oldest
// on overflow. Every entry is mirrored to slog.
type ActivityLog struct {
	mu     sync.Mutex
	buf    [logCapacity]LogEntry
	next   int
	size   int
	now    func() time.Time
	logger *slog.Logger
}

func NewActivityLog(logger *slog.Logger, now func() time.Time) *ActivityLog {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &ActivityLog{logger: logger, now: now}
}

func (a *ActivityLog) Add(agent AgentType, severity Severity, message string) LogEntry {
	entry := LogEntry{
		ID:        uuid.NewString(),
		Timestamp: a.now(),
		Agent:     agent,
		Message:   message,
		Severity:  severity,
	}

	a.mu.Lock()
	a.buf[a.next] = entry
	a.next = (a.next + 1) % logCapacity
	if a.size < logCapacity {
		a.size++
	}
	a.mu.Unlock()

	level := slog.LevelInfo
	if severity == SeverityWarning {
		level = slog.LevelWarn
	}
	a.logger.Log(context.Background(), level, message, "agent", string(agent), "severity", string(severity))
	return entry
}

func (a *ActivityLog) Addf(agent AgentType, severity Severity, format string, args ...any) LogEntry {
	return a.Add(agent, severity, fmt.Sprintf(format, args...))
}

// Entries returns the buffered entries newest first.
func (a *ActivityLog) Entries() []LogEntry {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]LogEntry, 0, a.size)
	for i := 1; i <= a.size; i++ {
		out = append(out, a.buf[(a.next-i+logCapacity)%logCapacity])
	}
	return out
}

func (a *ActivityLog) Clear() {
	a.mu.Lock()
	a.buf = [logCapacity]LogEntry{}
	a.next = 0
	a.size = 0
	a.mu.Unlock()
}

var agentOrder = []AgentType{AgentProfiler, AgentScout, AgentCritic, AgentReporter}

const agentIdleMessage = "Idle"

// AgentBoard tracks what each pipeline stage is doing right now.
type AgentBoard struct {
	mu     sync.Mutex
	agents map[AgentType]AgentStatus
}

func NewAgentBoard() *AgentBoard {
	b := &AgentBoard{}
	b.Reset()
	return b
}

func (b *AgentBoard) Set(agent AgentType, active bool, message string) {
	b.mu.Lock()
	b.agents[agent] = AgentStatus{Type: agent, IsActive: active, Message: message}
	b.mu.Unlock()
}

func (b *AgentBoard) Idle(agent AgentType) {
	b.Set(agent, false, agentIdleMessage)
}

func (b *AgentBoard) Reset() {
	b.mu.Lock()
	b.agents = make(map[AgentType]AgentStatus, len(agentOrder))
	for _, t := range agentOrder {
		b.agents[t] = AgentStatus{Type: t, Message: agentIdleMessage}
	}
	b.mu.Unlock()
}

func (b *AgentBoard) Statuses() []AgentStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]AgentStatus, 0, len(agentOrder))
	for _, t := range agentOrder {
		out = append(out, b.agents[t])
	}
	return out
}
