package core

import (
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/job-sentinel/internal/ai"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProfileStore_ReplacingTextInvalidates(t *testing.T) {
	var p ProfileStore
	p.SetSourceText("resume v1")

	text, err := p.beginLock()
	require.NoError(t, err)
	require.NoError(t, p.finishLock(text, ai.Profile{TargetRoles: []string{"PM"}}))

	got, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, "resume v1", got.SourceText)

	assert.False(t, p.SetSourceText("resume v1"), "same text keeps the profile")
	_, ok = p.Current()
	assert.True(t, ok)

	assert.True(t, p.SetSourceText("resume v2"))
	_, ok = p.Current()
	assert.False(t, ok)
}

func TestProfileStore_LockGuards(t *testing.T) {
	var p ProfileStore

	_, err := p.beginLock()
	assert.ErrorIs(t, err, ErrValidation)

	p.SetSourceText("resume")
	text, err := p.beginLock()
	require.NoError(t, err)

	_, err = p.beginLock()
	assert.ErrorIs(t, err, ErrProfileBusy)

	p.SetSourceText("edited while locking")
	assert.ErrorIs(t, p.finishLock(text, ai.Profile{}), ErrSourceChanged)
	_, ok := p.Current()
	assert.False(t, ok)
	assert.False(t, p.Locking())
}

func TestProfileStore_RestoreDropsMismatchedProfile(t *testing.T) {
	var p ProfileStore
	p.restore("current", &ai.Profile{SourceText: "stale"})
	_, ok := p.Current()
	assert.False(t, ok)

	p.restore("current", &ai.Profile{TargetRoles: []string{"PM"}})
	got, ok := p.Current()
	require.True(t, ok)
	assert.Equal(t, "current", got.SourceText)
}

func TestWatchlist_AddNormalizesDomain(t *testing.T) {
	w := NewWatchlist(nil)

	e, err := w.Add("", " Figma ", "https://www.figma.com/careers")
	require.NoError(t, err)
	assert.Equal(t, "Figma", e.Name)
	assert.Equal(t, "figma.com", e.Domain)
	assert.Equal(t, StatusIdle, e.Status)
	assert.NotEmpty(t, e.ID)

	_, err = w.Add("", "Figma again", "jobs.figma.com")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = w.Add("", "", "x.com")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = w.Add("", "Nowhere", "localhost")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestWatchlist_RemoveAndStatus(t *testing.T) {
	w := NewWatchlist(DefaultWatchlist())
	require.Equal(t, 10, w.Len())

	assert.True(t, w.SetStatus("3", StatusScanning))
	e, ok := w.Find("3")
	require.True(t, ok)
	assert.Equal(t, StatusScanning, e.Status)

	require.NoError(t, w.Remove("3"))
	assert.ErrorIs(t, w.Remove("3"), ErrNotFound)
	assert.False(t, w.SetStatus("3", StatusIdle))
	assert.Equal(t, 9, w.Len())
}

func TestWatchlist_EntriesAreCopies(t *testing.T) {
	w := NewWatchlist(DefaultWatchlist())
	w.MarkChecked("1", t0)

	entries := w.Entries()
	entries[0].Name = "changed"
	*entries[0].LastChecked = t0.AddDate(1, 0, 0)

	e, _ := w.Find("1")
	assert.Equal(t, "OpenAI", e.Name)
	assert.Equal(t, t0, *e.LastChecked)
}

func TestDefaultWatchlist(t *testing.T) {
	d := DefaultWatchlist()
	require.Len(t, d, 10)
	assert.Equal(t, WatchEntry{ID: "1", Name: "OpenAI", Domain: "openai.com", Status: StatusIdle}, d[0])
	assert.Equal(t, "10", d[9].ID)
	assert.Equal(t, "Tesla", d[9].Name)
}

func TestParseSeed(t *testing.T) {
	entries, err := ParseSeed([]byte(`
organizations:
  - name: Figma
    domain: figma.com
  - name: Linear
    domain: https://linear.app/careers
`))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "1", entries[0].ID)
	assert.Equal(t, "linear.app", entries[1].Domain)

	_, err = ParseSeed([]byte("organizations: []"))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = ParseSeed([]byte(`
organizations:
  - name: A
    domain: a.com
  - name: B
    domain: a.com
`))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestActivityLog_RingBuffer(t *testing.T) {
	a := NewActivityLog(quietLogger(), nil)
	for i := 0; i < 60; i++ {
		a.Add(AgentScout, SeverityInfo, fmt.Sprintf("entry %d", i))
	}

	entries := a.Entries()
	require.Len(t, entries, logCapacity)
	assert.Equal(t, "entry 59", entries[0].Message)
	assert.Equal(t, "entry 10", entries[len(entries)-1].Message)

	a.Clear()
	assert.Empty(t, a.Entries())
}

func TestActivityLog_PartialBuffer(t *testing.T) {
	a := NewActivityLog(quietLogger(), nil)
	a.Add(AgentProfiler, SeverityInfo, "one")
	a.Add(AgentReporter, SeveritySuccess, "two")

	entries := a.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "two", entries[0].Message)
	assert.Equal(t, AgentReporter, entries[0].Agent)
	assert.NotEqual(t, entries[0].ID, entries[1].ID)
}

func TestAgentBoard(t *testing.T) {
	b := NewAgentBoard()
	b.Set(AgentCritic, true, "Vetting leads...")

	statuses := b.Statuses()
	require.Len(t, statuses, 4)
	assert.Equal(t, AgentProfiler, statuses[0].Type)
	assert.Equal(t, AgentStatus{Type: AgentCritic, IsActive: true, Message: "Vetting leads..."}, statuses[2])

	b.Idle(AgentCritic)
	assert.False(t, b.Statuses()[2].IsActive)
}
