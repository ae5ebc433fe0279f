package core

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/baxromumarov/job-sentinel/internal/ai"
)

// AlertLedger is the deduplicated collection of matches. A link appears at
// most once across both partitions; alerts are never deleted.
// Not safe for concurrent use; Sentinel serializes access.
type AlertLedger struct {
	alerts []Alert
	links  map[string]struct{}
}

func NewAlertLedger(alerts []Alert) *AlertLedger {
	l := &AlertLedger{links: make(map[string]struct{}, len(alerts))}
	for _, a := range alerts {
		key := linkKey(a.Link)
		if _, dup := l.links[key]; dup {
			continue
		}
		l.links[key] = struct{}{}
		l.alerts = append(l.alerts, a)
	}
	return l
}

func linkKey(link string) string {
	return strings.TrimSpace(link)
}

func (l *AlertLedger) Len() int {
	return len(l.alerts)
}

func (l *AlertLedger) Has(link string) bool {
	_, ok := l.links[linkKey(link)]
	return ok
}

// InsertIfNew records a positive verdict. A known link is left untouched and
// reports false.
func (l *AlertLedger) InsertIfNew(companyName string, candidate ai.Candidate, rationale string, now time.Time) (Alert, bool) {
	key := linkKey(candidate.Link)
	if key == "" {
		return Alert{}, false
	}
	if _, ok := l.links[key]; ok {
		return Alert{}, false
	}

	alert := Alert{
		ID:          uuid.NewString(),
		CompanyName: companyName,
		Title:       candidate.Title,
		Link:        key,
		Rationale:   rationale,
		DetectedAt:  now,
	}
	l.links[key] = struct{}{}
	l.alerts = append(l.alerts, alert)
	return alert, true
}

func (l *AlertLedger) ToggleArchive(id string) (Alert, error) {
	for i := range l.alerts {
		if l.alerts[i].ID == id {
			l.alerts[i].Archived = !l.alerts[i].Archived
			return l.alerts[i], nil
		}
	}
	return Alert{}, newError(ErrNotFound, fmt.Sprintf("alert %s", id))
}

// View returns one partition newest-first. Alerts with equal timestamps keep
// the reverse of their insertion order.
func (l *AlertLedger) View(p Partition) []Alert {
	archived := p == PartitionArchived
	out := make([]Alert, 0, len(l.alerts))
	for i := len(l.alerts) - 1; i >= 0; i-- {
		if l.alerts[i].Archived == archived {
			out = append(out, l.alerts[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DetectedAt.After(out[j].DetectedAt)
	})
	return out
}

// All returns every alert in insertion order.
func (l *AlertLedger) All() []Alert {
	return append([]Alert(nil), l.alerts...)
}
