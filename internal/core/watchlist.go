package core

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/baxromumarov/job-sentinel/internal/urlutil"
)

var defaultOrganizations = []struct{ name, domain string }{
	{"OpenAI", "openai.com"},
	{"Anthropic", "anthropic.com"},
	{"NVIDIA", "nvidia.com"},
	{"Google", "google.com"},
	{"Meta", "meta.com"},
	{"Stripe", "stripe.com"},
	{"Microsoft", "microsoft.com"},
	{"Apple", "apple.com"},
	{"Netflix", "netflix.com"},
	{"Tesla", "tesla.com"},
}

// DefaultWatchlist returns the built-in organizations with ids "1".."10".
func DefaultWatchlist() []WatchEntry {
	out := make([]WatchEntry, 0, len(defaultOrganizations))
	for i, org := range defaultOrganizations {
		out = append(out, WatchEntry{
			ID:     strconv.Itoa(i + 1),
			Name:   org.name,
			Domain: org.domain,
			Status: StatusIdle,
		})
	}
	return out
}

type seedFile struct {
	Organizations []struct {
		Name   string `yaml:"name"`
		Domain string `yaml:"domain"`
	} `yaml:"organizations"`
}

// LoadSeedFile reads a YAML watchlist:
//
//	organizations:
//	  - name: OpenAI
//	    domain: openai.com
func LoadSeedFile(path string) ([]WatchEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return ParseSeed(data)
}

func ParseSeed(data []byte) ([]WatchEntry, error) {
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	var w Watchlist
	for i, org := range seed.Organizations {
		if _, err := w.Add(strconv.Itoa(i+1), org.Name, org.Domain); err != nil {
			return nil, fmt.Errorf("seed entry %d: %w", i+1, err)
		}
	}
	if w.Len() == 0 {
		return nil, newError(ErrValidation, "seed file lists no organizations")
	}
	return w.Entries(), nil
}

// Watchlist is the ordered list of monitored organizations.
// Not safe for concurrent use; Sentinel serializes access.
type Watchlist struct {
	entries []WatchEntry
}

func NewWatchlist(entries []WatchEntry) *Watchlist {
	w := &Watchlist{}
	w.Replace(entries)
	return w
}

func (w *Watchlist) Len() int {
	return len(w.entries)
}

// Entries returns a copy in iteration order.
func (w *Watchlist) Entries() []WatchEntry {
	out := make([]WatchEntry, len(w.entries))
	for i, e := range w.entries {
		out[i] = e.clone()
	}
	return out
}

func (w *Watchlist) Replace(entries []WatchEntry) {
	w.entries = make([]WatchEntry, 0, len(entries))
	for _, e := range entries {
		e = e.clone()
		if e.Status == "" {
			e.Status = StatusIdle
		}
		w.entries = append(w.entries, e)
	}
}

// Add appends an organization. The domain is reduced to its registrable form
// and must not already be watched. An empty id gets a fresh uuid.
func (w *Watchlist) Add(id, name, domain string) (WatchEntry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return WatchEntry{}, newError(ErrValidation, "organization name is required")
	}
	registrable, err := urlutil.RegistrableDomain(domain)
	if err != nil {
		return WatchEntry{}, newError(ErrValidation, fmt.Sprintf("invalid domain %q", domain))
	}
	for _, e := range w.entries {
		if e.Domain == registrable {
			return WatchEntry{}, newError(ErrValidation, fmt.Sprintf("%s is already on the watchlist", registrable))
		}
	}
	if id == "" {
		id = uuid.NewString()
	}

	entry := WatchEntry{ID: id, Name: name, Domain: registrable, Status: StatusIdle}
	w.entries = append(w.entries, entry)
	return entry, nil
}

func (w *Watchlist) Remove(id string) error {
	for i, e := range w.entries {
		if e.ID == id {
			w.entries = append(w.entries[:i], w.entries[i+1:]...)
			return nil
		}
	}
	return newError(ErrNotFound, fmt.Sprintf("watch entry %s", id))
}

func (w *Watchlist) Find(id string) (WatchEntry, bool) {
	for _, e := range w.entries {
		if e.ID == id {
			return e.clone(), true
		}
	}
	return WatchEntry{}, false
}

// SetStatus updates the scan status; a missing id is ignored because the entry
// may have been removed mid-cycle.
func (w *Watchlist) SetStatus(id string, status ScanStatus) bool {
	for i := range w.entries {
		if w.entries[i].ID == id {
			w.entries[i].Status = status
			return true
		}
	}
	return false
}

func (w *Watchlist) MarkChecked(id string, at time.Time) bool {
	for i := range w.entries {
		if w.entries[i].ID == id {
			w.entries[i].LastChecked = &at
			return true
		}
	}
	return false
}

// resetStatuses marks every entry idle. Nothing is scanning after a restart.
func (w *Watchlist) resetStatuses() {
	for i := range w.entries {
		w.entries[i].Status = StatusIdle
	}
}

func (e WatchEntry) clone() WatchEntry {
	if e.LastChecked != nil {
		t := *e.LastChecked
		e.LastChecked = &t
	}
	return e
}
