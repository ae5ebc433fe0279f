package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/baxromumarov/job-sentinel/internal/ai"
	"github.com/baxromumarov/job-sentinel/internal/observability"
	"github.com/baxromumarov/job-sentinel/internal/store"
)

const DefaultStorageKey = "zenith_sentinel_v10_prod"

// Snapshot is the durable form of everything that survives a restart.
type Snapshot struct {
	SourceText string       `json:"resumeText"`
	Profile    *ai.Profile  `json:"profile"`
	Watchlist  []WatchEntry `json:"companies"`
	Alerts     []Alert      `json:"alerts"`
	Counters   Counters     `json:"stats"`
}

// Persister stores the snapshot under a single key, overwriting it wholesale.
type Persister struct {
	kv  store.KV
	key string
}

func NewPersister(kv store.KV, key string) *Persister {
	if key == "" {
		key = DefaultStorageKey
	}
	return &Persister{kv: kv, key: key}
}

func (p *Persister) Save(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("%w: encode snapshot: %v", ErrPersistence, err)
	}
	if err := p.kv.Put(ctx, p.key, data); err != nil {
		return fmt.Errorf("%w: save snapshot: %v", ErrPersistence, err)
	}
	observability.IncSnapshotSaved()
	return nil
}

// Restore returns the stored snapshot. A missing, unreadable or corrupt
// snapshot reports false and the caller keeps its defaults.
func (p *Persister) Restore(ctx context.Context) (Snapshot, bool) {
	data, err := p.kv.Get(ctx, p.key)
	if errors.Is(err, store.ErrNotFound) {
		return Snapshot{}, false
	}
	if err != nil {
		slog.Warn("snapshot restore failed", "key", p.key, "error", err)
		observability.IncError(observability.ErrorStore, "persistence")
		return Snapshot{}, false
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		slog.Warn("snapshot is corrupt, starting from defaults", "key", p.key, "error", err)
		observability.IncError(observability.ErrorParsing, "persistence")
		return Snapshot{}, false
	}
	return snap, true
}

func (p *Persister) Clear(ctx context.Context) error {
	if err := p.kv.Delete(ctx, p.key); err != nil {
		return fmt.Errorf("%w: clear snapshot: %v", ErrPersistence, err)
	}
	return nil
}
