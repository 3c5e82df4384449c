package pricehistory

import (
	"context"
	"sort"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Store persists price states. The Tracker is its only writer.
type Store interface {
	Get(ctx context.Context, key Key) (State, bool, error)
	Put(ctx context.Context, st State) error
	List(ctx context.Context) ([]State, error)
}

// Tracker serializes read-modify-write cycles against a Store so two
// documents observing the same product cannot lose an update.
type Tracker struct {
	mu     sync.Mutex
	store  Store
	logger *zap.Logger
}

func NewTracker(store Store, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{store: store, logger: logger}
}

// Observe records obs and persists the resulting state.
func (t *Tracker) Observe(ctx context.Context, obs Observation) (Update, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	table := Table{}
	st, ok, err := t.store.Get(ctx, obs.Key)
	if err != nil {
		return Update{}, eris.Wrapf(err, "load price state for %q", obs.Product)
	}
	if ok {
		table[obs.Key] = st
	}

	_, upd := RecordObservation(table, obs)
	if err := t.store.Put(ctx, upd.State); err != nil {
		return Update{}, eris.Wrapf(err, "save price state for %q", obs.Product)
	}

	t.logger.Info("pricehistory.observe",
		zap.String("product", obs.Product),
		zap.String("supplier", obs.Supplier),
		zap.String("unit_type", obs.UnitType),
		zap.String("price", obs.Price),
		zap.String("classification", string(upd.Classification)),
		zap.Float64("delta_pct", upd.DeltaPercent),
		zap.Int("observations", upd.State.ObservationCount),
	)
	return upd, nil
}

// Snapshot returns every state currently in the store.
func (t *Tracker) Snapshot(ctx context.Context) (Table, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	states, err := t.store.List(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "list price states")
	}
	table := make(Table, len(states))
	for _, st := range states {
		table[st.Key] = st
	}
	return table, nil
}

// Sorted returns the table's states ordered by supplier, product and unit.
func (tb Table) Sorted() []State {
	out := make([]State, 0, len(tb))
	for _, st := range tb {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Key, out[j].Key
		if a.Supplier != b.Supplier {
			return a.Supplier < b.Supplier
		}
		if a.Product != b.Product {
			return a.Product < b.Product
		}
		return a.UnitType < b.UnitType
	})
	return out
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu     sync.RWMutex
	states Table
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: Table{}}
}

func (m *MemoryStore) Get(_ context.Context, key Key) (State, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[key]
	return st, ok, nil
}

func (m *MemoryStore) Put(_ context.Context, st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[st.Key] = st
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.states.Sorted(), nil
}
