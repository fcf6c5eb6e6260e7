package tokens

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"personagen/internal/types"
)

// DefaultDebounceDelay is the quiet period before an edited token map is
// written to the backing store.
const DefaultDebounceDelay = 1500 * time.Millisecond

// defaultWriteTimeout bounds a single persistence write.
const defaultWriteTimeout = 10 * time.Second

// DefaultTokens returns the fixed default token set a fresh profile starts
// with. Reset restores exactly this map.
func DefaultTokens() map[string]string {
	return map[string]string{
		"FIRSTNAME": "",
		"LASTNAME":  "",
		"COMPANY":   "",
		"JOBTITLE":  "",
		"CITY":      "",
	}
}

// StoreConfig configures a personalization Store.
type StoreConfig struct {
	OwnerID       string
	Category      string // persisted alongside each row, default "profile"
	DebounceDelay time.Duration
	Persister     Persister // nil disables persistence entirely
	Logger        *zap.Logger
}

// Store owns the live token map for one owner. All mutation goes through the
// store; readers only ever get snapshots. Edits are merged in call order and
// persisted on a debounce: each update restarts the timer, and only the final
// merged snapshot is written (last write wins, intermediate states dropped).
//
// Persistence is best-effort. A failed write is logged and the in-memory map
// stays authoritative; nothing is rolled back.
type Store struct {
	mu        sync.Mutex
	ownerID   string
	category  string
	tokens    map[string]string
	persister Persister
	deb       *debouncer
	logger    *zap.Logger
	closed    bool
}

// NewStore creates a Store seeded with the default token set.
func NewStore(cfg StoreConfig) *Store {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = DefaultDebounceDelay
	}
	if cfg.Category == "" {
		cfg.Category = "profile"
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Store{
		ownerID:   cfg.OwnerID,
		category:  cfg.Category,
		tokens:    DefaultTokens(),
		persister: cfg.Persister,
		deb:       newDebouncer(cfg.DebounceDelay),
		logger:    cfg.Logger,
	}
}

// Hydrate merges any persisted tokens for the owner over the defaults.
// Intended to run once at startup, before edits.
func (s *Store) Hydrate(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	persisted, err := s.persister.Load(ctx, s.ownerID)
	if err != nil {
		return &types.PersistenceError{Op: "load", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range persisted {
		s.tokens[key] = value
	}
	return nil
}

// UpdateToken merges a single key into the map and schedules a debounced
// persistence write.
func (s *Store) UpdateToken(key, value string) {
	s.UpdateTokens(map[string]string{key: value})
}

// UpdateTokens merges the partial map into the current map: new keys are
// added, existing keys overwritten. A snapshot taken immediately afterward
// observes the merge, regardless of persistence timing.
func (s *Store) UpdateTokens(partial map[string]string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	for key, value := range partial {
		s.tokens[key] = value
	}
	s.mu.Unlock()

	s.schedulePersist()
}

// ResetTokens replaces the entire map with the default set and schedules
// persistence of the defaults like any other update.
func (s *Store) ResetTokens() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.tokens = DefaultTokens()
	s.mu.Unlock()

	s.schedulePersist()
}

// Snapshot returns a read-only copy of the current token map.
func (s *Store) Snapshot() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(map[string]string, len(s.tokens))
	for key, value := range s.tokens {
		snapshot[key] = value
	}
	return snapshot
}

// ResolvePrompt resolves content against the current token map.
func (s *Store) ResolvePrompt(content string) ResolutionResult {
	return Resolve(content, s.Snapshot())
}

// Flush cancels any pending debounced write and persists the current map
// immediately. Used by short-lived callers that cannot wait out the delay.
func (s *Store) Flush(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	s.deb.cancel()
	if err := s.persister.Upsert(ctx, s.rows()); err != nil {
		return &types.PersistenceError{Op: "upsert", Err: err}
	}
	return nil
}

// Close cancels any pending write so nothing lands in the backing store
// after teardown. The store rejects updates afterward.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.deb.cancel()
}

// schedulePersist (re)starts the debounce timer. The snapshot is taken when
// the timer fires, so the write always carries the latest merged state.
func (s *Store) schedulePersist() {
	if s.persister == nil {
		return
	}
	s.deb.trigger(func() {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), defaultWriteTimeout)
		defer cancel()

		if err := s.persister.Upsert(ctx, s.rows()); err != nil {
			// Best-effort: the in-memory map remains the source of truth.
			s.logger.Warn("token persistence failed",
				zap.String("owner", s.ownerID),
				zap.Error(&types.PersistenceError{Op: "upsert", Err: err}))
			return
		}
		s.logger.Debug("token snapshot persisted",
			zap.String("owner", s.ownerID),
			zap.Int("tokens", len(s.Snapshot())))
	})
}

// rows converts the current map into persistence rows, sorted by key so
// writes are deterministic.
func (s *Store) rows() []Row {
	snapshot := s.Snapshot()

	keys := make([]string, 0, len(snapshot))
	for key := range snapshot {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([]Row, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, Row{
			OwnerID:  s.ownerID,
			Key:      key,
			Value:    snapshot[key],
			Category: s.category,
		})
	}
	return rows
}
