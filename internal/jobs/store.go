package jobs

import (
	"fmt"
	"sync"
	"time"

	"github.com/soapscribe/soapscribe/internal/models"
)

// Store holds recordings keyed by id. Implementations must be safe for
// concurrent use and must never hand out memory they keep.
type Store interface {
	// Put inserts a new record.
	Put(rec *models.Recording) error
	// Get returns a copy of the record.
	Get(id string) (*models.Recording, error)
	// Update applies fn to a copy of the record and stores the result if
	// fn succeeds. UpdatedAt is refreshed. The stored copy is returned.
	Update(id string, fn func(rec *models.Recording) error) (*models.Recording, error)
	// Sweep removes records the eviction policy no longer wants, returning
	// how many were removed.
	Sweep(now time.Time) int
}

// EvictionPolicy decides whether a stored record may be dropped.
type EvictionPolicy interface {
	Evict(rec *models.Recording, now time.Time) bool
}

// KeepForever never evicts. Records live for the life of the process.
type KeepForever struct{}

func (KeepForever) Evict(*models.Recording, time.Time) bool { return false }

// EvictTerminalAfter evicts completed and failed records that have not
// changed for at least d. Records that are still running are never evicted.
func EvictTerminalAfter(d time.Duration) EvictionPolicy {
	return terminalAfter{retention: d}
}

type terminalAfter struct {
	retention time.Duration
}

func (p terminalAfter) Evict(rec *models.Recording, now time.Time) bool {
	return rec.Status.IsTerminal() && now.Sub(rec.UpdatedAt) >= p.retention
}

// MemoryStore is the process-wide in-memory Store.
type MemoryStore struct {
	policy EvictionPolicy
	now    func() time.Time

	mu      sync.RWMutex
	records map[string]*models.Recording
}

// NewMemoryStore creates an empty store. A nil policy keeps records forever.
func NewMemoryStore(policy EvictionPolicy) *MemoryStore {
	if policy == nil {
		policy = KeepForever{}
	}
	return &MemoryStore{
		policy:  policy,
		now:     time.Now,
		records: make(map[string]*models.Recording),
	}
}

// Put implements [Store].
func (s *MemoryStore) Put(rec *models.Recording) error {
	if !rec.Status.Valid() {
		return fmt.Errorf("recording %s: invalid status %q", rec.ID, rec.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
	}
	s.records[rec.ID] = rec.Clone()
	return nil
}

// Get implements [Store].
func (s *MemoryStore) Get(id string) (*models.Recording, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

// Update implements [Store].
func (s *MemoryStore) Update(id string, fn func(rec *models.Recording) error) (*models.Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}

	next := rec.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.ID = rec.ID
	next.UpdatedAt = s.now()
	s.records[id] = next
	return next.Clone(), nil
}

// Sweep implements [Store].
func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, rec := range s.records {
		if s.policy.Evict(rec, now) {
			delete(s.records, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

var _ Store = (*MemoryStore)(nil)
