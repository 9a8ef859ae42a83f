// Package memstore keeps pantries in process memory. It backs tests and
// database.driver=memory deployments; data does not survive a restart.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pantrymatch/backend/internal/domain"
)

type dedupKey struct {
	owner, item, unit string
}

// PantryStore is a mutex-guarded domain.PantryRepository
type PantryStore struct {
	mu       sync.RWMutex
	byID     map[string]*domain.PantryEntry
	byKey    map[dedupKey]string
	versions map[string]int64
	now      func() time.Time
}

// NewPantryStore creates an empty store
func NewPantryStore() *PantryStore {
	return &PantryStore{
		byID:     make(map[string]*domain.PantryEntry),
		byKey:    make(map[dedupKey]string),
		versions: make(map[string]int64),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func keyOf(e *domain.PantryEntry) dedupKey {
	return dedupKey{owner: e.OwnerID, item: e.ItemName, unit: e.UnitKey}
}

// Get returns the owner's primary entry for itemName
func (s *PantryStore) Get(ctx context.Context, ownerID, itemName string) (*domain.PantryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byKey[dedupKey{owner: ownerID, item: itemName}]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	out := *s.byID[id]
	return &out, nil
}

// GetByID returns an entry if ownerID owns it
func (s *PantryStore) GetByID(ctx context.Context, ownerID, id string) (*domain.PantryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, err := s.owned(ownerID, id)
	if err != nil {
		return nil, err
	}
	out := *e
	return &out, nil
}

// Insert stores a new entry unless its dedup key is taken
func (s *PantryStore) Insert(ctx context.Context, entry domain.PantryEntry) (*domain.PantryEntry, error) {
	if entry.Quantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byKey[keyOf(&entry)]; taken {
		return nil, domain.ErrDuplicateEntry
	}
	if _, taken := s.byID[entry.ID]; taken {
		return nil, domain.ErrDuplicateEntry
	}

	stored := entry
	s.byID[stored.ID] = &stored
	s.byKey[keyOf(&stored)] = stored.ID
	s.versions[stored.OwnerID]++

	out := stored
	return &out, nil
}

// Mutate applies m to the entry inside the write lock
func (s *PantryStore) Mutate(ctx context.Context, ownerID, id string, m domain.Mutation) (*domain.PantryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.owned(ownerID, id)
	if err != nil {
		return nil, err
	}
	next, err := domain.ApplyMutation(*e, m, s.now())
	if err != nil {
		return nil, err
	}
	*e = next
	s.versions[ownerID]++

	out := next
	return &out, nil
}

// UpdateNote replaces the entry's note
func (s *PantryStore) UpdateNote(ctx context.Context, ownerID, id, note string) (*domain.PantryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.owned(ownerID, id)
	if err != nil {
		return nil, err
	}
	e.Note = note
	e.UpdatedAt = s.now()
	s.versions[ownerID]++

	out := *e
	return &out, nil
}

// Delete removes an entry
func (s *PantryStore) Delete(ctx context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.owned(ownerID, id)
	if err != nil {
		return err
	}
	delete(s.byKey, keyOf(e))
	delete(s.byID, id)
	s.versions[ownerID]++
	return nil
}

// ListForOwner returns a snapshot of the owner's entries ordered by name then unit key
func (s *PantryStore) ListForOwner(ctx context.Context, ownerID string) ([]domain.PantryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.PantryEntry, 0)
	for _, e := range s.byID {
		if e.OwnerID == ownerID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ItemName != out[j].ItemName {
			return out[i].ItemName < out[j].ItemName
		}
		return out[i].UnitKey < out[j].UnitKey
	})
	return out, nil
}

// Version returns the owner's write counter
func (s *PantryStore) Version(ctx context.Context, ownerID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.versions[ownerID], nil
}

// owned must be called with the lock held
func (s *PantryStore) owned(ownerID, id string) (*domain.PantryEntry, error) {
	e, ok := s.byID[id]
	if !ok || e.OwnerID != ownerID {
		return nil, domain.ErrEntryNotFound
	}
	return e, nil
}
