package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pantrymatch/backend/internal/domain"
)

// fakePantryRepo is a mutex-guarded domain.PantryRepository for service tests
type fakePantryRepo struct {
	mu       sync.Mutex
	entries  map[string]domain.PantryEntry // by id
	versions map[string]int64

	// insertHook runs before an insert is checked for duplicates
	insertHook func(r *fakePantryRepo, entry domain.PantryEntry)
	listErr    error
}

func newFakePantryRepo() *fakePantryRepo {
	return &fakePantryRepo{
		entries:  make(map[string]domain.PantryEntry),
		versions: make(map[string]int64),
	}
}

// put stores an entry directly, bypassing duplicate checks. Caller holds no lock.
func (r *fakePantryRepo) put(entry domain.PantryEntry) {
	r.entries[entry.ID] = entry
	r.versions[entry.OwnerID]++
}

func (r *fakePantryRepo) Get(ctx context.Context, ownerID, itemName string) (*domain.PantryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.OwnerID == ownerID && e.ItemName == itemName && e.UnitKey == "" {
			out := e
			return &out, nil
		}
	}
	return nil, domain.ErrEntryNotFound
}

func (r *fakePantryRepo) GetByID(ctx context.Context, ownerID, id string) (*domain.PantryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.OwnerID != ownerID {
		return nil, domain.ErrEntryNotFound
	}
	return &e, nil
}

func (r *fakePantryRepo) Insert(ctx context.Context, entry domain.PantryEntry) (*domain.PantryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertHook != nil {
		hook := r.insertHook
		r.insertHook = nil
		hook(r, entry)
	}
	for _, e := range r.entries {
		if e.OwnerID == entry.OwnerID && e.ItemName == entry.ItemName && e.UnitKey == entry.UnitKey {
			return nil, domain.ErrDuplicateEntry
		}
	}
	r.put(entry)
	return &entry, nil
}

func (r *fakePantryRepo) Mutate(ctx context.Context, ownerID, id string, m domain.Mutation) (*domain.PantryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.OwnerID != ownerID {
		return nil, domain.ErrEntryNotFound
	}
	next, err := domain.ApplyMutation(e, m, time.Now())
	if err != nil {
		return nil, err
	}
	r.put(next)
	return &next, nil
}

func (r *fakePantryRepo) UpdateNote(ctx context.Context, ownerID, id, note string) (*domain.PantryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.OwnerID != ownerID {
		return nil, domain.ErrEntryNotFound
	}
	e.Note = note
	r.put(e)
	return &e, nil
}

func (r *fakePantryRepo) Delete(ctx context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || e.OwnerID != ownerID {
		return domain.ErrEntryNotFound
	}
	delete(r.entries, id)
	r.versions[ownerID]++
	return nil
}

func (r *fakePantryRepo) ListForOwner(ctx context.Context, ownerID string) ([]domain.PantryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]domain.PantryEntry, 0)
	for _, e := range r.entries {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemName < out[j].ItemName })
	return out, nil
}

func (r *fakePantryRepo) Version(ctx context.Context, ownerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.versions[ownerID], nil
}

// fakeCache is a domain.CacheRepository backed by a map
type fakeCache struct {
	data     map[string][]byte
	setError error
	gets     int
	sets     int
	deletes  int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.gets++
	v, ok := c.data[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return v, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.sets++
	if c.setError != nil {
		return c.setError
	}
	c.data[key] = value
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.deletes++
	delete(c.data, key)
	return nil
}

// fakeCatalog serves recipes from a map
type fakeCatalog struct {
	recipes map[string]domain.Recipe
	err     error
	calls   int
}

func (c *fakeCatalog) GetRecipe(ctx context.Context, recipeID string) (*domain.Recipe, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	r, ok := c.recipes[recipeID]
	if !ok {
		return nil, domain.ErrRecipeNotFound
	}
	return &r, nil
}

// countingRecorder counts recorded outcomes
type countingRecorder struct {
	mu       sync.Mutex
	outcomes map[domain.AddOutcome]int
	served   map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		outcomes: make(map[domain.AddOutcome]int),
		served:   make(map[string]int),
	}
}

func (r *countingRecorder) MergeOutcome(outcome domain.AddOutcome, _ domain.Resolution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[outcome]++
}

func (r *countingRecorder) MatchServed(source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.served[source]++
}

func pantryEntry(id, owner, name string, qty float64, unit string) domain.PantryEntry {
	return domain.NewPantryEntry(id, owner, name, name, unit, "", qty, time.Now())
}
