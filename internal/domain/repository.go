package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// PantryRepository persists pantry entries.
// Mutate must read, recompute and persist an entry as one atomic operation so
// that concurrent mutations on the same entry never lose an increment.
type PantryRepository interface {
	// Get returns the primary entry (empty unit key) for owner+itemName
	Get(ctx context.Context, ownerID, itemName string) (*PantryEntry, error)
	GetByID(ctx context.Context, ownerID, id string) (*PantryEntry, error)
	// Insert fails with ErrDuplicateEntry when (owner, itemName, unitKey) is taken
	Insert(ctx context.Context, entry PantryEntry) (*PantryEntry, error)
	Mutate(ctx context.Context, ownerID, id string, m Mutation) (*PantryEntry, error)
	UpdateNote(ctx context.Context, ownerID, id, note string) (*PantryEntry, error)
	Delete(ctx context.Context, ownerID, id string) error
	ListForOwner(ctx context.Context, ownerID string) ([]PantryEntry, error)
	// Version increases on every write to the owner's pantry
	Version(ctx context.Context, ownerID string) (int64, error)
}

// RecipeCatalog supplies recipes owned by another service
type RecipeCatalog interface {
	GetRecipe(ctx context.Context, recipeID string) (*Recipe, error)
}
