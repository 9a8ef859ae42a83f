package domain

import "errors"

var (
	// ErrInvalidOwner is returned when a pantry operation has no owner
	ErrInvalidOwner = errors.New("owner is required")

	// ErrInvalidQuantity is returned when a new pantry entry has a zero or negative quantity
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")

	// ErrInvalidName is returned when an ingredient name is empty after normalization
	ErrInvalidName = errors.New("ingredient name is required")

	// ErrInvalidUnit is returned when a unit is empty
	ErrInvalidUnit = errors.New("unit is required")

	// ErrEntryNotFound is returned when a pantry entry does not exist for the owner
	ErrEntryNotFound = errors.New("pantry entry not found")

	// ErrDuplicateEntry is returned when an insert collides with an existing dedup key
	ErrDuplicateEntry = errors.New("pantry entry already exists")

	// ErrInsufficientQuantity is returned when a mutation would drive a quantity below zero
	ErrInsufficientQuantity = errors.New("mutation would make quantity negative")

	// ErrInvalidMutation is returned for an unknown mutation mode, a non-finite amount or a negative absolute value
	ErrInvalidMutation = errors.New("invalid quantity mutation")

	// ErrInvalidDecision is returned when a merge decision is unknown or not offered
	ErrInvalidDecision = errors.New("invalid merge decision")

	// ErrRecipeNotFound is returned when the recipe collaborator has no such recipe
	ErrRecipeNotFound = errors.New("recipe not found")

	// ErrRecipeAPIFailure is returned when the recipe collaborator request fails
	ErrRecipeAPIFailure = errors.New("recipe API request failed")

	// ErrInvalidTaxonomy is returned when a taxonomy table violates its invariants
	ErrInvalidTaxonomy = errors.New("invalid taxonomy")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")
)
