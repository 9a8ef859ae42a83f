package domain

import (
	"fmt"
	"time"
)

// PantryEntry is one ingredient held by one owner.
// ItemName is the normalized dedup key; UnitKey is empty for the primary entry
// and holds the normalized unit for entries the owner chose to keep separate.
type PantryEntry struct {
	ID               string    `json:"id"`
	OwnerID          string    `json:"ownerId"`
	ItemName         string    `json:"itemName"`
	DisplayName      string    `json:"displayName"`
	Unit             string    `json:"unit"`
	UnitKey          string    `json:"unitKey,omitempty"`
	Quantity         float64   `json:"quantity"`
	QuantityAdded    float64   `json:"quantityAdded"`
	PreviousQuantity float64   `json:"previousQuantity"`
	Note             string    `json:"note,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// MutationMode selects how a mutation's amount is applied
type MutationMode string

const (
	// MutationAdd adds a signed delta to the current quantity
	MutationAdd MutationMode = "add"
	// MutationSet replaces the current quantity with an absolute value
	MutationSet MutationMode = "set"
)

// ParseMutationMode parses "add" or "set"
func ParseMutationMode(s string) (MutationMode, error) {
	switch MutationMode(s) {
	case MutationAdd, MutationSet:
		return MutationMode(s), nil
	}
	return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidMutation, s)
}

// Mutation is a single quantity change applied atomically by a PantryRepository.
// Unit, when set on a MutationSet, replaces the entry's unit in the same write.
type Mutation struct {
	Mode   MutationMode
	Amount float64
	Unit   string
}

// MergeDecision is the user's answer when a new item collides with a compatible entry
type MergeDecision string

const (
	SumQuantities MergeDecision = "sum_quantities"
	ReplaceEntry  MergeDecision = "replace_entry"
	KeepSeparate  MergeDecision = "keep_separate"
)

// ParseMergeDecision parses a decision name
func ParseMergeDecision(s string) (MergeDecision, error) {
	switch MergeDecision(s) {
	case SumQuantities, ReplaceEntry, KeepSeparate:
		return MergeDecision(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDecision, s)
}

// AddOutcome is the result class of adding an item to a pantry
type AddOutcome string

const (
	OutcomeInserted          AddOutcome = "inserted"
	OutcomeMerged            AddOutcome = "merged"
	OutcomeNeedsUserDecision AddOutcome = "needs_user_decision"
	OutcomeRejected          AddOutcome = "rejected"
)

// Resolution records how a merge was carried out
type Resolution string

const (
	ResolutionNone                      Resolution = ""
	ResolutionSumQuantities             Resolution = "sum_quantities"
	ResolutionReplaceEntry              Resolution = "replace_entry"
	ResolutionKeepSeparate              Resolution = "keep_separate"
	ResolutionConflictingUnitsOverwrite Resolution = "conflicting_units_overwrite"
)
