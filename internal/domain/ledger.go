package domain

import (
	"fmt"
	"math"
	"time"
)

// NewPantryEntry builds a freshly created entry. The ledger starts from zero,
// so the whole initial quantity counts as added.
func NewPantryEntry(id, ownerID, itemName, displayName, unit, unitKey string, quantity float64, now time.Time) PantryEntry {
	return PantryEntry{
		ID:               id,
		OwnerID:          ownerID,
		ItemName:         itemName,
		DisplayName:      displayName,
		Unit:             unit,
		UnitKey:          unitKey,
		Quantity:         quantity,
		QuantityAdded:    quantity,
		PreviousQuantity: 0,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Validate checks the mutation independently of any entry
func (m Mutation) Validate() error {
	if math.IsNaN(m.Amount) || math.IsInf(m.Amount, 0) {
		return fmt.Errorf("%w: amount must be finite", ErrInvalidMutation)
	}
	switch m.Mode {
	case MutationAdd:
		return nil
	case MutationSet:
		if m.Amount < 0 {
			return fmt.Errorf("%w: set to %.3f", ErrInvalidMutation, m.Amount)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidMutation, m.Mode)
	}
}

// ApplyMutation computes the entry that results from m.
// Quantity and both ledger fields are derived from the same prior quantity, so
// Quantity == PreviousQuantity + QuantityAdded always holds on the result.
// Repositories must call this (or an equivalent single statement) inside the
// same critical section that persists the result.
func ApplyMutation(entry PantryEntry, m Mutation, now time.Time) (PantryEntry, error) {
	if err := m.Validate(); err != nil {
		return entry, err
	}
	prior := entry.Quantity

	next := m.Amount
	if m.Mode == MutationAdd {
		next = prior + m.Amount
		if next < 0 {
			return entry, fmt.Errorf("%w: %.3f%+.3f", ErrInsufficientQuantity, prior, m.Amount)
		}
	}

	out := entry
	out.PreviousQuantity = prior
	out.Quantity = next
	out.QuantityAdded = next - prior
	if m.Mode == MutationSet && m.Unit != "" {
		out.Unit = m.Unit
	}
	out.UpdatedAt = now
	return out, nil
}

// LedgerConsistent reports whether the entry satisfies the ledger invariant
func LedgerConsistent(e PantryEntry) bool {
	const epsilon = 1e-9
	diff := e.Quantity - (e.PreviousQuantity + e.QuantityAdded)
	return diff < epsilon && diff > -epsilon
}
