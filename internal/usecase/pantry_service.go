package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pantrymatch/backend/internal/domain"
)

// OutcomeRecorder receives counters for merge outcomes and served matches
type OutcomeRecorder interface {
	MergeOutcome(outcome domain.AddOutcome, resolution domain.Resolution)
	MatchServed(source string)
}

type noopRecorder struct{}

func (noopRecorder) MergeOutcome(domain.AddOutcome, domain.Resolution) {}
func (noopRecorder) MatchServed(string)                                {}

// AddItemRequest is the intent to put an ingredient into an owner's pantry
type AddItemRequest struct {
	OwnerID  string  `json:"-"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Note     string  `json:"note,omitempty"`
}

// AddItemResult describes what AddOrMergeItem or ResolveDecision did.
// Existing, ProposedUnits and Options are set only for OutcomeNeedsUserDecision.
type AddItemResult struct {
	Outcome       domain.AddOutcome      `json:"outcome"`
	Resolution    domain.Resolution      `json:"resolution,omitempty"`
	Entry         *domain.PantryEntry    `json:"entry,omitempty"`
	Existing      *domain.PantryEntry    `json:"existing,omitempty"`
	ProposedUnits []string               `json:"proposedUnits,omitempty"`
	Options       []domain.MergeDecision `json:"options,omitempty"`
	Suggestion    *domain.Suggestion     `json:"suggestion,omitempty"`
}

// PantryServiceConfig holds configuration for the pantry service
type PantryServiceConfig struct {
	// PromptOnIncompatibleUnits asks the user instead of silently overwriting
	// an entry whose unit category differs from the incoming one
	PromptOnIncompatibleUnits bool
	Logger                    *zap.Logger
	Recorder                  OutcomeRecorder
	Clock                     func() time.Time
	NewID                     func() string
}

// PantryService resolves new pantry items against existing entries and
// applies every quantity change through the repository's atomic Mutate.
type PantryService struct {
	repo                      domain.PantryRepository
	advisor                   *UnitAdvisor
	promptOnIncompatibleUnits bool
	logger                    *zap.Logger
	recorder                  OutcomeRecorder
	clock                     func() time.Time
	newID                     func() string
}

// maxResolveAttempts bounds re-resolution after losing an insert or delete race
const maxResolveAttempts = 2

// NewPantryService creates a new pantry service with dependencies
func NewPantryService(repo domain.PantryRepository, advisor *UnitAdvisor, config PantryServiceConfig) *PantryService {
	s := &PantryService{
		repo:                      repo,
		advisor:                   advisor,
		promptOnIncompatibleUnits: config.PromptOnIncompatibleUnits,
		logger:                    config.Logger,
		recorder:                  config.Recorder,
		clock:                     config.Clock,
		newID:                     config.NewID,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.recorder == nil {
		s.recorder = noopRecorder{}
	}
	if s.clock == nil {
		s.clock = func() time.Time { return time.Now().UTC() }
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.New().String() }
	}
	return s
}

// AddOrMergeItem inserts a new entry, or resolves the intent against the
// owner's existing entry for the same ingredient.
// Flow: validate -> lookup -> insert | ask user (compatible units) | overwrite (incompatible units)
func (s *PantryService) AddOrMergeItem(ctx context.Context, req AddItemRequest) (*AddItemResult, error) {
	itemName, err := validateAddRequest(req)
	if err != nil {
		s.recorder.MergeOutcome(domain.OutcomeRejected, domain.ResolutionNone)
		return nil, err
	}

	var suggestion *domain.Suggestion
	if s.advisor != nil {
		suggestion = s.advisor.Suggest(req.Name, req.Unit)
	}

	for attempt := 0; attempt < maxResolveAttempts; attempt++ {
		existing, err := s.repo.Get(ctx, req.OwnerID, itemName)
		if errors.Is(err, domain.ErrEntryNotFound) {
			entry, err := s.insert(ctx, req, itemName, "")
			if errors.Is(err, domain.ErrDuplicateEntry) {
				// Another request created the entry first; resolve against it
				continue
			}
			if err != nil {
				return nil, err
			}
			return s.finish(&AddItemResult{
				Outcome:    domain.OutcomeInserted,
				Entry:      entry,
				Suggestion: suggestion,
			}), nil
		}
		if err != nil {
			return nil, fmt.Errorf("lookup pantry entry: %w", err)
		}

		compatible := UnitsCompatible(req.Unit, existing.Unit)
		if compatible || s.promptOnIncompatibleUnits {
			return s.finish(&AddItemResult{
				Outcome:       domain.OutcomeNeedsUserDecision,
				Existing:      existing,
				ProposedUnits: []string{existing.Unit, req.Unit},
				Options:       decisionOptions(compatible),
				Suggestion:    suggestion,
			}), nil
		}

		// Incompatible categories: the incoming item replaces the old one
		// under the same dedup key without asking.
		entry, err := s.repo.Mutate(ctx, req.OwnerID, existing.ID, domain.Mutation{
			Mode:   domain.MutationSet,
			Amount: req.Quantity,
			Unit:   req.Unit,
		})
		if errors.Is(err, domain.ErrEntryNotFound) {
			// Deleted underneath us; retry as a fresh insert
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("overwrite pantry entry: %w", err)
		}
		s.logger.Warn("pantry entry overwritten by incompatible unit",
			zap.String("owner_id", req.OwnerID),
			zap.String("item", itemName),
			zap.String("old_unit", existing.Unit),
			zap.String("new_unit", req.Unit),
			zap.Float64("old_quantity", existing.Quantity),
		)
		return s.finish(&AddItemResult{
			Outcome:    domain.OutcomeMerged,
			Resolution: domain.ResolutionConflictingUnitsOverwrite,
			Entry:      entry,
			Suggestion: suggestion,
		}), nil
	}

	return nil, fmt.Errorf("%w: pantry changed concurrently, retry", domain.ErrDuplicateEntry)
}

// ResolveDecision applies the user's answer to a needs_user_decision outcome.
// Returns ErrEntryNotFound if the existing entry vanished; the caller should
// retry with AddOrMergeItem.
func (s *PantryService) ResolveDecision(ctx context.Context, req AddItemRequest, decision domain.MergeDecision) (*AddItemResult, error) {
	itemName, err := validateAddRequest(req)
	if err != nil {
		s.recorder.MergeOutcome(domain.OutcomeRejected, domain.ResolutionNone)
		return nil, err
	}

	existing, err := s.repo.Get(ctx, req.OwnerID, itemName)
	if err != nil {
		return nil, err
	}

	if !decisionOffered(decision, decisionOptions(UnitsCompatible(req.Unit, existing.Unit))) {
		return nil, fmt.Errorf("%w: %q not available for units %q and %q",
			domain.ErrInvalidDecision, decision, existing.Unit, req.Unit)
	}

	var (
		entry      *domain.PantryEntry
		outcome    = domain.OutcomeMerged
		resolution domain.Resolution
	)

	switch decision {
	case domain.SumQuantities:
		// Unit stays as stored; the incoming amount is taken as already comparable
		resolution = domain.ResolutionSumQuantities
		entry, err = s.repo.Mutate(ctx, req.OwnerID, existing.ID, domain.Mutation{
			Mode:   domain.MutationAdd,
			Amount: req.Quantity,
		})
	case domain.ReplaceEntry:
		resolution = domain.ResolutionReplaceEntry
		entry, err = s.repo.Mutate(ctx, req.OwnerID, existing.ID, domain.Mutation{
			Mode:   domain.MutationSet,
			Amount: req.Quantity,
			Unit:   req.Unit,
		})
	case domain.KeepSeparate:
		outcome = domain.OutcomeInserted
		resolution = domain.ResolutionKeepSeparate
		entry, err = s.insert(ctx, req, itemName, NormalizeUnit(req.Unit))
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidDecision, decision)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("merge decision applied",
		zap.String("owner_id", req.OwnerID),
		zap.String("item", itemName),
		zap.String("decision", string(decision)),
		zap.Float64("quantity", entry.Quantity),
	)

	return s.finish(&AddItemResult{
		Outcome:    outcome,
		Resolution: resolution,
		Entry:      entry,
	}), nil
}

// AdjustQuantity edits an owned entry's quantity with an Add or Set mutation
func (s *PantryService) AdjustQuantity(ctx context.Context, ownerID, entryID string, m domain.Mutation) (*domain.PantryEntry, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, domain.ErrInvalidOwner
	}
	if entryID == "" {
		return nil, domain.ErrEntryNotFound
	}
	if _, err := domain.ParseMutationMode(string(m.Mode)); err != nil {
		return nil, err
	}
	if !isFinite(m.Amount) {
		return nil, domain.ErrInvalidQuantity
	}
	if m.Mode == domain.MutationAdd {
		// Units only change through Set
		m.Unit = ""
	}
	m.Unit = strings.TrimSpace(m.Unit)

	entry, err := s.repo.Mutate(ctx, ownerID, entryID, m)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("pantry quantity adjusted",
		zap.String("owner_id", ownerID),
		zap.String("entry_id", entryID),
		zap.String("mode", string(m.Mode)),
		zap.Float64("amount", m.Amount),
		zap.Float64("quantity", entry.Quantity),
	)
	return entry, nil
}

// UpdateNote replaces an entry's free-text note without touching its ledger
func (s *PantryService) UpdateNote(ctx context.Context, ownerID, entryID, note string) (*domain.PantryEntry, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, domain.ErrInvalidOwner
	}
	return s.repo.UpdateNote(ctx, ownerID, entryID, strings.TrimSpace(note))
}

// RemoveItem deletes an owned entry
func (s *PantryService) RemoveItem(ctx context.Context, ownerID, entryID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return domain.ErrInvalidOwner
	}
	if err := s.repo.Delete(ctx, ownerID, entryID); err != nil {
		return err
	}
	s.logger.Info("pantry entry removed", zap.String("owner_id", ownerID), zap.String("entry_id", entryID))
	return nil
}

// GetItem returns one owned entry
func (s *PantryService) GetItem(ctx context.Context, ownerID, entryID string) (*domain.PantryEntry, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, domain.ErrInvalidOwner
	}
	return s.repo.GetByID(ctx, ownerID, entryID)
}

// ListItems returns the owner's pantry
func (s *PantryService) ListItems(ctx context.Context, ownerID string) ([]domain.PantryEntry, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, domain.ErrInvalidOwner
	}
	return s.repo.ListForOwner(ctx, ownerID)
}

func (s *PantryService) insert(ctx context.Context, req AddItemRequest, itemName, unitKey string) (*domain.PantryEntry, error) {
	entry := domain.NewPantryEntry(
		s.newID(),
		req.OwnerID,
		itemName,
		strings.TrimSpace(req.Name),
		strings.TrimSpace(req.Unit),
		unitKey,
		req.Quantity,
		s.clock(),
	)
	entry.Note = strings.TrimSpace(req.Note)
	return s.repo.Insert(ctx, entry)
}

func (s *PantryService) finish(result *AddItemResult) *AddItemResult {
	s.recorder.MergeOutcome(result.Outcome, result.Resolution)
	return result
}

// validateAddRequest rejects bad input before anything is read or written.
// Returns the normalized item name.
func validateAddRequest(req AddItemRequest) (string, error) {
	if strings.TrimSpace(req.OwnerID) == "" {
		return "", domain.ErrInvalidOwner
	}
	if !isFinite(req.Quantity) || req.Quantity <= 0 {
		return "", fmt.Errorf("%w: got %v", domain.ErrInvalidQuantity, req.Quantity)
	}
	itemName := NormalizeName(req.Name)
	if itemName == "" {
		return "", domain.ErrInvalidName
	}
	if strings.TrimSpace(req.Unit) == "" {
		return "", domain.ErrInvalidUnit
	}
	return itemName, nil
}

// decisionOptions lists what the user may choose. Summing only makes sense
// when both units measure the same kind of thing.
func decisionOptions(compatible bool) []domain.MergeDecision {
	if compatible {
		return []domain.MergeDecision{domain.SumQuantities, domain.ReplaceEntry, domain.KeepSeparate}
	}
	return []domain.MergeDecision{domain.ReplaceEntry, domain.KeepSeparate}
}

func decisionOffered(d domain.MergeDecision, options []domain.MergeDecision) bool {
	for _, o := range options {
		if o == d {
			return true
		}
	}
	return false
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
