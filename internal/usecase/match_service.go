package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pantrymatch/backend/internal/domain"
)

// MatchServiceConfig holds configuration for the match service
type MatchServiceConfig struct {
	CacheTTL time.Duration
	Logger   *zap.Logger
	Recorder OutcomeRecorder
}

// MatchService serves recipe match percentages. List and detail views both go
// through GetMatch so they can never disagree.
type MatchService struct {
	recipes    domain.RecipeCatalog
	pantry     domain.PantryRepository
	cache      domain.CacheRepository
	calculator *MatchCalculator
	cacheTTL   time.Duration
	logger     *zap.Logger
	recorder   OutcomeRecorder
}

// RecipeMatch is one item of a GetMatches response. Error is set instead of
// Match when that recipe could not be matched.
type RecipeMatch struct {
	RecipeID string              `json:"recipeId"`
	Title    string              `json:"title,omitempty"`
	Match    *domain.MatchResult `json:"match,omitempty"`
	Source   string              `json:"source,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// MatchResponse is a match result with the recipe title and where it came from
type MatchResponse struct {
	domain.MatchResult
	Title  string `json:"title,omitempty"`
	Source string `json:"source"`
}

const (
	sourceCache    = "cache"
	sourceComputed = "computed"
)

// cachedMatch is the cache payload
type cachedMatch struct {
	Title  string             `json:"title"`
	Result domain.MatchResult `json:"result"`
}

// NewMatchService creates a new match service with dependencies. cache may be nil.
func NewMatchService(
	recipes domain.RecipeCatalog,
	pantry domain.PantryRepository,
	cache domain.CacheRepository,
	calculator *MatchCalculator,
	config MatchServiceConfig,
) *MatchService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 10 * time.Minute
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	recorder := config.Recorder
	if recorder == nil {
		recorder = noopRecorder{}
	}

	return &MatchService{
		recipes:    recipes,
		pantry:     pantry,
		cache:      cache,
		calculator: calculator,
		cacheTTL:   cacheTTL,
		logger:     logger,
		recorder:   recorder,
	}
}

// GetMatch returns how much of a recipe the owner can cook from their pantry.
// Flow: pantry version -> cache -> fetch recipe -> snapshot pantry -> compute -> cache -> return
func (s *MatchService) GetMatch(ctx context.Context, recipeID, ownerID string) (*MatchResponse, error) {
	recipeID = strings.TrimSpace(recipeID)
	if recipeID == "" {
		return nil, fmt.Errorf("%w: recipe id is required", domain.ErrInvalidRequest)
	}
	if strings.TrimSpace(ownerID) == "" {
		return nil, domain.ErrInvalidOwner
	}

	version, err := s.pantry.Version(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("read pantry version: %w", err)
	}
	cacheKey := matchCacheKey(recipeID, ownerID, version)

	// Try cache first. Any pantry write bumps the version, so a hit is never stale
	// with respect to the pantry.
	if cached, err := s.getFromCache(ctx, cacheKey); err == nil {
		s.recorder.MatchServed(sourceCache)
		return &MatchResponse{MatchResult: cached.Result, Title: cached.Title, Source: sourceCache}, nil
	}

	recipe, err := s.recipes.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.pantry.ListForOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("snapshot pantry: %w", err)
	}

	result := s.calculator.ComputeMatch(recipeID, recipe.IngredientNames(), snapshot)

	if err := s.setInCache(ctx, cacheKey, cachedMatch{Title: recipe.Title, Result: result}); err != nil {
		s.logger.Warn("failed to cache match result", zap.String("key", cacheKey), zap.Error(err))
	}

	s.recorder.MatchServed(sourceComputed)
	return &MatchResponse{MatchResult: result, Title: recipe.Title, Source: sourceComputed}, nil
}

// GetMatches matches several recipes for a list view. Recipe failures are
// reported per item; an invalid owner fails the whole call.
func (s *MatchService) GetMatches(ctx context.Context, ownerID string, recipeIDs []string) ([]RecipeMatch, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, domain.ErrInvalidOwner
	}

	out := make([]RecipeMatch, 0, len(recipeIDs))
	for _, id := range recipeIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item := RecipeMatch{RecipeID: id}
		resp, err := s.GetMatch(ctx, id, ownerID)
		switch {
		case err == nil:
			match := resp.MatchResult
			item.Match = &match
			item.Title = resp.Title
			item.Source = resp.Source
		case errors.Is(err, domain.ErrRecipeNotFound),
			errors.Is(err, domain.ErrRecipeAPIFailure),
			errors.Is(err, domain.ErrInvalidRequest):
			item.Error = err.Error()
		default:
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// matchCacheKey format: "match:{len}:{recipe}:{len}:{owner}:v{version}".
// The length prefixes keep ids that contain ':' from colliding.
func matchCacheKey(recipeID, ownerID string, version int64) string {
	return fmt.Sprintf("match:%d:%s:%d:%s:v%d", len(recipeID), recipeID, len(ownerID), ownerID, version)
}

func (s *MatchService) getFromCache(ctx context.Context, key string) (*cachedMatch, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var cached cachedMatch
	if err := json.Unmarshal(data, &cached); err != nil {
		if delErr := s.cache.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to drop unreadable cache entry", zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}
	return &cached, nil
}

func (s *MatchService) setInCache(ctx context.Context, key string, value cachedMatch) error {
	if s.cache == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, data, s.cacheTTL)
}
