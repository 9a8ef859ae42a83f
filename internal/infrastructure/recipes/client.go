// Package recipes talks to the recipe service that owns recipe content.
package recipes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pantrymatch/backend/internal/domain"
)

const (
	defaultTimeout         = 10 * time.Second
	defaultRequestsPerHour = 600
	defaultBurst           = 10
	maxAttempts            = 3
)

// ClientConfig configures the recipe service client
type ClientConfig struct {
	BaseURL         string
	APIKey          string
	Timeout         time.Duration
	RequestsPerHour int
	Logger          *zap.Logger
}

// Client fetches recipes from the recipe service
type Client struct {
	http        *resty.Client
	rateLimiter *rate.Limiter
	logger      *zap.Logger
	backoff     func(attempt int) time.Duration
}

// NewClient creates a new recipe service client
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	perHour := cfg.RequestsPerHour
	if perHour <= 0 {
		perHour = defaultRequestsPerHour
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "PantryMatch/1.0")
	if cfg.APIKey != "" {
		httpClient.SetHeader("X-API-Key", cfg.APIKey)
	}

	// rate.Limit is requests per second
	limiter := rate.NewLimiter(rate.Limit(float64(perHour)/3600), defaultBurst)

	return &Client{
		http:        httpClient,
		rateLimiter: limiter,
		logger:      logger,
		backoff:     exponentialBackoff,
	}
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// GetRecipe fetches one recipe. 404 is ErrRecipeNotFound; transport errors,
// 429 and 5xx are retried before giving up with ErrRecipeAPIFailure.
func (c *Client) GetRecipe(ctx context.Context, recipeID string) (*domain.Recipe, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepCtx(ctx, c.backoff(attempt-1)); err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrRecipeAPIFailure, err)
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrRecipeAPIFailure, err)
		}

		resp, err := c.http.R().
			SetContext(ctx).
			SetPathParam("id", recipeID).
			Get("/recipes/{id}")
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrRecipeAPIFailure, ctx.Err())
			}
			c.logger.Warn("recipe request failed",
				zap.String("recipe_id", recipeID), zap.Int("attempt", attempt), zap.Error(err))
			lastErr = fmt.Errorf("%w: %v", domain.ErrRecipeAPIFailure, err)
			continue
		}

		status := resp.StatusCode()
		switch {
		case status == http.StatusOK:
			var dto RecipeDTO
			if err := json.Unmarshal(resp.Body(), &dto); err != nil {
				return nil, fmt.Errorf("%w: decode response: %v", domain.ErrRecipeAPIFailure, err)
			}
			recipe := MapToRecipe(dto, recipeID)
			c.logger.Debug("recipe fetched",
				zap.String("recipe_id", recipeID), zap.Int("ingredients", len(recipe.Ingredients)))
			return recipe, nil
		case status == http.StatusNotFound:
			return nil, fmt.Errorf("%w: %s", domain.ErrRecipeNotFound, recipeID)
		case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
			c.logger.Warn("recipe service unavailable",
				zap.String("recipe_id", recipeID), zap.Int("attempt", attempt), zap.Int("status", status))
			lastErr = fmt.Errorf("%w: status %d", domain.ErrRecipeAPIFailure, status)
			continue
		default:
			return nil, fmt.Errorf("%w: status %d: %s", domain.ErrRecipeAPIFailure, status, truncate(resp.String(), 200))
		}
	}

	c.logger.Error("recipe request retries exhausted", zap.String("recipe_id", recipeID), zap.Error(lastErr))
	if lastErr == nil {
		lastErr = errors.New("no attempts made")
	}
	return nil, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
