package recipes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantrymatch/backend/internal/domain"
)

func newTestClient(baseURL string) *Client {
	c := NewClient(ClientConfig{BaseURL: baseURL, APIKey: "test-api-key", RequestsPerHour: 3600 * 100})
	c.backoff = func(int) time.Duration { return time.Millisecond }
	return c
}

func TestNewClient(t *testing.T) {
	client := NewClient(ClientConfig{BaseURL: "https://recipes.example.com"})

	assert.NotNil(t, client.http)
	assert.NotNil(t, client.rateLimiter)
	assert.NotNil(t, client.logger)
	assert.InDelta(t, 600.0/3600, float64(client.rateLimiter.Limit()), 1e-9)
	assert.Equal(t, defaultBurst, client.rateLimiter.Burst())
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
	}
}

func TestGetRecipe_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/recipes/pancakes", r.URL.Path)
		assert.Equal(t, "test-api-key", r.Header.Get("X-API-Key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "pancakes",
			"title": "Pancakes",
			"ingredients": [
				{"name": "Flour", "quantity": 200, "unit": "g"},
				{"name": "eggs", "quantity": 2},
				{"name": "  "}
			]
		}`))
	}))
	defer server.Close()

	recipe, err := newTestClient(server.URL).GetRecipe(context.Background(), "pancakes")
	require.NoError(t, err)
	assert.Equal(t, "pancakes", recipe.ID)
	assert.Equal(t, "Pancakes", recipe.Title)
	assert.Equal(t, []string{"Flour", "eggs"}, recipe.IngredientNames())
	assert.Equal(t, "g", recipe.Ingredients[0].Unit)
}

func TestGetRecipe_NotFound(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	recipe, err := newTestClient(server.URL).GetRecipe(context.Background(), "missing")
	assert.Nil(t, recipe)
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
	assert.Equal(t, int32(1), calls.Load(), "404 must not be retried")
}

func TestGetRecipe_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"id":"r1","name":"Legacy Title","ingredients":[{"name":"milk"}]}`))
	}))
	defer server.Close()

	recipe, err := newTestClient(server.URL).GetRecipe(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "Legacy Title", recipe.Title)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetRecipe_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetRecipe(context.Background(), "r1")
	assert.ErrorIs(t, err, domain.ErrRecipeAPIFailure)
	assert.Equal(t, int32(maxAttempts), calls.Load())
}

func TestGetRecipe_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`bad key`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetRecipe(context.Background(), "r1")
	assert.ErrorIs(t, err, domain.ErrRecipeAPIFailure)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetRecipe_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetRecipe(context.Background(), "r1")
	assert.ErrorIs(t, err, domain.ErrRecipeAPIFailure)
}

func TestGetRecipe_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(server.URL).GetRecipe(ctx, "r1")
	assert.ErrorIs(t, err, domain.ErrRecipeAPIFailure)
}

func TestGetRecipe_UnreachableServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(url).GetRecipe(context.Background(), "r1")
	assert.ErrorIs(t, err, domain.ErrRecipeAPIFailure)
}
