package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pantrymatch/backend/config"
	"github.com/pantrymatch/backend/internal/usecase"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server:    config.ServerConfig{Port: "0", Environment: "test"},
		Database:  config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "pantry.db")},
		Cache:     config.CacheConfig{Type: "memory", TTL: time.Minute},
		RateLimit: config.RateLimitConfig{PerIP: 100, Recipes: 600},
		Recipes:   config.RecipesConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second},
		Matching:  config.MatchingConfig{Policy: "exact", FuzzyEditDistance: 1},
		Advisor:   config.AdvisorConfig{MinConfidence: 0.6},
		Log:       config.LogConfig{Level: "info", Format: "console"},
	}
}

func TestNewApp(t *testing.T) {
	t.Run("sqlite store serves the API", func(t *testing.T) {
		app, err := NewApp(context.Background(), testConfig(t), zap.NewNop())
		require.NoError(t, err)
		defer app.Close()

		req := httptest.NewRequest("POST", "/api/v1/pantry/items", strings.NewReader(`{"name":"milk","quantity":1,"unit":"l"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Owner-ID", "u1")
		w := httptest.NewRecorder()
		app.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = httptest.NewRecorder()
		app.router.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "pantrymatch_merge_outcomes_total")
	})

	t.Run("memory store", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Database = config.DatabaseConfig{Driver: "memory"}
		app, err := NewApp(context.Background(), cfg, zap.NewNop())
		require.NoError(t, err)
		defer app.Close()
		assert.NotNil(t, app.store)
	})

	t.Run("unreachable redis fails fast", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Cache = config.CacheConfig{Type: "redis", RedisURL: "redis://127.0.0.1:1/0"}
		_, err := NewApp(context.Background(), cfg, zap.NewNop())
		assert.Error(t, err)
	})

	t.Run("taxonomy file with watcher", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "taxonomy.yaml")
		require.NoError(t, os.WriteFile(path, []byte(
			"entries:\n  - fragment: saffron\n    category: weight\n    unit: g\n    confidence: 0.9\n"), 0o644))

		cfg := testConfig(t)
		cfg.Taxonomy = config.TaxonomyConfig{Path: path, Watch: true, Debounce: 20 * time.Millisecond}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		app, err := NewApp(ctx, cfg, zap.NewNop())
		require.NoError(t, err)
		defer app.Close()

		require.NotNil(t, app.watcher)
		assert.Equal(t, "saffron", app.holder.Classify("spanish saffron").MatchFragment)
	})

	t.Run("bad taxonomy file", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Taxonomy = config.TaxonomyConfig{Path: filepath.Join(t.TempDir(), "missing.yaml")}
		_, err := NewApp(context.Background(), cfg, zap.NewNop())
		assert.Error(t, err)
	})
}

func TestServeStopsOnCancel(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer app.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestPrintClassification(t *testing.T) {
	holder, err := usecase.NewTaxonomyHolder(usecase.DefaultTaxonomy())
	require.NoError(t, err)

	var buf bytes.Buffer
	printClassification(&buf, holder, "Extra Virgin Olive Oil")
	out := buf.String()
	assert.Contains(t, out, "fragment:   olive oil")
	assert.Contains(t, out, "category:   liquid")
	assert.Contains(t, out, "unit:       ml")
}

func TestPrintSuggestion(t *testing.T) {
	holder, err := usecase.NewTaxonomyHolder(usecase.DefaultTaxonomy())
	require.NoError(t, err)
	advisor := usecase.NewUnitAdvisor(holder, 0.6)

	var buf bytes.Buffer
	printSuggestion(&buf, advisor, "milk", "g")
	assert.Contains(t, buf.String(), "suggest ml instead of g")

	buf.Reset()
	printSuggestion(&buf, advisor, "milk", "ml")
	assert.Contains(t, buf.String(), "looks fine")
}
