package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Recipes   RecipesConfig   `mapstructure:"recipes"`
	Taxonomy  TaxonomyConfig  `mapstructure:"taxonomy"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	Merge     MergeConfig     `mapstructure:"merge"`
	Advisor   AdvisorConfig   `mapstructure:"advisor"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig selects the pantry store
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // "sqlite" or "memory"
	Path   string `mapstructure:"path"`
}

// CacheConfig holds match-cache configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP   int `mapstructure:"per_ip"`  // requests per minute per client IP
	Recipes int `mapstructure:"recipes"` // requests per hour to the recipe service
}

// RecipesConfig holds recipe service configuration
type RecipesConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// TaxonomyConfig points at an optional taxonomy file
type TaxonomyConfig struct {
	Path     string        `mapstructure:"path"` // empty uses the built-in table
	Watch    bool          `mapstructure:"watch"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// MatchingConfig holds recipe matching configuration
type MatchingConfig struct {
	Policy            string `mapstructure:"policy"` // "exact" or "token"
	FuzzyEditDistance int    `mapstructure:"fuzzy_edit_distance"`
	DebugLogging      bool   `mapstructure:"debug_logging"`
}

// MergeConfig holds duplicate-resolution configuration
type MergeConfig struct {
	PromptOnIncompatibleUnits bool `mapstructure:"prompt_on_incompatible_units"`
}

// AdvisorConfig holds unit advisor configuration
type AdvisorConfig struct {
	MinConfidence float64 `mapstructure:"min_confidence"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pantrymatch/")

	// PANTRYMATCH_CACHE_REDIS_URL -> cache.redis_url
	v.SetEnvPrefix("PANTRYMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads .env from the working directory. A missing file is not an
// error and variables already in the environment win.
func loadEnvFile() error {
	err := godotenv.Load()
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// setDefaults sets default configuration values. Every key needs a default so
// AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/pantry.db")

	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "10m")

	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.recipes", 600)

	v.SetDefault("recipes.base_url", "http://localhost:8081")
	v.SetDefault("recipes.api_key", "")
	v.SetDefault("recipes.timeout", "10s")

	v.SetDefault("taxonomy.path", "")
	v.SetDefault("taxonomy.watch", false)
	v.SetDefault("taxonomy.debounce", "500ms")

	v.SetDefault("matching.policy", "exact")
	v.SetDefault("matching.fuzzy_edit_distance", 1)
	v.SetDefault("matching.debug_logging", false)

	v.SetDefault("merge.prompt_on_incompatible_units", false)

	v.SetDefault("advisor.min_confidence", 0.6)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Database.Driver {
	case "sqlite":
		if config.Database.Path == "" {
			return fmt.Errorf("database path is required when driver is 'sqlite'")
		}
	case "memory":
	default:
		return fmt.Errorf("database driver must be 'sqlite' or 'memory', got: %s", config.Database.Driver)
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("redis URL is required when cache type is 'redis'")
	}

	if config.Matching.Policy != "exact" && config.Matching.Policy != "token" {
		return fmt.Errorf("matching policy must be 'exact' or 'token', got: %s", config.Matching.Policy)
	}

	if config.Matching.FuzzyEditDistance < 0 {
		return fmt.Errorf("matching fuzzy edit distance must not be negative, got: %d", config.Matching.FuzzyEditDistance)
	}

	if config.Advisor.MinConfidence <= 0 || config.Advisor.MinConfidence > 1 {
		return fmt.Errorf("advisor min confidence must be within (0,1], got: %v", config.Advisor.MinConfidence)
	}

	if config.Taxonomy.Watch && config.Taxonomy.Path == "" {
		return fmt.Errorf("taxonomy path is required when taxonomy watch is enabled")
	}

	switch strings.ToLower(config.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("log format must be 'json' or 'console', got: %s", config.Log.Format)
	}

	return nil
}
