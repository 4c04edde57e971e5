package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	CatalogSourcePostgres = "postgres"
	CatalogSourceFile     = "file"
)

type Config struct {
	App       AppConfig
	Server    ServerConfig
	Log       LogConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Catalog   CatalogConfig
	Index     IndexConfig
	Embedding EmbeddingConfig
	Rerank    RerankConfig
	Analyzer  AnalyzerConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port           string
	AllowOrigins   []string
	RequestTimeout time.Duration
}

type LogConfig struct {
	Level string
	File  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Enabled       bool
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

type CatalogConfig struct {
	Source             string
	Path               string
	RefreshInterval    time.Duration
	LoadPopularity     bool
	UsePopularityPrior bool
}

type IndexConfig struct {
	ExactWeight   float64
	PartialWeight float64
}

type EmbeddingConfig struct {
	PriceDecay float64
}

type RerankConfig struct {
	Enabled       bool
	Endpoint      string
	APIKey        string
	DeploymentID  string
	APIVersion    string
	Timeout       time.Duration
	MaxCandidates int
	MaxTokens     int
	Temperature   float64
	CacheTTL      time.Duration
	RatePerSecond float64
	FailureTrip   uint32
	BreakerOpen   time.Duration
}

type AnalyzerConfig struct {
	URL     string
	Timeout time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var errs []error

	redisDB, err := getEnvInt("REDIS_DB", 0)
	errs = append(errs, err)
	refresh, err := getEnvDuration("CATALOG_REFRESH_INTERVAL", 30*time.Minute)
	errs = append(errs, err)
	reqTimeout, err := getEnvDuration("REQUEST_TIMEOUT", 10*time.Second)
	errs = append(errs, err)
	exactWeight, err := getEnvFloat("PRODUCT_INDEX_EXACT_WEIGHT", 1.0)
	errs = append(errs, err)
	partialWeight, err := getEnvFloat("PRODUCT_INDEX_PARTIAL_WEIGHT", 0.5)
	errs = append(errs, err)
	priceDecay, err := getEnvFloat("EMBEDDING_PRICE_DECAY", 0.38)
	errs = append(errs, err)
	rerankTimeout, err := getEnvDuration("RERANK_TIMEOUT", 8*time.Second)
	errs = append(errs, err)
	rerankMax, err := getEnvInt("RERANK_MAX_CANDIDATES", 20)
	errs = append(errs, err)
	rerankTokens, err := getEnvInt("LLM_RERANK_MAX_TOKENS", 400)
	errs = append(errs, err)
	rerankTemp, err := getEnvFloat("LLM_RERANK_TEMPERATURE", 0.2)
	errs = append(errs, err)
	rerankTTL, err := getEnvDuration("RERANK_CACHE_TTL", 30*time.Minute)
	errs = append(errs, err)
	rerankRate, err := getEnvFloat("RERANK_RATE_PER_SECOND", 5)
	errs = append(errs, err)
	rerankTrip, err := getEnvInt("RERANK_FAILURE_THRESHOLD", 5)
	errs = append(errs, err)
	breakerOpen, err := getEnvDuration("RERANK_BREAKER_OPEN_TIMEOUT", 30*time.Second)
	errs = append(errs, err)
	analyzerTimeout, err := getEnvDuration("ANALYZER_TIMEOUT", 20*time.Second)
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Style Fit Recommendation API"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "3001"),
			AllowOrigins:   []string{getEnv("FRONTEND_URL", "http://localhost:5173"), "http://127.0.0.1:5173"},
			RequestTimeout: reqTimeout,
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "style_fit"),
			SSLMode:  getEnv("DB_SSL_MODE", "require"),
		},
		Redis: RedisConfig{
			Enabled:       getEnvBool("CACHE_ENABLED", false),
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
		},
		Catalog: CatalogConfig{
			Source:             getEnv("CATALOG_SOURCE", CatalogSourcePostgres),
			Path:               getEnv("CATALOG_PATH", "data/catalog.json"),
			RefreshInterval:    refresh,
			LoadPopularity:     getEnvBool("CATALOG_LOAD_POPULARITY", false),
			UsePopularityPrior: getEnvBool("EMBEDDING_USE_POPULARITY_PRIOR", false),
		},
		Index: IndexConfig{
			ExactWeight:   exactWeight,
			PartialWeight: partialWeight,
		},
		Embedding: EmbeddingConfig{
			PriceDecay: priceDecay,
		},
		Rerank: RerankConfig{
			Enabled:       getEnvBool("LLM_RERANK_ENABLED", true),
			Endpoint:      getEnv("AZURE_OPENAI_ENDPOINT", ""),
			APIKey:        getEnv("AZURE_OPENAI_KEY", ""),
			DeploymentID:  getEnv("AZURE_OPENAI_DEPLOYMENT_ID", "gpt-4o"),
			APIVersion:    getEnv("AZURE_OPENAI_API_VERSION", "2024-12-01-preview"),
			Timeout:       rerankTimeout,
			MaxCandidates: rerankMax,
			MaxTokens:     rerankTokens,
			Temperature:   rerankTemp,
			CacheTTL:      rerankTTL,
			RatePerSecond: rerankRate,
			FailureTrip:   uint32(max(rerankTrip, 1)),
			BreakerOpen:   breakerOpen,
		},
		Analyzer: AnalyzerConfig{
			URL:     getEnv("STYLE_ANALYZER_URL", ""),
			Timeout: analyzerTimeout,
		},
	}

	switch cfg.Catalog.Source {
	case CatalogSourcePostgres:
		if cfg.Database.Password == "" {
			return nil, errors.New("missing database password")
		}
	case CatalogSourceFile:
		if cfg.Catalog.Path == "" {
			return nil, errors.New("missing catalog path")
		}
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}

	if cfg.Rerank.MaxCandidates <= 0 {
		return nil, errors.New("RERANK_MAX_CANDIDATES must be positive")
	}

	return cfg, nil
}

// RerankConfigured reports whether a ranking service can be called.
func (c RerankConfig) RerankConfigured() bool {
	return c.Enabled && c.Endpoint != "" && c.APIKey != ""
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}

	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return i, nil
}

func getEnvFloat(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}

	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
