//go:build !integration

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FileSourceDefaults(t *testing.T) {
	t.Setenv("CATALOG_SOURCE", CatalogSourceFile)
	t.Setenv("CATALOG_PATH", "testdata/catalog.json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Server.Port)
	assert.Equal(t, 1.0, cfg.Index.ExactWeight)
	assert.Equal(t, 0.5, cfg.Index.PartialWeight)
	assert.Equal(t, 0.38, cfg.Embedding.PriceDecay)
	assert.Equal(t, 8*time.Second, cfg.Rerank.Timeout)
	assert.Equal(t, 20, cfg.Rerank.MaxCandidates)
	assert.Equal(t, 30*time.Minute, cfg.Catalog.RefreshInterval)
	assert.Equal(t, 30*time.Second, cfg.Rerank.BreakerOpen)
	assert.False(t, cfg.Catalog.UsePopularityPrior)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CATALOG_SOURCE", CatalogSourceFile)
	t.Setenv("PRODUCT_INDEX_EXACT_WEIGHT", "2")
	t.Setenv("RERANK_TIMEOUT", "250ms")
	t.Setenv("RERANK_BREAKER_OPEN_TIMEOUT", "5s")
	t.Setenv("LLM_RERANK_ENABLED", "false")
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com")
	t.Setenv("AZURE_OPENAI_KEY", "k")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2.0, cfg.Index.ExactWeight)
	assert.Equal(t, 250*time.Millisecond, cfg.Rerank.Timeout)
	assert.Equal(t, 5*time.Second, cfg.Rerank.BreakerOpen)
	assert.False(t, cfg.Rerank.RerankConfigured())
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("CATALOG_SOURCE", CatalogSourceFile)
	t.Setenv("RERANK_TIMEOUT", "soon")
	t.Setenv("PRODUCT_INDEX_PARTIAL_WEIGHT", "half")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RERANK_TIMEOUT")
	assert.Contains(t, err.Error(), "PRODUCT_INDEX_PARTIAL_WEIGHT")
}

func TestLoad_PostgresNeedsPassword(t *testing.T) {
	t.Setenv("CATALOG_SOURCE", CatalogSourcePostgres)
	t.Setenv("DB_PASSWORD", "")

	_, err := Load()
	assert.Error(t, err)

	t.Setenv("CATALOG_SOURCE", "mongo")
	_, err = Load()
	assert.Error(t, err)
}

func TestRerankConfigured(t *testing.T) {
	assert.True(t, RerankConfig{Enabled: true, Endpoint: "e", APIKey: "k"}.RerankConfigured())
	assert.False(t, RerankConfig{Enabled: true, Endpoint: "e"}.RerankConfigured())
}
