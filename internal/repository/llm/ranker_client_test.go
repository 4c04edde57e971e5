//go:build !integration

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"myStyleFit/business/rerank"
	"myStyleFit/domain"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func items(pos ...int) []domain.ScoredCandidate {
	out := make([]domain.ScoredCandidate, len(pos))
	for i, p := range pos {
		out[i] = domain.ScoredCandidate{Record: &domain.ProductRecord{
			Position: p,
			Title:    "item",
			Price:    19.9,
			Tags:     []string{"a", "b", "c", "d", "e", "f", "g"},
		}}
	}
	return out
}

func chatBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"message": map[string]string{"content": content}}},
	})
	return string(b)
}

func newTestClient(url string) *RankerClient {
	return NewRankerClient(ClientConfig{
		Endpoint:         url + "/",
		APIKey:           "secret",
		DeploymentID:     "gpt-4o",
		APIVersion:       "2024-12-01-preview",
		MaxTokens:        400,
		Temperature:      0.2,
		FailureThreshold: 2,
	})
}

func TestRankerClient_RankIDs_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/openai/deployments/gpt-4o/chat/completions", r.URL.Path)
		assert.Equal(t, "2024-12-01-preview", r.URL.Query().Get("api-version"))
		assert.Equal(t, "secret", r.Header.Get("api-key"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		assert.Equal(t, 400, req.MaxTokens)
		assert.Contains(t, req.Messages[0].Content, "CANDIDATES_TOP")
		assert.Contains(t, req.Messages[0].Content, `"id":"12"`)
		assert.NotContains(t, req.Messages[0].Content, `"g"`, "tags are capped")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chatBody("```json\n{\"top\": [\"13\", 12, \"x\"]}\n```")))
	}))
	defer server.Close()

	ids, err := newTestClient(server.URL).RankIDs(context.Background(), domain.CategoryTop,
		domain.StyleDescriptor{Tags: []string{"minimal"}}, items(12, 13))

	require.NoError(t, err)
	assert.Equal(t, []int{13, 12}, ids)
}

func TestRankerClient_RankIDs_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).RankIDs(context.Background(), domain.CategoryTop, domain.StyleDescriptor{}, items(1, 2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestRankerClient_BreakerOpens(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	for range 4 {
		_, err := client.RankIDs(context.Background(), domain.CategoryTop, domain.StyleDescriptor{}, items(1, 2))
		require.Error(t, err)
	}

	assert.Equal(t, int32(2), hits.Load(), "open breaker stops outbound calls")
}

func TestRankerClient_BreakerClosesAfterOpenTimeout(t *testing.T) {
	var healthy atomic.Bool
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if !healthy.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(chatBody(`{"top": [2, 1]}`)))
	}))
	defer server.Close()

	client := NewRankerClient(ClientConfig{
		Endpoint:         server.URL,
		APIKey:           "secret",
		DeploymentID:     "gpt-4o",
		APIVersion:       "2024-12-01-preview",
		FailureThreshold: 2,
		OpenTimeout:      50 * time.Millisecond,
	})
	for range 3 {
		_, err := client.RankIDs(context.Background(), domain.CategoryTop, domain.StyleDescriptor{}, items(1, 2))
		require.Error(t, err)
	}
	require.Equal(t, int32(2), hits.Load())

	healthy.Store(true)
	time.Sleep(100 * time.Millisecond)

	ids, err := client.RankIDs(context.Background(), domain.CategoryTop, domain.StyleDescriptor{}, items(1, 2))
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, ids)
	assert.Equal(t, int32(3), hits.Load())
}

func TestRankerClient_NotConfigured(t *testing.T) {
	client := NewRankerClient(ClientConfig{})

	_, err := client.RankIDs(context.Background(), domain.CategoryTop, domain.StyleDescriptor{}, items(1))
	assert.True(t, errors.Is(err, rerank.ErrNotConfigured))
}

func TestParseRankedIDs(t *testing.T) {
	ids, err := ParseRankedIDs(`{"shoes": [3, "1", 2.5, "7"]}`, domain.CategoryShoes)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 7}, ids)

	ids, err = ParseRankedIDs("Sure!\n```\n{\"ids\": [\"4\"]}\n```", domain.CategoryPants)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, ids)

	_, err = ParseRankedIDs("no json here", domain.CategoryTop)
	assert.ErrorIs(t, err, rerank.ErrMalformedResponse)

	_, err = ParseRankedIDs(`{"outer": ["1"]}`, domain.CategoryTop)
	assert.ErrorIs(t, err, rerank.ErrMalformedResponse)
}

func TestBuildPrompt_TruncatesTitle(t *testing.T) {
	c := items(1)
	c[0].Record.Title = strings.Repeat("가", 200)

	prompt, err := buildPrompt(domain.CategoryTop, domain.StyleDescriptor{}, c)
	require.NoError(t, err)
	assert.Contains(t, prompt, strings.Repeat("가", maxTitleLen))
	assert.NotContains(t, prompt, strings.Repeat("가", maxTitleLen+1))
}
