package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"myStyleFit/business/rerank"
	"myStyleFit/domain"
	"myStyleFit/pkg/logger"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	maxTitleLen = 120
	maxItemTags = 6
)

type ClientConfig struct {
	Endpoint     string
	APIKey       string
	DeploymentID string
	APIVersion   string
	MaxTokens    int
	Temperature  float64

	// outbound calls per second across all categories
	RatePerSecond float64

	// consecutive failures before the breaker opens
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type candidateRow struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
	Price int64    `json:"price"`
}

// RankerClient asks a chat-completions deployment to order candidates.
// Calls go through a rate limiter and a circuit breaker.
type RankerClient struct {
	cfg     ClientConfig
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]int]
}

func NewRankerClient(cfg ClientConfig, client ...*http.Client) *RankerClient {
	var c *http.Client
	if len(client) > 0 && client[0] != nil {
		c = client[0]
	} else {
		c = &http.Client{Timeout: 30 * time.Second}
	}

	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	limit := rate.Inf
	burst := 1
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
		burst = max(1, int(cfg.RatePerSecond))
	}

	threshold := cfg.FailureThreshold
	breaker := gobreaker.NewCircuitBreaker[[]int](gobreaker.Settings{
		Name:        "llm-ranker",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit_breaker_state_change",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return &RankerClient{
		cfg:     cfg,
		client:  c,
		limiter: rate.NewLimiter(limit, burst),
		breaker: breaker,
	}
}

// RankIDs returns candidate positions in the order the model prefers. The
// answer may be partial.
func (c *RankerClient) RankIDs(
	ctx context.Context,
	category domain.Category,
	desc domain.StyleDescriptor,
	items []domain.ScoredCandidate,
) ([]int, error) {
	if c.cfg.Endpoint == "" || c.cfg.APIKey == "" {
		return nil, rerank.ErrNotConfigured
	}
	if len(items) == 0 {
		return []int{}, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rank rate limit: %w", err)
	}

	return c.breaker.Execute(func() ([]int, error) {
		return c.call(ctx, category, desc, items)
	})
}

func (c *RankerClient) call(
	ctx context.Context,
	category domain.Category,
	desc domain.StyleDescriptor,
	items []domain.ScoredCandidate,
) ([]int, error) {
	startTime := time.Now()

	prompt, err := buildPrompt(category, desc, items)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(chatRequest{
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rank request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.cfg.Endpoint, url.PathEscape(c.cfg.DeploymentID), url.QueryEscape(c.cfg.APIVersion))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create rank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call rank endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("rank endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return nil, fmt.Errorf("failed to decode rank response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", rerank.ErrMalformedResponse)
	}

	ids, err := ParseRankedIDs(chat.Choices[0].Message.Content, category)
	if err != nil {
		return nil, err
	}

	logger.Debug("rank_completed",
		"trace_id", domain.TraceIDFromContext(ctx),
		"category", category,
		"candidates", len(items),
		"ranked", len(ids),
		"elapsed_ms", time.Since(startTime).Milliseconds(),
	)

	return ids, nil
}

func buildPrompt(category domain.Category, desc domain.StyleDescriptor, items []domain.ScoredCandidate) (string, error) {
	rows := make([]candidateRow, len(items))
	for i, it := range items {
		rec := it.Record
		title := rec.Title
		if r := []rune(title); len(r) > maxTitleLen {
			title = string(r[:maxTitleLen])
		}
		tags := rec.Tags
		if len(tags) > maxItemTags {
			tags = tags[:maxItemTags]
		}
		if tags == nil {
			tags = []string{}
		}
		rows[i] = candidateRow{
			ID:    strconv.Itoa(rec.Position),
			Title: title,
			Tags:  tags,
			Price: int64(rec.Price),
		}
	}

	style, err := json.Marshal(desc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal style analysis: %w", err)
	}
	cands, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("failed to marshal candidates: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a fashion recommendation assistant. Given the user's style analysis and candidate %s items, ", category)
	fmt.Fprintf(&b, "order the items from best to worst match. Return ONLY JSON of the form {\"%s\": [\"id\", ...]}.\n\n", category)
	fmt.Fprintf(&b, "STYLE_ANALYSIS:\n%s\n\n", style)
	fmt.Fprintf(&b, "CANDIDATES_%s:\n%s", strings.ToUpper(string(category)), cands)
	return b.String(), nil
}

// ParseRankedIDs extracts the id list for category from a model answer. The
// answer may be wrapped in a ```json fence. Ids may be strings or numbers;
// entries that are not integers are skipped.
func ParseRankedIDs(text string, category domain.Category) ([]int, error) {
	body := strings.TrimSpace(text)
	if !strings.HasPrefix(body, "{") {
		if i := strings.Index(body, "```json"); i >= 0 {
			body = body[i+len("```json"):]
		} else if i := strings.Index(body, "```"); i >= 0 {
			body = body[i+len("```"):]
		}
		if i := strings.Index(body, "```"); i >= 0 {
			body = body[:i]
		}
		body = strings.TrimSpace(body)
	}

	var data map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &data); err != nil {
		return nil, fmt.Errorf("%w: %v", rerank.ErrMalformedResponse, err)
	}

	raw, ok := data[string(category)]
	if !ok {
		raw, ok = data["ids"]
	}
	if !ok {
		return nil, fmt.Errorf("%w: no %q key", rerank.ErrMalformedResponse, category)
	}

	var values []any
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, fmt.Errorf("%w: %v", rerank.ErrMalformedResponse, err)
	}

	ids := make([]int, 0, len(values))
	for _, v := range values {
		switch x := v.(type) {
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
				ids = append(ids, n)
			}
		case float64:
			if x == float64(int(x)) {
				ids = append(ids, int(x))
			}
		}
	}
	return ids, nil
}
