package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"myStyleFit/domain"
	"net/http"
	"strings"
	"time"
)

// analyzeResponse accepts both a bare descriptor and {"analysis": {...}}.
type analyzeResponse struct {
	domain.StyleDescriptor
	Analysis *domain.StyleDescriptor `json:"analysis,omitempty"`
}

// HTTPAnalyzer posts look images to an external vision service and reads
// back a style descriptor.
type HTTPAnalyzer struct {
	URL    string
	Client *http.Client
}

func NewHTTPAnalyzer(url string, timeout time.Duration, client ...*http.Client) *HTTPAnalyzer {
	var c *http.Client
	if len(client) > 0 && client[0] != nil {
		c = client[0]
	} else {
		c = &http.Client{Timeout: timeout}
	}
	return &HTTPAnalyzer{
		URL:    strings.TrimRight(url, "/"),
		Client: c,
	}
}

func (a *HTTPAnalyzer) Analyze(ctx context.Context, in domain.AnalysisInput) (domain.StyleDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return domain.StyleDescriptor{}, fmt.Errorf("context error: %w", err)
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return domain.StyleDescriptor{}, fmt.Errorf("failed to marshal analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.URL, bytes.NewReader(payload))
	if err != nil {
		return domain.StyleDescriptor{}, fmt.Errorf("failed to create analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.Client.Do(req)
	if err != nil {
		return domain.StyleDescriptor{}, fmt.Errorf("failed to call analyzer: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.StyleDescriptor{}, fmt.Errorf("analyzer returned %d: %s", resp.StatusCode, string(body))
	}

	var out analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.StyleDescriptor{}, fmt.Errorf("failed to decode analyzer response: %w", err)
	}

	if out.Analysis != nil {
		return *out.Analysis, nil
	}
	return out.StyleDescriptor, nil
}
