package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"librarium/internal/domain"
)

// HTTPClient talks to the remote exploration service. One client serves one
// agent identity; Select must be called before Probe or Submit.
type HTTPClient struct {
	baseURL string
	agentID string
	client  *http.Client
	logger  *zap.Logger
}

// HTTPOption adjusts an HTTPClient at construction time.
type HTTPOption func(*HTTPClient)

// WithTimeout overrides the default 60 second request timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithLogger attaches a logger for request tracing.
func WithLogger(l *zap.Logger) HTTPOption {
	return func(c *HTTPClient) {
		c.logger = l
	}
}

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		c.client = hc
	}
}

// NewHTTPClient creates a client for the service at baseURL, authenticating
// every request with agentID.
func NewHTTPClient(baseURL, agentID string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: baseURL,
		agentID: agentID,
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type selectRequest struct {
	ID          string `json:"id"`
	ProblemName string `json:"problemName"`
}

type exploreRequest struct {
	ID    string   `json:"id"`
	Plans []string `json:"plans"`
}

type exploreResponse struct {
	Results    [][]domain.Label `json:"results"`
	QueryCount int              `json:"queryCount"`
}

type guessRequest struct {
	ID  string              `json:"id"`
	Map *domain.SolutionMap `json:"map"`
}

type guessResponse struct {
	Correct bool `json:"correct"`
}

// Select binds the session to the named problem instance.
func (c *HTTPClient) Select(ctx context.Context, problem string) error {
	c.logger.Info("selecting problem", zap.String("problem", problem))
	return c.post(ctx, "/select", selectRequest{ID: c.agentID, ProblemName: problem}, nil)
}

// Probe submits a batch of plans and returns the observed label sequences.
func (c *HTTPClient) Probe(ctx context.Context, plans []domain.Plan) (*ProbeResult, error) {
	if len(plans) == 0 {
		return &ProbeResult{}, nil
	}
	req := exploreRequest{ID: c.agentID, Plans: make([]string, len(plans))}
	for i, p := range plans {
		req.Plans[i] = p.String()
	}
	var resp exploreResponse
	if err := c.post(ctx, "/explore", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Results) != len(plans) {
		return nil, fmt.Errorf("%w: sent %d plans, got %d results",
			domain.ErrMalformedResponse, len(plans), len(resp.Results))
	}
	c.logger.Debug("batch explored",
		zap.Int("plans", len(plans)),
		zap.Int("query_count", resp.QueryCount))
	return &ProbeResult{Results: resp.Results, QueryCount: resp.QueryCount}, nil
}

// Submit proposes a reconstructed map.
func (c *HTTPClient) Submit(ctx context.Context, m *domain.SolutionMap) (bool, error) {
	if err := m.Validate(); err != nil {
		return false, fmt.Errorf("refusing to submit invalid map: %w", err)
	}
	var resp guessResponse
	if err := c.post(ctx, "/guess", guessRequest{ID: c.agentID, Map: m}, &resp); err != nil {
		return false, err
	}
	c.logger.Info("map submitted", zap.Bool("correct", resp.Correct))
	return resp.Correct, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: status %d: %s", path, resp.StatusCode, bytes.TrimSpace(snippet))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", domain.ErrMalformedResponse, path, err)
	}
	return nil
}
