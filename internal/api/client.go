// Package api is the typed HTTP client for the AnkiForge backend. Every
// response body passes through DecodeJSON before a single field is read,
// which keeps the three failure families distinct: transport errors,
// protocol mismatches (an HTML page with a 200), and domain failures.
//
// Requests are never retried here. Failed calls surface immediately so
// the caller can log and move on; a retry would hide backend state.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ankiforge/ankiforge/pkg/logger"
)

const (
	// DefaultBaseURL is the companion backend next to AnkiConnect's 8765.
	DefaultBaseURL = "http://127.0.0.1:8766"

	DefaultTimeout = 15 * time.Second
)

type Client struct {
	baseURL string
	httpc   *http.Client
	logger  *logger.Logger
}

type Option func(*Client)

// WithHTTPClient swaps the underlying transport, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpc = h
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpc.Timeout = d
	}
}

func New(baseURL string, log *logger.Logger, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: DefaultTimeout},
		logger:  log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// get issues a GET and decodes the body through the guard. The returned
// status is only meaningful when err is nil.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) (int, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, fmt.Errorf("building request for %s: %w", path, err)
	}

	c.logger.Trace("GET %s", target)
	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if err := DecodeJSON(resp, out); err != nil {
		return resp.StatusCode, err
	}
	return resp.StatusCode, nil
}

// Decks lists the deck names known to the connected Anki profile.
func (c *Client) Decks(ctx context.Context) ([]string, error) {
	var out deckListResponse
	status, err := c.get(ctx, "/api/anki-decks", nil, &out)
	if err != nil {
		return nil, err
	}
	if status >= http.StatusBadRequest || !out.Success {
		return nil, &APIError{Status: status, Message: out.Error}
	}
	return out.Decks, nil
}

// Cards fetches one page of card rows for a search query.
func (c *Client) Cards(ctx context.Context, query string, offset, limit int) (CardPage, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("offset", strconv.Itoa(offset))
	params.Set("limit", strconv.Itoa(limit))

	var out cardListResponse
	status, err := c.get(ctx, "/api/anki-cards", params, &out)
	if err != nil {
		return CardPage{}, err
	}
	if status >= http.StatusBadRequest || !out.Success {
		return CardPage{}, &APIError{Status: status, Message: out.Error}
	}

	total := len(out.Items)
	if out.Total != nil {
		total = *out.Total
	}
	return CardPage{Items: out.Items, Total: total}, nil
}

// NoteTypes lists the backend's note models, normalized across the two
// shapes the endpoint has shipped.
func (c *Client) NoteTypes(ctx context.Context) ([]NoteType, error) {
	var out noteTypeListResponse
	status, err := c.get(ctx, "/api/anki-note-types", nil, &out)
	if err != nil {
		return nil, err
	}
	if status >= http.StatusBadRequest || !out.Success {
		return nil, &APIError{Status: status, Message: out.Error}
	}
	return out.Items, nil
}

// Recreate submits a bulk recreation. On a domain failure the decoded
// envelope is returned alongside the APIError so callers can aggregate
// any per-note results it carries.
func (c *Client) Recreate(ctx context.Context, reqBody RecreateRequest) (*RecreateResponse, error) {
	if err := reqBody.Validate(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("encoding recreate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/anki-recreate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building recreate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if reqBody.ClientRequestID != "" {
		req.Header.Set("X-Request-ID", reqBody.ClientRequestID)
	}

	c.logger.Debug("POST /api/anki-recreate (%d cards)", len(reqBody.CardIDs))
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out RecreateResponse
	if err := DecodeJSON(resp, &out); err != nil {
		return nil, err
	}
	out.HTTPStatus = resp.StatusCode

	if resp.StatusCode >= http.StatusBadRequest || !out.Success {
		return &out, &APIError{Status: resp.StatusCode, Message: out.Error}
	}
	return &out, nil
}

// AnkiHealth probes the backend's AnkiConnect link. The report itself
// says whether the service is up; only transport and protocol failures
// surface as errors.
func (c *Client) AnkiHealth(ctx context.Context) (AnkiHealth, error) {
	var out AnkiHealth
	if _, err := c.get(ctx, "/api/health/anki", nil, &out); err != nil {
		return AnkiHealth{}, err
	}
	return out, nil
}

// OllamaHealth probes the language-model service behind the backend.
func (c *Client) OllamaHealth(ctx context.Context) (OllamaHealth, error) {
	var out OllamaHealth
	if _, err := c.get(ctx, "/api/health/ollama", nil, &out); err != nil {
		return OllamaHealth{}, err
	}
	return out, nil
}
