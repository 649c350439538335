package suno

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"tunesmith/pkg/retrylimit"
)

// ErrNotFound is returned when the library has no generation with the
// requested id.
var ErrNotFound = errors.New("generation not found")

// APIError is a non-2xx response from the generation API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("suno api http %d: %s", e.Status, e.Body)
}

// StatusCode implements retrylimit.HTTPError.
func (e *APIError) StatusCode() int { return e.Status }

// Client talks to the Suno generation and library API. It is stateless
// apart from the shared rate limiter and safe to reuse across guilds.
type Client struct {
	apiKey  string
	apiURL  string
	client  *http.Client
	limiter *retrylimit.AdaptiveLimiter
	retries int
}

// New creates a Client for the given API endpoint. retries bounds how
// many times a single transient failure is retried before surfacing.
func New(apiKey, apiURL string, retries int) *Client {
	if retries < 1 {
		retries = 1
	}
	return &Client{
		apiKey:  apiKey,
		apiURL:  apiURL,
		client:  &http.Client{Timeout: 25 * time.Second},
		limiter: retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5),
		retries: retries,
	}
}

// Submit requests a new generation and returns its id. The API answers
// 202 on accepted submissions; anything else is a rejection.
func (c *Client) Submit(ctx context.Context, prompt, style string) (string, error) {
	payload := map[string]any{"prompt": prompt}
	if style != "" {
		payload["style"] = style
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	var out Generation
	err = retrylimit.WithRetryMax(ctx, func() error {
		body, err := c.do(ctx, http.MethodPost, c.apiURL+"/generations", data, http.StatusAccepted)
		if err != nil {
			return err
		}
		return json.Unmarshal(body, &out)
	}, c.limiter, c.retries)
	if err != nil {
		return "", err
	}

	if out.ID == "" {
		return "", errors.New("no generation id in response")
	}
	return out.ID, nil
}

// Get fetches the current state of a generation.
func (c *Client) Get(ctx context.Context, id string) (*Generation, error) {
	var out Generation
	err := retrylimit.WithRetryMax(ctx, func() error {
		body, err := c.do(ctx, http.MethodGet, c.apiURL+"/generations/"+url.PathEscape(id), nil, http.StatusOK)
		if err != nil {
			return err
		}
		return json.Unmarshal(body, &out)
	}, c.limiter, c.retries)
	if err != nil {
		return nil, asNotFound(err)
	}
	return &out, nil
}

// AudioURL fetches the streamable audio locator for a completed
// generation.
func (c *Client) AudioURL(ctx context.Context, id string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	err := retrylimit.WithRetryMax(ctx, func() error {
		body, err := c.do(ctx, http.MethodGet, c.apiURL+"/generations/"+url.PathEscape(id)+"/audio", nil, http.StatusOK)
		if err != nil {
			return err
		}
		return json.Unmarshal(body, &out)
	}, c.limiter, c.retries)
	if err != nil {
		return "", asNotFound(err)
	}
	if out.URL == "" {
		return "", errors.New("no audio url in response")
	}
	return out.URL, nil
}

// Search queries public generations. An empty result list is a valid
// answer, not an error.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Generation, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(limit))

	var out struct {
		Results []Generation `json:"results"`
	}
	err := retrylimit.WithRetryMax(ctx, func() error {
		body, err := c.do(ctx, http.MethodGet, c.apiURL+"/search/generations?"+params.Encode(), nil, http.StatusOK)
		if err != nil {
			return err
		}
		return json.Unmarshal(body, &out)
	}, c.limiter, c.retries)
	if err != nil {
		return nil, err
	}
	return out.Results, nil
}

// do performs one HTTP round trip and returns the raw body, or an
// *APIError when the status differs from want.
func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte, want int) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != want {
		return nil, &APIError{Status: resp.StatusCode, Body: truncate(body)}
	}
	return body, nil
}

// asNotFound maps a 404 APIError to ErrNotFound so callers can treat
// missing ids as user input errors rather than service failures.
func asNotFound(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return err
}

func truncate(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
