// Package recipe proxies Spoonacular's find-by-ingredients search.
//
// The response is relayed as-is: status, content type and body, including
// Spoonacular's own error bodies. Only a failure to reach Spoonacular at all
// becomes an error.
package recipe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sakif/grocery-tracker/internal/apperror"
)

const (
	DefaultBaseURL = "https://api.spoonacular.com"
	DefaultTimeout = 10 * time.Second

	// maxBodyBytes caps how much of the upstream body we buffer. Larger
	// replies are rejected, not truncated.
	maxBodyBytes = 5 << 20
)

// Response is the upstream reply, ready to be written back to the client.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Client calls the Spoonacular API.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	baseURL    string
	apiKey     string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client (tests point it at httptest).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBaseURL overrides DefaultBaseURL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithTimeout sets the per-request timeout. It applies to a copy of the
// http.Client, so a shared client passed to WithHTTPClient is left alone.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewClient creates a Spoonacular client. An empty apiKey is allowed: the
// upstream answers 401 and that answer is relayed like any other.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

// FindByIngredients looks up recipes using the comma-separated ingredient
// list. Transport failures return apperror.ErrUpstream.
func (c *Client) FindByIngredients(ctx context.Context, ingredients string) (*Response, error) {
	q := url.Values{}
	q.Set("ingredients", ingredients)
	q.Set("apiKey", c.apiKey)
	endpoint := c.baseURL + "/recipes/findByIngredients?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("recipe: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error embeds the full URL, api key included. Keep only the cause.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, apperror.Upstream("recipe service", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, apperror.Upstream("recipe service", fmt.Errorf("reading body: %w", err))
	}
	if len(body) > maxBodyBytes {
		return nil, apperror.Upstream("recipe service", fmt.Errorf("response body exceeds %d bytes", maxBodyBytes))
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        body,
	}, nil
}
