// Package feedly wraps the Feedly cloud REST API.
//
// Each method is a single request/response round trip. Any status other than
// 200 is returned as *APIError; nothing is retried.
package feedly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fdly/internal/logger"
	"fdly/internal/models"

	"golang.org/x/time/rate"
)

const (
	FeedlyURL   = "https://cloud.feedly.com"
	APIVersion3 = "v3"

	defaultTimeout = 10 * time.Second
	userAgent      = "fdly/1.0"
)

// Observer receives one call per HTTP round trip. status is 0 when the
// request never got a response.
type Observer interface {
	ObserveRequest(endpoint string, status int, duration time.Duration)
}

// Client talks to Feedly on behalf of a single user.
type Client struct {
	user       models.User
	baseURL    string
	apiVersion string
	rootURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	observer   Observer
	log        *logger.Entry
}

// New creates a client for user against the v3 API unless overridden.
func New(user models.User, opts ...Option) *Client {
	c := &Client{
		user:       user,
		baseURL:    FeedlyURL,
		apiVersion: APIVersion3,
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        logger.Component("feedly"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")
	c.rootURL = c.baseURL + "/" + c.apiVersion
	return c
}

// User returns the user the client acts for.
func (c *Client) User() models.User {
	return c.user
}

// RootURL is the versioned API root, e.g. https://cloud.feedly.com/v3.
func (c *Client) RootURL() string {
	return c.rootURL
}

type request struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
	noAuth bool
	// absolute URL, bypasses rootURL
	rawURL string
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: rate limit: %w", r.op, err)
		}
	}

	var reader io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", r.op, err)
		}
		reader = bytes.NewReader(data)
	}

	target := r.rawURL
	if target == "" {
		target = c.rootURL + r.path
	}
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", r.op, err)
	}
	req.Header.Set("User-Agent", userAgent)
	if !r.noAuth {
		req.Header.Set("Authorization", "OAuth "+c.user.AuthToken)
	}
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	endpoint := r.method + " " + r.path
	log := c.log.WithFields(logger.Fields{
		"method": r.method,
		"path":   r.path,
	})

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.observe(endpoint, 0, elapsed)
		log.WithError(err).Debug("Feedly request failed")
		return fmt.Errorf("%s: %w", r.op, err)
	}
	defer resp.Body.Close()

	c.observe(endpoint, resp.StatusCode, elapsed)
	log.WithFields(logger.Fields{
		"status":   resp.StatusCode,
		"duration": elapsed,
	}).Debug("Feedly request")

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return &APIError{Op: r.op, StatusCode: resp.StatusCode}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", r.op, err)
	}
	return nil
}

func (c *Client) observe(endpoint string, status int, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveRequest(endpoint, status, d)
	}
}
