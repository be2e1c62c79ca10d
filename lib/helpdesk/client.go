// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package helpdesk

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bureau-foundation/helpdesk/lib/clock"
	"github.com/bureau-foundation/helpdesk/lib/netutil"
)

// Config holds configuration for creating an upstream API Client.
//
// Exactly one authentication mode must be configured:
//   - API token authentication: set Email and APIToken
//   - OAuth authentication: set OAuthToken
type Config struct {
	// BaseURL is the root URL of the upstream instance, e.g.
	// "https://acme.zendesk.com". Required. Must use HTTPS.
	BaseURL string

	// Email is the agent email for API token auth. Required for token
	// auth, unused for OAuth.
	Email string

	// APIToken is the upstream API token. Required for token auth.
	// Mutually exclusive with OAuthToken.
	APIToken string

	// OAuthToken is an OAuth access token. Mutually exclusive with
	// Email+APIToken.
	OAuthToken string

	// HTTPClient is used for all HTTP requests. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client

	// Clock provides time operations. Defaults to clock.Real().
	// Inject clock.Fake() in tests for deterministic behavior.
	Clock clock.Clock

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Client is a typed upstream ticketing API client with automatic
// authentication, rate limit backoff, and structured error handling.
type Client struct {
	baseURL    string
	httpClient *http.Client
	email      string
	apiToken   string
	oauthToken string
	clock      clock.Clock
	logger     *slog.Logger
}

// NewClient creates an upstream API client from the given configuration.
// Returns an error if the configuration is invalid (bad auth config,
// missing or non-HTTPS URL).
func NewClient(config Config) (*Client, error) {
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("helpdesk: BaseURL is required (the upstream instance URL)")
	}
	if !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("helpdesk: API client requires HTTPS (got %q)", baseURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Validate auth configuration: exactly one mode.
	hasToken := config.Email != "" || config.APIToken != ""
	hasOAuth := config.OAuthToken != ""

	if hasToken && hasOAuth {
		return nil, fmt.Errorf("helpdesk: cannot configure both API token auth and OAuth")
	}
	if !hasToken && !hasOAuth {
		return nil, fmt.Errorf("helpdesk: no authentication configured (set Email+APIToken or OAuthToken)")
	}
	if hasToken {
		if config.Email == "" {
			return nil, fmt.Errorf("helpdesk: Email is required for API token auth")
		}
		if config.APIToken == "" {
			return nil, fmt.Errorf("helpdesk: APIToken is required for API token auth")
		}
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		email:      config.Email,
		apiToken:   config.APIToken,
		oauthToken: config.OAuthToken,
		clock:      clk,
		logger:     logger,
	}, nil
}

// authorize sets the request's Authorization header for the configured
// auth mode. The upstream's API token scheme is basic auth with
// "email/token" as the username and the token as the password.
func (client *Client) authorize(request *http.Request) {
	if client.oauthToken != "" {
		request.Header.Set("Authorization", "Bearer "+client.oauthToken)
		return
	}
	request.SetBasicAuth(client.email+"/token", client.apiToken)
}

// do executes an authenticated GET against a path relative to the base
// URL and returns the response body. On 429 it retries once after the
// Retry-After backoff; on any other non-2xx response it returns an
// *APIError.
func (client *Client) do(ctx context.Context, path string) ([]byte, error) {
	return client.doWithRetry(ctx, path, false)
}

// doWithRetry is do's body with a retry flag to prevent unbounded
// recursion on persistent rate limiting.
func (client *Client) doWithRetry(ctx context.Context, path string, isRetry bool) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, client.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("helpdesk: creating request: %w", err)
	}
	client.authorize(request)
	request.Header.Set("Accept", "application/json")

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("helpdesk: GET %s: %w", path, err)
	}
	defer response.Body.Close()

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return nil, fmt.Errorf("helpdesk: reading response body: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		if !isRetry && response.StatusCode == http.StatusTooManyRequests {
			backoff := retryAfter(response.Header)
			if backoff > 0 {
				client.logger.Info("rate limited, backing off",
					"duration", backoff,
					"path", path,
				)
				select {
				case <-client.clock.After(backoff):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
				return client.doWithRetry(ctx, path, true)
			}
		}
		return nil, parseAPIError(response.StatusCode, body)
	}

	return body, nil
}

// get executes a GET request and decodes the JSON response into result.
func (client *Client) get(ctx context.Context, path string, result any) error {
	body, err := client.do(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("helpdesk: decoding response from %s: %w", path, err)
	}
	return nil
}

// retryAfter computes the backoff from a rate-limited response's
// Retry-After header (seconds). Returns zero if the header is absent or
// malformed.
func retryAfter(header http.Header) time.Duration {
	retryStr := header.Get("Retry-After")
	if retryStr == "" {
		return 0
	}
	seconds, err := strconv.Atoi(retryStr)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
