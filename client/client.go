// Package client implements the ZendFi API client.
//
// The client speaks to the Agentic Intent Protocol REST API: agent sessions,
// smart payments, device-bound session keys, autonomy delegation, pricing,
// and the agent marketplace. Transport errors are retried with exponential
// backoff; API errors and anything cryptographic are never retried.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	zendfi "github.com/zendfi/zendfi-go"
	"github.com/zendfi/zendfi-go/retry"
	"github.com/zendfi/zendfi-go/shard"
	"github.com/zendfi/zendfi-go/validation"
)

// Client is a ZendFi API client. Construct it with New; the zero value is
// not usable.
type Client struct {
	apiKey     string
	baseURL    string
	mode       zendfi.Mode
	httpClient *http.Client
	timeouts   zendfi.TimeoutConfig
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
	onPayment  zendfi.PaymentCallback

	defaultAgentID  string
	sessionLimitUSD float64
	userWallet      string

	mu            sync.Mutex
	cachedSession *zendfi.AgentSession

	// SessionKeys manages device-bound session keys.
	SessionKeys *SessionKeys

	// Autonomy manages autonomous delegates for session keys.
	Autonomy *Autonomy

	// Shard is the key-shard encryption service client, used when creating
	// session keys with autonomous signing enabled.
	Shard *shard.Client
}

// Option configures a Client.
type Option func(*Client) error

// New creates a ZendFi client for the given API key.
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key required", zendfi.ErrAuthentication)
	}

	c := &Client{
		apiKey:          apiKey,
		baseURL:         zendfi.DefaultBaseURL,
		mode:            zendfi.ModeTest,
		httpClient:      &http.Client{},
		timeouts:        zendfi.DefaultTimeouts,
		maxRetries:      2,
		retryDelay:      500 * time.Millisecond,
		logger:          slog.Default(),
		defaultAgentID:  "zendfi-agent",
		sessionLimitUSD: 10,
		Shard:           &shard.Client{},
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if err := c.mode.Validate(); err != nil {
		return nil, err
	}
	if err := c.timeouts.Validate(); err != nil {
		return nil, err
	}

	c.SessionKeys = &SessionKeys{client: c, keys: make(map[string]*SessionKey)}
	c.Autonomy = &Autonomy{client: c}
	c.Shard.Logger = c.logger

	c.logger.Debug("zendfi client initialized",
		slog.String("mode", string(c.mode)),
		slog.String("cluster", c.mode.Cluster()),
		slog.String("base_url", c.baseURL))

	return c, nil
}

// WithMode sets the network mode (test or live).
func WithMode(mode zendfi.Mode) Option {
	return func(c *Client) error {
		if err := mode.Validate(); err != nil {
			return err
		}
		c.mode = mode
		return nil
	}
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) error {
		if baseURL == "" {
			return fmt.Errorf("base URL cannot be empty")
		}
		c.baseURL = strings.TrimRight(baseURL, "/")
		return nil
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("http client cannot be nil")
		}
		c.httpClient = hc
		return nil
	}
}

// WithTimeouts sets the timeout configuration.
func WithTimeouts(tc zendfi.TimeoutConfig) Option {
	return func(c *Client) error {
		if err := tc.Validate(); err != nil {
			return err
		}
		c.timeouts = tc
		return nil
	}
}

// WithMaxRetries sets the retry count for transport failures (default: 2).
func WithMaxRetries(n int) Option {
	return func(c *Client) error {
		if n < 0 {
			return fmt.Errorf("max retries cannot be negative")
		}
		c.maxRetries = n
		return nil
	}
}

// WithRetryDelay sets the initial backoff delay between retries.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("retry delay must be positive")
		}
		c.retryDelay = d
		return nil
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// WithPaymentCallback registers a callback for payment lifecycle events.
func WithPaymentCallback(cb zendfi.PaymentCallback) Option {
	return func(c *Client) error {
		c.onPayment = cb
		return nil
	}
}

// WithDefaultAgentID sets the agent ID used by convenience methods.
func WithDefaultAgentID(agentID string) Option {
	return func(c *Client) error {
		if agentID == "" {
			return fmt.Errorf("agent ID cannot be empty")
		}
		c.defaultAgentID = agentID
		return nil
	}
}

// WithUserWallet sets the user's own Solana wallet. Auto-created sessions
// (EnsureSession, Pay) are registered against this wallet; without it those
// paths fail with a validation error rather than guessing a wallet.
func WithUserWallet(wallet string) Option {
	return func(c *Client) error {
		if err := validation.ValidateWalletAddress(wallet); err != nil {
			return fmt.Errorf("%w: user wallet %v", zendfi.ErrValidation, err)
		}
		c.userWallet = wallet
		return nil
	}
}

// WithSessionLimit sets the daily spending limit for auto-created sessions.
func WithSessionLimit(usd float64) Option {
	return func(c *Client) error {
		if usd <= 0 {
			return fmt.Errorf("session limit must be positive")
		}
		c.sessionLimitUSD = usd
		return nil
	}
}

// WithShardService overrides the key-shard encryption service endpoint.
func WithShardService(baseURL string) Option {
	return func(c *Client) error {
		c.Shard = &shard.Client{BaseURL: baseURL}
		return nil
	}
}

// Mode returns the client's network mode.
func (c *Client) Mode() zendfi.Mode {
	return c.mode
}

// do executes an API request. Only transport failures are retried;
// API-level errors surface immediately as *zendfi.APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, idempotencyKey string) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	config := retry.Config{
		MaxAttempts:  c.maxRetries + 1,
		InitialDelay: c.retryDelay,
		MaxDelay:     c.retryDelay * 8,
		Multiplier:   2.0,
	}

	_, err := retry.WithRetry(ctx, config, isTransportError, func() (struct{}, error) {
		return struct{}{}, c.doOnce(ctx, method, path, payload, out, idempotencyKey)
	})
	return err
}

func (c *Client) doOnce(ctx context.Context, method, path string, payload []byte, out interface{}, idempotencyKey string) error {
	reqCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.timeouts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.timeouts.RequestTimeout)
		defer cancel()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "zendfi-go/"+zendfi.SDKVersion)
	req.Header.Set("X-ZendFi-SDK", "go/"+zendfi.SDKVersion)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("X-Idempotency-Key", idempotencyKey)
	}

	c.logger.Debug("api request", slog.String("method", method), slog.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", zendfi.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.parseErrorResponse(resp, path)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// parseErrorResponse maps an error response to the sentinel taxonomy.
func (c *Client) parseErrorResponse(resp *http.Response, path string) error {
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var errBody struct {
		Message   string                 `json:"message"`
		Error     string                 `json:"error"`
		Code      zendfi.ErrorCode       `json:"code"`
		ErrorCode zendfi.ErrorCode       `json:"error_code"`
		Details   map[string]interface{} `json:"details"`
	}
	_ = json.Unmarshal(bodyBytes, &errBody)

	message := errBody.Message
	if message == "" {
		message = errBody.Error
	}
	if message == "" {
		message = fmt.Sprintf("unknown error (status %d)", resp.StatusCode)
	}

	code := errBody.Code
	if code == "" {
		code = errBody.ErrorCode
	}

	apiErr := mapAPIError(resp.StatusCode, code, message, path)
	apiErr.Details = errBody.Details

	c.logger.Debug("api error",
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.String("code", string(apiErr.Code)))

	return apiErr
}

func mapAPIError(status int, code zendfi.ErrorCode, message, path string) *zendfi.APIError {
	switch {
	case status == http.StatusUnauthorized:
		if code == "" {
			code = zendfi.ErrCodeAuthentication
		}
		return zendfi.NewAPIError(status, code, message, zendfi.ErrAuthentication)

	case status == http.StatusNotFound:
		if strings.Contains(strings.ToLower(message), "session") || strings.Contains(path, "session") {
			if code == "" {
				code = zendfi.ErrCodeSessionKeyNotFound
			}
			return zendfi.NewAPIError(status, code, message, zendfi.ErrSessionKeyNotFound)
		}
		return zendfi.NewAPIError(status, code, message, zendfi.ErrAPIFailure)

	case status == http.StatusTooManyRequests:
		if code == "" {
			code = zendfi.ErrCodeRateLimited
		}
		return zendfi.NewAPIError(status, code, message, zendfi.ErrRateLimited)

	case status == http.StatusBadRequest:
		if code == "" {
			code = zendfi.ErrCodeValidation
		}
		return zendfi.NewAPIError(status, code, message, zendfi.ErrValidation)

	case code == zendfi.ErrCodeInsufficientBalance:
		return zendfi.NewAPIError(status, code, message, zendfi.ErrInsufficientBalance)

	case code == zendfi.ErrCodeSessionExpired:
		return zendfi.NewAPIError(status, code, message, zendfi.ErrSessionExpired)

	default:
		return zendfi.NewAPIError(status, code, message, zendfi.ErrAPIFailure)
	}
}

func isTransportError(err error) bool {
	return errors.Is(err, zendfi.ErrNetwork)
}

// emit delivers a payment event to the registered callback, if any.
func (c *Client) emit(event zendfi.PaymentEvent) {
	if c.onPayment == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	c.onPayment(event)
}
