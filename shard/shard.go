// Package shard is a client for the key-shard encryption microservice.
//
// The service encrypts a session secret key under threshold custody so the
// backend can sign on the client's behalf when autonomy is enabled. The SDK
// never performs this encryption itself; it only submits the key and relays
// the resulting ciphertext and data hash to the ZendFi API.
package shard

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// DefaultBaseURL is the hosted shard encryption service.
const DefaultBaseURL = "https://lit-service.zendfi.tech"

var (
	// ErrUnavailable indicates the shard service cannot be reached or is not
	// connected to its network.
	ErrUnavailable = errors.New("shard: encryption service unavailable")

	// ErrEncryptFailed indicates the service rejected the encryption request.
	ErrEncryptFailed = errors.New("shard: encryption failed")
)

// EncryptionResult is the ciphertext envelope returned by the service.
type EncryptionResult struct {
	Ciphertext string `json:"ciphertext"`
	DataHash   string `json:"dataHash"`
}

// Client talks to the shard encryption service.
type Client struct {
	// BaseURL is the service endpoint. Defaults to DefaultBaseURL.
	BaseURL string

	// HTTPClient is the HTTP client used for requests. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client

	// Logger logs service interactions. Defaults to slog.Default().
	Logger *slog.Logger
}

func (c *Client) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return DefaultBaseURL
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Health checks that the service is reachable and connected to its network.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL()+"/health", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var health struct {
		Connected bool   `json:"connected"`
		Status    string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !health.Connected {
		return fmt.Errorf("%w: service not connected (status: %s)", ErrUnavailable, health.Status)
	}

	return nil
}

// Encrypt submits a 64-byte session secret key for shard encryption.
// The service is health-checked first so a dead service fails fast.
func (c *Client) Encrypt(ctx context.Context, secretKey []byte) (*EncryptionResult, error) {
	if err := c.Health(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]string{
		"secret_key_base64": base64.StdEncoding.EncodeToString(secretKey),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL()+"/encrypt", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrEncryptFailed, resp.StatusCode)
	}

	var result struct {
		Ciphertext string `json:"ciphertext"`
		DataHash   string `json:"dataHash"`
		Error      string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptFailed, err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrEncryptFailed, result.Error)
	}
	if result.Ciphertext == "" || result.DataHash == "" {
		return nil, fmt.Errorf("%w: incomplete response", ErrEncryptFailed)
	}

	c.logger().Debug("shard encryption complete",
		slog.String("service", c.baseURL()),
		slog.Int("ciphertext_len", len(result.Ciphertext)))

	return &EncryptionResult{
		Ciphertext: result.Ciphertext,
		DataHash:   result.DataHash,
	}, nil
}
