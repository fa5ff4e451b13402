package zendfi

import (
	"fmt"
	"time"
)

// Mode selects the Solana cluster the backend settles payments on.
type Mode string

const (
	// ModeTest settles on Solana devnet.
	ModeTest Mode = "test"

	// ModeLive settles on Solana mainnet-beta.
	ModeLive Mode = "live"
)

// Cluster returns the Solana cluster name for this mode.
func (m Mode) Cluster() string {
	switch m {
	case ModeLive:
		return "mainnet-beta"
	default:
		return "devnet"
	}
}

// Validate ensures the mode is one of the enumerated values.
func (m Mode) Validate() error {
	switch m {
	case ModeTest, ModeLive:
		return nil
	default:
		return fmt.Errorf("invalid mode %q (expected %q or %q)", string(m), ModeTest, ModeLive)
	}
}

// KeyPrefix returns the API key prefix expected for this mode.
func (m Mode) KeyPrefix() string {
	if m == ModeLive {
		return "zk_live_"
	}
	return "zk_test_"
}

// TimeoutConfig holds timeout configuration for API operations.
type TimeoutConfig struct {
	// RequestTimeout is the per-request timeout for standard API calls.
	RequestTimeout time.Duration

	// PaymentTimeout is the timeout for payment submission and confirmation.
	PaymentTimeout time.Duration

	// ShardTimeout is the timeout for the key-shard encryption service.
	ShardTimeout time.Duration
}

// DefaultTimeouts provides sensible defaults for API operations.
var DefaultTimeouts = TimeoutConfig{
	RequestTimeout: 30 * time.Second,
	PaymentTimeout: 60 * time.Second,
	ShardTimeout:   30 * time.Second,
}

// WithRequestTimeout returns a new TimeoutConfig with updated request timeout.
func (tc TimeoutConfig) WithRequestTimeout(d time.Duration) TimeoutConfig {
	tc.RequestTimeout = d
	return tc
}

// WithPaymentTimeout returns a new TimeoutConfig with updated payment timeout.
func (tc TimeoutConfig) WithPaymentTimeout(d time.Duration) TimeoutConfig {
	tc.PaymentTimeout = d
	return tc
}

// WithShardTimeout returns a new TimeoutConfig with updated shard timeout.
func (tc TimeoutConfig) WithShardTimeout(d time.Duration) TimeoutConfig {
	tc.ShardTimeout = d
	return tc
}

// Validate ensures timeout values are reasonable.
func (tc TimeoutConfig) Validate() error {
	if tc.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %v", tc.RequestTimeout)
	}
	if tc.PaymentTimeout <= 0 {
		return fmt.Errorf("payment timeout must be positive, got %v", tc.PaymentTimeout)
	}
	if tc.ShardTimeout <= 0 {
		return fmt.Errorf("shard timeout must be positive, got %v", tc.ShardTimeout)
	}
	if tc.PaymentTimeout < tc.RequestTimeout {
		return fmt.Errorf("payment timeout (%v) should be >= request timeout (%v)",
			tc.PaymentTimeout, tc.RequestTimeout)
	}
	return nil
}
