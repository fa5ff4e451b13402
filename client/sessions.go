package client

import (
	"context"
	"fmt"
	"log/slog"

	zendfi "github.com/zendfi/zendfi-go"
	"github.com/zendfi/zendfi-go/validation"
)

// CreateSessionParams configures a new agent session.
type CreateSessionParams struct {
	// AgentID identifies the agent. Required.
	AgentID string

	// AgentName is the human-readable name. Defaults to "ZendFi Agent (<id>)".
	AgentName string

	// UserWallet is the user's Solana wallet address. Required.
	UserWallet string

	// Limits are the spending limits. Defaults to zendfi.DefaultSessionLimits.
	Limits *zendfi.SessionLimits

	// DurationHours is the session validity (1-168 hours, default: 24).
	DurationHours int

	// AllowedMerchants restricts payments to specific merchant IDs.
	AllowedMerchants []string
}

// CreateAgentSession creates a server-managed session with spending limits.
// This is the recommended model for server-side agents: no client-side
// cryptography is involved, and the returned session token authorizes
// payments up to the limits.
func (c *Client) CreateAgentSession(ctx context.Context, params CreateSessionParams) (*zendfi.AgentSession, error) {
	if params.AgentID == "" {
		return nil, fmt.Errorf("%w: agent ID required", zendfi.ErrValidation)
	}
	if err := validation.ValidateWalletAddress(params.UserWallet); err != nil {
		return nil, fmt.Errorf("%w: %v", zendfi.ErrValidation, err)
	}

	if params.DurationHours == 0 {
		params.DurationHours = 24
	}
	if err := validation.ValidateDurationHours(params.DurationHours); err != nil {
		return nil, fmt.Errorf("%w: %v", zendfi.ErrValidation, err)
	}

	limits := zendfi.DefaultSessionLimits()
	if params.Limits != nil {
		limits = *params.Limits
	}

	name := params.AgentName
	if name == "" {
		name = fmt.Sprintf("ZendFi Agent (%s)", params.AgentID)
	}

	req := zendfi.CreateSessionRequest{
		AgentID:          params.AgentID,
		AgentName:        name,
		UserWallet:       params.UserWallet,
		Limits:           limits,
		AllowedMerchants: params.AllowedMerchants,
		DurationHours:    params.DurationHours,
	}

	var session zendfi.AgentSession
	if err := c.do(ctx, "POST", "/api/v1/ai/sessions", req, &session, ""); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.cachedSession = &session
	c.mu.Unlock()

	c.logger.Info("agent session created",
		slog.String("session_id", session.ID),
		slog.String("agent_id", session.AgentID),
		slog.Float64("max_per_day", session.Limits.MaxPerDay))

	return &session, nil
}

// GetAgentSession fetches an agent session with current limits and spending.
func (c *Client) GetAgentSession(ctx context.Context, sessionID string) (*zendfi.AgentSession, error) {
	var session zendfi.AgentSession
	if err := c.do(ctx, "GET", "/api/v1/ai/sessions/"+sessionID, nil, &session, ""); err != nil {
		return nil, err
	}
	return &session, nil
}

// RevokeAgentSession revokes an agent session. Revocation is immediate and
// permanent.
func (c *Client) RevokeAgentSession(ctx context.Context, sessionID string) error {
	if err := c.do(ctx, "POST", "/api/v1/ai/sessions/"+sessionID+"/revoke", nil, nil, ""); err != nil {
		return err
	}

	c.mu.Lock()
	if c.cachedSession != nil && c.cachedSession.ID == sessionID {
		c.cachedSession = nil
	}
	c.mu.Unlock()

	c.logger.Info("agent session revoked", slog.String("session_id", sessionID))
	return nil
}

// EnsureSession returns the cached session if it is still active, creating
// one otherwise. Auto-created sessions are registered against the wallet
// configured with WithUserWallet and use the client's default agent ID and
// session limit; an unconfigured wallet is an error, never a guess.
func (c *Client) EnsureSession(ctx context.Context) (*zendfi.AgentSession, error) {
	c.mu.Lock()
	cached := c.cachedSession
	c.mu.Unlock()

	if cached != nil && cached.IsActive {
		return cached, nil
	}

	if c.userWallet == "" {
		return nil, fmt.Errorf("%w: user wallet not configured, set client.WithUserWallet", zendfi.ErrValidation)
	}

	limits := zendfi.DefaultSessionLimits()
	limits.MaxPerDay = c.sessionLimitUSD

	return c.CreateAgentSession(ctx, CreateSessionParams{
		AgentID:    c.defaultAgentID,
		UserWallet: c.userWallet,
		Limits:     &limits,
	})
}
