package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	zendfi "github.com/zendfi/zendfi-go"
	"github.com/zendfi/zendfi-go/signer"
	"github.com/zendfi/zendfi-go/validation"
)

// Autonomy manages autonomous delegates. An autonomous delegate lets the
// backend execute payments within a signed spending limit while the client
// is offline; every payment produces a signed spending attestation that can
// be verified locally.
type Autonomy struct {
	client *Client
}

// ValidateEnableRequest checks an autonomy request before it is sent.
func ValidateEnableRequest(req zendfi.EnableAutonomyRequest) error {
	if err := validation.ValidateAmountUSD(req.MaxAmountUSD); err != nil {
		return fmt.Errorf("%w: max amount %v", zendfi.ErrValidation, err)
	}
	if err := validation.ValidateDurationHours(req.DurationHours); err != nil {
		return fmt.Errorf("%w: %v", zendfi.ErrValidation, err)
	}
	if req.DelegationSignature == "" {
		return fmt.Errorf("%w: delegation signature required", zendfi.ErrValidation)
	}
	if err := validation.ValidateBase64(req.DelegationSignature); err != nil {
		return fmt.Errorf("%w: delegation signature %v", zendfi.ErrValidation, err)
	}
	return nil
}

// ExpiresAfter returns the expiry instant for a delegation lasting the
// given number of hours, truncated to whole seconds so the delegation
// message and the enable request encode the same timestamp.
func ExpiresAfter(hours int) time.Time {
	return time.Now().Add(time.Duration(hours) * time.Hour).UTC().Truncate(time.Second)
}

// Enable turns on autonomous mode for a session key. The request must carry
// a delegation signature produced by the session key itself; see
// SessionKeys.SignDelegation.
func (a *Autonomy) Enable(ctx context.Context, sessionKeyID string, req zendfi.EnableAutonomyRequest) (*zendfi.AutonomousDelegate, error) {
	if sessionKeyID == "" {
		return nil, fmt.Errorf("%w: session key ID required", zendfi.ErrValidation)
	}
	if err := ValidateEnableRequest(req); err != nil {
		return nil, err
	}

	var delegate zendfi.AutonomousDelegate
	path := "/api/v1/ai/session-keys/" + sessionKeyID + "/enable-autonomy"
	if err := a.client.do(ctx, "POST", path, req, &delegate, ""); err != nil {
		return nil, err
	}

	a.client.logger.Info("autonomous mode enabled",
		slog.String("session_key_id", sessionKeyID),
		slog.String("delegate_id", delegate.DelegateID),
		slog.Float64("max_amount_usd", delegate.MaxAmountUSD))

	return &delegate, nil
}

// Revoke disables autonomous mode for a session key. The session key itself
// stays active; only the delegation is withdrawn.
func (a *Autonomy) Revoke(ctx context.Context, sessionKeyID, reason string) error {
	if sessionKeyID == "" {
		return fmt.Errorf("%w: session key ID required", zendfi.ErrValidation)
	}

	body := map[string]string{}
	if reason != "" {
		body["reason"] = reason
	}

	path := "/api/v1/ai/session-keys/" + sessionKeyID + "/revoke-autonomy"
	if err := a.client.do(ctx, "POST", path, body, nil, ""); err != nil {
		return err
	}

	a.client.logger.Info("autonomous mode revoked", slog.String("session_key_id", sessionKeyID))
	return nil
}

// Status returns the autonomy state of a session key, including the active
// delegate's spending progress when one exists.
func (a *Autonomy) Status(ctx context.Context, sessionKeyID string) (*zendfi.AutonomyStatus, error) {
	if sessionKeyID == "" {
		return nil, fmt.Errorf("%w: session key ID required", zendfi.ErrValidation)
	}

	var status zendfi.AutonomyStatus
	path := "/api/v1/ai/session-keys/" + sessionKeyID + "/autonomy-status"
	if err := a.client.do(ctx, "GET", path, nil, &status, ""); err != nil {
		return nil, err
	}
	status.SessionKeyID = sessionKeyID
	return &status, nil
}

// Attestations fetches the signed spending attestation trail for a delegate.
func (a *Autonomy) Attestations(ctx context.Context, delegateID string) (*zendfi.AttestationAudit, error) {
	if delegateID == "" {
		return nil, fmt.Errorf("%w: delegate ID required", zendfi.ErrValidation)
	}

	var audit zendfi.AttestationAudit
	if err := a.client.do(ctx, "GET", "/api/v1/ai/delegates/"+delegateID+"/attestations", nil, &audit, ""); err != nil {
		return nil, err
	}
	return &audit, nil
}

// VerifyAttestation checks a signed attestation against its embedded signer
// public key. Verification is fail-closed: any encoding or signature problem
// reports false.
func (a *Autonomy) VerifyAttestation(signed zendfi.SignedSpendingAttestation) bool {
	return VerifyAttestation(signed)
}

// VerifyAttestation verifies the Ed25519 signature of a spending attestation
// over its canonical JSON encoding.
func VerifyAttestation(signed zendfi.SignedSpendingAttestation) bool {
	canonical, err := json.Marshal(signed.Attestation)
	if err != nil {
		return false
	}
	return signer.VerifyBase64(signed.SignerPublicKey, canonical, signed.Signature)
}
