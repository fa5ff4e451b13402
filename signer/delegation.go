package signer

import (
	"fmt"
	"time"

	zendfi "github.com/zendfi/zendfi-go"
)

// Delegation describes a spending authorization for an autonomous delegate.
type Delegation struct {
	// SessionKeyID is the UUID of the session key being delegated.
	SessionKeyID string

	// MaxAmountUSD is the total spending cap for the delegate.
	MaxAmountUSD float64

	// ExpiresAt is when the delegation expires.
	ExpiresAt time.Time
}

// Message returns the canonical delegation message. The backend verifies the
// delegation signature against exactly these bytes, so the format is fixed:
// amounts render with two decimals and timestamps as RFC 3339 UTC. Identical
// fields always produce identical messages.
func (d Delegation) Message() string {
	return fmt.Sprintf("I authorize autonomous delegate for session %s to spend up to $%.2f until %s",
		d.SessionKeyID, d.MaxAmountUSD, d.ExpiresAt.UTC().Format(time.RFC3339))
}

// Bytes returns the canonical message encoding to be signed.
func (d Delegation) Bytes() []byte {
	return []byte(d.Message())
}

// SignDelegation signs the canonical delegation message and returns the
// base64-encoded signature. The signature is verified against the keypair's
// own public key before it is returned, so a corrupt signature can never
// reach the backend.
func SignDelegation(k *Keypair, d Delegation) (string, error) {
	message := d.Bytes()

	sig, err := k.SignBase64(message)
	if err != nil {
		return "", err
	}

	if !VerifyBase64(k.PublicKey(), message, sig) {
		return "", fmt.Errorf("%w: delegation signature failed self-verification", zendfi.ErrSigningFailed)
	}

	return sig, nil
}
