package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	zendfi "github.com/zendfi/zendfi-go"
	"github.com/zendfi/zendfi-go/keystore"
	"github.com/zendfi/zendfi-go/signer"
	"github.com/zendfi/zendfi-go/validation"
)

// DefaultUnlockTTL is how long an unlocked keypair stays cached in memory.
const DefaultUnlockTTL = 30 * time.Minute

// SessionKey is a device-bound session key. The keypair is generated locally
// and only the encrypted envelope ever reaches the backend; signing requires
// the PIN unless the key is unlocked.
type SessionKey struct {
	id          string
	encrypted   *keystore.EncryptedKey
	fingerprint string

	mu          sync.Mutex
	cached      *signer.Keypair
	cacheExpiry time.Time
}

// ID returns the backend session key identifier.
func (sk *SessionKey) ID() string {
	return sk.id
}

// PublicKey returns the session wallet address (base58).
func (sk *SessionKey) PublicKey() string {
	return sk.encrypted.PublicKey
}

// IsUnlocked reports whether a decrypted keypair is cached and unexpired.
func (sk *SessionKey) IsUnlocked() bool {
	sk.mu.Lock()
	defer sk.mu.Unlock()
	return sk.cached != nil && time.Now().Before(sk.cacheExpiry)
}

// Unlock decrypts the keypair with the PIN and caches it for ttl, so
// subsequent signing needs no PIN. A ttl of zero uses DefaultUnlockTTL.
func (sk *SessionKey) Unlock(pin string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultUnlockTTL
	}

	kp, err := keystore.Decrypt(sk.encrypted, pin, sk.fingerprint)
	if err != nil {
		return err
	}

	sk.mu.Lock()
	sk.cached = kp
	sk.cacheExpiry = time.Now().Add(ttl)
	sk.mu.Unlock()
	return nil
}

// Lock clears the cached keypair.
func (sk *SessionKey) Lock() {
	sk.mu.Lock()
	sk.cached = nil
	sk.cacheExpiry = time.Time{}
	sk.mu.Unlock()
}

// keypair returns the cached keypair, decrypting with the PIN if needed.
func (sk *SessionKey) keypair(pin string) (*signer.Keypair, error) {
	sk.mu.Lock()
	if sk.cached != nil && time.Now().Before(sk.cacheExpiry) {
		kp := sk.cached
		sk.mu.Unlock()
		return kp, nil
	}
	sk.mu.Unlock()

	if pin == "" {
		return nil, zendfi.ErrKeyLocked
	}
	return keystore.Decrypt(sk.encrypted, pin, sk.fingerprint)
}

// Sign signs a message with the session key. The PIN is only needed when
// the key is locked.
func (sk *SessionKey) Sign(message []byte, pin string) ([]byte, error) {
	kp, err := sk.keypair(pin)
	if err != nil {
		return nil, err
	}
	return kp.Sign(message)
}

// SignBase64 signs a message and returns the base64-encoded signature.
func (sk *SessionKey) SignBase64(message []byte, pin string) (string, error) {
	kp, err := sk.keypair(pin)
	if err != nil {
		return "", err
	}
	return kp.SignBase64(message)
}

// SessionKeys manages device-bound session keys for a client.
type SessionKeys struct {
	client *Client

	mu   sync.Mutex
	keys map[string]*SessionKey
}

// CreateSessionKeyOptions configures a new device-bound session key.
type CreateSessionKeyOptions struct {
	// UserWallet is the user's main Solana wallet. Required.
	UserWallet string

	// AgentID identifies the agent. Required. Creating a second key for the
	// same agent returns the existing key, which fails with ErrWalletMismatch
	// because it cannot match the freshly generated keypair.
	AgentID string

	// AgentName is the human-readable name.
	AgentName string

	// LimitUSDC is the spending limit in USDC. Required.
	LimitUSDC float64

	// DurationDays is the validity period (1-30 days, default: 7).
	DurationDays int

	// PIN encrypts the keypair. Exactly six numeric digits. Required.
	PIN string

	// EnableShardEncryption additionally encrypts the keypair with the
	// key-shard service so the backend can sign while the client is offline.
	EnableShardEncryption bool
}

// Create generates a keypair locally, encrypts it with the PIN and device
// fingerprint, and registers the envelope with the backend. The private key
// never leaves the process in cleartext.
func (s *SessionKeys) Create(ctx context.Context, opts CreateSessionKeyOptions) (*zendfi.SessionKeyRecord, error) {
	if err := validation.ValidateWalletAddress(opts.UserWallet); err != nil {
		return nil, fmt.Errorf("%w: %v", zendfi.ErrValidation, err)
	}
	if opts.AgentID == "" {
		return nil, fmt.Errorf("%w: agent ID required", zendfi.ErrValidation)
	}
	if err := validation.ValidateAmountUSD(opts.LimitUSDC); err != nil {
		return nil, fmt.Errorf("%w: limit %v", zendfi.ErrValidation, err)
	}
	if opts.DurationDays == 0 {
		opts.DurationDays = 7
	}
	if err := validation.ValidateDurationDays(opts.DurationDays); err != nil {
		return nil, fmt.Errorf("%w: %v", zendfi.ErrValidation, err)
	}
	if err := validation.ValidatePIN(opts.PIN); err != nil {
		return nil, fmt.Errorf("%w: %v", zendfi.ErrValidation, err)
	}

	fingerprint := keystore.DeviceFingerprint().Fingerprint

	kp, err := signer.Generate()
	if err != nil {
		return nil, err
	}

	encrypted, err := keystore.Encrypt(kp, opts.PIN, fingerprint)
	if err != nil {
		return nil, err
	}

	name := opts.AgentName
	if name == "" {
		name = fmt.Sprintf("ZendFi Agent (%s)", opts.AgentID)
	}

	body := map[string]interface{}{
		"user_wallet":           opts.UserWallet,
		"agent_id":              opts.AgentID,
		"agent_name":            name,
		"limit_usdc":            opts.LimitUSDC,
		"duration_days":         opts.DurationDays,
		"encrypted_session_key": encrypted.EncryptedData,
		"nonce":                 encrypted.Nonce,
		"session_public_key":    encrypted.PublicKey,
		"device_fingerprint":    fingerprint,
	}

	// Shard encryption is slow (threshold network round-trips), so it only
	// runs when explicitly requested.
	if opts.EnableShardEncryption {
		shardCtx := ctx
		if _, hasDeadline := ctx.Deadline(); !hasDeadline && s.client.timeouts.ShardTimeout > 0 {
			var cancel context.CancelFunc
			shardCtx, cancel = context.WithTimeout(ctx, s.client.timeouts.ShardTimeout)
			defer cancel()
		}
		result, err := s.client.Shard.Encrypt(shardCtx, kp.SecretKey())
		if err != nil {
			s.client.logger.Warn("shard encryption unavailable, falling back to client signing",
				slog.String("error", err.Error()))
		} else {
			body["lit_encrypted_keypair"] = result.Ciphertext
			body["lit_data_hash"] = result.DataHash
		}
	}

	var record zendfi.SessionKeyRecord
	if err := s.client.do(ctx, "POST", "/api/v1/ai/session-keys/device-bound/create", body, &record, ""); err != nil {
		return nil, err
	}

	// The backend returns an existing key when one is already registered for
	// this agent. Its wallet cannot match the keypair generated above, and
	// signing with the local key would produce invalid payments.
	if record.SessionWallet != "" && record.SessionWallet != kp.PublicKey() {
		return nil, fmt.Errorf("%w: agent %q already has session key %s; load it with its PIN or use a unique agent ID",
			zendfi.ErrWalletMismatch, opts.AgentID, record.SessionKeyID)
	}

	sk := &SessionKey{
		id:          record.SessionKeyID,
		encrypted:   encrypted,
		fingerprint: fingerprint,
		cached:      kp,
		cacheExpiry: time.Now().Add(DefaultUnlockTTL),
	}

	s.mu.Lock()
	s.keys[record.SessionKeyID] = sk
	s.mu.Unlock()

	s.client.logger.Info("session key created",
		slog.String("session_key_id", record.SessionKeyID),
		slog.String("session_wallet", record.SessionWallet))

	return &record, nil
}

// Load fetches the encrypted envelope for an existing session key and
// decrypts it with the PIN. Use this when resuming on the same device.
func (s *SessionKeys) Load(ctx context.Context, sessionKeyID, pin string) (*SessionKey, error) {
	fingerprint := keystore.DeviceFingerprint().Fingerprint

	body := map[string]string{
		"session_key_id":     sessionKeyID,
		"device_fingerprint": fingerprint,
	}

	var resp struct {
		EncryptedSessionKey    string `json:"encrypted_session_key"`
		Nonce                  string `json:"nonce"`
		DeviceFingerprintValid *bool  `json:"device_fingerprint_valid"`
	}
	if err := s.client.do(ctx, "POST", "/api/v1/ai/session-keys/device-bound/get-encrypted", body, &resp, ""); err != nil {
		return nil, err
	}

	if resp.DeviceFingerprintValid != nil && !*resp.DeviceFingerprintValid {
		return nil, keystore.ErrFingerprintMismatch
	}

	encrypted := &keystore.EncryptedKey{
		EncryptedData:     resp.EncryptedSessionKey,
		Nonce:             resp.Nonce,
		DeviceFingerprint: fingerprint,
		Version:           keystore.Version,
	}

	// Decrypting verifies the PIN and recovers the session wallet address.
	kp, err := keystore.Decrypt(encrypted, pin, fingerprint)
	if err != nil {
		return nil, err
	}
	encrypted.PublicKey = kp.PublicKey()

	sk := &SessionKey{
		id:          sessionKeyID,
		encrypted:   encrypted,
		fingerprint: fingerprint,
	}

	s.mu.Lock()
	s.keys[sessionKeyID] = sk
	s.mu.Unlock()

	s.client.logger.Info("session key loaded", slog.String("session_key_id", sessionKeyID))
	return sk, nil
}

// Get returns a previously created or loaded session key.
func (s *SessionKeys) Get(sessionKeyID string) (*SessionKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sk, ok := s.keys[sessionKeyID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", zendfi.ErrKeyNotLoaded, sessionKeyID)
	}
	return sk, nil
}

// Unlock decrypts and caches the keypair for a session key.
func (s *SessionKeys) Unlock(sessionKeyID, pin string, ttl time.Duration) error {
	sk, err := s.Get(sessionKeyID)
	if err != nil {
		return err
	}
	return sk.Unlock(pin, ttl)
}

// Lock clears the cached keypair for a session key.
func (s *SessionKeys) Lock(sessionKeyID string) {
	s.mu.Lock()
	sk := s.keys[sessionKeyID]
	s.mu.Unlock()

	if sk != nil {
		sk.Lock()
	}
}

// Sign signs a message with a session key.
func (s *SessionKeys) Sign(sessionKeyID string, message []byte, pin string) ([]byte, error) {
	sk, err := s.Get(sessionKeyID)
	if err != nil {
		return nil, err
	}
	return sk.Sign(message, pin)
}

// SignDelegation signs the canonical delegation message for enabling
// autonomy and returns the base64 signature the backend expects.
func (s *SessionKeys) SignDelegation(sessionKeyID string, maxAmountUSD float64, expiresAt time.Time, pin string) (string, error) {
	sk, err := s.Get(sessionKeyID)
	if err != nil {
		return "", err
	}

	kp, err := sk.keypair(pin)
	if err != nil {
		return "", err
	}

	return signer.SignDelegation(kp, signer.Delegation{
		SessionKeyID: sessionKeyID,
		MaxAmountUSD: maxAmountUSD,
		ExpiresAt:    expiresAt,
	})
}

// Status fetches the current backend status of a session key.
func (s *SessionKeys) Status(ctx context.Context, sessionKeyID string) (*zendfi.SessionKeyStatus, error) {
	body := map[string]string{"session_key_id": sessionKeyID}

	var status zendfi.SessionKeyStatus
	if err := s.client.do(ctx, "POST", "/api/v1/ai/session-keys/status", body, &status, ""); err != nil {
		return nil, err
	}
	status.SessionKeyID = sessionKeyID
	return &status, nil
}

// MakePayment executes a payment with a session key. When autonomy is
// enabled the backend signs with its shard; otherwise the payment follows
// the client-signing flow.
func (s *SessionKeys) MakePayment(ctx context.Context, sessionKeyID string, amountUSD float64, recipient, description string) (*zendfi.PaymentResult, error) {
	if err := validation.ValidateAmountUSD(amountUSD); err != nil {
		return nil, fmt.Errorf("%w: %v", zendfi.ErrValidation, err)
	}
	if err := validation.ValidateWalletAddress(recipient); err != nil {
		return nil, fmt.Errorf("%w: %v", zendfi.ErrValidation, err)
	}

	body := map[string]interface{}{
		"session_key_id": sessionKeyID,
		"amount":         amountUSD,
		"recipient":      recipient,
		"description":    description,
	}

	s.client.emit(zendfi.PaymentEvent{
		Type:        zendfi.PaymentEventAttempt,
		AmountUSD:   amountUSD,
		Recipient:   recipient,
		Description: description,
	})

	if _, hasDeadline := ctx.Deadline(); !hasDeadline && s.client.timeouts.PaymentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.client.timeouts.PaymentTimeout)
		defer cancel()
	}

	start := time.Now()
	var result zendfi.PaymentResult
	if err := s.client.do(ctx, "POST", "/api/v1/ai/session-keys/payment", body, &result, ""); err != nil {
		s.client.emit(zendfi.PaymentEvent{
			Type:        zendfi.PaymentEventFailure,
			AmountUSD:   amountUSD,
			Recipient:   recipient,
			Description: description,
			Error:       err,
			Duration:    time.Since(start),
		})
		return nil, err
	}

	s.client.emit(zendfi.PaymentEvent{
		Type:        zendfi.PaymentEventSuccess,
		PaymentID:   result.PaymentID,
		AmountUSD:   amountUSD,
		Recipient:   recipient,
		Description: description,
		Transaction: result.Signature,
		Status:      result.Status,
		Duration:    time.Since(start),
	})

	return &result, nil
}

// Revoke permanently deactivates a session key and drops local state.
func (s *SessionKeys) Revoke(ctx context.Context, sessionKeyID string) error {
	body := map[string]string{"session_key_id": sessionKeyID}
	if err := s.client.do(ctx, "POST", "/api/v1/ai/session-keys/revoke", body, nil, ""); err != nil {
		return err
	}

	s.mu.Lock()
	if sk := s.keys[sessionKeyID]; sk != nil {
		sk.Lock()
	}
	delete(s.keys, sessionKeyID)
	s.mu.Unlock()

	s.client.logger.Info("session key revoked", slog.String("session_key_id", sessionKeyID))
	return nil
}

// CreateServerSessionKey creates a server-assisted session key without
// client-side cryptography. Agent frameworks that cannot hold keys use this
// variant; device-bound keys via SessionKeys.Create are the non-custodial
// path.
func (c *Client) CreateServerSessionKey(ctx context.Context, opts CreateSessionKeyOptions) (*zendfi.SessionKeyRecord, error) {
	if err := validation.ValidateWalletAddress(opts.UserWallet); err != nil {
		return nil, fmt.Errorf("%w: %v", zendfi.ErrValidation, err)
	}
	if opts.AgentID == "" {
		return nil, fmt.Errorf("%w: agent ID required", zendfi.ErrValidation)
	}
	if opts.DurationDays == 0 {
		opts.DurationDays = 7
	}
	if err := validation.ValidateDurationDays(opts.DurationDays); err != nil {
		return nil, fmt.Errorf("%w: %v", zendfi.ErrValidation, err)
	}

	name := opts.AgentName
	if name == "" {
		name = fmt.Sprintf("ZendFi Agent (%s)", opts.AgentID)
	}

	body := map[string]interface{}{
		"user_wallet":        opts.UserWallet,
		"agent_id":           opts.AgentID,
		"agent_name":         name,
		"limit_usdc":         opts.LimitUSDC,
		"duration_days":      opts.DurationDays,
		"device_fingerprint": keystore.DeviceFingerprint().Fingerprint,
	}

	var record zendfi.SessionKeyRecord
	if err := c.do(ctx, "POST", "/api/v1/ai/session-keys/device-bound/create", body, &record, ""); err != nil {
		return nil, err
	}
	return &record, nil
}
