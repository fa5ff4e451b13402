package zendfi

// SessionLimits holds spending limits for agent sessions, in USD.
type SessionLimits struct {
	MaxPerTransaction    float64 `json:"max_per_transaction"`
	MaxPerDay            float64 `json:"max_per_day"`
	MaxPerWeek           float64 `json:"max_per_week"`
	MaxPerMonth          float64 `json:"max_per_month"`
	RequireApprovalAbove float64 `json:"require_approval_above"`
}

// DefaultSessionLimits returns the limits applied when none are specified.
func DefaultSessionLimits() SessionLimits {
	return SessionLimits{
		MaxPerTransaction:    1000,
		MaxPerDay:            5000,
		MaxPerWeek:           20000,
		MaxPerMonth:          50000,
		RequireApprovalAbove: 500,
	}
}

// AgentSession is a server-managed session with spending limits.
// The session token authorizes payments without client-side cryptography.
type AgentSession struct {
	ID                 string        `json:"id"`
	SessionToken       string        `json:"session_token"`
	AgentID            string        `json:"agent_id"`
	AgentName          string        `json:"agent_name,omitempty"`
	UserWallet         string        `json:"user_wallet"`
	Limits             SessionLimits `json:"limits"`
	IsActive           bool          `json:"is_active"`
	CreatedAt          string        `json:"created_at"`
	ExpiresAt          string        `json:"expires_at"`
	RemainingToday     float64       `json:"remaining_today"`
	RemainingThisWeek  float64       `json:"remaining_this_week"`
	RemainingThisMonth float64       `json:"remaining_this_month"`
	PKPAddress         string        `json:"pkp_address,omitempty"`
}

// CreateSessionRequest is the request body for creating an agent session.
type CreateSessionRequest struct {
	AgentID          string        `json:"agent_id"`
	AgentName        string        `json:"agent_name,omitempty"`
	UserWallet       string        `json:"user_wallet"`
	Limits           SessionLimits `json:"limits"`
	AllowedMerchants []string      `json:"allowed_merchants,omitempty"`
	DurationHours    int           `json:"duration_hours"`
}

// SmartPaymentRequest is the request body for an AI-routed payment.
type SmartPaymentRequest struct {
	AgentID           string                 `json:"agent_id"`
	UserWallet        string                 `json:"user_wallet"`
	AmountUSD         float64                `json:"amount_usd"`
	Description       string                 `json:"description,omitempty"`
	SessionToken      string                 `json:"session_token,omitempty"`
	Token             string                 `json:"token,omitempty"`
	AutoDetectGasless bool                   `json:"auto_detect_gasless"`
	MerchantID        string                 `json:"merchant_id,omitempty"`
	InstantSettlement bool                   `json:"instant_settlement,omitempty"`
	EnableEscrow      bool                   `json:"enable_escrow,omitempty"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
}

// SmartPaymentResult is the result of executing a smart payment.
// Status is one of "pending", "confirmed", "awaiting_signature", "failed".
type SmartPaymentResult struct {
	PaymentID            string  `json:"payment_id"`
	Status               string  `json:"status"`
	AmountUSD            float64 `json:"amount_usd"`
	GaslessUsed          bool    `json:"gasless_used"`
	SettlementComplete   bool    `json:"settlement_complete"`
	ReceiptURL           string  `json:"receipt_url,omitempty"`
	NextSteps            string  `json:"next_steps,omitempty"`
	CreatedAt            string  `json:"created_at,omitempty"`
	TransactionSignature string  `json:"transaction_signature,omitempty"`
	UnsignedTransaction  string  `json:"unsigned_transaction,omitempty"`
	RequiresSignature    bool    `json:"requires_signature,omitempty"`
	SubmitURL            string  `json:"submit_url,omitempty"`
	EscrowID             string  `json:"escrow_id,omitempty"`
	ConfirmedInMS        int     `json:"confirmed_in_ms,omitempty"`
}

// PaymentResult is the compact result of a session-key payment.
type PaymentResult struct {
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
	Status    string `json:"status"`
}

// SessionKeyRecord is the backend record for a device-bound session key.
type SessionKeyRecord struct {
	SessionKeyID          string  `json:"session_key_id"`
	AgentID               string  `json:"agent_id"`
	AgentName             string  `json:"agent_name,omitempty"`
	SessionWallet         string  `json:"session_wallet"`
	LimitUSDC             float64 `json:"limit_usdc"`
	ExpiresAt             string  `json:"expires_at"`
	CrossAppCompatible    bool    `json:"cross_app_compatible"`
	RequiresClientSigning bool    `json:"requires_client_signing,omitempty"`
	Mode                  string  `json:"mode,omitempty"`
}

// SessionKeyStatus is the current status of a session key.
type SessionKeyStatus struct {
	SessionKeyID    string  `json:"session_key_id"`
	IsActive        bool    `json:"is_active"`
	IsApproved      bool    `json:"is_approved"`
	LimitUSDC       float64 `json:"limit_usdc"`
	UsedAmountUSDC  float64 `json:"used_amount_usdc"`
	RemainingUSDC   float64 `json:"remaining_usdc"`
	ExpiresAt       string  `json:"expires_at"`
	DaysUntilExpiry int     `json:"days_until_expiry"`
}

// PPPFactor is the Purchasing Power Parity factor for a country.
type PPPFactor struct {
	CountryCode          string  `json:"country_code"`
	CountryName          string  `json:"country_name"`
	PPPFactor            float64 `json:"ppp_factor"`
	CurrencyCode         string  `json:"currency_code"`
	AdjustmentPercentage float64 `json:"adjustment_percentage"`
}

// PricingSuggestion is an AI-generated pricing suggestion.
type PricingSuggestion struct {
	SuggestedAmount  float64 `json:"suggested_amount"`
	MinAmount        float64 `json:"min_amount"`
	MaxAmount        float64 `json:"max_amount"`
	Currency         string  `json:"currency"`
	Reasoning        string  `json:"reasoning"`
	PPPAdjusted      bool    `json:"ppp_adjusted"`
	AdjustmentFactor float64 `json:"adjustment_factor,omitempty"`
}

// AgentProvider is a service provider in the agent marketplace.
type AgentProvider struct {
	AgentID      string  `json:"agent_id"`
	AgentName    string  `json:"agent_name"`
	ServiceType  string  `json:"service_type"`
	PricePerUnit float64 `json:"price_per_unit"`
	Wallet       string  `json:"wallet"`
	Reputation   float64 `json:"reputation"`
	Description  string  `json:"description,omitempty"`
	Available    bool    `json:"available"`
}

// EnableAutonomyRequest enables autonomous mode for a session key.
// The delegation signature authorizes spending up to MaxAmountUSD until the
// expiry; see the signer package for the message format.
type EnableAutonomyRequest struct {
	MaxAmountUSD        float64                `json:"max_amount_usd"`
	DurationHours       int                    `json:"duration_hours"`
	DelegationSignature string                 `json:"delegation_signature"`
	ExpiresAt           string                 `json:"expires_at,omitempty"`
	ShardCiphertext     string                 `json:"lit_encrypted_keypair,omitempty"`
	ShardDataHash       string                 `json:"lit_data_hash,omitempty"`
	Metadata            map[string]interface{} `json:"metadata,omitempty"`
}

// AutonomousDelegate is an enabled autonomous delegate.
type AutonomousDelegate struct {
	DelegateID   string  `json:"delegate_id"`
	SessionKeyID string  `json:"session_key_id"`
	MaxAmountUSD float64 `json:"max_amount_usd"`
	SpentUSD     float64 `json:"spent_usd"`
	RemainingUSD float64 `json:"remaining_usd"`
	IsActive     bool    `json:"is_active"`
	CreatedAt    string  `json:"created_at"`
	ExpiresAt    string  `json:"expires_at"`
}

// AutonomyStatus is the autonomy state of a session key.
type AutonomyStatus struct {
	SessionKeyID          string              `json:"session_key_id"`
	AutonomousModeEnabled bool                `json:"autonomous_mode_enabled"`
	Delegate              *AutonomousDelegate `json:"delegate,omitempty"`
}

// SpendingAttestation is the backend's signed commitment to spending state
// at the time of a payment. Fields are ordered to match the canonical JSON
// encoding the backend signs.
type SpendingAttestation struct {
	DelegateID        string  `json:"delegate_id"`
	SessionKeyID      string  `json:"session_key_id"`
	MerchantID        string  `json:"merchant_id"`
	SpentUSD          float64 `json:"spent_usd"`
	LimitUSD          float64 `json:"limit_usd"`
	RequestedUSD      float64 `json:"requested_usd"`
	RemainingAfterUSD float64 `json:"remaining_after_usd"`
	TimestampMS       int64   `json:"timestamp_ms"`
	Nonce             string  `json:"nonce"`
	PaymentID         string  `json:"payment_id"`
	Version           int     `json:"version"`
}

// SignedSpendingAttestation carries an attestation with the backend's
// Ed25519 signature over its canonical encoding.
type SignedSpendingAttestation struct {
	Attestation     SpendingAttestation `json:"attestation"`
	Signature       string              `json:"signature"`
	SignerPublicKey string              `json:"signer_public_key"`
}

// AttestationAudit is the audit trail of attestations for a delegate.
type AttestationAudit struct {
	DelegateID           string                      `json:"delegate_id"`
	AttestationCount     int                         `json:"attestation_count"`
	Attestations         []SignedSpendingAttestation `json:"attestations"`
	AttestationPublicKey string                      `json:"zendfi_attestation_public_key,omitempty"`
}
