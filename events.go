package zendfi

import "time"

// PaymentEventType represents the type of payment event.
type PaymentEventType string

const (
	// PaymentEventAttempt indicates a payment is being attempted.
	PaymentEventAttempt PaymentEventType = "attempt"

	// PaymentEventSuccess indicates a payment succeeded.
	PaymentEventSuccess PaymentEventType = "success"

	// PaymentEventFailure indicates a payment failed.
	PaymentEventFailure PaymentEventType = "failure"
)

// PaymentEvent represents a payment lifecycle event.
// Events are emitted for smart payments, session-key payments, and payments
// made through MCP tools, giving a consistent hook for logging and monitoring.
type PaymentEvent struct {
	// Type is the event type (attempt, success, failure).
	Type PaymentEventType

	// Timestamp is when the event occurred.
	Timestamp time.Time

	// Tool is the MCP tool making the payment, if any.
	Tool string

	// PaymentID is the backend payment identifier (available after attempt).
	PaymentID string

	// AmountUSD is the payment amount in USD.
	AmountUSD float64

	// Recipient is the payment recipient wallet address.
	Recipient string

	// Description is the payment description.
	Description string

	// Transaction is the Solana transaction signature (available on success).
	Transaction string

	// Status is the backend payment status (available on success).
	Status string

	// Error contains error details (available on failure).
	Error error

	// Duration is the time taken for the payment operation.
	Duration time.Duration

	// Metadata contains additional context-specific information.
	Metadata map[string]interface{}
}

// PaymentCallback is a function that handles payment events.
// Callbacks are invoked synchronously during payment processing, so they
// should be fast to avoid blocking the payment flow. For longer operations,
// consider using goroutines within the callback.
type PaymentCallback func(PaymentEvent)
