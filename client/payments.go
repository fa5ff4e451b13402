package client

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	zendfi "github.com/zendfi/zendfi-go"
	"github.com/zendfi/zendfi-go/validation"
)

// NewIdempotencyKey generates a payment idempotency key. Reusing a key for
// a retried request makes the backend treat it as the same payment.
func NewIdempotencyKey() string {
	return "pay_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// SmartPayment executes an AI-routed payment. The backend detects whether a
// gasless path is needed, applies PPP adjustments, and routes through the
// optimal path. An idempotency key is generated when none is given.
func (c *Client) SmartPayment(ctx context.Context, req zendfi.SmartPaymentRequest, idempotencyKey string) (*zendfi.SmartPaymentResult, error) {
	if err := validation.ValidateAmountUSD(req.AmountUSD); err != nil {
		return nil, fmt.Errorf("%w: %v", zendfi.ErrValidation, err)
	}
	if err := validation.ValidateWalletAddress(req.UserWallet); err != nil {
		return nil, fmt.Errorf("%w: %v", zendfi.ErrValidation, err)
	}

	if req.AgentID == "" {
		req.AgentID = c.defaultAgentID
	}
	if req.Token == "" {
		req.Token = "USDC"
	}
	if req.SessionToken == "" {
		c.mu.Lock()
		if c.cachedSession != nil {
			req.SessionToken = c.cachedSession.SessionToken
		}
		c.mu.Unlock()
	}
	if idempotencyKey == "" {
		idempotencyKey = NewIdempotencyKey()
	}

	c.emit(zendfi.PaymentEvent{
		Type:        zendfi.PaymentEventAttempt,
		AmountUSD:   req.AmountUSD,
		Recipient:   req.UserWallet,
		Description: req.Description,
	})

	// Payments get the longer payment timeout; confirmation can outlast a
	// standard API call.
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.timeouts.PaymentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeouts.PaymentTimeout)
		defer cancel()
	}

	start := time.Now()
	var result zendfi.SmartPaymentResult
	if err := c.do(ctx, "POST", "/api/v1/ai/smart-payment", req, &result, idempotencyKey); err != nil {
		c.emit(zendfi.PaymentEvent{
			Type:        zendfi.PaymentEventFailure,
			AmountUSD:   req.AmountUSD,
			Recipient:   req.UserWallet,
			Description: req.Description,
			Error:       err,
			Duration:    time.Since(start),
		})
		return nil, err
	}

	c.emit(zendfi.PaymentEvent{
		Type:        zendfi.PaymentEventSuccess,
		PaymentID:   result.PaymentID,
		AmountUSD:   result.AmountUSD,
		Recipient:   req.UserWallet,
		Description: req.Description,
		Transaction: result.TransactionSignature,
		Status:      result.Status,
		Duration:    time.Since(start),
	})

	c.logger.Info("smart payment executed",
		slog.String("payment_id", result.PaymentID),
		slog.String("status", result.Status),
		slog.Bool("gasless", result.GaslessUsed))

	return &result, nil
}

// SubmitSignedPayment submits a client-signed transaction for a payment that
// came back with requires_signature set. The transaction is base64 encoded.
func (c *Client) SubmitSignedPayment(ctx context.Context, paymentID, signedTransaction string) (*zendfi.SmartPaymentResult, error) {
	if paymentID == "" {
		return nil, fmt.Errorf("%w: payment ID required", zendfi.ErrValidation)
	}
	if err := validation.ValidateBase64(signedTransaction); err != nil {
		return nil, fmt.Errorf("%w: signed transaction %v", zendfi.ErrValidation, err)
	}

	body := map[string]string{"signed_transaction": signedTransaction}

	var result zendfi.SmartPaymentResult
	path := "/api/v1/ai/payments/" + paymentID + "/submit-signed"
	if err := c.do(ctx, "POST", path, body, &result, ""); err != nil {
		return nil, err
	}
	return &result, nil
}

// Pay is the simplest payment path: it ensures a session exists for the
// configured user wallet and executes a smart payment against it. The
// client must be constructed with WithUserWallet.
func (c *Client) Pay(ctx context.Context, amountUSD float64, recipient, description string) (*zendfi.SmartPaymentResult, error) {
	if err := validation.ValidateAmountUSD(amountUSD); err != nil {
		return nil, fmt.Errorf("%w: %v", zendfi.ErrValidation, err)
	}
	if err := validation.ValidateWalletAddress(recipient); err != nil {
		return nil, fmt.Errorf("%w: %v", zendfi.ErrValidation, err)
	}

	session, err := c.EnsureSession(ctx)
	if err != nil {
		return nil, err
	}

	return c.SmartPayment(ctx, zendfi.SmartPaymentRequest{
		AgentID:           c.defaultAgentID,
		UserWallet:        recipient,
		AmountUSD:         amountUSD,
		Description:       description,
		SessionToken:      session.SessionToken,
		AutoDetectGasless: true,
	}, "")
}
