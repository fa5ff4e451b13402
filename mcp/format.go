package mcp

import (
	"errors"
	"fmt"
	"strings"

	zendfi "github.com/zendfi/zendfi-go"
)

// FormatUSD formats an amount for display, e.g. "$1.50".
func FormatUSD(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

// ShortenAddress abbreviates a wallet address for display.
func ShortenAddress(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:4] + "..." + address[len(address)-4:]
}

// spendingBar renders spending progress, e.g. "[######----] 60%".
func spendingBar(spent, limit float64) string {
	if limit <= 0 {
		return ""
	}
	ratio := spent / limit
	if ratio > 1 {
		ratio = 1
	}
	filled := int(ratio * 10)
	return fmt.Sprintf("[%s%s] %.0f%%",
		strings.Repeat("#", filled),
		strings.Repeat("-", 10-filled),
		ratio*100)
}

// advice turns an SDK error into guidance an agent can act on. Tool results
// carry the advice as text so the model can decide what to do next instead
// of surfacing a raw error.
func advice(err error) string {
	switch {
	case errors.Is(err, zendfi.ErrInsufficientBalance):
		return "Insufficient balance. Ask the user to fund their wallet before retrying."
	case errors.Is(err, zendfi.ErrSessionExpired):
		return "The session has expired. Create a new session or session key, then retry."
	case errors.Is(err, zendfi.ErrSessionKeyNotFound):
		return "Session key not found. It may have been revoked; create a new one."
	case errors.Is(err, zendfi.ErrRateLimited):
		return "Rate limited by the API. Wait a moment before retrying."
	case errors.Is(err, zendfi.ErrAuthentication):
		return "Authentication failed. Check that the ZendFi API key is valid."
	case errors.Is(err, zendfi.ErrValidation):
		return fmt.Sprintf("Invalid request: %v. Fix the arguments and retry.", err)
	case errors.Is(err, zendfi.ErrWalletMismatch):
		return fmt.Sprintf("%v", err)
	case errors.Is(err, zendfi.ErrNetwork):
		return "Could not reach the ZendFi API. Check connectivity and retry."
	default:
		return fmt.Sprintf("Operation failed: %v", err)
	}
}
