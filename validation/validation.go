// Package validation provides input validation for ZendFi API requests.
// It validates Solana wallet addresses, USD amounts, PINs, durations, and
// country codes before anything is sent to the backend.
package validation

import (
	"fmt"
	"regexp"
)

var (
	// solanaAddressRegex matches Solana base58 addresses (32-44 chars, base58 charset)
	solanaAddressRegex = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)

	// pinRegex matches exactly six numeric digits
	pinRegex = regexp.MustCompile(`^[0-9]{6}$`)

	// base64Regex matches standard base64 with optional padding
	base64Regex = regexp.MustCompile(`^[A-Za-z0-9+/]+=*$`)

	// countryCodeRegex matches ISO 3166-1 alpha-2 codes
	countryCodeRegex = regexp.MustCompile(`^[A-Z]{2}$`)
)

// ValidateWalletAddress validates a Solana wallet address.
func ValidateWalletAddress(address string) error {
	if address == "" {
		return fmt.Errorf("wallet address cannot be empty")
	}
	if !solanaAddressRegex.MatchString(address) {
		return fmt.Errorf("invalid Solana address format: %s (expected base58 string 32-44 chars)", address)
	}
	return nil
}

// ValidateAmountUSD validates a USD payment amount.
func ValidateAmountUSD(amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive, got %v", amount)
	}
	return nil
}

// ValidatePIN validates a session key PIN. PINs are exactly six numeric digits.
func ValidatePIN(pin string) error {
	if !pinRegex.MatchString(pin) {
		return fmt.Errorf("PIN must be exactly 6 numeric digits")
	}
	return nil
}

// ValidateDurationHours validates a session or delegation duration in hours.
// The backend accepts 1 hour to 7 days.
func ValidateDurationHours(hours int) error {
	if hours < 1 || hours > 168 {
		return fmt.Errorf("duration must be between 1 and 168 hours, got %d", hours)
	}
	return nil
}

// ValidateDurationDays validates a session key validity period in days.
func ValidateDurationDays(days int) error {
	if days < 1 || days > 30 {
		return fmt.Errorf("duration must be between 1 and 30 days, got %d", days)
	}
	return nil
}

// ValidateBase64 validates that a string is standard base64.
func ValidateBase64(s string) error {
	if s == "" {
		return fmt.Errorf("value cannot be empty")
	}
	if !base64Regex.MatchString(s) {
		return fmt.Errorf("value must be base64 encoded")
	}
	return nil
}

// ValidateCountryCode validates an ISO 3166-1 alpha-2 country code.
func ValidateCountryCode(code string) error {
	if !countryCodeRegex.MatchString(code) {
		return fmt.Errorf("invalid country code: %s (expected ISO 3166-1 alpha-2, e.g. BR)", code)
	}
	return nil
}
