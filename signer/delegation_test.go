package signer

import (
	"strings"
	"testing"
	"time"
)

func TestDelegationMessageFormat(t *testing.T) {
	expires := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		d    Delegation
		want string
	}{
		{
			name: "whole amount",
			d:    Delegation{SessionKeyID: "sk-abc123", MaxAmountUSD: 100, ExpiresAt: expires},
			want: "I authorize autonomous delegate for session sk-abc123 to spend up to $100.00 until 2026-09-15T12:00:00Z",
		},
		{
			name: "fractional amount rendered with two decimals",
			d:    Delegation{SessionKeyID: "sk-abc123", MaxAmountUSD: 25.5, ExpiresAt: expires},
			want: "I authorize autonomous delegate for session sk-abc123 to spend up to $25.50 until 2026-09-15T12:00:00Z",
		},
		{
			name: "non-UTC time normalized to UTC",
			d: Delegation{
				SessionKeyID: "sk-abc123",
				MaxAmountUSD: 100,
				ExpiresAt:    expires.In(time.FixedZone("UTC+2", 2*3600)),
			},
			want: "I authorize autonomous delegate for session sk-abc123 to spend up to $100.00 until 2026-09-15T12:00:00Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.d.Message(); got != tt.want {
				t.Errorf("Message() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDelegationMessageDeterministic(t *testing.T) {
	d := Delegation{
		SessionKeyID: "b2f1c6a0-7e55-4f7e-9f3d-1f2e3d4c5b6a",
		MaxAmountUSD: 42.42,
		ExpiresAt:    time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	}

	first := d.Message()
	for i := 0; i < 10; i++ {
		if got := d.Message(); got != first {
			t.Fatalf("Message() not deterministic: %q != %q", got, first)
		}
	}
}

func TestSignDelegationRoundTrip(t *testing.T) {
	kp, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	d := Delegation{
		SessionKeyID: "sk-roundtrip",
		MaxAmountUSD: 50,
		ExpiresAt:    time.Now().Add(24 * time.Hour),
	}

	sig, err := SignDelegation(kp, d)
	if err != nil {
		t.Fatalf("SignDelegation() error: %v", err)
	}

	if !VerifyBase64(kp.PublicKey(), d.Bytes(), sig) {
		t.Error("delegation signature does not verify against its own message")
	}
}

func TestSignDelegationTamperRejected(t *testing.T) {
	kp, err := Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	d := Delegation{
		SessionKeyID: "sk-tamper",
		MaxAmountUSD: 50,
		ExpiresAt:    time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC),
	}

	sig, err := SignDelegation(kp, d)
	if err != nil {
		t.Fatalf("SignDelegation() error: %v", err)
	}

	tests := []struct {
		name     string
		tampered Delegation
	}{
		{"raised amount", Delegation{SessionKeyID: d.SessionKeyID, MaxAmountUSD: 5000, ExpiresAt: d.ExpiresAt}},
		{"extended expiry", Delegation{SessionKeyID: d.SessionKeyID, MaxAmountUSD: d.MaxAmountUSD, ExpiresAt: d.ExpiresAt.Add(720 * time.Hour)}},
		{"different session", Delegation{SessionKeyID: "sk-other", MaxAmountUSD: d.MaxAmountUSD, ExpiresAt: d.ExpiresAt}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if VerifyBase64(kp.PublicKey(), tt.tampered.Bytes(), sig) {
				t.Error("signature verified against a tampered delegation")
			}
		})
	}

	// Raw message tampering should fail the same way.
	raw := d.Message()
	mutated := strings.Replace(raw, "$50.00", "$50.01", 1)
	if VerifyBase64(kp.PublicKey(), []byte(mutated), sig) {
		t.Error("signature verified against mutated message bytes")
	}
}
