package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	zendfi "github.com/zendfi/zendfi-go"
	"github.com/zendfi/zendfi-go/signer"
)

func validEnableRequest() zendfi.EnableAutonomyRequest {
	return zendfi.EnableAutonomyRequest{
		MaxAmountUSD:        100,
		DurationHours:       24,
		DelegationSignature: "c2lnbmF0dXJl",
	}
}

func TestValidateEnableRequest(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*zendfi.EnableAutonomyRequest)
		wantErr bool
	}{
		{"valid", func(r *zendfi.EnableAutonomyRequest) {}, false},
		{"zero amount", func(r *zendfi.EnableAutonomyRequest) { r.MaxAmountUSD = 0 }, true},
		{"negative amount", func(r *zendfi.EnableAutonomyRequest) { r.MaxAmountUSD = -50 }, true},
		{"zero duration", func(r *zendfi.EnableAutonomyRequest) { r.DurationHours = 0 }, true},
		{"duration over a week", func(r *zendfi.EnableAutonomyRequest) { r.DurationHours = 169 }, true},
		{"missing signature", func(r *zendfi.EnableAutonomyRequest) { r.DelegationSignature = "" }, true},
		{"malformed signature", func(r *zendfi.EnableAutonomyRequest) { r.DelegationSignature = "!!bad!!" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validEnableRequest()
			tt.mutate(&req)
			err := ValidateEnableRequest(req)
			if tt.wantErr && !errors.Is(err, zendfi.ErrValidation) {
				t.Errorf("ValidateEnableRequest() error = %v, want ErrValidation", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ValidateEnableRequest() error = %v, want nil", err)
			}
		})
	}
}

func TestEnableAutonomy(t *testing.T) {
	var got zendfi.EnableAutonomyRequest
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/ai/session-keys/sk-1/enable-autonomy" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(zendfi.AutonomousDelegate{
			DelegateID:   "del-1",
			SessionKeyID: "sk-1",
			MaxAmountUSD: got.MaxAmountUSD,
			RemainingUSD: got.MaxAmountUSD,
			IsActive:     true,
		})
	}))

	delegate, err := c.Autonomy.Enable(context.Background(), "sk-1", validEnableRequest())
	if err != nil {
		t.Fatalf("Enable() error: %v", err)
	}
	if delegate.DelegateID != "del-1" {
		t.Errorf("delegate ID = %q, want del-1", delegate.DelegateID)
	}
	if got.DelegationSignature != "c2lnbmF0dXJl" {
		t.Errorf("delegation_signature = %q", got.DelegationSignature)
	}
}

func TestEnableAutonomyRejectsInvalidRequest(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be called for invalid requests")
	}))

	req := validEnableRequest()
	req.DelegationSignature = ""
	if _, err := c.Autonomy.Enable(context.Background(), "sk-1", req); !errors.Is(err, zendfi.ErrValidation) {
		t.Errorf("Enable() error = %v, want ErrValidation", err)
	}
	if _, err := c.Autonomy.Enable(context.Background(), "", validEnableRequest()); !errors.Is(err, zendfi.ErrValidation) {
		t.Errorf("Enable() with empty session key ID error = %v, want ErrValidation", err)
	}
}

func TestRevokeAutonomy(t *testing.T) {
	var gotReason string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/ai/session-keys/sk-1/revoke-autonomy" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		gotReason = body["reason"]
		w.WriteHeader(http.StatusOK)
	}))

	if err := c.Autonomy.Revoke(context.Background(), "sk-1", "budget exhausted"); err != nil {
		t.Fatalf("Revoke() error: %v", err)
	}
	if gotReason != "budget exhausted" {
		t.Errorf("reason = %q", gotReason)
	}
}

func TestAutonomyStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/ai/session-keys/sk-1/autonomy-status" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(zendfi.AutonomyStatus{
			AutonomousModeEnabled: true,
			Delegate: &zendfi.AutonomousDelegate{
				DelegateID:   "del-1",
				SpentUSD:     30,
				RemainingUSD: 70,
				IsActive:     true,
			},
		})
	}))

	status, err := c.Autonomy.Status(context.Background(), "sk-1")
	if err != nil {
		t.Fatalf("Status() error: %v", err)
	}
	if status.SessionKeyID != "sk-1" {
		t.Errorf("session key ID = %q, want sk-1", status.SessionKeyID)
	}
	if status.Delegate == nil || status.Delegate.RemainingUSD != 70 {
		t.Errorf("delegate = %+v", status.Delegate)
	}
}

func signedAttestation(t *testing.T) (zendfi.SignedSpendingAttestation, *signer.Keypair) {
	t.Helper()
	kp, err := signer.Generate()
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	attestation := zendfi.SpendingAttestation{
		DelegateID:        "del-1",
		SessionKeyID:      "sk-1",
		MerchantID:        "merchant-1",
		SpentUSD:          30,
		LimitUSD:          100,
		RequestedUSD:      5,
		RemainingAfterUSD: 65,
		TimestampMS:       time.Now().UnixMilli(),
		Nonce:             "nonce-1",
		PaymentID:         "pay-1",
		Version:           1,
	}

	canonical, err := json.Marshal(attestation)
	if err != nil {
		t.Fatalf("marshal attestation: %v", err)
	}
	sig, err := kp.SignBase64(canonical)
	if err != nil {
		t.Fatalf("SignBase64() error: %v", err)
	}

	return zendfi.SignedSpendingAttestation{
		Attestation:     attestation,
		Signature:       sig,
		SignerPublicKey: kp.PublicKey(),
	}, kp
}

func TestVerifyAttestation(t *testing.T) {
	signed, _ := signedAttestation(t)
	if !VerifyAttestation(signed) {
		t.Error("VerifyAttestation() = false for valid attestation")
	}
}

func TestVerifyAttestationRejectsTampering(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*zendfi.SignedSpendingAttestation)
	}{
		{"raised spending", func(s *zendfi.SignedSpendingAttestation) { s.Attestation.SpentUSD = 0 }},
		{"raised limit", func(s *zendfi.SignedSpendingAttestation) { s.Attestation.LimitUSD = 1000 }},
		{"different payment", func(s *zendfi.SignedSpendingAttestation) { s.Attestation.PaymentID = "pay-2" }},
		{"replayed nonce", func(s *zendfi.SignedSpendingAttestation) { s.Attestation.Nonce = "nonce-2" }},
		{"wrong signer", func(s *zendfi.SignedSpendingAttestation) {
			other, _ := signer.Generate()
			s.SignerPublicKey = other.PublicKey()
		}},
		{"malformed signature", func(s *zendfi.SignedSpendingAttestation) { s.Signature = "!!bad!!" }},
		{"malformed public key", func(s *zendfi.SignedSpendingAttestation) { s.SignerPublicKey = "not-a-key" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signed, _ := signedAttestation(t)
			tt.mutate(&signed)
			if VerifyAttestation(signed) {
				t.Error("VerifyAttestation() = true for tampered attestation")
			}
		})
	}
}

func TestAttestations(t *testing.T) {
	signed, kp := signedAttestation(t)
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/ai/delegates/del-1/attestations" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(zendfi.AttestationAudit{
			DelegateID:           "del-1",
			AttestationCount:     1,
			Attestations:         []zendfi.SignedSpendingAttestation{signed},
			AttestationPublicKey: kp.PublicKey(),
		})
	}))

	audit, err := c.Autonomy.Attestations(context.Background(), "del-1")
	if err != nil {
		t.Fatalf("Attestations() error: %v", err)
	}
	if audit.AttestationCount != 1 || len(audit.Attestations) != 1 {
		t.Fatalf("audit = %+v", audit)
	}
	if !c.Autonomy.VerifyAttestation(audit.Attestations[0]) {
		t.Error("fetched attestation does not verify")
	}
}
