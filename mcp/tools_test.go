package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mcpproto "github.com/mark3labs/mcp-go/mcp"

	zendfi "github.com/zendfi/zendfi-go"
	"github.com/zendfi/zendfi-go/client"
)

const testWallet = "DRpbCBMxVnDK7maPMoTGrabeXzTKNa2W5AYh9mGhPjAa"

func newTestTools(t *testing.T, handler http.Handler) *Tools {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := client.New("zk_test_abc123",
		client.WithBaseURL(srv.URL),
		client.WithUserWallet(testWallet))
	if err != nil {
		t.Fatalf("client.New() error: %v", err)
	}
	return NewTools(c)
}

func callTool(t *testing.T, handler func(context.Context, mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error), args map[string]interface{}) *mcpproto.CallToolResult {
	t.Helper()
	var req mcpproto.CallToolRequest
	req.Params.Arguments = args

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("tool handler error: %v", err)
	}
	return result
}

func resultText(t *testing.T, result *mcpproto.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("tool result has no content")
	}
	tc, ok := result.Content[0].(mcpproto.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", result.Content[0])
	}
	return tc.Text
}

func TestMakeCryptoPaymentTool(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/ai/sessions", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(zendfi.AgentSession{ID: "sess-1", SessionToken: "tok-1", IsActive: true})
	})
	mux.HandleFunc("/api/v1/ai/smart-payment", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(zendfi.SmartPaymentResult{
			PaymentID:            "pay-1",
			Status:               "confirmed",
			AmountUSD:            0.5,
			GaslessUsed:          true,
			TransactionSignature: "sig-1",
		})
	})
	tools := newTestTools(t, mux)

	_, handler := tools.MakeCryptoPaymentTool()
	result := callTool(t, handler, map[string]interface{}{
		"amount_usd":  0.5,
		"recipient":   testWallet,
		"description": "translation service",
	})

	text := resultText(t, result)
	if result.IsError {
		t.Fatalf("tool returned error: %s", text)
	}
	for _, want := range []string{"$0.50", "pay-1", "confirmed", "sig-1", "Gasless"} {
		if !strings.Contains(text, want) {
			t.Errorf("result missing %q:\n%s", want, text)
		}
	}
}

func TestMakeCryptoPaymentToolInsufficientBalance(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/ai/sessions", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(zendfi.AgentSession{ID: "sess-1", SessionToken: "tok-1", IsActive: true})
	})
	mux.HandleFunc("/api/v1/ai/smart-payment", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		json.NewEncoder(w).Encode(map[string]string{"error": "balance too low", "code": "INSUFFICIENT_BALANCE"})
	})
	tools := newTestTools(t, mux)

	_, handler := tools.MakeCryptoPaymentTool()
	result := callTool(t, handler, map[string]interface{}{
		"amount_usd": 100.0,
		"recipient":  testWallet,
	})

	if !result.IsError {
		t.Fatal("expected error result")
	}
	text := resultText(t, result)
	if !strings.Contains(text, "Insufficient balance") || !strings.Contains(text, "fund their wallet") {
		t.Errorf("result missing balance advice:\n%s", text)
	}
}

func TestMakeCryptoPaymentToolValidation(t *testing.T) {
	tools := newTestTools(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be called for invalid arguments")
	}))

	_, handler := tools.MakeCryptoPaymentTool()
	result := callTool(t, handler, map[string]interface{}{
		"amount_usd": -1.0,
		"recipient":  testWallet,
	})

	if !result.IsError {
		t.Fatal("expected error result")
	}
	if !strings.Contains(resultText(t, result), "Invalid request") {
		t.Errorf("result missing validation advice:\n%s", resultText(t, result))
	}
}

func TestSearchAgentMarketplaceTool(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/marketplace/providers", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"providers": []zendfi.AgentProvider{
				{AgentID: "translator-pro", AgentName: "Translator Pro", ServiceType: "translation",
					PricePerUnit: 0.05, Reputation: 4.8, Available: true, Wallet: testWallet},
				{AgentID: "translator-budget", AgentName: "Budget Translator", ServiceType: "translation",
					PricePerUnit: 0.01, Reputation: 3.5, Available: true, Wallet: testWallet},
			},
		})
	})
	tools := newTestTools(t, mux)

	_, handler := tools.SearchAgentMarketplaceTool()
	result := callTool(t, handler, map[string]interface{}{"service_type": "translation"})

	text := resultText(t, result)
	if result.IsError {
		t.Fatalf("tool returned error: %s", text)
	}
	if !strings.Contains(text, "Found 2 provider(s)") {
		t.Errorf("result missing count:\n%s", text)
	}
	// Cheapest first.
	if strings.Index(text, "Budget Translator") > strings.Index(text, "Translator Pro") {
		t.Errorf("providers not sorted by price:\n%s", text)
	}
}

func TestSearchAgentMarketplaceToolEmpty(t *testing.T) {
	tools := newTestTools(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"providers": []zendfi.AgentProvider{}})
	}))

	_, handler := tools.SearchAgentMarketplaceTool()
	result := callTool(t, handler, map[string]interface{}{"service_type": "quantum-fortune-telling"})

	if result.IsError {
		t.Fatal("empty result should not be an error")
	}
	if !strings.Contains(resultText(t, result), "No providers found") {
		t.Errorf("result missing empty-result message:\n%s", resultText(t, result))
	}
}

func TestCheckPaymentBalanceTool(t *testing.T) {
	tools := newTestTools(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(zendfi.AgentSession{
			ID:                 "sess-1",
			IsActive:           true,
			Limits:             zendfi.DefaultSessionLimits(),
			RemainingToday:     2500,
			RemainingThisWeek:  15000,
			RemainingThisMonth: 40000,
		})
	}))

	_, handler := tools.CheckPaymentBalanceTool()
	result := callTool(t, handler, map[string]interface{}{"session_id": "sess-1"})

	text := resultText(t, result)
	if result.IsError {
		t.Fatalf("tool returned error: %s", text)
	}
	for _, want := range []string{"sess-1", "$2500.00", "$5000.00", "50%"} {
		if !strings.Contains(text, want) {
			t.Errorf("result missing %q:\n%s", want, text)
		}
	}
}

func TestCheckPaymentBalanceToolRequiresSessionID(t *testing.T) {
	tools := newTestTools(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be called")
	}))

	_, handler := tools.CheckPaymentBalanceTool()
	result := callTool(t, handler, map[string]interface{}{})
	if !result.IsError {
		t.Fatal("expected error result for missing session_id")
	}
}

func TestCreateSessionKeyTool(t *testing.T) {
	tools := newTestTools(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(zendfi.SessionKeyRecord{
			SessionKeyID:  "sk-1",
			SessionWallet: body["session_public_key"].(string),
			LimitUSDC:     50,
			ExpiresAt:     "2026-09-06T00:00:00Z",
		})
	}))

	_, handler := tools.CreateSessionKeyTool()
	result := callTool(t, handler, map[string]interface{}{
		"user_wallet":   testWallet,
		"agent_id":      "research-bot",
		"limit_usdc":    50.0,
		"duration_days": 7.0,
		"pin":           "123456",
	})

	text := resultText(t, result)
	if result.IsError {
		t.Fatalf("tool returned error: %s", text)
	}
	for _, want := range []string{"sk-1", "$50.00", "2026-09-06"} {
		if !strings.Contains(text, want) {
			t.Errorf("result missing %q:\n%s", want, text)
		}
	}
}

func TestCreateSessionKeyToolBadPIN(t *testing.T) {
	tools := newTestTools(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be called")
	}))

	_, handler := tools.CreateSessionKeyTool()
	result := callTool(t, handler, map[string]interface{}{
		"user_wallet": testWallet,
		"agent_id":    "research-bot",
		"limit_usdc":  50.0,
		"pin":         "12",
	})
	if !result.IsError {
		t.Fatal("expected error result for short PIN")
	}
	if !strings.Contains(resultText(t, result), "Invalid request") {
		t.Errorf("result missing validation advice:\n%s", resultText(t, result))
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := FormatUSD(1.5); got != "$1.50" {
		t.Errorf("FormatUSD(1.5) = %q", got)
	}
	if got := ShortenAddress(testWallet); got != "DRpb...PjAa" {
		t.Errorf("ShortenAddress() = %q", got)
	}
	if got := ShortenAddress("short"); got != "short" {
		t.Errorf("ShortenAddress(short) = %q", got)
	}
	if got := spendingBar(5, 10); got != "[#####-----] 50%" {
		t.Errorf("spendingBar(5, 10) = %q", got)
	}
	if got := spendingBar(20, 10); got != "[##########] 100%" {
		t.Errorf("spendingBar(20, 10) = %q", got)
	}
}
