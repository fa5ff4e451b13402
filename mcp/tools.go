// Package mcp exposes ZendFi payments as Model Context Protocol tools, so
// agent frameworks can pay for services, search the agent marketplace, and
// manage session keys through tool calls.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	mcpproto "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/zendfi/zendfi-go/client"
)

// Tools bundles the ZendFi MCP tool handlers around a client.
type Tools struct {
	client *client.Client
	logger *slog.Logger
}

// NewTools creates the ZendFi tool set for a client.
func NewTools(c *client.Client) *Tools {
	return &Tools{client: c, logger: slog.Default()}
}

// Register adds all ZendFi tools to an MCP server.
func (t *Tools) Register(srv *mcpserver.MCPServer) {
	srv.AddTool(t.MakeCryptoPaymentTool())
	srv.AddTool(t.SearchAgentMarketplaceTool())
	srv.AddTool(t.CheckPaymentBalanceTool())
	srv.AddTool(t.CreateSessionKeyTool())
}

// MakeCryptoPaymentTool pays a recipient in USDC on Solana.
func (t *Tools) MakeCryptoPaymentTool() (mcpproto.Tool, mcpserver.ToolHandlerFunc) {
	tool := mcpproto.NewTool(
		"make_crypto_payment",
		mcpproto.WithDescription("Send a USDC payment on Solana to pay for a service. "+
			"Use this when a provider or API requires payment. Amounts are in USD."),
		mcpproto.WithNumber("amount_usd", mcpproto.Required(),
			mcpproto.Description("Payment amount in USD, e.g. 0.50")),
		mcpproto.WithString("recipient", mcpproto.Required(),
			mcpproto.Description("Recipient Solana wallet address (base58)")),
		mcpproto.WithString("description",
			mcpproto.Description("What the payment is for")),
	)
	return tool, t.handleMakeCryptoPayment
}

func (t *Tools) handleMakeCryptoPayment(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	args := req.GetArguments()
	amount, _ := args["amount_usd"].(float64)
	recipient, _ := args["recipient"].(string)
	description, _ := args["description"].(string)

	result, err := t.client.Pay(ctx, amount, recipient, description)
	if err != nil {
		t.logger.Warn("payment tool failed", slog.String("error", err.Error()))
		return mcpproto.NewToolResultError("Payment failed. " + advice(err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Payment successful: %s to %s\n", FormatUSD(amount), ShortenAddress(recipient))
	fmt.Fprintf(&sb, "Payment ID: %s\n", result.PaymentID)
	fmt.Fprintf(&sb, "Status: %s\n", result.Status)
	if result.TransactionSignature != "" {
		fmt.Fprintf(&sb, "Transaction: %s\n", result.TransactionSignature)
	}
	if result.GaslessUsed {
		sb.WriteString("Gasless transaction: no SOL was needed for fees.\n")
	}
	if result.RequiresSignature {
		sb.WriteString("This payment needs a client signature; submit the signed transaction to complete it.\n")
	}
	return mcpproto.NewToolResultText(sb.String()), nil
}

// SearchAgentMarketplaceTool finds service providers in the agent marketplace.
func (t *Tools) SearchAgentMarketplaceTool() (mcpproto.Tool, mcpserver.ToolHandlerFunc) {
	tool := mcpproto.NewTool(
		"search_agent_marketplace",
		mcpproto.WithDescription("Search the agent marketplace for service providers that "+
			"accept crypto payments. Results are sorted cheapest first."),
		mcpproto.WithString("service_type",
			mcpproto.Description("Service category to search for, e.g. translation, data-analysis")),
		mcpproto.WithNumber("max_price",
			mcpproto.Description("Maximum acceptable price per unit in USD")),
		mcpproto.WithNumber("min_reputation",
			mcpproto.Description("Minimum provider reputation score (0-5)")),
	)
	return tool, t.handleSearchAgentMarketplace
}

func (t *Tools) handleSearchAgentMarketplace(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	args := req.GetArguments()
	serviceType, _ := args["service_type"].(string)
	maxPrice, _ := args["max_price"].(float64)
	minReputation, _ := args["min_reputation"].(float64)

	providers, err := t.client.SearchProviders(ctx, client.SearchProvidersParams{
		ServiceType:   serviceType,
		MaxPriceUSD:   maxPrice,
		MinReputation: minReputation,
		AvailableOnly: true,
	})
	if err != nil {
		return mcpproto.NewToolResultError("Marketplace search failed. " + advice(err)), nil
	}

	if len(providers) == 0 {
		return mcpproto.NewToolResultText("No providers found matching the criteria. " +
			"Try relaxing the price or reputation filters."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d provider(s):\n", len(providers))
	for i, p := range providers {
		fmt.Fprintf(&sb, "%d. %s (%s) - %s per unit, reputation %.1f\n",
			i+1, p.AgentName, p.AgentID, FormatUSD(p.PricePerUnit), p.Reputation)
		if p.Description != "" {
			fmt.Fprintf(&sb, "   %s\n", p.Description)
		}
		fmt.Fprintf(&sb, "   Wallet: %s\n", p.Wallet)
	}
	sb.WriteString("Pay a provider with make_crypto_payment using its wallet address.")
	return mcpproto.NewToolResultText(sb.String()), nil
}

// CheckPaymentBalanceTool reports remaining spending limits for a session.
func (t *Tools) CheckPaymentBalanceTool() (mcpproto.Tool, mcpserver.ToolHandlerFunc) {
	tool := mcpproto.NewTool(
		"check_payment_balance",
		mcpproto.WithDescription("Check how much spending budget remains on a payment "+
			"session before making a payment."),
		mcpproto.WithString("session_id", mcpproto.Required(),
			mcpproto.Description("The agent session ID to check")),
	)
	return tool, t.handleCheckPaymentBalance
}

func (t *Tools) handleCheckPaymentBalance(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	args := req.GetArguments()
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return mcpproto.NewToolResultError("session_id is required."), nil
	}

	session, err := t.client.GetAgentSession(ctx, sessionID)
	if err != nil {
		return mcpproto.NewToolResultError("Balance check failed. " + advice(err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Session %s", session.ID)
	if !session.IsActive {
		sb.WriteString(" (INACTIVE)")
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "Remaining today: %s of %s %s\n",
		FormatUSD(session.RemainingToday),
		FormatUSD(session.Limits.MaxPerDay),
		spendingBar(session.Limits.MaxPerDay-session.RemainingToday, session.Limits.MaxPerDay))
	fmt.Fprintf(&sb, "Remaining this week: %s of %s\n",
		FormatUSD(session.RemainingThisWeek), FormatUSD(session.Limits.MaxPerWeek))
	fmt.Fprintf(&sb, "Remaining this month: %s of %s\n",
		FormatUSD(session.RemainingThisMonth), FormatUSD(session.Limits.MaxPerMonth))
	fmt.Fprintf(&sb, "Per-transaction limit: %s\n", FormatUSD(session.Limits.MaxPerTransaction))
	if session.Limits.RequireApprovalAbove > 0 {
		fmt.Fprintf(&sb, "Payments above %s need user approval.\n",
			FormatUSD(session.Limits.RequireApprovalAbove))
	}
	return mcpproto.NewToolResultText(sb.String()), nil
}

// CreateSessionKeyTool creates a device-bound session key for autonomous payments.
func (t *Tools) CreateSessionKeyTool() (mcpproto.Tool, mcpserver.ToolHandlerFunc) {
	tool := mcpproto.NewTool(
		"create_session_key",
		mcpproto.WithDescription("Create a device-bound session key so the agent can make "+
			"payments up to a spending limit without per-payment approval. The keypair is "+
			"generated locally and encrypted with the PIN; the backend never sees it."),
		mcpproto.WithString("user_wallet", mcpproto.Required(),
			mcpproto.Description("The user's Solana wallet address")),
		mcpproto.WithString("agent_id", mcpproto.Required(),
			mcpproto.Description("Unique identifier for this agent")),
		mcpproto.WithNumber("limit_usdc", mcpproto.Required(),
			mcpproto.Description("Spending limit in USDC")),
		mcpproto.WithNumber("duration_days",
			mcpproto.Description("Validity in days (1-30, default 7)")),
		mcpproto.WithString("pin", mcpproto.Required(),
			mcpproto.Description("Six-digit PIN that encrypts the key")),
	)
	return tool, t.handleCreateSessionKey
}

func (t *Tools) handleCreateSessionKey(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	args := req.GetArguments()
	opts := client.CreateSessionKeyOptions{
		UserWallet: stringArg(args, "user_wallet"),
		AgentID:    stringArg(args, "agent_id"),
		PIN:        stringArg(args, "pin"),
	}
	if v, ok := args["limit_usdc"].(float64); ok {
		opts.LimitUSDC = v
	}
	if v, ok := args["duration_days"].(float64); ok {
		opts.DurationDays = int(v)
	}

	record, err := t.client.SessionKeys.Create(ctx, opts)
	if err != nil {
		return mcpproto.NewToolResultError("Session key creation failed. " + advice(err)), nil
	}

	var sb strings.Builder
	sb.WriteString("Session key created.\n")
	fmt.Fprintf(&sb, "Session key ID: %s\n", record.SessionKeyID)
	fmt.Fprintf(&sb, "Session wallet: %s\n", record.SessionWallet)
	fmt.Fprintf(&sb, "Spending limit: %s USDC\n", FormatUSD(record.LimitUSDC))
	fmt.Fprintf(&sb, "Expires: %s\n", record.ExpiresAt)
	sb.WriteString("The key is unlocked for this session; it will need the PIN after it locks.")
	return mcpproto.NewToolResultText(sb.String()), nil
}

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}
