// Package zendfi provides the core types, error taxonomy, and configuration
// for the ZendFi Agentic Intent Protocol: session-key based, spending-limited,
// gasless USDC payments on Solana.
//
// The root package holds wire types shared across the SDK. The client package
// implements the HTTP API client, the signer package implements Ed25519
// session-key signing, and the mcp package exposes payment operations as
// MCP tools for agent frameworks.
package zendfi

// SDKVersion is reported in the User-Agent and X-ZendFi-SDK headers.
const SDKVersion = "0.1.0"

// DefaultBaseURL is the production API endpoint. Test and live traffic share
// the same host; the mode is carried by the API key prefix.
const DefaultBaseURL = "https://api.zendfi.com"
