package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/finsight/finsight/internal/ledger"
	"github.com/finsight/finsight/internal/storage"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store     *storage.Store
	Assistant Assistant
}

// NewMCPServer creates an MCP server exposing the books and the assistant to
// MCP clients.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"finsight",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("finsight — bookkeeping for small businesses: ledger queries and financial questions answered by Fin."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("ask_assistant",
			mcp.WithDescription("Ask Fin, the bookkeeping assistant, a financial question grounded in the current books."),
			mcp.WithString("question", mcp.Description("The question to ask"), mcp.Required()),
		),
		mcpAskAssistant(deps),
	)

	s.AddTool(
		mcp.NewTool("financial_summary",
			mcp.WithDescription("Return revenue, expenses, profit, and top expense categories for the books."),
		),
		mcpFinancialSummary(deps),
	)

	s.AddTool(
		mcp.NewTool("list_transactions",
			mcp.WithDescription("List recent transactions, newest first, optionally filtered by category."),
			mcp.WithString("category", mcp.Description("Filter by category name")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
		),
		mcpListTransactions(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"finance://summary",
			"Financial Summary",
			mcp.WithResourceDescription("Aggregate view of the books as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceSummary(deps),
	)

	return s
}

func mcpAskAssistant(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return mcpError("question is required"), nil
		}

		data := financialContext(ctx, deps.Store)
		answer := deps.Assistant.GenerateResponse(ctx, question, nil, data)

		return mcpText(answer), nil
	}
}

func mcpFinancialSummary(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		summary, err := ledger.Summarize(ctx, deps.Store)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to summarize ledger: %v", err)), nil
		}

		b, err := json.Marshal(summary)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal summary: %v", err)), nil
		}

		return mcpText(string(b)), nil
	}
}

func mcpListTransactions(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		category := req.GetString("category", "")

		limit := req.GetInt("limit", 20)
		if limit <= 0 {
			limit = 20
		}
		if limit > 100 {
			limit = 100
		}

		txns, err := deps.Store.ListTransactions(ctx, category, limit)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to list transactions: %v", err)), nil
		}

		b, err := json.Marshal(toTransactionList(txns))
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal transactions: %v", err)), nil
		}

		return mcpText(string(b)), nil
	}
}

func mcpResourceSummary(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		summary, err := ledger.Summarize(ctx, deps.Store)
		if err != nil {
			return nil, fmt.Errorf("failed to summarize ledger: %w", err)
		}

		b, err := json.Marshal(summary)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal summary: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
