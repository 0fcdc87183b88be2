// Package mcpserver exposes the tenancy tools as a Model Context Protocol
// server over stdio, using the official MCP Go SDK
// (github.com/modelcontextprotocol/go-sdk).
//
// This is the integration surface for MCP hosts like IDE agents; the
// assistant's own tool path goes through internal/bridge instead.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tenvoy/tenvoy/internal/catalog"
	"github.com/tenvoy/tenvoy/internal/tenancy"
)

// New builds an MCP server with the three tenancy tools registered. Input
// schemas are inferred from the catalog argument types.
func New(tools *tenancy.Tools, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "tenvoy",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        catalog.ToolPublicIPSummary,
		Description: describe(catalog.ToolPublicIPSummary),
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args catalog.PublicIPArgs) (*mcp.CallToolResult, *tenancy.PublicIPSummary, error) {
		out, err := tools.PublicIPSummaryTool(ctx, args)
		return nil, out, err
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        catalog.ToolCostSummary,
		Description: describe(catalog.ToolCostSummary),
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args catalog.CostArgs) (*mcp.CallToolResult, *tenancy.CostSummary, error) {
		out, err := tools.CostSummaryTool(ctx, args)
		return nil, out, err
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        catalog.ToolCloudGuardSummary,
		Description: describe(catalog.ToolCloudGuardSummary),
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args catalog.CloudGuardArgs) (*mcp.CallToolResult, *tenancy.CloudGuardSummary, error) {
		out, err := tools.CloudGuardSummaryTool(ctx, args)
		return nil, out, err
	})

	return server
}

// Run serves MCP over stdin/stdout until the context is cancelled or the
// host disconnects.
func Run(ctx context.Context, tools *tenancy.Tools, version string) error {
	return New(tools, version).Run(ctx, &mcp.StdioTransport{})
}

func describe(tool string) string {
	desc, err := catalog.Lookup(tool)
	if err != nil {
		return ""
	}
	return desc.Description
}
