package main

import (
	"context"

	"github.com/spf13/cobra"

	"animoverride/internal/mcp"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		RunE:  runServe,
	}
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := setup(ctx, setupOptions{})
	if err != nil {
		return err
	}

	server := mcp.NewServer(a.projects, a.registry, a.compiler, version)
	return server.Run(ctx, &sdk.StdioTransport{})
}
