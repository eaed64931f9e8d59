// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/zotero-mcp/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server",
	Long: `Serve runs the MCP server on stdin/stdout, the transport MCP clients such as
Claude Desktop launch servers with. With --http it serves the streamable HTTP
transport on the given address instead.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("http", "", "serve streamable HTTP on this address (e.g. 127.0.0.1:8080) instead of stdio")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	svc, closer, err := newService()
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := mcp.NewServer(svc, version, log)
	if addr, _ := cmd.Flags().GetString("http"); addr != "" {
		return server.ServeHTTP(ctx, addr)
	}
	return server.ServeStdio(ctx)
}
