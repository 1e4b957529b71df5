package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/adapters/driving/api"
	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/logger"
)

var (
	serveAddr        string
	serveNoScheduler bool
	serveMCP         bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the context pack HTTP API",
	Long: `Start the HTTP API that serves the pack catalog, resumable downloads,
direct document ingest and similarity search. Prometheus metrics are exposed
at /metrics. With --mcp the Model Context Protocol transport is served at /mcp.

Packs registered with 'zerosignal schedule add' are re-ingested in the
background while the server runs.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (default from settings, :8000)")
	serveCmd.Flags().BoolVar(&serveNoScheduler, "no-scheduler", false, "do not run scheduled re-ingestion")
	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "also serve the MCP transport at /mcp")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if catalogService == nil || downloadService == nil {
		return fmt.Errorf("catalog and download services %w", errNotConfigured)
	}

	logger.SetTimestamps(true)
	defer logger.SetTimestamps(false)

	addr := serveAddr
	if addr == "" && settingsService != nil {
		if settings, err := settingsService.Get(); err == nil {
			addr = settings.Server.Addr
		}
	}
	if addr == "" {
		addr = ":8000"
	}

	ports := &api.Ports{
		Download: downloadService,
		Catalog:  catalogService,
		Ingestor: ingestor,
		Search:   searchService,
	}
	server, err := api.NewServer(ports, nil)
	if err != nil {
		return err
	}
	if serveMCP {
		mcpServer, err := newMCPServer()
		if err != nil {
			return err
		}
		server.Mount("/mcp", mcpServer.Handler())
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		return server.Run(ctx, addr)
	})

	if scheduler != nil && !serveNoScheduler {
		g.Go(func() error {
			if err := scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("scheduler: %w", err)
			}
			return nil
		})
		defer func() {
			if err := scheduler.Stop(); err != nil {
				logger.Warn("scheduler stop error: %v", err)
			}
		}()
	}

	cmd.Printf("Serving context packs on %s\n", addr)
	return g.Wait()
}
