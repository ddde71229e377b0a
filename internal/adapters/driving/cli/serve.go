package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/wbattistetti/AILawyer-sub000/internal/adapters/driving/httpapi"
	"github.com/wbattistetti/AILawyer-sub000/internal/adapters/driving/mcp"
	"github.com/wbattistetti/AILawyer-sub000/internal/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the entity index over HTTP",
	Long: `Start the HTTP API over the entity index.

Endpoints:
  GET    /api/persons                    search persons (q, case, has_cf, has_dob,
                                         has_address, has_title, min_confidence,
                                         sort, limit, offset)
  GET    /api/persons/{id}?case=         one person
  GET    /api/persons/{id}/occurrences   occurrences of a person (case, limit)
  POST   /api/pending                    {"docs":[...]} -> documents still to extract
  GET    /api/snapshots?case=            extraction snapshots
  DELETE /api/cases/{caseID}             clear a case
  GET    /api/export?case=               xlsx workbook
  POST   /mcp                            MCP streamable HTTP transport
  GET    /metrics                        prometheus metrics
  GET    /healthz                        liveness`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	entities, err := app.Entities()
	if err != nil {
		return err
	}
	exports, err := app.Exports()
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = app.Settings().Get().Server.Addr
	}

	api := httpapi.NewServer(entities, exports)
	mcpServer, err := mcp.NewServer(&mcp.Ports{Entities: entities}, mcp.Options{Version: version})
	if err != nil {
		return err
	}
	api.Mount("/mcp", mcpServer.Handler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx := cmd.Context()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown: %v", err)
		}
	}()

	logger.Info("HTTP API listening on %s", addr)
	fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", addr)
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
