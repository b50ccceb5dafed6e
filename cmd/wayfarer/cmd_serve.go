package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"wayfarer/internal/logging"
	mcpserver "wayfarer/internal/mcp"
	"wayfarer/internal/store"
	"wayfarer/pkg/journey"
)

var serveFlags struct {
	db          string
	metricsAddr string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server over stdio",
	Long: `Starts an MCP server over stdin/stdout. Agent hosts connect via their
mcp.json and drive simulations through the run_session, run_cohort,
list_personas, and get_session tools.

The server monitors for parent process death. When the host disconnects
or restarts, the server self-terminates to prevent zombie processes.`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.db, "db", store.DefaultDBPath, "SQLite database path for finished traces")
	f.StringVar(&serveFlags.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090); empty = disabled")
}

func runServe(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(serveFlags.db)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	var opts []mcpserver.ServerOption
	if serveFlags.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		opts = append(opts, mcpserver.WithMetrics(journey.NewMetricsObserver(reg)))
		go serveMetrics(serveFlags.metricsAddr, reg)
	}

	srv := mcpserver.NewServer(st, opts...)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	mcpserver.WatchParent(ctx, cancel)

	logging.New("mcp").Info("starting wayfarer MCP server over stdio (parent watchdog active)")
	return srv.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

// serveMetrics exposes the registry on /metrics. A listener failure is
// logged, not fatal: the MCP server keeps running without metrics.
func serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logging.New("mcp").Error("metrics listener failed", "addr", addr, "error", err)
	}
}
