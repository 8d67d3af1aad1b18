package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"astrowheel/internal/mcp"
	"astrowheel/internal/metrics"
	"astrowheel/internal/orientation"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func serveCmd() *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(metricsAddr)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (overrides metrics.addr)")
	return cmd
}

func runServe(metricsAddr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p, err := loadProject(ctx)
	if err != nil {
		return err
	}
	for _, err := range p.ingested.Errors {
		log.Printf("skipping wheel file: %v", err)
	}

	db, err := openStore(ctx, p.cfg.Store.DSN)
	if err != nil {
		return err
	}
	defer db.Close(context.Background())

	recorder, err := metrics.New()
	if err != nil {
		return err
	}
	projector, err := orientation.NewProjector(p.cfg.Cache.Size, recorder)
	if err != nil {
		return err
	}

	if metricsAddr == "" {
		metricsAddr = p.cfg.Metrics.Addr
	}
	if metricsAddr != "" {
		srv := startMetrics(metricsAddr, recorder)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	server, err := mcp.NewServer(mcp.Options{
		Registry:  p.registry,
		Presets:   p.presets,
		Store:     db,
		Projector: projector,
		Recorder:  recorder,
	}, version)
	if err != nil {
		return err
	}
	log.Printf("astrowheel %s serving %d wheels over stdio", version, len(p.registry.Names()))
	return server.Run(ctx, &sdk.StdioTransport{})
}

func startMetrics(addr string, recorder *metrics.Recorder) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", recorder.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Printf("metrics listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server: %v", err)
		}
	}()
	return srv
}
