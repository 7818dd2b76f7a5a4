package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/exp/slog"

	"road_router/pkg/api"
	"road_router/pkg/config"
	"road_router/pkg/graph"
	"road_router/pkg/logging"
	"road_router/pkg/routing"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (optional)")
	graphPath := flag.String("graph", "", "Path to node-link graph JSON (overrides config)")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	corsOrigin := flag.String("cors-origin", "", "CORS allowed origin (overrides config; empty = same-origin)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
	}
	if *graphPath != "" {
		cfg.Graph.Dataset = *graphPath
	}
	if *port != 0 {
		cfg.Server.Addr = fmt.Sprintf(":%d", *port)
	}
	if *corsOrigin != "" {
		cfg.Server.CORSOrigin = *corsOrigin
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	start := time.Now()

	// Load graph.
	slog.Info("loading graph", slog.String("path", cfg.Graph.Dataset))
	g, err := graph.LoadFile(cfg.Graph.Dataset)
	if err != nil {
		slog.Error("failed to load graph", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("graph loaded",
		slog.Int("nodes", g.NumNodes()),
		slog.Int("edges", g.NumEdges()),
		slog.Duration("elapsed", time.Since(start).Round(time.Millisecond)))

	engine := routing.NewEngine(g,
		routing.WithSnapThreshold(cfg.Routing.SnapThresholdMeters),
		routing.WithMaxSettled(cfg.Routing.MaxSettled),
		routing.WithLogger(logger))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	handlers := api.NewHandlers(engine, api.NewMetrics(reg), logger)

	srv := api.NewServer(api.ServerConfig{
		Addr:           cfg.Server.Addr,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxConcurrent:  cfg.Server.MaxConcurrent,
		CORSOrigin:     cfg.Server.CORSOrigin,
	}, handlers, reg)

	if err := api.ListenAndServe(srv); err != nil {
		slog.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
