package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voucherchain/config"
	"voucherchain/gateway/middleware"
	"voucherchain/gateway/routes"
	"voucherchain/observability/logging"
	telemetry "voucherchain/observability/otel"
)

const serviceName = "voucherd"

func main() {
	var cfgPath string
	var genesisPath string
	flag.StringVar(&cfgPath, "config", "voucherd.toml", "path to the daemon configuration (created with defaults when missing)")
	flag.StringVar(&genesisPath, "genesis", "", "override the configured genesis manifest")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if strings.TrimSpace(genesisPath) != "" {
		cfg.GenesisFile = genesisPath
	}

	logger, logCloser := logging.Setup(serviceName, cfg.Environment, cfg.LogFile)
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("voucherd stopped", "error", err)
		os.Exit(1)
	}
}

// run serves until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
		Headers:     telemetry.ParseHeaders(cfg.OTLPHeaders),
		Metrics:     cfg.OTLPMetrics,
	})
	if err != nil {
		return fmt.Errorf("initialise telemetry: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(flushCtx)
	}()

	n, err := bootstrap(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer n.Close()

	handler, err := routes.New(routes.Config{
		Query:          routes.NewQuery(n.host, n.deployment),
		Events:         n.index,
		EventPageLimit: cfg.Gateway.EventPageLimit,
		RateLimiter: middleware.NewRateLimiter(middleware.RateLimit{
			RequestsPerSecond: cfg.Gateway.RequestsPerSecond,
			Burst:             cfg.Gateway.Burst,
			MaxClients:        cfg.Gateway.MaxClients,
		}, logger),
		Observability: middleware.NewObservability(logger, cfg.Environment == "dev"),
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("configure gateway: %w", err)
	}

	servers := []*http.Server{{
		Addr:         cfg.GatewayAddress,
		Handler:      handler,
		ReadTimeout:  cfg.Gateway.ReadTimeoutDuration(),
		WriteTimeout: cfg.Gateway.WriteTimeoutDuration(),
	}}
	if cfg.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		servers = append(servers, &http.Server{
			Addr:              cfg.MetricsAddress,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		srv := srv
		go func() {
			logger.Info("listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("serve %s: %w", srv.Addr, err)
			}
		}()
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", "addr", srv.Addr, "error", err)
		}
	}
	return serveErr
}
