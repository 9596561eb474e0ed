package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/curviron/master/internal/audit"
	"github.com/curviron/master/internal/auditstore"
	"github.com/curviron/master/internal/config"
	"github.com/curviron/master/internal/dispatch"
	"github.com/curviron/master/internal/leader"
	"github.com/curviron/master/internal/loadservice"
	"github.com/curviron/master/internal/logger"
	"github.com/curviron/master/internal/metrics"
	"github.com/curviron/master/internal/mount"
	"github.com/curviron/master/internal/namespace"
	"github.com/curviron/master/internal/retrycache"
	"github.com/curviron/master/internal/rpc/auth"
	"github.com/curviron/master/internal/rpcserver"
	"github.com/curviron/master/internal/store/boltstore"
	"github.com/curviron/master/internal/store/workertable"
	"github.com/curviron/master/internal/telemetry"
	"github.com/curviron/master/internal/worker"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the curvine-master server",
	RunE:  runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "curvine-master",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to init telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Error("telemetry shutdown failed", "error", err)
		}
	}()

	shutdownProfiling, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "curvine-master",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("failed to init profiling: %w", err)
	}
	defer func() {
		if err := shutdownProfiling(); err != nil {
			logger.Error("profiling shutdown failed", "error", err)
		}
	}()

	registry := prometheus.NewRegistry()

	d, closeStores, err := buildDispatcher(cfg, registry)
	if err != nil {
		return fmt.Errorf("failed to build dispatcher: %w", err)
	}
	defer closeStores()

	if cfg.Metrics.Enabled {
		go serveMetrics(registry, cfg.Metrics.Port)
	}

	srv := rpcserver.New(cfg.RPC.ListenAddr, d)
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(ctx)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
		cancel()
		srv.Stop()
		select {
		case <-serverDone:
		case <-time.After(cfg.ShutdownTimeout):
			logger.Warn("graceful shutdown timed out")
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("rpc server exited: %w", err)
		}
	}

	return nil
}

// buildDispatcher wires every facade and support package into a
// dispatch.Dispatcher and returns a cleanup function that releases all
// opened stores and connections.
func buildDispatcher(cfg *config.Config, registry *prometheus.Registry) (*dispatch.Dispatcher, func(), error) {
	var closers []func() error
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Error("cleanup error during shutdown", "error", err)
			}
		}
	}

	store, err := boltstore.Open(cfg.Store.NamespacePath)
	if err != nil {
		return nil, closeAll, fmt.Errorf("open namespace store: %w", err)
	}
	closers = append(closers, store.Close)

	table, err := workertable.Open(cfg.Store.WorkerTablePath)
	if err != nil {
		closeAll()
		return nil, closeAll, fmt.Errorf("open worker table: %w", err)
	}
	closers = append(closers, table.Close)

	workerFacade, err := worker.New(table)
	if err != nil {
		closeAll()
		return nil, closeAll, fmt.Errorf("build worker facade: %w", err)
	}

	var reg prometheus.Registerer = registry
	if !cfg.Metrics.Enabled {
		reg = nil
	}

	auditSink, err := buildAuditSink(cfg, &closers)
	if err != nil {
		closeAll()
		return nil, closeAll, err
	}

	var verifier *auth.Verifier
	if cfg.Auth.Secret != "" {
		verifier, err = auth.NewVerifier(auth.Config{
			Secret:        cfg.Auth.Secret,
			Issuer:        cfg.Auth.Issuer,
			TokenDuration: cfg.Auth.TokenDuration,
		})
		if err != nil {
			closeAll()
			return nil, closeAll, fmt.Errorf("build auth verifier: %w", err)
		}
	}

	loadAdapter, err := buildLoadAdapter(cfg, &closers)
	if err != nil {
		closeAll()
		return nil, closeAll, err
	}

	leaderOracle := leader.New(leaderActive(cfg))

	d := &dispatch.Dispatcher{
		Namespace:    namespace.New(store),
		Workers:      workerFacade,
		Mounts:       mount.New(store),
		Retry:        retrycache.New(cfg.RetryCache.Capacity, cfg.RetryCache.TTL),
		Load:         loadAdapter,
		Auth:         verifier,
		Metrics:      metrics.New(reg),
		Audit:        auditSink,
		AuditEnabled: cfg.Audit.Enabled,
		IsLeader:     leaderOracle.IsLeader,
	}

	return d, closeAll, nil
}

func leaderActive(cfg *config.Config) bool {
	if cfg.Leader.Active == nil {
		return true
	}
	return *cfg.Leader.Active
}

func buildAuditSink(cfg *config.Config, closers *[]func() error) (audit.Sink, error) {
	switch cfg.Audit.Sink {
	case "postgres":
		store, err := auditstore.Open(cfg.Audit.Postgres)
		if err != nil {
			return nil, fmt.Errorf("open audit store: %w", err)
		}
		*closers = append(*closers, store.Close)
		return audit.NewGORMSink(store), nil
	case "both":
		store, err := auditstore.Open(cfg.Audit.Postgres)
		if err != nil {
			return nil, fmt.Errorf("open audit store: %w", err)
		}
		*closers = append(*closers, store.Close)
		return audit.Multi{audit.LogSink{}, audit.NewGORMSink(store)}, nil
	default:
		return audit.LogSink{}, nil
	}
}

func buildLoadAdapter(cfg *config.Config, closers *[]func() error) (*loadservice.Adapter, error) {
	if cfg.LoadService.Endpoint == "" {
		return nil, nil
	}

	runner, err := loadservice.DialGRPC(cfg.LoadService.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial load service: %w", err)
	}
	*closers = append(*closers, runner.Close)

	return loadservice.NewAdapter(runner, loadservice.WithMaxElapsedTime(cfg.LoadService.MaxElapsedTime)), nil
}

func serveMetrics(registry *prometheus.Registry, port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	addr := fmt.Sprintf(":%d", port)
	logger.Info("metrics server listening", "address", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		logger.Error("metrics server failed", "error", err)
	}
}
