package worker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iplan/cellact/internal/app"
	"github.com/iplan/cellact/internal/config"
	"github.com/iplan/cellact/internal/logger"
	"github.com/iplan/cellact/internal/metrics"
	"github.com/iplan/cellact/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var metricsAddr string

var pullerCmd = &cobra.Command{
	Use:   "puller",
	Short: "Pull delivery notifications and replies on an interval",
	RunE:  runPuller,
}

func init() {
	pullerCmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9101", "address for /metrics (empty disables)")
}

func runPuller(cmd *cobra.Command, args []string) error {
	// 1) load config
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	logger.Init(cfg.Log.Level)
	log := logger.Log
	defer func() { _ = log.Sync() }()

	metrics.MustRegister(prometheus.DefaultRegisterer)

	// 2) graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3) gateway side and inbound pipeline
	gw, err := app.NewGateway(cfg, loc, log)
	if err != nil {
		return err
	}
	pipe, err := app.OpenPipeline(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer pipe.Close()

	if metricsAddr != "" {
		ln, err := net.Listen("tcp", metricsAddr)
		if err != nil {
			return fmt.Errorf("metrics listen %s: %w", metricsAddr, err)
		}
		metricsCtx, stopMetrics := context.WithCancel(ctx)
		done := serveMetrics(metricsCtx, ln, log)
		defer func() {
			stopMetrics()
			<-done
		}()
	}

	// 4) worker
	w := worker.NewPuller(gw.Puller, pipe.Inbound, log)
	if cfg.Puller.Interval > 0 {
		w.Interval = cfg.Puller.Interval
	}
	if cfg.Puller.BatchSize > 0 {
		w.BatchSize = cfg.Puller.BatchSize
	}

	log.Info("puller started",
		zap.Duration("interval", w.Interval),
		zap.Int("batch_size", w.BatchSize),
		zap.String("endpoint", cfg.Gateway.URLs.ReportPull),
	)

	return w.Run(ctx)
}

// serveMetrics exposes /metrics on ln until ctx is cancelled. The returned
// channel is closed once the listener has shut down.
func serveMetrics(ctx context.Context, ln net.Listener, log *zap.Logger) <-chan struct{} {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics listener stopped", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	return done
}
