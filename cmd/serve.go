package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iplan/cellact/internal/app"
	"github.com/iplan/cellact/internal/db"
	httpSrv "github.com/iplan/cellact/internal/http"
	"github.com/iplan/cellact/internal/logger"
	"github.com/iplan/cellact/internal/metrics"
	"github.com/iplan/cellact/internal/parser"
	"github.com/iplan/cellact/internal/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the push receiver and HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, loc, err := loadConfig()
		if err != nil {
			return err
		}
		log := logger.Log
		defer func() { _ = log.Sync() }()

		metrics.MustRegister(prometheus.DefaultRegisterer)

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		pipe, err := app.OpenPipeline(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer pipe.Close()

		chDB, err := db.OpenClickHouse(ctx, cfg.ClickHouse)
		if err != nil {
			return fmt.Errorf("clickhouse connect: %w", err)
		}
		defer func() { _ = chDB.Close() }()

		opts := cfg.ParserOptions(loc)
		opts.Logger = log

		deps := httpSrv.Deps{
			Push:    parser.NewPushParser(parser.Dialect(cfg.Parsing.ReplyDialect), opts),
			Inbound: pipe.Inbound,
			Reports: repository.NewCHNotificationsRepository(chDB),
			Redis:   pipe.Redis,
		}
		if cfg.HTTP.SendEnabled {
			gw, err := app.NewGateway(cfg, loc, log)
			if err != nil {
				log.Warn("send endpoint disabled", zap.Error(err))
			} else {
				deps.Sender = gw.Sender
			}
		}

		server := httpSrv.NewServer(cfg, deps)

		errCh := make(chan error, 1)
		go func() {
			log.Info("starting http", zap.String("addr", cfg.HTTP.Addr))
			errCh <- server.Start(cfg.HTTP.Addr)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			log.Info("signal received, shutting down", zap.Stringer("signal", sig))
		case err := <-errCh:
			if err != nil {
				log.Error("http server exited", zap.Error(err))
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)

		return nil
	},
}
