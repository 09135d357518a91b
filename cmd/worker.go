/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/patitas-adopcion/apiserver/internal/db"
	"github.com/patitas-adopcion/apiserver/internal/metrics"
	"github.com/patitas-adopcion/apiserver/internal/mq"
	"github.com/patitas-adopcion/apiserver/internal/services"
	"github.com/patitas-adopcion/apiserver/internal/storage"
	"github.com/patitas-adopcion/apiserver/internal/store"
	"github.com/patitas-adopcion/apiserver/internal/worker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var workerMetricsAddr string

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Collects images no listing references",
	Long: `Subscribes to listing events and deletes images released by updates and
deletes. It also sweeps old uploads that never ended up in a listing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.EqualFold(cfg.Database.Driver, "memory") {
			return errors.New("worker needs a shared database; DB_DRIVER=memory is not supported")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		dbConn, err := db.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer dbConn.Close()

		images, err := storage.New(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("init storage: %w", err)
		}

		events, err := mq.Open(ctx, cfg.MQ, logger)
		if err != nil {
			return fmt.Errorf("init mq: %w", err)
		}
		defer events.Close()

		m := metrics.New()
		uploads := services.NewUploadService(store.NewUploadRepository(dbConn), images, logger, m)
		w := worker.New(events, uploads, cfg.Worker, logger)

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return w.Run(ctx)
		})
		if workerMetricsAddr != "" {
			metricsServer := &http.Server{Addr: workerMetricsAddr, Handler: m.Handler(), ReadHeaderTimeout: 5 * time.Second}
			g.Go(func() error {
				if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return metricsServer.Shutdown(shutdownCtx)
			})
		}

		logger.Info("worker iniciado",
			zap.String("mq", cfg.MQ.Backend),
			zap.String("storage", images.Backend()),
			zap.Duration("sweep_interval", cfg.Worker.SweepInterval),
			zap.Duration("orphan_ttl", cfg.Worker.OrphanTTL))
		if err := g.Wait(); err != nil {
			return err
		}
		logger.Info("worker detenido")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)

	workerCmd.Flags().StringVar(&workerMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9091)")
}
