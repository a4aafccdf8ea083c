package cmd

import (
	"context"
	"encoding/json"
	"os"

	"github.com/iplan/cellact/internal/app"
	"github.com/iplan/cellact/internal/logger"
	"github.com/iplan/cellact/internal/model"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	pullBatchSize int
	pullIngest    bool
)

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull one batch of delivery notifications and replies",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, loc, err := loadConfig()
		if err != nil {
			return err
		}
		log := logger.Log

		gw, err := app.NewGateway(cfg, loc, log)
		if err != nil {
			return err
		}

		batch := pullBatchSize
		if batch <= 0 {
			batch = cfg.Puller.BatchSize
		}

		ctx := context.Background()
		res, err := gw.Puller.Pull(ctx, batch)
		if err != nil {
			return err
		}

		if pullIngest {
			pipe, err := app.OpenPipeline(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer pipe.Close()

			sum := pipe.Inbound.AcceptPull(ctx, res)
			log.Info("pull ingested", zap.Any("summary", sum))
		}

		return printPull(res)
	},
}

func init() {
	pullCmd.Flags().IntVar(&pullBatchSize, "batch-size", 0, "messages per pull (puller.batch_size when 0)")
	pullCmd.Flags().BoolVar(&pullIngest, "ingest", false, "store and publish the pulled items")
}

func printPull(res model.ReportPullResult) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
