/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/eduwrite/apiserver/config"
	"github.com/eduwrite/apiserver/internal/mq"
	"github.com/eduwrite/apiserver/internal/storage"
	"github.com/eduwrite/apiserver/internal/worker"
	"github.com/spf13/cobra"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Archives usage records from the message queue to object storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := newLogger(cfg)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		backend, err := mq.NewBackend(ctx, cfg.MQ)
		if errors.Is(err, mq.ErrDisabled) {
			return errors.New("worker needs MQ_BACKEND set to rabbitmq or pubsub")
		}
		if err != nil {
			return fmt.Errorf("connect mq: %w", err)
		}
		queue := mq.New(backend, cfg.MQ.UsageChannel, logger)
		defer queue.Close()

		objects, err := storage.NewBackend(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("connect storage: %w", err)
		}
		archiver := storage.NewArchiver(objects, logger)
		if err := archiver.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("ensure bucket: %w", err)
		}

		return worker.New(queue, archiver, logger).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
