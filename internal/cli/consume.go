package cli

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Ashwinpatel7/Eazyvenue/internal/config"
	"github.com/Ashwinpatel7/Eazyvenue/internal/queue"
)

func newConsumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consume",
		Short: "Append booking events from RabbitMQ to the audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.RabbitURL == "" {
				return errors.New("consume: RABBITMQ_URL is not set")
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			log.Printf("consuming %s into %s", cfg.EventsQueue, cfg.AuditLogPath)
			c := queue.NewConsumer(cfg.RabbitURL, cfg.EventsQueue, queue.NewAuditLog(cfg.AuditLogPath))
			return c.Run(ctx)
		},
	}
}
