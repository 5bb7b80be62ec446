package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/Ashwinpatel7/Eazyvenue/internal/config"
	"github.com/Ashwinpatel7/Eazyvenue/internal/database"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DBDriver == config.DriverMemory {
				return fmt.Errorf("migrate: nothing to do for the %s driver", cfg.DBDriver)
			}
			db, err := database.Open(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.Migrate(context.Background(), db); err != nil {
				return err
			}
			log.Printf("migrations applied (driver=%s)", cfg.DBDriver)
			return nil
		},
	}
}
