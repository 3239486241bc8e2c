// Command gtsctl runs maintenance tasks against the booking database.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/iliyamo/cleaning-booking/internal/config"
	"github.com/iliyamo/cleaning-booking/internal/database"
	"github.com/iliyamo/cleaning-booking/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:           "gtsctl",
	Short:         "Maintenance commands for the cleaning booking backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// environment is what every subcommand needs. Tests replace openEnv.
type environment struct {
	cfg   config.Config
	db    *gorm.DB
	log   *zap.Logger
	close func()
}

var openEnv = func() (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, err
	}
	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &environment{
		cfg: cfg,
		db:  db,
		log: log,
		close: func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
			_ = log.Sync()
		},
	}, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
