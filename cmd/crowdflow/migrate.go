package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"crowdflow/models"
)

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := gorm.Open(postgres.Open(c.cfg.Database.GetDSN()), &gorm.Config{
				Logger: logger.Default.LogMode(logger.Warn),
			})
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if err := models.AutoMigrate(db.WithContext(cmd.Context())); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}
			c.logger.Info("database migration completed")
			return nil
		},
	}
}
