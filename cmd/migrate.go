package cmd

import (
	"context"
	"fmt"
	"time"

	"Tunebox/db"
	"Tunebox/logger"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "初始化数据库结构",
	Long:  `MySQL 下自动迁移所有表，MongoDB 下创建唯一索引和外键索引。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		store, err := db.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close(ctx)

		switch s := store.(type) {
		case *db.GormStore:
			err = s.AutoMigrate(ctx)
		case *db.MongoStore:
			err = s.EnsureIndexes(ctx)
		default:
			logger.Info("Nothing to migrate", logger.String("driver", cfg.StoreDriver))
			return nil
		}
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Info("Migration completed", logger.String("driver", cfg.StoreDriver))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
