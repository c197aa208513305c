package cmd

import (
	"fmt"
	"os"

	"Tunebox/config"
	"Tunebox/logger"
	"Tunebox/server"

	"github.com/spf13/cobra"
)

// cfg 在 PersistentPreRunE 中加载，所有子命令共用
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "tunebox",
	Short: "Tunebox is a music catalog service.",
	Long:  `Tunebox 音乐目录服务：艺人、歌单、歌曲和分类的增删改查与浏览接口。不带子命令时启动 HTTP 服务。`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		return logger.InitLogger(logger.Config{
			Level:       cfg.LogLevel,
			OutputPath:  cfg.LogFile,
			MaxSize:     cfg.LogMaxSizeMB,
			MaxBackups:  cfg.LogMaxBackups,
			MaxAge:      cfg.LogMaxAgeDays,
			Compress:    cfg.LogCompress,
			Development: !cfg.IsProduction(),
		})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		logger.Info("Starting Tunebox server...")
		return server.Start(cfg)
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
