package cmd

import (
	"Tunebox/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动Tunebox服务器",
	Long:  `启动Tunebox的HTTP服务器，提供艺人、歌单、歌曲、分类和后台账号接口`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
