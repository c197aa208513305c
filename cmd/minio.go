package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"

	"Tunebox/storage"

	"github.com/spf13/cobra"
)

var (
	minioPrefix    string
	minioStats     bool
	minioRecursive bool
	minioDelete    bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO存储桶管理",
	Long:  `查看和管理媒体存储桶中的文件，支持列出文件、查看统计信息、递归显示目录结构、删除目录等功能。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		host, err := storage.NewMinioHost(cfg)
		if err != nil {
			return fmt.Errorf("无法连接到MinIO: %w", err)
		}
		inspector := storage.NewBucketInspector(host)
		ctx := context.Background()

		if minioDelete {
			if minioPrefix == "" {
				return fmt.Errorf("删除操作需要指定目录前缀")
			}
			n, err := inspector.RemovePrefix(ctx, minioPrefix)
			if err != nil {
				return fmt.Errorf("删除目录失败: %w", err)
			}
			fmt.Printf("已删除 %s 下的 %d 个文件\n", minioPrefix, n)
			return nil
		}

		objects, stats, err := inspector.List(ctx, minioPrefix, minioRecursive || minioStats)
		if err != nil {
			return fmt.Errorf("列出文件失败: %w", err)
		}

		switch {
		case minioStats:
			fmt.Printf("文件总数: %d\n", stats.TotalObjects)
			fmt.Printf("总大小: %s\n", storage.FormatSize(stats.TotalSize))
			if !stats.LastModified.IsZero() {
				fmt.Printf("最后修改: %s\n", stats.LastModified.Format("2006-01-02 15:04:05"))
			}
			kinds := make([]string, 0, len(stats.SizeByKind))
			for kind := range stats.SizeByKind {
				kinds = append(kinds, kind)
			}
			sort.Strings(kinds)
			for _, kind := range kinds {
				fmt.Printf("  %-6s %s\n", kind, storage.FormatSize(stats.SizeByKind[kind]))
			}
		case minioRecursive:
			storage.WriteTree(os.Stdout, objects)
		default:
			for _, obj := range objects {
				fmt.Printf("%-60s %10s  %s\n", obj.Key, storage.FormatSize(obj.Size), obj.LastModified.Format("2006-01-02 15:04:05"))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "按前缀过滤文件或指定要操作的目录")
	minioCmd.Flags().BoolVarP(&minioStats, "stats", "s", false, "显示存储桶统计信息")
	minioCmd.Flags().BoolVarP(&minioRecursive, "recursive", "r", false, "递归显示目录结构")
	minioCmd.Flags().BoolVarP(&minioDelete, "delete", "d", false, "删除指定目录及其下的所有文件")

	minioCmd.Example = `  # 列出所有文件
  tunebox minio

  # 某个艺人的歌曲文件
  tunebox minio -p "alpha-official/song/"

  # 显示存储桶统计信息
  tunebox minio -s

  # 递归显示目录结构
  tunebox minio -r -p "alpha-official/"

  # 删除目录及其下的所有文件
  tunebox minio -d -p "alpha-official/"`
}
