package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"Tunebox/db"
	"Tunebox/repository"

	"github.com/spf13/cobra"
)

var categoryCmd = &cobra.Command{
	Use:   "category",
	Short: "歌单分类管理",
}

var categoryAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "新增分类",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCategories(func(ctx context.Context, repo repository.CategoryRepository) error {
			category, err := repo.Create(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Printf("已创建分类 %s (%s)\n", category.Name, category.ID)
			return nil
		})
	},
}

var categoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出全部分类",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCategories(func(ctx context.Context, repo repository.CategoryRepository) error {
			categories, err := repo.List(ctx)
			if err != nil {
				return err
			}
			for _, c := range categories {
				fmt.Printf("%s  %s\n", c.ID, c.Name)
			}
			return nil
		})
	},
}

// withCategories 打开存储并执行分类操作
func withCategories(fn func(ctx context.Context, repo repository.CategoryRepository) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := db.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close(ctx)
	return fn(ctx, repository.NewCategoryRepository(store))
}

func init() {
	categoryCmd.AddCommand(categoryAddCmd, categoryListCmd)
	rootCmd.AddCommand(categoryCmd)
}
