package repository

import (
	"context"
	"fmt"
	"time"

	"Tunebox/core/query"
	"Tunebox/db"
	"Tunebox/model"

	"github.com/google/uuid"
)

// CategoryRepository 分类数据访问接口
type CategoryRepository interface {
	Create(ctx context.Context, name string) (*model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
}

type storeCategoryRepository struct {
	store db.Store
	now   clock
}

// NewCategoryRepository 创建分类仓库
func NewCategoryRepository(store db.Store) CategoryRepository {
	return &storeCategoryRepository{store: store, now: time.Now}
}

// Create 新建分类
func (r *storeCategoryRepository) Create(ctx context.Context, name string) (*model.Category, error) {
	now := r.now()
	category := &model.Category{ID: uuid.NewString(), Name: name, CreatedAt: now, UpdatedAt: now}
	if err := r.store.Insert(ctx, model.CollCategories, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

// List 按名称升序列出全部分类
func (r *storeCategoryRepository) List(ctx context.Context) ([]model.Category, error) {
	categories := []model.Category{}
	keys := []query.SortKey{query.Asc("name"), query.Asc("_id")}
	if err := r.store.Find(ctx, model.CollCategories, nil, keys, &categories); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}
