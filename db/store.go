package db

import (
	"context"
	"errors"
	"fmt"

	"Tunebox/config"
	"Tunebox/core/query"
)

var (
	// ErrNoDocument 按 ID 或条件找不到记录
	ErrNoDocument = errors.New("db: no document")
	// ErrDuplicate 违反唯一约束
	ErrDuplicate = errors.New("db: duplicate key")
	// ErrUnsupported 存储无法执行该 pipeline
	ErrUnsupported = errors.New("db: unsupported pipeline")
)

// Reader 只读操作。字段名统一使用文档的 bson 名称（驼峰，主键为 _id）。
type Reader interface {
	FindByID(ctx context.Context, coll, id string, dest any) error
	FindOne(ctx context.Context, coll string, filter []query.Cond, dest any) error
	Find(ctx context.Context, coll string, filter []query.Cond, sort []query.SortKey, dest any) error
	Count(ctx context.Context, coll string, filter []query.Cond) (int64, error)
	// Aggregate 执行 pipeline，dest 为切片指针
	Aggregate(ctx context.Context, coll string, p query.Pipeline, dest any) error
	// AggregateCount 返回 pipeline 输出的行数
	AggregateCount(ctx context.Context, coll string, p query.Pipeline) (int64, error)
}

// Writer 写操作
type Writer interface {
	Insert(ctx context.Context, coll string, doc any) error
	Update(ctx context.Context, coll, id string, fields map[string]any) error
	// Increment 原子地给数值字段加 delta，返回新值
	Increment(ctx context.Context, coll, id, field string, delta int64) (int64, error)
	Delete(ctx context.Context, coll, id string) error
}

// Store 文档存储抽象，MongoDB / MySQL / 内存 三种实现
type Store interface {
	Reader
	Writer
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Open 根据配置打开存储
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		return ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.StoreMySQL:
		return ConnectGorm(cfg)
	case config.StoreMemory:
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
