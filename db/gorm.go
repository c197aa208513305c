package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Tunebox/config"
	"Tunebox/core/query"
	"Tunebox/logger"
	"Tunebox/model"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// mysqlDuplicateEntry MySQL 唯一键冲突错误码
const mysqlDuplicateEntry = 1062

// GormStore MySQL 实现，pipeline 通过 BuildSQL 翻译后用 Raw 执行
type GormStore struct {
	db *gorm.DB
}

// NewGormStore 包装已有的 gorm 连接
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// MySQLDSN 拼接连接串。clientFoundRows 让 UPDATE 返回匹配行数而非变更行数
func MySQLDSN(cfg *config.Config) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local&clientFoundRows=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
}

// ConnectGorm 建立 GORM 数据库连接
func ConnectGorm(cfg *config.Config) (*GormStore, error) {
	logLevel := gormlogger.Warn
	if !cfg.IsProduction() {
		logLevel = gormlogger.Info
	}
	gdb, err := gorm.Open(mysql.Open(MySQLDSN(cfg)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		// 引用完整性由应用层维护
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database with GORM: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	logger.Info("Successfully connected to the database with GORM", logger.String("host", cfg.DBHost), logger.String("database", cfg.DBName))
	return NewGormStore(gdb), nil
}

// AutoMigrate 迁移所有模型
func (s *GormStore) AutoMigrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(model.Models()...); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}
	logger.Info("Models migrated successfully with GORM")
	return nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translateErr 统一错误类型
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNoDocument
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return ErrDuplicate
	}
	return err
}

func (s *GormStore) table(ctx context.Context, coll string, filter []query.Cond) (*gorm.DB, error) {
	tx := s.db.WithContext(ctx).Table(coll)
	if len(filter) == 0 {
		return tx, nil
	}
	clause, args, err := whereClause(filter, plainColumn, nil)
	if err != nil {
		return nil, err
	}
	return tx.Where(clause, args...), nil
}

func (s *GormStore) Insert(ctx context.Context, coll string, doc any) error {
	return translateErr(s.db.WithContext(ctx).Table(coll).Create(doc).Error)
}

func (s *GormStore) FindByID(ctx context.Context, coll, id string, dest any) error {
	return s.FindOne(ctx, coll, []query.Cond{query.Eq("_id", id)}, dest)
}

func (s *GormStore) FindOne(ctx context.Context, coll string, filter []query.Cond, dest any) error {
	tx, err := s.table(ctx, coll, filter)
	if err != nil {
		return err
	}
	return translateErr(tx.Take(dest).Error)
}

func (s *GormStore) Find(ctx context.Context, coll string, filter []query.Cond, keys []query.SortKey, dest any) error {
	tx, err := s.table(ctx, coll, filter)
	if err != nil {
		return err
	}
	if len(keys) > 0 {
		order, err := orderClause(keys, plainColumn)
		if err != nil {
			return err
		}
		tx = tx.Order(order)
	}
	return translateErr(tx.Find(dest).Error)
}

func (s *GormStore) Count(ctx context.Context, coll string, filter []query.Cond) (int64, error) {
	tx, err := s.table(ctx, coll, filter)
	if err != nil {
		return 0, err
	}
	var n int64
	err = tx.Count(&n).Error
	return n, translateErr(err)
}

func (s *GormStore) Update(ctx context.Context, coll, id string, fields map[string]any) error {
	res := s.db.WithContext(ctx).Table(coll).Where("`id` = ?", id).Updates(fields)
	if res.Error != nil {
		return translateErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNoDocument
	}
	return nil
}

// Increment 在事务中先原子自增再读回
func (s *GormStore) Increment(ctx context.Context, coll, id, field string, delta int64) (int64, error) {
	col, err := plainColumn(field)
	if err != nil {
		return 0, err
	}
	var value int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Table(coll).Where("`id` = ?", id).
			UpdateColumn(sqlColumn(field), gorm.Expr(col+" + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNoDocument
		}
		return tx.Table(coll).Select(col).Where("`id` = ?", id).Row().Scan(&value)
	})
	return value, translateErr(err)
}

func (s *GormStore) Delete(ctx context.Context, coll, id string) error {
	table, err := quoteIdent(coll)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Exec("DELETE FROM "+table+" WHERE `id` = ?", id)
	if res.Error != nil {
		return translateErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNoDocument
	}
	return nil
}

func (s *GormStore) Aggregate(ctx context.Context, coll string, p query.Pipeline, dest any) error {
	sql, args, err := BuildSQL(coll, p)
	if err != nil {
		return err
	}
	return translateErr(s.db.WithContext(ctx).Raw(sql, args...).Scan(dest).Error)
}

func (s *GormStore) AggregateCount(ctx context.Context, coll string, p query.Pipeline) (int64, error) {
	sql, args, err := BuildCountSQL(coll, p)
	if err != nil {
		return 0, err
	}
	var n int64
	err = s.db.WithContext(ctx).Raw(sql, args...).Scan(&n).Error
	return n, translateErr(err)
}
