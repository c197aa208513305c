// Package composer builds the paginated, denormalized read views of the
// catalog: artists, playlists and songs joined to their owners, playlists
// and categories.
//
// Every list operation follows the same pagination contract. totalRows is
// the number of records matching the local predicate; joins are ignored
// for that count. The page window is then re-counted over the joined set,
// and an empty window short-circuits before the shaping query runs.
package composer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"Tunebox/core/query"
	"Tunebox/db"

	"github.com/google/uuid"
)

var (
	// ErrNotFound 直接按 ID 请求的记录不存在
	ErrNotFound = errors.New("not found")
	// ErrInvalidID ID 格式错误
	ErrInvalidID = errors.New("invalid id")
)

// SortMode 排序方式
type SortMode int

const (
	// SortByName 名称升序
	SortByName SortMode = iota
	// SortPopular 点赞数降序，名称升序
	SortPopular
	// SortLeastPopular 点赞数升序，名称升序
	SortLeastPopular
)

// ParseSortMode 解析 typeSort 参数：空为按名称，"asc" 为点赞升序，其余为点赞降序
func ParseSortMode(typeSort string) SortMode {
	switch strings.ToLower(strings.TrimSpace(typeSort)) {
	case "":
		return SortByName
	case "asc":
		return SortLeastPopular
	}
	return SortPopular
}

// keys 排序键，总以 id 收尾保证结果稳定
func (m SortMode) keys() []query.SortKey {
	switch m {
	case SortPopular:
		return []query.SortKey{query.Desc("likeCount"), query.Asc("name"), query.Asc("id")}
	case SortLeastPopular:
		return []query.SortKey{query.Asc("likeCount"), query.Asc("name"), query.Asc("id")}
	}
	return []query.SortKey{query.Asc("name"), query.Asc("id")}
}

// Request 列表请求。Limit <= 0 表示返回全部
type Request struct {
	Search string
	Page   int
	Limit  int
	Sort   SortMode
}

// Pagination 分页信息
type Pagination struct {
	Page      int   `json:"page"`
	Limit     int   `json:"limit"`
	TotalRows int64 `json:"totalRows"`
}

// Page 一页结果
type Page[T any] struct {
	Items      []T
	Pagination Pagination
}

func emptyPage[T any]() *Page[T] {
	return &Page[T]{Items: []T{}, Pagination: Pagination{Page: 1}}
}

// Composer 查询组合器，无内部可变状态，可并发使用
type Composer struct {
	store   db.Reader
	timeout time.Duration
}

// New 创建组合器并校验所有描述符
func New(store db.Reader, timeout time.Duration) (*Composer, error) {
	schemas := Schemas()
	for _, d := range Descriptors() {
		if err := d.Validate(schemas); err != nil {
			return nil, fmt.Errorf("invalid descriptor: %w", err)
		}
		for _, m := range []SortMode{SortByName, SortPopular, SortLeastPopular} {
			for _, k := range m.keys() {
				if !d.hasOutput(k.Field) {
					return nil, fmt.Errorf("invalid descriptor: %s: sort key %q not projected", d.Name, k.Field)
				}
			}
		}
	}
	return &Composer{store: store, timeout: timeout}, nil
}

func (c *Composer) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// validID 校验 ID 格式
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// exists 作用域 ID 是否能解析到记录
func (c *Composer) exists(ctx context.Context, coll, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	n, err := c.store.Count(ctx, coll, []query.Cond{query.Eq("_id", id)})
	return n > 0, err
}

// list 分页查询的统一实现
func list[T any](ctx context.Context, c *Composer, op string, d *Descriptor, scope []query.Cond, req Request) (page *Page[T], err error) {
	defer observe(d.Name, op, time.Now(), &err)
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	conds := d.match(scope, req.Search)
	keys := req.Sort.keys()

	if req.Limit <= 0 {
		items := []T{}
		if err := c.store.Aggregate(ctx, d.Collection, d.shaped(conds, keys, 0, 0), &items); err != nil {
			return nil, fmt.Errorf("%s %s: %w", d.Name, op, err)
		}
		if items == nil {
			items = []T{}
		}
		n := len(items)
		return &Page[T]{Items: items, Pagination: Pagination{Page: 1, Limit: n, TotalRows: int64(n)}}, nil
	}

	total, err := c.store.Count(ctx, d.Collection, conds)
	if err != nil {
		return nil, fmt.Errorf("%s %s count: %w", d.Name, op, err)
	}
	pageNo := req.Page
	if pageNo < 1 {
		pageNo = 1
	}
	limit := int64(req.Limit)
	pg := Pagination{Page: pageNo, Limit: req.Limit, TotalRows: total}
	// 偏移量溢出 int64 的页必然在数据之外
	if int64(pageNo-1) > math.MaxInt64/limit {
		return &Page[T]{Items: []T{}, Pagination: pg}, nil
	}
	skip := int64(pageNo-1) * limit

	inWindow, err := c.store.AggregateCount(ctx, d.Collection, d.window(conds, skip, limit))
	if err != nil {
		return nil, fmt.Errorf("%s %s window count: %w", d.Name, op, err)
	}
	if inWindow == 0 {
		return &Page[T]{Items: []T{}, Pagination: pg}, nil
	}

	if d.RequireChildren != "" {
		if pg.TotalRows, err = c.store.AggregateCount(ctx, d.Collection, d.joined(conds)); err != nil {
			return nil, fmt.Errorf("%s %s joined count: %w", d.Name, op, err)
		}
	}

	items := []T{}
	if err := c.store.Aggregate(ctx, d.Collection, d.shaped(conds, keys, skip, limit), &items); err != nil {
		return nil, fmt.Errorf("%s %s: %w", d.Name, op, err)
	}
	if items == nil {
		items = []T{}
	}
	return &Page[T]{Items: items, Pagination: pg}, nil
}

// fetch 按 ID 取单条投影记录
func fetch[T any](ctx context.Context, c *Composer, d *Descriptor, scope []query.Cond) (result *T, err error) {
	defer observe(d.Name, "get", time.Now(), &err)
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var items []T
	if err := c.store.Aggregate(ctx, d.Collection, d.shaped(scope, nil, 0, 1), &items); err != nil {
		return nil, fmt.Errorf("%s get: %w", d.Name, err)
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return &items[0], nil
}
