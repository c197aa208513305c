package db

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"Tunebox/core/query"
	"Tunebox/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore 进程内存储，用于测试和本地开发。
// 文档以 bson 往返后的 map 保存，字段名与 MongoDB 完全一致。
type MemoryStore struct {
	mu     sync.RWMutex
	colls  map[string][]map[string]any
	unique map[string][]string
}

// NewMemoryStore 创建内存存储，username 在 users/accounts 上唯一
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		colls: make(map[string][]map[string]any),
		unique: map[string][]string{
			model.CollArtists:  {"username"},
			model.CollAccounts: {"username"},
		},
	}
}

func toDoc(v any) (map[string]any, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return map[string]any(m), nil
}

func decodeDoc(doc map[string]any, dest any) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, dest)
}

// decodeDocs 把多行解码进切片指针
func decodeDocs(rows []map[string]any, dest any) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("memory store: dest must be a pointer to a slice, got %T", dest)
	}
	slice := rv.Elem()
	out := reflect.MakeSlice(slice.Type(), 0, len(rows))
	elemType := slice.Type().Elem()
	for _, row := range rows {
		elem := reflect.New(elemType)
		if err := decodeDoc(row, elem.Interface()); err != nil {
			return err
		}
		out = reflect.Append(out, elem.Elem())
	}
	slice.Set(out)
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func (s *MemoryStore) Close(ctx context.Context) error { return nil }

func (s *MemoryStore) Insert(ctx context.Context, coll string, doc any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d, err := toDoc(doc)
	if err != nil {
		return fmt.Errorf("memory store: encode %s: %w", coll, err)
	}
	id, _ := d["_id"].(string)
	if id == "" {
		return fmt.Errorf("memory store: %s document without _id", coll)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.colls[coll] {
		if existing["_id"] == id {
			return ErrDuplicate
		}
		for _, f := range s.unique[coll] {
			if v, ok := d[f]; ok && v != "" && existing[f] == v {
				return ErrDuplicate
			}
		}
	}
	s.colls[coll] = append(s.colls[coll], d)
	return nil
}

func (s *MemoryStore) indexOf(coll, id string) int {
	for i, d := range s.colls[coll] {
		if d["_id"] == id {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) FindByID(ctx context.Context, coll, id string, dest any) error {
	return s.FindOne(ctx, coll, []query.Cond{query.Eq("_id", id)}, dest)
}

func (s *MemoryStore) FindOne(ctx context.Context, coll string, filter []query.Cond, dest any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.colls[coll] {
		if matchAll(d, filter) {
			return decodeDoc(d, dest)
		}
	}
	return ErrNoDocument
}

func (s *MemoryStore) Find(ctx context.Context, coll string, filter []query.Cond, keys []query.SortKey, dest any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	rows := s.filtered(coll, filter)
	s.mu.RUnlock()
	sortRows(rows, keys)
	return decodeDocs(rows, dest)
}

func (s *MemoryStore) Count(ctx context.Context, coll string, filter []query.Cond) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.filtered(coll, filter))), nil
}

// filtered 返回匹配行的浅拷贝，调用方需持有读锁
func (s *MemoryStore) filtered(coll string, filter []query.Cond) []map[string]any {
	var rows []map[string]any
	for _, d := range s.colls[coll] {
		if matchAll(d, filter) {
			rows = append(rows, shallowCopy(d))
		}
	}
	return rows
}

func (s *MemoryStore) Update(ctx context.Context, coll, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	set, err := toDoc(bson.M(fields))
	if err != nil {
		return fmt.Errorf("memory store: encode update: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(coll, id)
	if i < 0 {
		return ErrNoDocument
	}
	for _, f := range s.unique[coll] {
		v, ok := set[f]
		if !ok {
			continue
		}
		for j, other := range s.colls[coll] {
			if j != i && other[f] == v {
				return ErrDuplicate
			}
		}
	}
	updated := shallowCopy(s.colls[coll][i])
	for k, v := range set {
		updated[k] = v
	}
	s.colls[coll][i] = updated
	return nil
}

func (s *MemoryStore) Increment(ctx context.Context, coll, id, field string, delta int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(coll, id)
	if i < 0 {
		return 0, ErrNoDocument
	}
	cur, _ := toFloat(s.colls[coll][i][field])
	next := int64(cur) + delta
	updated := shallowCopy(s.colls[coll][i])
	updated[field] = next
	s.colls[coll][i] = updated
	return next, nil
}

func (s *MemoryStore) Delete(ctx context.Context, coll, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(coll, id)
	if i < 0 {
		return ErrNoDocument
	}
	docs := s.colls[coll]
	s.colls[coll] = append(docs[:i:i], docs[i+1:]...)
	return nil
}

func (s *MemoryStore) Aggregate(ctx context.Context, coll string, p query.Pipeline, dest any) error {
	rows, err := s.run(ctx, coll, p)
	if err != nil {
		return err
	}
	return decodeDocs(rows, dest)
}

func (s *MemoryStore) AggregateCount(ctx context.Context, coll string, p query.Pipeline) (int64, error) {
	rows, err := s.run(ctx, coll, p)
	if err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

func (s *MemoryStore) run(ctx context.Context, coll string, p query.Pipeline) ([]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.filtered(coll, nil)
	for _, st := range p {
		switch st := st.(type) {
		case query.Match:
			kept := rows[:0]
			for _, r := range rows {
				if matchAll(r, st.Conds) {
					kept = append(kept, r)
				}
			}
			rows = kept
		case query.Lookup:
			foreign := s.colls[st.From]
			for _, r := range rows {
				local, _ := lookupPath(r, st.LocalField)
				joined := make([]any, 0, 1)
				for _, f := range foreign {
					if v, ok := lookupPath(f, st.ForeignField); ok && local != nil && equalValues(v, local) {
						joined = append(joined, shallowCopy(f))
					}
				}
				r[st.As] = joined
			}
		case query.Unwind:
			var out []map[string]any
			for _, r := range rows {
				arr, _ := r[st.Path].([]any)
				if len(arr) == 0 {
					if st.PreserveEmpty {
						delete(r, st.Path)
						out = append(out, r)
					}
					continue
				}
				for _, el := range arr {
					c := shallowCopy(r)
					c[st.Path] = el
					out = append(out, c)
				}
			}
			rows = out
		case query.Project:
			out := make([]map[string]any, 0, len(rows))
			for _, r := range rows {
				shaped := make(map[string]any, len(st.Fields))
				for _, f := range st.Fields {
					if f.SizeOf != "" {
						arr, _ := r[f.SizeOf].([]any)
						shaped[f.Out] = int64(len(arr))
						continue
					}
					if v, ok := lookupPath(r, f.Source); ok && v != nil {
						shaped[f.Out] = v
					}
				}
				out = append(out, shaped)
			}
			rows = out
		case query.Sort:
			sortRows(rows, st.Keys)
		case query.Skip:
			if st.N >= int64(len(rows)) {
				rows = nil
			} else if st.N > 0 {
				rows = rows[st.N:]
			}
		case query.Limit:
			if st.N <= 0 {
				return nil, fmt.Errorf("%w: limit must be positive", ErrUnsupported)
			}
			if st.N < int64(len(rows)) {
				rows = rows[:st.N]
			}
		default:
			return nil, fmt.Errorf("%w: stage %T", ErrUnsupported, st)
		}
	}
	return rows, nil
}

func shallowCopy(d map[string]any) map[string]any {
	c := make(map[string]any, len(d))
	for k, v := range d {
		c[k] = v
	}
	return c
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case bson.M:
		return map[string]any(m), true
	}
	return nil, false
}

// lookupPath 解析 "a.b" 形式的路径
func lookupPath(doc map[string]any, path string) (any, bool) {
	head, rest := query.SplitPath(path)
	if head == "" {
		v, ok := doc[rest]
		return v, ok
	}
	sub, ok := asMap(doc[head])
	if !ok {
		return nil, false
	}
	return lookupPath(sub, rest)
}

func matchAll(doc map[string]any, conds []query.Cond) bool {
	for _, c := range conds {
		if !matchCond(doc, c) {
			return false
		}
	}
	return true
}

func matchCond(doc map[string]any, c query.Cond) bool {
	v, ok := lookupPath(doc, c.Field)
	switch c.Op {
	case query.OpEq:
		if !ok {
			return c.Value == nil
		}
		return equalValues(v, c.Value)
	case query.OpContainsFold:
		s, isStr := v.(string)
		needle, _ := c.Value.(string)
		return ok && isStr && strings.Contains(strings.ToLower(s), strings.ToLower(needle))
	case query.OpNonEmpty:
		arr, _ := v.([]any)
		return len(arr) > 0
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case primitive.DateTime:
		return float64(n), true
	case time.Time:
		return float64(n.UnixMilli()), true
	}
	return 0, false
}

func equalValues(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	return reflect.DeepEqual(a, b)
}

// compareValues 缺失/空值最小，数字和时间按数值比较，字符串按字节序
func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func sortRows(rows []map[string]any, keys []query.SortKey) {
	if len(keys) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, k := range keys {
			vi, _ := lookupPath(rows[i], k.Field)
			vj, _ := lookupPath(rows[j], k.Field)
			c := compareValues(vi, vj)
			if c == 0 {
				continue
			}
			if k.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}
