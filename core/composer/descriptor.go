package composer

import (
	"fmt"

	"Tunebox/core/query"
	"Tunebox/core/slug"
)

// Join 声明一个按外键的左外连接。
// Required 的连接会被展开，引用缺失时整行被丢弃；Many 的连接是一对多，只用于计数。
type Join struct {
	From         string
	LocalField   string
	ForeignField string
	As           string
	Required     bool
	Many         bool
}

// Descriptor 描述一种实体的读取方式：集合、搜索字段、连接和输出形状
type Descriptor struct {
	Name        string
	Collection  string
	SearchField string
	Base        []query.Cond
	Joins       []Join
	Projection  []query.Field
	// RequireChildren 为一对多连接别名，结果只保留该连接非空的行
	RequireChildren string
}

// Validate 检查描述符与各集合 schema 的一致性，启动时调用
func (d *Descriptor) Validate(schemas map[string]query.Schema) error {
	own, ok := schemas[d.Collection]
	if !ok {
		return fmt.Errorf("%s: unknown collection %q", d.Name, d.Collection)
	}
	if d.SearchField != "" && !own.Has(d.SearchField) {
		return fmt.Errorf("%s: search field %q not in %s", d.Name, d.SearchField, d.Collection)
	}
	for _, c := range d.Base {
		if !own.Has(c.Field) {
			return fmt.Errorf("%s: base filter field %q not in %s", d.Name, c.Field, d.Collection)
		}
	}

	joins := make(map[string]Join, len(d.Joins))
	for _, j := range d.Joins {
		target, ok := schemas[j.From]
		if !ok {
			return fmt.Errorf("%s: join %q targets unknown collection %q", d.Name, j.As, j.From)
		}
		if !own.Has(j.LocalField) {
			return fmt.Errorf("%s: join %q local field %q not in %s", d.Name, j.As, j.LocalField, d.Collection)
		}
		if !target.Has(j.ForeignField) {
			return fmt.Errorf("%s: join %q foreign field %q not in %s", d.Name, j.As, j.ForeignField, j.From)
		}
		if j.Many && j.Required {
			return fmt.Errorf("%s: join %q cannot be both many and required", d.Name, j.As)
		}
		if _, dup := joins[j.As]; dup || own.Has(j.As) {
			return fmt.Errorf("%s: join alias %q collides", d.Name, j.As)
		}
		joins[j.As] = j
	}

	if d.RequireChildren != "" {
		if j, ok := joins[d.RequireChildren]; !ok || !j.Many {
			return fmt.Errorf("%s: RequireChildren %q is not a to-many join", d.Name, d.RequireChildren)
		}
	}

	if len(d.Projection) == 0 {
		return fmt.Errorf("%s: empty projection", d.Name)
	}
	seen := make(map[string]bool, len(d.Projection))
	for _, f := range d.Projection {
		if f.Out == "" || seen[f.Out] {
			return fmt.Errorf("%s: projection output %q empty or repeated", d.Name, f.Out)
		}
		seen[f.Out] = true
		if (f.Source == "") == (f.SizeOf == "") {
			return fmt.Errorf("%s: projection %q needs exactly one of source or size", d.Name, f.Out)
		}
		if f.SizeOf != "" {
			if j, ok := joins[f.SizeOf]; !ok || !j.Many {
				return fmt.Errorf("%s: projection %q counts %q which is not a to-many join", d.Name, f.Out, f.SizeOf)
			}
			continue
		}
		head, rest := query.SplitPath(f.Source)
		if head == "" {
			if !own.Has(rest) {
				return fmt.Errorf("%s: projection %q source %q not in %s", d.Name, f.Out, rest, d.Collection)
			}
			continue
		}
		j, ok := joins[head]
		if !ok || j.Many {
			return fmt.Errorf("%s: projection %q reads %q through a missing or to-many join", d.Name, f.Out, f.Source)
		}
		if !schemas[j.From].Has(rest) {
			return fmt.Errorf("%s: projection %q source %q not in %s", d.Name, f.Out, rest, j.From)
		}
	}
	return nil
}

// hasOutput 投影中是否有该输出字段
func (d *Descriptor) hasOutput(name string) bool {
	for _, f := range d.Projection {
		if f.Out == name {
			return true
		}
	}
	return false
}

// match 组合基础条件、作用域和搜索
func (d *Descriptor) match(scope []query.Cond, search string) []query.Cond {
	conds := make([]query.Cond, 0, len(d.Base)+len(scope)+1)
	conds = append(conds, d.Base...)
	conds = append(conds, scope...)
	// 搜索键存的是去掉声调的小写形式，搜索词按同样规则归一化
	if key := slug.SearchKey(search); key != "" && d.SearchField != "" {
		conds = append(conds, query.Contains(d.SearchField, key))
	}
	return conds
}

// joined 过滤后的连接结果集：先按本地字段过滤，再连接
func (d *Descriptor) joined(conds []query.Cond) query.Pipeline {
	p := query.Pipeline{query.Match{Conds: conds}}
	for _, j := range d.Joins {
		p = append(p, query.Lookup{From: j.From, LocalField: j.LocalField, ForeignField: j.ForeignField, As: j.As})
		if !j.Many {
			p = append(p, query.Unwind{Path: j.As, PreserveEmpty: !j.Required})
		}
	}
	if d.RequireChildren != "" {
		p = append(p, query.Match{Conds: []query.Cond{query.NonEmpty(d.RequireChildren)}})
	}
	return p
}

// window 在连接结果上截取分页窗口，用于重新计数
func (d *Descriptor) window(conds []query.Cond, skip, limit int64) query.Pipeline {
	p := d.joined(conds)
	if skip > 0 {
		p = p.With(query.Skip{N: skip})
	}
	return p.With(query.Limit{N: limit})
}

// shaped 完整查询：连接、投影、排序、分页。limit 为 0 表示不限
func (d *Descriptor) shaped(conds []query.Cond, keys []query.SortKey, skip, limit int64) query.Pipeline {
	p := d.joined(conds).With(query.Project{Fields: d.Projection})
	if len(keys) > 0 {
		p = p.With(query.Sort{Keys: keys})
	}
	if skip > 0 {
		p = p.With(query.Skip{N: skip})
	}
	if limit > 0 {
		p = p.With(query.Limit{N: limit})
	}
	return p
}
