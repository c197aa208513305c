package db

import (
	"fmt"
	"strings"

	"Tunebox/core/query"
)

// 把 query.Pipeline 翻译为 MySQL 语句。
// 被 Unwind 的 Lookup 变成 JOIN（保留空值时 LEFT JOIN，否则 INNER JOIN）；
// 未被 Unwind 的 Lookup 视为一对多，只能用于 SizeOf 和 NonEmpty，翻译为相关子查询。

const baseAlias = "t"

type sqlJoin struct {
	lookup   query.Lookup
	unwound  bool
	preserve bool
}

type sqlBuilder struct {
	table    string
	joins    []*sqlJoin
	byAlias  map[string]*sqlJoin
	where    []string
	args     []any
	selects  []string
	outputs  map[string]bool
	orderBy  []string
	limit    int64
	offset   int64
	hasLimit bool
}

func quoteIdent(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, "`.") {
		return "", fmt.Errorf("%w: invalid identifier %q", ErrUnsupported, name)
	}
	return "`" + name + "`", nil
}

// sqlColumn 文档字段名到列名，仅 _id 不同
func sqlColumn(field string) string {
	if field == "_id" {
		return "id"
	}
	return field
}

func qualified(alias, field string) (string, error) {
	a, err := quoteIdent(alias)
	if err != nil {
		return "", err
	}
	c, err := quoteIdent(sqlColumn(field))
	if err != nil {
		return "", err
	}
	return a + "." + c, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// whereClause 生成 WHERE 片段，resolve 负责列名，exists 负责一对多子查询
func whereClause(conds []query.Cond, resolve func(string) (string, error), exists func(string) (string, error)) (string, []any, error) {
	var parts []string
	var args []any
	for _, c := range conds {
		switch c.Op {
		case query.OpEq:
			col, err := resolve(c.Field)
			if err != nil {
				return "", nil, err
			}
			if c.Value == nil {
				parts = append(parts, col+" IS NULL")
				continue
			}
			parts = append(parts, col+" = ?")
			args = append(args, c.Value)
		case query.OpContainsFold:
			col, err := resolve(c.Field)
			if err != nil {
				return "", nil, err
			}
			needle, _ := c.Value.(string)
			parts = append(parts, "LOWER("+col+") LIKE ?")
			args = append(args, "%"+escapeLike(strings.ToLower(needle))+"%")
		case query.OpNonEmpty:
			if exists == nil {
				return "", nil, fmt.Errorf("%w: nonEmpty on %q outside a pipeline", ErrUnsupported, c.Field)
			}
			sub, err := exists(c.Field)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, "EXISTS ("+sub+")")
		default:
			return "", nil, fmt.Errorf("%w: operator %s", ErrUnsupported, c.Op)
		}
	}
	return strings.Join(parts, " AND "), args, nil
}

// plainColumn 用于单表查询
func plainColumn(field string) (string, error) {
	return quoteIdent(sqlColumn(field))
}

func orderClause(keys []query.SortKey, resolve func(string) (string, error)) (string, error) {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		col, err := resolve(k.Field)
		if err != nil {
			return "", err
		}
		dir := " ASC"
		if k.Desc {
			dir = " DESC"
		}
		parts = append(parts, col+dir)
	}
	return strings.Join(parts, ", "), nil
}

func newSQLBuilder(table string, p query.Pipeline) (*sqlBuilder, error) {
	b := &sqlBuilder{table: table, byAlias: map[string]*sqlJoin{}}
	if _, err := quoteIdent(table); err != nil {
		return nil, err
	}

	// 先收集 join，Unwind 决定 join 的类型
	for _, st := range p {
		switch st := st.(type) {
		case query.Lookup:
			if st.As == baseAlias {
				return nil, fmt.Errorf("%w: lookup alias %q is reserved", ErrUnsupported, st.As)
			}
			j := &sqlJoin{lookup: st}
			b.joins = append(b.joins, j)
			b.byAlias[st.As] = j
		case query.Unwind:
			j, ok := b.byAlias[st.Path]
			if !ok {
				return nil, fmt.Errorf("%w: unwind of unknown lookup %q", ErrUnsupported, st.Path)
			}
			j.unwound = true
			j.preserve = st.PreserveEmpty
		}
	}

	projected := false
	windowed := false
	for _, st := range p {
		switch st := st.(type) {
		case query.Match:
			if projected {
				return nil, fmt.Errorf("%w: match after project", ErrUnsupported)
			}
			clause, args, err := whereClause(st.Conds, b.column, b.existsSubquery)
			if err != nil {
				return nil, err
			}
			if clause != "" {
				b.where = append(b.where, clause)
				b.args = append(b.args, args...)
			}
		case query.Lookup, query.Unwind:
		case query.Project:
			if err := b.project(st); err != nil {
				return nil, err
			}
			projected = true
		case query.Sort:
			if windowed {
				return nil, fmt.Errorf("%w: sort after skip/limit", ErrUnsupported)
			}
			resolve := b.column
			if projected {
				resolve = b.output
			}
			order, err := orderClause(st.Keys, resolve)
			if err != nil {
				return nil, err
			}
			b.orderBy = append(b.orderBy, order)
		case query.Skip:
			if b.hasLimit {
				return nil, fmt.Errorf("%w: skip after limit", ErrUnsupported)
			}
			b.offset += st.N
			windowed = true
		case query.Limit:
			if st.N <= 0 {
				return nil, fmt.Errorf("%w: limit must be positive", ErrUnsupported)
			}
			if !b.hasLimit || st.N < b.limit {
				b.limit = st.N
			}
			b.hasLimit = true
			windowed = true
		default:
			return nil, fmt.Errorf("%w: stage %T", ErrUnsupported, st)
		}
	}
	return b, nil
}

// column 解析 "field" 或 "alias.field"
func (b *sqlBuilder) column(path string) (string, error) {
	head, rest := query.SplitPath(path)
	if head == "" {
		return qualified(baseAlias, rest)
	}
	j, ok := b.byAlias[head]
	if !ok || !j.unwound {
		return "", fmt.Errorf("%w: %q is not a to-one join", ErrUnsupported, path)
	}
	return qualified(head, rest)
}

func (b *sqlBuilder) output(name string) (string, error) {
	if !b.outputs[name] {
		return "", fmt.Errorf("%w: sort on %q which is not projected", ErrUnsupported, name)
	}
	return quoteIdent(name)
}

func (b *sqlBuilder) manyJoin(alias string) (*sqlJoin, error) {
	j, ok := b.byAlias[alias]
	if !ok || j.unwound {
		return nil, fmt.Errorf("%w: %q is not a to-many lookup", ErrUnsupported, alias)
	}
	return j, nil
}

// correlated 一对多子查询的 FROM ... WHERE 部分
func (b *sqlBuilder) correlated(alias string) (string, error) {
	j, err := b.manyJoin(alias)
	if err != nil {
		return "", err
	}
	from, err := quoteIdent(j.lookup.From)
	if err != nil {
		return "", err
	}
	sub := "s_" + alias
	foreign, err := qualified(sub, j.lookup.ForeignField)
	if err != nil {
		return "", err
	}
	local, err := b.column(j.lookup.LocalField)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("FROM %s AS `%s` WHERE %s = %s", from, sub, foreign, local), nil
}

func (b *sqlBuilder) existsSubquery(alias string) (string, error) {
	c, err := b.correlated(alias)
	if err != nil {
		return "", err
	}
	return "SELECT 1 " + c, nil
}

func (b *sqlBuilder) project(st query.Project) error {
	b.selects = b.selects[:0]
	b.outputs = map[string]bool{}
	for _, f := range st.Fields {
		out, err := quoteIdent(f.Out)
		if err != nil {
			return err
		}
		var expr string
		if f.SizeOf != "" {
			c, err := b.correlated(f.SizeOf)
			if err != nil {
				return err
			}
			expr = "(SELECT COUNT(*) " + c + ")"
		} else {
			expr, err = b.column(f.Source)
			if err != nil {
				return err
			}
		}
		b.selects = append(b.selects, expr+" AS "+out)
		b.outputs[f.Out] = true
	}
	return nil
}

func (b *sqlBuilder) fromClause() (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "FROM `%s` AS `%s`", b.table, baseAlias)
	for _, j := range b.joins {
		if !j.unwound {
			continue
		}
		kind := "INNER JOIN"
		if j.preserve {
			kind = "LEFT JOIN"
		}
		from, err := quoteIdent(j.lookup.From)
		if err != nil {
			return "", err
		}
		foreign, err := qualified(j.lookup.As, j.lookup.ForeignField)
		if err != nil {
			return "", err
		}
		local, err := qualified(baseAlias, j.lookup.LocalField)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, " %s %s AS `%s` ON %s = %s", kind, from, j.lookup.As, foreign, local)
	}
	return sb.String(), nil
}

// maxRows MySQL 没有单独的 OFFSET 语法
const maxRows = "18446744073709551615"

func (b *sqlBuilder) build(selectList string) (string, []any, error) {
	from, err := b.fromClause()
	if err != nil {
		return "", nil, err
	}
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(selectList)
	sb.WriteString(" ")
	sb.WriteString(from)
	if len(b.where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.where, " AND "))
	}
	if len(b.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.orderBy, ", "))
	}
	args := append([]any{}, b.args...)
	switch {
	case b.hasLimit:
		sb.WriteString(" LIMIT ?")
		args = append(args, b.limit)
		if b.offset > 0 {
			sb.WriteString(" OFFSET ?")
			args = append(args, b.offset)
		}
	case b.offset > 0:
		sb.WriteString(" LIMIT " + maxRows + " OFFSET ?")
		args = append(args, b.offset)
	}
	return sb.String(), args, nil
}

// BuildSQL 翻译 pipeline 为 SELECT 语句
func BuildSQL(table string, p query.Pipeline) (string, []any, error) {
	b, err := newSQLBuilder(table, p)
	if err != nil {
		return "", nil, err
	}
	selectList := "`" + baseAlias + "`.*"
	if len(b.selects) > 0 {
		selectList = strings.Join(b.selects, ", ")
	}
	return b.build(selectList)
}

// BuildCountSQL 统计 pipeline 输出的行数
func BuildCountSQL(table string, p query.Pipeline) (string, []any, error) {
	b, err := newSQLBuilder(table, p)
	if err != nil {
		return "", nil, err
	}
	if !b.hasLimit && b.offset == 0 {
		b.orderBy = nil
		return b.build("COUNT(*)")
	}
	selectList := "1"
	if len(b.selects) > 0 {
		selectList = strings.Join(b.selects, ", ")
	}
	inner, args, err := b.build(selectList)
	if err != nil {
		return "", nil, err
	}
	return "SELECT COUNT(*) FROM (" + inner + ") AS `c`", args, nil
}
