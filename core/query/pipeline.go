// Package query describes read pipelines independently of the store that
// executes them. A Pipeline is an ordered list of stages; every db.Store
// implementation must give each stage the same meaning:
//
//	Match   keep rows where every condition holds
//	Lookup  left-outer equality join; the joined rows land in an array field
//	Unwind  flatten a joined array; an empty array drops the row unless PreserveEmpty
//	Project build a new row from an ordered list of output fields
//	Sort    multi-key sort, each key with its own direction
//	Skip    drop the first N rows
//	Limit   keep at most N rows
package query

import (
	"fmt"
	"strings"
)

// Op is a match operator.
type Op int

const (
	// OpEq matches an exact value.
	OpEq Op = iota
	// OpContainsFold matches a literal, case-insensitive substring.
	OpContainsFold
	// OpNonEmpty matches when a to-many lookup produced at least one row.
	OpNonEmpty
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return "eq"
	case OpContainsFold:
		return "contains"
	case OpNonEmpty:
		return "nonEmpty"
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Cond is one predicate of a Match stage or a Store filter.
type Cond struct {
	Field string
	Op    Op
	Value any
}

func Eq(field string, value any) Cond {
	return Cond{Field: field, Op: OpEq, Value: value}
}

func Contains(field, needle string) Cond {
	return Cond{Field: field, Op: OpContainsFold, Value: needle}
}

func NonEmpty(field string) Cond {
	return Cond{Field: field, Op: OpNonEmpty}
}

// Stage is one step of a Pipeline.
type Stage interface {
	stageName() string
}

type Match struct {
	Conds []Cond
}

type Lookup struct {
	From         string
	LocalField   string
	ForeignField string
	As           string
}

type Unwind struct {
	Path          string
	PreserveEmpty bool
}

// Field is one output column of a Project stage. Exactly one of Source and
// SizeOf is set: Source copies a (possibly dotted) field, SizeOf counts the
// rows of a to-many lookup.
type Field struct {
	Out    string
	Source string
	SizeOf string
}

func From(out, source string) Field {
	return Field{Out: out, Source: source}
}

func Size(out, lookup string) Field {
	return Field{Out: out, SizeOf: lookup}
}

type Project struct {
	Fields []Field
}

type SortKey struct {
	Field string
	Desc  bool
}

func Asc(field string) SortKey  { return SortKey{Field: field} }
func Desc(field string) SortKey { return SortKey{Field: field, Desc: true} }

type Sort struct {
	Keys []SortKey
}

type Skip struct {
	N int64
}

type Limit struct {
	N int64
}

func (Match) stageName() string   { return "match" }
func (Lookup) stageName() string  { return "lookup" }
func (Unwind) stageName() string  { return "unwind" }
func (Project) stageName() string { return "project" }
func (Sort) stageName() string    { return "sort" }
func (Skip) stageName() string    { return "skip" }
func (Limit) stageName() string   { return "limit" }

// Pipeline is an ordered list of stages.
type Pipeline []Stage

// With returns a copy of p with stages appended. The receiver is never modified.
func (p Pipeline) With(stages ...Stage) Pipeline {
	out := make(Pipeline, 0, len(p)+len(stages))
	out = append(out, p...)
	return append(out, stages...)
}

// String renders the stage names, e.g. "match>lookup>unwind>project".
func (p Pipeline) String() string {
	names := make([]string, len(p))
	for i, s := range p {
		names[i] = s.stageName()
	}
	return strings.Join(names, ">")
}

// SplitPath splits "owner.artistName" into ("owner", "artistName").
// A path without a dot returns ("", path).
func SplitPath(path string) (head, rest string) {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[:i], path[i+1:]
	}
	return "", path
}
