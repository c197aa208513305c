package query

import (
	"reflect"
	"sort"
	"strings"
)

// Schema is the set of stored field names of one collection.
type Schema map[string]struct{}

// SchemaOf reads the bson field names of a struct (or pointer to struct).
// Untagged exported fields use their lowercased Go name, the bson default.
func SchemaOf(doc any) Schema {
	t := reflect.TypeOf(doc)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	s := Schema{}
	if t == nil || t.Kind() != reflect.Struct {
		return s
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("bson")
		name, opts, _ := strings.Cut(tag, ",")
		if name == "-" {
			continue
		}
		if strings.Contains(opts, "inline") && f.Type.Kind() == reflect.Struct {
			for k := range SchemaOf(reflect.New(f.Type).Interface()) {
				s[k] = struct{}{}
			}
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		s[name] = struct{}{}
	}
	return s
}

// Has reports whether field is part of the schema.
func (s Schema) Has(field string) bool {
	_, ok := s[field]
	return ok
}

// Fields returns the field names sorted.
func (s Schema) Fields() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
