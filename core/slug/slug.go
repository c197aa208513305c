// Package slug turns display names into URL slugs and search keys.
//
// Both are derived from the same normalization: Vietnamese diacritics are
// stripped (đ becomes d), characters outside a small safe set are dropped,
// whitespace runs collapse into the replacement string and the result is
// lowercased. Options values are immutable; callers pass them explicitly.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Options controls a normalization run.
type Options struct {
	replacement string
	lower       bool
	trim        bool
}

// NewOptions builds an Options value. An empty replacement becomes "-".
func NewOptions(replacement string, lower, trim bool) Options {
	if replacement == "" {
		replacement = "-"
	}
	return Options{replacement: replacement, lower: lower, trim: trim}
}

// Replacement returns the separator placed between words.
func (o Options) Replacement() string { return o.replacement }

var (
	// URL 用的 slug: "Mưa Rơi" -> "mua-roi"
	SlugOptions = NewOptions("-", true, true)
	// 搜索键: "Mưa Rơi" -> "mua roi"
	SearchOptions = NewOptions(" ", true, true)
)

// 允许保留的标点
const allowedPunct = "$*_+~.()'\"!-:@"

func keep(r rune) bool {
	switch {
	case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
		return true
	case unicode.IsSpace(r):
		return true
	case strings.ContainsRune(allowedPunct, r):
		return true
	}
	return false
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Make normalizes s according to opts.
func Make(s string, opts Options) string {
	if opts.replacement == "" {
		opts = NewOptions("-", opts.lower, opts.trim)
	}
	s = strings.NewReplacer("đ", "d", "Đ", "D").Replace(stripMarks(s))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if string(r) == opts.replacement {
			b.WriteRune(' ')
			continue
		}
		if keep(r) {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if opts.trim {
		out = strings.TrimSpace(out)
	}
	out = strings.Join(splitWords(out, opts.replacement), opts.replacement)
	if opts.lower {
		out = strings.ToLower(out)
	}
	return out
}

// splitWords splits on whitespace and on the replacement itself, preserving
// an empty leading or trailing word when trim is off.
func splitWords(s, replacement string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || string(r) == replacement
	})
	if len(fields) == 0 {
		return nil
	}
	if s != "" && isSep(rune(s[0]), replacement) {
		fields = append([]string{""}, fields...)
	}
	if s != "" && isSep(rune(s[len(s)-1]), replacement) {
		fields = append(fields, "")
	}
	return fields
}

func isSep(r rune, replacement string) bool {
	return unicode.IsSpace(r) || string(r) == replacement
}

// Slug is Make with SlugOptions.
func Slug(s string) string { return Make(s, SlugOptions) }

// SearchKey is Make with SearchOptions.
func SearchKey(s string) string { return Make(s, SearchOptions) }
