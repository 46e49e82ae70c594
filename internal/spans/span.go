// Package spans infers fixed-width column boundaries from the non-blank runs
// of text lines and merges them across lines and pages.
package spans

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Span is a half-open column interval [Start, End). Columns are counted in
// runes so multi-byte characters occupy one column, as in pdftotext layout
// output.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// Len returns the width of the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// joins reports whether the two spans overlap or touch.
func (s Span) joins(o Span) bool {
	return s.Start <= o.End && o.Start <= s.End
}

// Set is an ordered collection of non-overlapping spans, sorted by Start.
// The zero value is the empty set.
type Set []Span

// FromLine returns one span per maximal run of non-blank characters.
func FromLine(line string) Set {
	var s Set
	start := -1
	col := 0
	for _, r := range line {
		blank := unicode.IsSpace(r)
		switch {
		case !blank && start < 0:
			start = col
		case blank && start >= 0:
			s = append(s, Span{start, col})
			start = -1
		}
		col++
	}
	if start >= 0 {
		s = append(s, Span{start, col})
	}
	return s
}

// Union returns the coarsest set in which every span of a and b is covered
// by exactly one result span. Spans that overlap or touch are merged.
func Union(a, b Set) Set {
	if len(a)+len(b) == 0 {
		return nil
	}
	all := make([]Span, 0, len(a)+len(b))
	all = append(all, a...)
	all = append(all, b...)
	sort.Slice(all, func(i, j int) bool {
		if all[i].Start != all[j].Start {
			return all[i].Start < all[j].Start
		}
		return all[i].End < all[j].End
	})

	out := make(Set, 0, len(all))
	cur := all[0]
	for _, next := range all[1:] {
		if cur.joins(next) {
			cur.End = max(cur.End, next.End)
			continue
		}
		out = append(out, cur)
		cur = next
	}
	return append(out, cur)
}

// Equal reports whether both sets hold the same spans in the same order.
func (s Set) Equal(o Set) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Validate checks that spans are non-empty, ordered, and separated by at
// least one column, which is the form Union produces.
func (s Set) Validate() error {
	for i, sp := range s {
		if sp.Start < 0 || sp.Start >= sp.End {
			return fmt.Errorf("span %d %v is empty or negative", i, sp)
		}
		if i > 0 && s[i-1].End >= sp.Start {
			return fmt.Errorf("span %d %v overlaps or touches %v", i, sp, s[i-1])
		}
	}
	return nil
}

func (s Set) String() string {
	parts := make([]string, len(s))
	for i, sp := range s {
		parts[i] = sp.String()
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// Extract slices line at every span and returns the trimmed tokens, one per
// span. Spans past the end of the line yield "".
func (s Set) Extract(line string) []string {
	runes := []rune(line)
	out := make([]string, len(s))
	for i, sp := range s {
		out[i] = strings.TrimSpace(cut(runes, sp.Start, sp.End))
	}
	return out
}

// Cut returns line[start:end] in rune columns, clipped to the line length.
// end < 0 means to the end of the line.
func Cut(line string, start, end int) string {
	return cut([]rune(line), start, end)
}

func cut(runes []rune, start, end int) string {
	if end < 0 || end > len(runes) {
		end = len(runes)
	}
	if start < 0 {
		start = 0
	}
	if start >= end {
		return ""
	}
	return string(runes[start:end])
}

// Ruler renders two digit rows (tens, units) the width of line, for lining
// up column positions in diagnostics.
func Ruler(line string) string {
	n := len([]rune(line))
	var tens, units strings.Builder
	for i := 0; i < n; i++ {
		tens.WriteByte(byte('0' + (i/10)%10))
		units.WriteByte(byte('0' + i%10))
	}
	return tens.String() + "\n" + units.String()
}
