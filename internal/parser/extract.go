package parser

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/insightdelivered/budget-worksheet-converter/internal/models"
	"github.com/insightdelivered/budget-worksheet-converter/internal/spans"
)

// contentSuffix returns the part of a stored group line after the
// explanation column.
func contentSuffix(line string, width int) string {
	return spans.Cut(line, width, -1)
}

// fieldSlack is how many columns a span may sit outside every field column
// and still be assigned to the nearest one.
const fieldSlack = 2

// ColumnMap pairs the confirmed spans with the FieldRow fields they fill.
// Fields[i] is the field index of Spans[i].
type ColumnMap struct {
	Spans  spans.Set
	Fields []int
}

// MapColumns assigns each span of s to the field column it overlaps most, or
// to the nearest one within fieldSlack. Fields with no span stay empty. A
// span near no field column, or two spans landing on one field, is a
// *spans.SpanConflictError.
func MapColumns(kind models.PageKind, s spans.Set, cols FieldColumns) (ColumnMap, error) {
	conflict := func(reason string) error {
		return &spans.SpanConflictError{Kind: kind, Reason: reason, Existing: s, Merged: s}
	}
	if len(s) > models.FieldRowWidth {
		return ColumnMap{}, conflict(fmt.Sprintf("too many columns: %d spans for %d fields", len(s), models.FieldRowWidth))
	}

	m := ColumnMap{Spans: s, Fields: make([]int, len(s))}
	var owner [models.FieldRowWidth]int
	for f := range owner {
		owner[f] = -1
	}
	for i, sp := range s {
		f := nearestField(sp, cols)
		if f < 0 {
			return ColumnMap{}, conflict(fmt.Sprintf("span %v is outside every field column", sp))
		}
		if j := owner[f]; j >= 0 {
			return ColumnMap{}, conflict(fmt.Sprintf("spans %v and %v both fall in the %s column", s[j], sp, models.FieldNames[f]))
		}
		owner[f] = i
		m.Fields[i] = f
	}
	return m, nil
}

func nearestField(sp spans.Span, cols FieldColumns) int {
	best, most := -1, 0
	for f, c := range cols {
		if n := overlap(sp, c); n > most {
			best, most = f, n
		}
	}
	if best >= 0 {
		return best
	}
	closest := fieldSlack + 1
	for f, c := range cols {
		if d := max(sp.Start-c.End, c.Start-sp.End); d < closest {
			best, closest = f, d
		}
	}
	return best
}

func overlap(a, b spans.Span) int {
	return max(0, spans.Span{Start: max(a.Start, b.Start), End: min(a.End, b.End)}.Len())
}

// Row slices content at every span and places each value in its field.
func (m ColumnMap) Row(content string) models.FieldRow {
	var v [models.FieldRowWidth]string
	for i, tok := range m.Spans.Extract(content) {
		v[m.Fields[i]] = tok
	}
	return models.NewFieldRow(v)
}

// ExtractRecord slices each line of g into an explanation fragment and a
// FieldRow using the mapped spans. Trailing empty rows are dropped, but one
// row is always kept.
func ExtractRecord(g models.RecordGroup, cols ColumnMap, width int) models.Record {
	rec := models.Record{ID: g.ID}
	for _, line := range g.Lines {
		expl := strings.TrimRightFunc(spans.Cut(line, 0, width), unicode.IsSpace)
		if trimmed := strings.TrimLeftFunc(expl, unicode.IsSpace); strings.HasPrefix(trimmed, g.ID) {
			expl = trimmed
		}
		if expl != "" {
			rec.Explanation = append(rec.Explanation, expl)
		}
		rec.Rows = append(rec.Rows, cols.Row(contentSuffix(line, width)))
	}

	n := len(rec.Rows)
	for n > 1 && rec.Rows[n-1].IsEmpty() {
		n--
	}
	rec.Rows = rec.Rows[:n]
	if len(rec.Rows) == 0 {
		rec.Rows = []models.FieldRow{{}}
	}
	return rec
}
