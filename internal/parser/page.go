package parser

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/width"

	"github.com/insightdelivered/budget-worksheet-converter/internal/lookup"
	"github.com/insightdelivered/budget-worksheet-converter/internal/models"
	"github.com/insightdelivered/budget-worksheet-converter/internal/spans"
)

// Page is one worksheet page: its header, its body grouped into records,
// the column evidence it contributed, and (after extraction) its records.
type Page struct {
	Index   int // 1-based position in the document
	Header  models.PageHeader
	Body    []string
	Groups  []models.RecordGroup
	Spans   spans.Set
	Records []models.Record
}

var (
	asteriskRule      = strings.Repeat("*", 85)
	shortAsteriskRule = strings.Repeat("*", 25)
)

// NormalizePage folds full-width characters, turns every whitespace rune
// other than newline into a plain space, and shortens the 85-asterisk rule
// that otherwise spans every numeric column.
func NormalizePage(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = width.Fold.String(text)
	text = strings.Map(func(r rune) rune {
		if r != '\n' && unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, text)
	return strings.ReplaceAll(text, asteriskRule, shortAsteriskRule)
}

// contentLines yields the span-bearing suffix of every body line.
func (pg *Page) contentLines(l Layout) []string {
	w := l.ExplanationWidth(pg.Header.Kind)
	out := make([]string, len(pg.Body))
	for i, line := range pg.Body {
		out[i] = contentSuffix(spans.Cut(line, l.ContentStart, -1), w)
	}
	return out
}

// conflictLines returns the raw body lines whose runs bridge a gap that the
// conflict collapsed.
func (pg *Page) conflictLines(l Layout, conflict *spans.SpanConflictError) []string {
	var gaps []spans.Span
	for _, c := range conflict.Collapsed {
		gaps = append(gaps, spans.Gaps(conflict.Existing, c)...)
	}

	var out []string
	for i, content := range pg.contentLines(l) {
		runs := spans.FromLine(content)
		for _, g := range gaps {
			if runs.Crosses(g) {
				out = append(out, pg.Body[i])
				break
			}
		}
	}
	return out
}

// Rows flattens the page's records into output rows.
func (pg *Page) Rows() []models.Row {
	var rows []models.Row
	for _, rec := range pg.Records {
		for _, fr := range rec.Rows {
			rows = append(rows, models.NewRow(pg.Header, rec, fr,
				lookup.FundSourceOrEmpty(fr.MofY0), lookup.FundSourceOrEmpty(fr.MofY1)))
		}
	}
	return rows
}

// DebugString renders the header, span evidence, and groups or records.
func (pg *Page) DebugString() string {
	var b strings.Builder
	b.WriteString(pg.Header.DebugString())
	fmt.Fprintf(&b, "\nspans=%v", pg.Spans)

	if len(pg.Records) == 0 {
		for _, g := range pg.Groups {
			fmt.Fprintf(&b, "\n\nSequence ID=%s (%d lines)", g.ID, len(g.Lines))
		}
		return b.String()
	}
	for _, rec := range pg.Records {
		fmt.Fprintf(&b, "\n\nSequence ID=%s", rec.ID)
		b.WriteString("\nExplanation:\n")
		b.WriteString(strings.Join(rec.Explanation, "\n"))
		b.WriteString("\nLine Items:")
		for _, fr := range rec.Rows {
			fmt.Fprintf(&b, "\n%q", fr.Values())
		}
	}
	return b.String()
}
