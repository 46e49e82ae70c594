package parser

import (
	"strings"
	"unicode"

	"github.com/insightdelivered/budget-worksheet-converter/internal/models"
	"github.com/insightdelivered/budget-worksheet-converter/internal/spans"
)

// Layout holds the fixed column positions of the worksheet body.
//
// Body lines look like:
//
//	0                  19 21                                     21+w
//	|SEQ #             |  |EXPLANATION ...                       |FY fields ...
//
// Columns 19-20 are a gap reserved for sub-indentation markers. Explanation
// widths are measured from ContentStart. Field columns are measured from the
// end of the explanation column.
type Layout struct {
	SequenceWidth              int
	ContentStart               int
	ProgramExplanationWidth    int
	DepartmentExplanationWidth int
	ProgramFields              FieldColumns
	DepartmentFields           FieldColumns
}

// FieldColumns holds the column range of each FieldRow field, in FieldRow
// order. Ranges anchor inferred spans to fields; they are not used to slice.
type FieldColumns [models.FieldRowWidth]spans.Span

// DefaultFieldColumns is where pdftotext -fixed 4 places the position,
// amount and means-of-financing columns of both fiscal years.
var DefaultFieldColumns = FieldColumns{
	{Start: 5, End: 17},
	{Start: 18, End: 34},
	{Start: 35, End: 36},
	{Start: 44, End: 56},
	{Start: 57, End: 73},
	{Start: 73, End: 77},
}

// DefaultLayout matches pdftotext -layout -fixed 4 output of the
// legislature's worksheets.
func DefaultLayout() Layout {
	return Layout{
		SequenceWidth:              19,
		ContentStart:               21,
		ProgramExplanationWidth:    62,
		DepartmentExplanationWidth: 46,
		ProgramFields:              DefaultFieldColumns,
		DepartmentFields:           DefaultFieldColumns,
	}
}

// ExplanationWidth returns the explanation column width for kind.
func (l Layout) ExplanationWidth(kind models.PageKind) int {
	if kind == models.DepartmentSummaryPage {
		return l.DepartmentExplanationWidth
	}
	return l.ProgramExplanationWidth
}

// Fields returns the field column ranges for kind.
func (l Layout) Fields(kind models.PageKind) FieldColumns {
	if kind == models.DepartmentSummaryPage {
		return l.DepartmentFields
	}
	return l.ProgramFields
}

// DefaultGroupID owns body lines that precede any explicit sequence id.
const DefaultGroupID = "BASE APPROPRIATIONS"

// Labels start a new group even when the sequence column is blank. Order
// matters: the first prefix match wins.
var Labels = []string{
	DefaultGroupID,
	"TOTAL BUDGET CHANGES",
	"BUDGET TOTALS",
	"DEPARTMENT APPROPRIATIONS",
	"TOTAL DEPARTMENT APPROPRIATIONS",
	"DEPARTMENT BUDGET CHANGES",
	"TOTAL DEPARTMENT BUDGET CHANGES",
	"DEPARTMENT TOTAL BUDGET",
	"TOTAL DEPARTMENT BUDGET",
	"TOTAL APPROPRIATIONS",
	"GRAND TOTAL APPROPRIATIONS",
	"TOTAL CHANGES",
	"GRAND TOTAL CHANGES",
	"GRAND TOTAL BUDGET",
}

func matchLabel(line string) string {
	text := strings.TrimLeftFunc(line, unicode.IsSpace)
	for _, label := range Labels {
		if strings.HasPrefix(text, label) {
			return label
		}
	}
	return ""
}
