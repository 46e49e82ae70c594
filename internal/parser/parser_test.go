package parser

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/budget-worksheet-converter/internal/models"
	"github.com/insightdelivered/budget-worksheet-converter/internal/spans"
)

func newTestParser() *Parser {
	return New(DefaultLayout(), zerolog.Nop())
}

func programPages() (first, second string) {
	l := DefaultLayout()
	first = page(programHeader(1, 2),
		bodyLine(l, "program", "   100-001", "ADD FUNDS", fields(programFieldCols, "1.00", "", "", "", "", "A")),
	)
	second = page(programHeader(2, 2),
		bodyLine(l, "program", "   100-002", "ADD POSITION", fields(programFieldCols, "2.00", "10,000", "B", "2.00", "10,000", "N")),
		bodyLine(l, "program", "", "TOTAL BUDGET CHANGES", fields(programFieldCols, "3.00", "15,000", "", "2.00", "10,000", "")),
	)
	return first, second
}

func TestInferPage(t *testing.T) {
	p := newTestParser()
	first, _ := programPages()

	var reg spans.Registry
	pg, next, err := p.InferPage(reg, first)
	require.NoError(t, err)

	assert.Nil(t, reg.Program, "input registry is not modified")
	assert.Equal(t, spans.Set{{5, 9}, {74, 75}}, next.Program)
	assert.Nil(t, next.DepartmentSummary)
	assert.Equal(t, models.ProgramPage, pg.Header.Kind)
	require.Len(t, pg.Groups, 1)
	assert.Equal(t, "100-001", pg.Groups[0].ID)
}

func TestParseDocument_LaterPagesWidenEarlierExtraction(t *testing.T) {
	p := newTestParser()
	first, second := programPages()

	doc, err := p.ParseDocument([]string{first, second}, spans.Registry{})
	require.NoError(t, err)
	require.Len(t, doc.Pages, 2)
	assert.Len(t, doc.Registry.Program, 6)

	// Page one alone only shows two columns; sliced with the final spans
	// its values keep their own fields.
	rec := doc.Pages[0].Records[0]
	assert.Equal(t, models.FieldRow{PosY0: "1.00", MofY1: "A"}, rec.Rows[0])

	rows := doc.Rows()
	require.Len(t, rows, 3)

	r0 := rows[0].Map()
	assert.Equal(t, "2016-03-01 14:46:05", r0["datetime"])
	assert.Equal(t, "1", r0["pagenum"])
	assert.Equal(t, "2", r0["pages"])
	assert.Equal(t, "101", r0["program_id"])
	assert.Equal(t, "100-001", r0["sequence_num"])
	assert.Equal(t, "ADD FUNDS", r0["explanation"])
	assert.Equal(t, "A", r0["mof_y1"])
	assert.Equal(t, "general funds", r0["mof_y1_desc"])
	assert.Empty(t, r0["mof_y0_desc"])

	r2 := rows[2].Map()
	assert.Equal(t, "TOTAL BUDGET CHANGES", r2["sequence_num"])
	assert.Equal(t, "TOTAL BUDGET CHANGES", r2["explanation"])
	assert.Equal(t, "15,000", r2["amt_y0"])
	assert.Equal(t, "2", r2["pagenum"])

	assert.Equal(t, "federal funds", rows[1].Map()["mof_y1_desc"])
}

func TestParseDocument_SpanConflict(t *testing.T) {
	p := newTestParser()
	l := DefaultLayout()

	first := page(programHeader(1, 2),
		bodyLine(l, "program", "   100-001", "ADD", fields(programFieldCols, "1.00", "125,000", "A", "1.00", "125,000", "A")),
	)
	bridging := bodyLine(l, "program", "   100-002", "ADD", fields(programFieldCols, "1.00---------125,000"))
	second := page(programHeader(2, 2),
		bodyLine(l, "program", "   100-002", "ADD", fields(programFieldCols, "2.00", "5,000", "B")),
		bridging,
	)

	_, reg, err := p.InferPage(spans.Registry{}, first)
	require.NoError(t, err)

	_, after, err := p.InferPage(reg, second)
	require.Error(t, err)
	assert.True(t, errors.Is(err, spans.ErrSpanConflict))
	assert.True(t, after.Program.Equal(reg.Program), "registry unchanged on conflict")

	var conflict *spans.SpanConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, models.ProgramPage, conflict.Kind)
	assert.Equal(t, []string{bridging}, conflict.Lines)
	assert.Equal(t, []spans.Span{{5, 25}}, conflict.Collapsed)
	assert.Contains(t, conflict.Context, "pagenum=2")
	assert.Contains(t, conflict.Context, "Sequence ID=100-002")

	_, err = p.ParseDocument([]string{first, second}, spans.Registry{})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "page 2: span conflict on program pages"))
}

func TestParseDocument_SinglePageKeepsFieldPositions(t *testing.T) {
	p := newTestParser()
	first, _ := programPages()

	doc, err := p.ParseDocument([]string{first}, spans.Registry{})
	require.NoError(t, err)
	assert.Equal(t, spans.Set{{5, 9}, {74, 75}}, doc.Registry.Program)

	rows := doc.Rows()
	require.Len(t, rows, 1)
	r := rows[0].Map()
	assert.Equal(t, "1.00", r["pos_y0"])
	assert.Empty(t, r["amt_y0"])
	assert.Empty(t, r["mof_y0"])
	assert.Empty(t, r["mof_y0_desc"])
	assert.Equal(t, "A", r["mof_y1"])
	assert.Equal(t, "general funds", r["mof_y1_desc"])
}

func TestParseDocument_SpanOutsideFieldColumns(t *testing.T) {
	p := newTestParser()
	l := DefaultLayout()
	text := page(programHeader(1, 1),
		bodyLine(l, "program", "   100-001", "ADD FUNDS", fields([]int{5, 39}, "1.00", "X")),
	)

	_, err := p.ParseDocument([]string{text}, spans.Registry{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, spans.ErrSpanConflict))
	assert.Contains(t, err.Error(), "[39,40) is outside every field column")
	assert.Contains(t, err.Error(), "program_id=101")
}

func TestParseDocument_KindsKeepSeparateSpans(t *testing.T) {
	p := newTestParser()
	l := DefaultLayout()
	first, _ := programPages()

	// Department summary columns sit where program columns would collide.
	summary := page(departmentHeader(2, 2),
		bodyLine(l, "department", "", "DEPARTMENT APPROPRIATIONS", fields(programFieldCols, "10.00---1,000,000")),
		bodyLine(l, "department", "", "OPERATING", fields(programFieldCols, "10.00---1,000,000")),
		bodyLine(l, "department", "", "TOTAL DEPARTMENT APPROPRIATIONS", fields(programFieldCols, "10.00---1,000,000")),
	)

	doc, err := p.ParseDocument([]string{first, summary}, spans.Registry{})
	require.NoError(t, err)
	assert.Equal(t, spans.Set{{5, 9}, {74, 75}}, doc.Registry.Program)
	assert.Equal(t, spans.Set{{5, 22}}, doc.Registry.DepartmentSummary)

	pg := doc.Pages[1]
	require.Len(t, pg.Records, 2)
	assert.Equal(t, "DEPARTMENT APPROPRIATIONS", pg.Records[0].ID)
	assert.Equal(t, []string{"DEPARTMENT APPROPRIATIONS", "OPERATING"}, pg.Records[0].Explanation)
	require.Len(t, pg.Records[0].Rows, 2)
	assert.Equal(t, "10.00---1,000,000", pg.Records[0].Rows[0].PosY0)

	row := pg.Rows()[0].Map()
	assert.Equal(t, "HTH", row["department_code"])
	assert.Equal(t, "Department of Health (DOH)", row["department"])
	assert.Empty(t, row["program_id"])
	assert.Empty(t, row["year0"])
}

func TestParseDocument_StructuralMismatch(t *testing.T) {
	p := newTestParser()
	lines := programHeader(1, 1)
	lines[0] = strings.Replace(lines[0], "LEGISLATIVE", "EXECUTIVE", 1)

	_, err := p.ParseDocument([]string{strings.Join(lines, "\n")}, spans.Registry{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStructuralMismatch))
	assert.True(t, strings.HasPrefix(err.Error(), "page 1: structural mismatch at line 0"))
}

func TestParseDocument_GroupInconsistency(t *testing.T) {
	p := newTestParser()
	l := DefaultLayout()
	text := page(programHeader(1, 1),
		bodyLine(l, "program", "   100-001", "A", ""),
		bodyLine(l, "program", "   100-002", "B", ""),
		bodyLine(l, "program", "   100-001", "C", ""),
	)

	_, err := p.ParseDocument([]string{text}, spans.Registry{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGroupInconsistency))
}

func TestExtractPage_TooManyColumns(t *testing.T) {
	p := newTestParser()
	first, _ := programPages()

	pg, _, err := p.InferPage(spans.Registry{}, first)
	require.NoError(t, err)

	reg := spans.Registry{Program: spans.Set{{0, 1}, {2, 3}, {4, 5}, {6, 7}, {8, 9}, {10, 11}, {12, 13}}}
	err = p.ExtractPage(pg, reg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, spans.ErrSpanConflict))

	var conflict *spans.SpanConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Contains(t, conflict.Context, "program_id=101")
}

func TestInferPage_UnknownDepartmentWarns(t *testing.T) {
	var buf bytes.Buffer
	p := New(DefaultLayout(), zerolog.New(&buf))

	lines := departmentHeader(1, 1)
	lines[3] = "   Department:     XYZ     Somewhere"

	_, _, err := p.InferPage(spans.Registry{}, strings.Join(lines, "\n"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "department code not in lookup table")
	assert.Contains(t, buf.String(), `"department_code":"XYZ"`)
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"crlf", "a\r\nb", "a\nb"},
		{"tabs", "a\tb", "a b"},
		{"full width", "ＡＢ１", "AB1"},
		{"asterisk rule", "x" + strings.Repeat("*", 85) + "y", "x" + strings.Repeat("*", 25) + "y"},
		{"short asterisks kept", strings.Repeat("*", 10), strings.Repeat("*", 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePage(tt.input))
		})
	}
}

func TestPage_DebugString(t *testing.T) {
	p := newTestParser()
	first, _ := programPages()

	doc, err := p.ParseDocument([]string{first}, spans.Registry{})
	require.NoError(t, err)

	out := doc.Pages[0].DebugString()
	assert.Contains(t, out, "kind=program")
	assert.Contains(t, out, "Sequence ID=100-001")
	assert.Contains(t, out, "ADD FUNDS")
	assert.Contains(t, out, `"1.00"`)
}
