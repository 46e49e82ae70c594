package models

import "strings"

// Columns is the output column list shared by every page.
var Columns = []string{
	"datetime", "pagenum", "pages", "year0", "year1", "detail_type",
	"department_code", "department", "program_id", "program_name",
	"structure_number", "subject_committee_code", "subject_committee_name",
	"sequence_num", "explanation",
	FieldNames[0], FieldNames[1], FieldNames[2], FieldNames[3], FieldNames[4], FieldNames[5],
	"mof_y0_desc", "mof_y1_desc",
}

// Row is one output record: page header values, the owning group, and one
// FieldRow. Values are in Columns order.
type Row []string

// NewRow assembles an output row. Fund source descriptions are supplied by
// the caller since the lookup tables live outside this package.
func NewRow(h PageHeader, rec Record, fr FieldRow, mofY0Desc, mofY1Desc string) Row {
	row := make(Row, 0, len(Columns))
	for _, f := range h.Fields() {
		row = append(row, f.Value)
	}
	row = append(row, rec.ID, strings.Join(rec.Explanation, "\n"))
	row = append(row, fr.Values()...)
	row = append(row, mofY0Desc, mofY1Desc)
	return row
}

// Map returns the row keyed by column name.
func (r Row) Map() map[string]string {
	m := make(map[string]string, len(Columns))
	for i, c := range Columns {
		if i < len(r) {
			m[c] = r[i]
		}
	}
	return m
}
