package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PageKind identifies which of the two worksheet page layouts a page uses.
type PageKind string

const (
	ProgramPage           PageKind = "program"
	DepartmentSummaryPage PageKind = "department-summary"
)

// Opt holds a header value that may be absent from a page.
type Opt[T any] struct {
	Value T
	Set   bool
}

// Some returns a present Opt.
func Some[T any](v T) Opt[T] {
	return Opt[T]{Value: v, Set: true}
}

// String renders the value, or "" when absent.
func (o Opt[T]) String() string {
	if !o.Set {
		return ""
	}
	return fmt.Sprint(o.Value)
}

// PageHeader holds the metadata parsed from the top of a worksheet page.
type PageHeader struct {
	Timestamp            time.Time
	PageNum              int
	Pages                int
	Kind                 PageKind
	DetailType           string
	DepartmentCode       string
	Department           string // from the lookup table, empty when unknown
	ProgramID            Opt[string]
	ProgramName          Opt[string]
	StructureNumber      Opt[string] // kept as text to preserve leading zeros
	SubjectCommitteeCode Opt[string]
	SubjectCommitteeName Opt[string]
	Year0                Opt[int]
	Year1                Opt[int]
}

// HeaderField is one named header value in declaration order.
type HeaderField struct {
	Name  string
	Value string
}

// TimestampLayout is how header timestamps are rendered in output rows.
const TimestampLayout = "2006-01-02 15:04:05"

// Fields returns the header values in a fixed order. Output rows and debug
// context both iterate this list.
func (h PageHeader) Fields() []HeaderField {
	ts := ""
	if !h.Timestamp.IsZero() {
		ts = h.Timestamp.Format(TimestampLayout)
	}
	pageNum, pages := "", ""
	if h.PageNum > 0 {
		pageNum = strconv.Itoa(h.PageNum)
		pages = strconv.Itoa(h.Pages)
	}
	return []HeaderField{
		{"datetime", ts},
		{"pagenum", pageNum},
		{"pages", pages},
		{"year0", h.Year0.String()},
		{"year1", h.Year1.String()},
		{"detail_type", h.DetailType},
		{"department_code", h.DepartmentCode},
		{"department", h.Department},
		{"program_id", h.ProgramID.String()},
		{"program_name", h.ProgramName.String()},
		{"structure_number", h.StructureNumber.String()},
		{"subject_committee_code", h.SubjectCommitteeCode.String()},
		{"subject_committee_name", h.SubjectCommitteeName.String()},
	}
}

// DebugString renders the header as name=value lines; unset values are empty.
func (h PageHeader) DebugString() string {
	var b strings.Builder
	fmt.Fprintf(&b, "kind=%s", h.Kind)
	for _, f := range h.Fields() {
		fmt.Fprintf(&b, "\n%s=%s", f.Name, f.Value)
	}
	return b.String()
}

// RecordGroup is the set of body lines belonging to one sequence id or
// label, in encounter order.
type RecordGroup struct {
	ID    string
	Lines []string
}

// FieldRow is the six numeric/code fields sliced from one content line.
type FieldRow struct {
	PosY0 string `json:"pos_y0"`
	AmtY0 string `json:"amt_y0"`
	MofY0 string `json:"mof_y0"`
	PosY1 string `json:"pos_y1"`
	AmtY1 string `json:"amt_y1"`
	MofY1 string `json:"mof_y1"`
}

// FieldRowWidth is the number of fields in a FieldRow.
const FieldRowWidth = 6

// FieldNames names the FieldRow fields in column order.
var FieldNames = [FieldRowWidth]string{"pos_y0", "amt_y0", "mof_y0", "pos_y1", "amt_y1", "mof_y1"}

// NewFieldRow builds a row from values in column order.
func NewFieldRow(v [FieldRowWidth]string) FieldRow {
	return FieldRow{v[0], v[1], v[2], v[3], v[4], v[5]}
}

// Values returns the fields in column order.
func (r FieldRow) Values() []string {
	return []string{r.PosY0, r.AmtY0, r.MofY0, r.PosY1, r.AmtY1, r.MofY1}
}

// IsEmpty reports whether all six fields are empty.
func (r FieldRow) IsEmpty() bool {
	return r == FieldRow{}
}

// Record is the extracted content of one RecordGroup.
type Record struct {
	ID          string     `json:"id"`
	Explanation []string   `json:"explanation"`
	Rows        []FieldRow `json:"rows"`
}
