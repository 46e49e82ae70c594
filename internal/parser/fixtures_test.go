package parser

import (
	"fmt"
	"strings"
)

// Column starts of the six fields within the content suffix of a program
// page body line, as laid out by pdftotext -fixed 4.
var programFieldCols = []int{5, 18, 35, 44, 57, 74}

func headerLines(pageNum, pages int) []string {
	return []string{
		fmt.Sprintf("Report: B61-1     Tuesday, March 1, 2016    2:46:05 PM     LEGISLATIVE BUDGET SYSTEM     Page %d of %d", pageNum, pages),
		"                                  Detail Type: C          BUDGET WORKSHEET",
		"",
	}
}

func programHeader(pageNum, pages int) []string {
	return append(headerLines(pageNum, pages),
		"   Program ID:     AGR101     FIN ASSIST FOR AGRICULTURE",
		"",
		"   Structure #:    010301000000",
		"   Subject Committee: AGR     AGRICULTURE",
		"",
		"   SEQ #      EXPLANATION                                   FY 2016                FY 2017",
		"                                                      Perm   Temp   Amt     Perm   Temp   Amt",
		"",
	)
}

func departmentHeader(pageNum, pages int) []string {
	return append(headerLines(pageNum, pages),
		"   Department:     HTH     Department of Health (DOH)",
		"",
		"              EXPENDITURE AREA          FIRST FY            SECOND FY",
		"                                                      Perm   Temp   Amt     Perm   Temp   Amt",
		"",
	)
}

// fields lays values out at the given column starts.
func fields(cols []int, values ...string) string {
	var b []rune
	for i, v := range values {
		if v == "" {
			continue
		}
		for len(b) < cols[i] {
			b = append(b, ' ')
		}
		b = append(b, []rune(v)...)
	}
	return string(b)
}

// bodyLine builds a body line: sequence column, explanation column, and the
// content suffix.
func bodyLine(l Layout, kind string, seq, explanation, content string) string {
	w := l.ProgramExplanationWidth
	if kind == "department" {
		w = l.DepartmentExplanationWidth
	}
	line := fmt.Sprintf("%-*s%-*s%s", l.ContentStart, seq, w, explanation, content)
	return strings.TrimRight(line, " ")
}

func page(header []string, body ...string) string {
	return strings.Join(append(append([]string{}, header...), body...), "\n")
}
