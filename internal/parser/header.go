package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/insightdelivered/budget-worksheet-converter/internal/lookup"
	"github.com/insightdelivered/budget-worksheet-converter/internal/models"
)

// Header lines are tokenised on gaps of two or more blanks; token 0 is empty
// when the line is indented.
var gapPattern = regexp.MustCompile(` \s+`)

func tokenize(line string) []string {
	return gapPattern.Split(line, -1)
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// TimestampFormat is the layout of the report timestamp on line 0.
const TimestampFormat = "Monday, January 2, 2006 3:04:05 PM"

const (
	markerSystem      = "LEGISLATIVE BUDGET SYSTEM"
	markerPage        = "Page "
	markerDetailType  = "Detail Type:"
	markerWorksheet   = "BUDGET WORKSHEET"
	markerDepartment  = "Department:"
	markerProgramID   = "Program ID"
	markerStructure   = "Structure #:"
	markerCommittee   = "Subject Committee: "
	markerSeq         = "SEQ #"
	markerExplanation = "EXPLANATION"
	markerFiscalYear  = "FY "
	markerExpense     = "EX"
	markerFirstFY     = "FIRST FY"
	markerSecondFY    = "SECOND FY"

	missingToken = "<missing>"
	endOfPage    = "<EOF>"
)

var columnHeader = []string{"", "Perm", "Temp", "Amt", "Perm", "Temp", "Amt"}

type headerLine struct {
	no   int
	text string
	toks []string
}

func (l headerLine) tok(i int) (string, bool) {
	if i < 0 || i >= len(l.toks) {
		return "", false
	}
	return l.toks[i], true
}

type headerParser struct {
	lines  []string
	pos    int
	header models.PageHeader
}

type headerStep func(*headerParser) error

var (
	leadingSteps = []headerStep{
		(*headerParser).systemLine,
		(*headerParser).detailTypeLine,
		(*headerParser).skipBlank,
		(*headerParser).kindLine,
		(*headerParser).skipBlank,
	}
	programSteps = []headerStep{
		(*headerParser).structureLine,
		(*headerParser).committeeLine,
		(*headerParser).skipBlank,
		(*headerParser).programTableHeader,
		(*headerParser).columnHeader,
		(*headerParser).skipBlank,
	}
	departmentSteps = []headerStep{
		(*headerParser).departmentTableHeader,
		(*headerParser).columnHeader,
		(*headerParser).skipBlank,
	}
)

// ParseHeader validates the header of a page and returns it along with the
// index of the first body line.
func ParseHeader(lines []string) (models.PageHeader, int, error) {
	hp := &headerParser{lines: lines}
	if err := hp.run(leadingSteps); err != nil {
		return hp.header, hp.pos, err
	}

	steps := programSteps
	if hp.header.Kind == models.DepartmentSummaryPage {
		steps = departmentSteps
	}
	if err := hp.run(steps); err != nil {
		return hp.header, hp.pos, err
	}
	return hp.header, hp.pos, nil
}

func (hp *headerParser) run(steps []headerStep) error {
	for _, step := range steps {
		if err := step(hp); err != nil {
			return err
		}
	}
	return nil
}

func (hp *headerParser) next(expected string) (headerLine, error) {
	if hp.pos >= len(hp.lines) {
		return headerLine{}, hp.mismatch(headerLine{no: hp.pos}, -1, expected, endOfPage)
	}
	text := hp.lines[hp.pos]
	l := headerLine{no: hp.pos, text: text, toks: tokenize(text)}
	hp.pos++
	return l, nil
}

func (hp *headerParser) mismatch(l headerLine, field int, expected, actual string) error {
	return &StructuralMismatchError{
		LineNo:   l.no,
		Field:    field,
		Expected: expected,
		Actual:   actual,
		Line:     l.text,
		Context:  hp.header.DebugString(),
	}
}

func (hp *headerParser) expectPrefix(l headerLine, field int, want string) (string, error) {
	tok, ok := l.tok(field)
	if !ok {
		return "", hp.mismatch(l, field, want, missingToken)
	}
	if !strings.HasPrefix(tok, want) {
		return "", hp.mismatch(l, field, want, tok)
	}
	return tok, nil
}

func (hp *headerParser) skipBlank() error {
	for hp.pos < len(hp.lines) && isBlank(hp.lines[hp.pos]) {
		hp.pos++
	}
	return nil
}

func (hp *headerParser) systemLine() error {
	l, err := hp.next(markerSystem)
	if err != nil {
		return err
	}
	if _, err := hp.expectPrefix(l, 3, markerSystem); err != nil {
		return err
	}

	date, _ := l.tok(1)
	clock, _ := l.tok(2)
	stamp := strings.TrimSpace(date + " " + clock)
	ts, err := time.Parse(TimestampFormat, stamp)
	if err != nil {
		return hp.mismatch(l, 1, TimestampFormat, stamp)
	}
	hp.header.Timestamp = ts

	tok, err := hp.expectPrefix(l, 4, markerPage)
	if err != nil {
		return err
	}
	num, total, ok := parsePageOf(tok)
	if !ok {
		return hp.mismatch(l, 4, "Page X of Y", tok)
	}
	hp.header.PageNum, hp.header.Pages = num, total
	return nil
}

func parsePageOf(tok string) (int, int, bool) {
	rest := strings.TrimPrefix(strings.TrimSpace(tok), markerPage)
	a, b, found := strings.Cut(rest, " of ")
	if !found {
		return 0, 0, false
	}
	num, err1 := strconv.Atoi(a)
	total, err2 := strconv.Atoi(b)
	if err1 != nil || err2 != nil || num < 1 || total < num {
		return 0, 0, false
	}
	return num, total, true
}

func (hp *headerParser) detailTypeLine() error {
	l, err := hp.next(markerDetailType)
	if err != nil {
		return err
	}
	tok, err := hp.expectPrefix(l, 1, markerDetailType)
	if err != nil {
		return err
	}
	if _, err := hp.expectPrefix(l, 2, markerWorksheet); err != nil {
		return err
	}
	hp.header.DetailType = strings.TrimSpace(strings.TrimPrefix(tok, markerDetailType))
	return nil
}

func (hp *headerParser) kindLine() error {
	const expected = markerProgramID + " | " + markerDepartment
	l, err := hp.next(expected)
	if err != nil {
		return err
	}
	tok, ok := l.tok(1)
	if !ok {
		return hp.mismatch(l, 1, expected, missingToken)
	}

	isDepartment := tok == markerDepartment
	isProgram := strings.Contains(tok, markerProgramID)
	switch {
	case isDepartment == isProgram:
		return hp.mismatch(l, 1, expected, tok)
	case isProgram:
		return hp.programIDLine(l)
	default:
		return hp.departmentLine(l)
	}
}

func (hp *headerParser) programIDLine(l headerLine) error {
	hp.header.Kind = models.ProgramPage

	code, ok := l.tok(2)
	if !ok || len(code) <= 3 {
		return hp.mismatch(l, 2, "department code followed by program number", tokOrMissing(code, ok))
	}
	id := code[3:]
	if _, err := strconv.Atoi(id); err != nil {
		return hp.mismatch(l, 2, "department code followed by program number", code)
	}
	hp.setDepartment(code[:3])
	hp.header.ProgramID = models.Some(id)

	name, ok := l.tok(3)
	if !ok {
		return hp.mismatch(l, 3, "program name", missingToken)
	}
	hp.header.ProgramName = models.Some(name)
	return nil
}

func (hp *headerParser) departmentLine(l headerLine) error {
	hp.header.Kind = models.DepartmentSummaryPage
	if code, ok := l.tok(2); ok && code != "" {
		if len(code) > 3 {
			code = code[:3]
		}
		hp.setDepartment(code)
	}
	return hp.checkDepartmentName(l)
}

// checkDepartmentName rejects a printed department name that the lookup
// table assigns to a different code. Names missing from the table pass.
func (hp *headerParser) checkDepartmentName(l headerLine) error {
	name, ok := l.tok(3)
	if !ok || hp.header.DepartmentCode == "" {
		return nil
	}
	if code, known := lookup.DepartmentCode(name); known && code != hp.header.DepartmentCode {
		return hp.mismatch(l, 3, "name of department "+hp.header.DepartmentCode, name)
	}
	return nil
}

func (hp *headerParser) setDepartment(code string) {
	hp.header.DepartmentCode = code
	hp.header.Department, _ = lookup.DepartmentName(code)
}

func tokOrMissing(tok string, ok bool) string {
	if !ok {
		return missingToken
	}
	return tok
}

// structureLine is optional: some program pages go straight to the
// subject committee line.
func (hp *headerParser) structureLine() error {
	l, err := hp.next(markerStructure)
	if err != nil {
		return err
	}
	if tok, _ := l.tok(1); strings.HasPrefix(tok, "Subject Committee") {
		hp.pos--
		return nil
	}
	tok, err := hp.expectPrefix(l, 1, markerStructure)
	if err != nil {
		return err
	}

	value, ok := l.tok(2)
	if !ok {
		value = strings.TrimSpace(strings.TrimPrefix(tok, markerStructure))
	}
	if value == "" {
		return hp.mismatch(l, 2, "structure number", missingToken)
	}
	hp.header.StructureNumber = models.Some(value)
	return nil
}

func (hp *headerParser) committeeLine() error {
	const expected = markerCommittee + "XXX"
	l, err := hp.next(expected)
	if err != nil {
		return err
	}
	tok, ok := l.tok(1)
	if !ok {
		return hp.mismatch(l, 1, expected, missingToken)
	}
	code, found := strings.CutPrefix(tok, markerCommittee)
	if !found || len(code) != 3 {
		return hp.mismatch(l, 1, expected, tok)
	}
	hp.header.SubjectCommitteeCode = models.Some(code)
	if name, ok := l.tok(2); ok && name != "" {
		hp.header.SubjectCommitteeName = models.Some(name)
	}
	return nil
}

func (hp *headerParser) programTableHeader() error {
	l, err := hp.next(markerSeq)
	if err != nil {
		return err
	}
	if _, err := hp.expectPrefix(l, 1, markerSeq); err != nil {
		return err
	}
	if _, err := hp.expectPrefix(l, 2, markerExplanation); err != nil {
		return err
	}
	y0, err := hp.fiscalYear(l, 3)
	if err != nil {
		return err
	}
	y1, err := hp.fiscalYear(l, 4)
	if err != nil {
		return err
	}
	hp.header.Year0, hp.header.Year1 = models.Some(y0), models.Some(y1)
	return nil
}

func (hp *headerParser) fiscalYear(l headerLine, field int) (int, error) {
	const expected = markerFiscalYear + "YYYY"
	tok, ok := l.tok(field)
	if !ok {
		return 0, hp.mismatch(l, field, expected, missingToken)
	}
	digits, found := strings.CutPrefix(tok, markerFiscalYear)
	year, err := strconv.Atoi(digits)
	if !found || len(digits) != 4 || err != nil {
		return 0, hp.mismatch(l, field, expected, tok)
	}
	return year, nil
}

func (hp *headerParser) departmentTableHeader() error {
	l, err := hp.next(markerExpense)
	if err != nil {
		return err
	}
	for i, want := range []string{markerExpense, markerFirstFY, markerSecondFY} {
		if _, err := hp.expectPrefix(l, i+1, want); err != nil {
			return err
		}
	}
	return nil
}

func (hp *headerParser) columnHeader() error {
	expected := strings.Join(columnHeader[1:], " ")
	l, err := hp.next(expected)
	if err != nil {
		return err
	}
	if len(l.toks) != len(columnHeader) {
		return hp.mismatch(l, -1, expected, fmt.Sprintf("%d fields %q", len(l.toks), l.toks))
	}
	for i := 1; i < len(columnHeader); i++ {
		if l.toks[i] != columnHeader[i] {
			return hp.mismatch(l, i, columnHeader[i], l.toks[i])
		}
	}
	return nil
}
