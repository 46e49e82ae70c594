package parser

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStructuralMismatch is matched by every *StructuralMismatchError.
	ErrStructuralMismatch = errors.New("structural mismatch")

	// ErrGroupInconsistency is returned when the grouped body does not agree
	// with the sequence ids seen while grouping.
	ErrGroupInconsistency = errors.New("record group inconsistency")
)

// StructuralMismatchError reports a header or table marker that is not the
// expected literal at the expected position.
type StructuralMismatchError struct {
	LineNo   int // zero-based line index within the page
	Field    int // token index, -1 when the whole line is checked
	Expected string
	Actual   string
	Line     string
	Context  string // header values gathered before the failure
}

func (e *StructuralMismatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "structural mismatch at line %d", e.LineNo)
	if e.Field >= 0 {
		fmt.Fprintf(&b, " field %d", e.Field)
	}
	fmt.Fprintf(&b, ": expected %q, got %q", e.Expected, e.Actual)
	fmt.Fprintf(&b, "\n  line: %q", e.Line)
	if e.Context != "" {
		fmt.Fprintf(&b, "\n  header context:\n%s", indent(e.Context, "    "))
	}
	return b.String()
}

func (e *StructuralMismatchError) Is(target error) bool {
	return target == ErrStructuralMismatch
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
