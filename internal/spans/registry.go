package spans

import (
	"errors"
	"fmt"
	"strings"

	"github.com/insightdelivered/budget-worksheet-converter/internal/models"
)

// ErrSpanConflict is matched by every *SpanConflictError.
var ErrSpanConflict = errors.New("span conflict")

// SpanConflictError reports column evidence that is inconsistent with the
// confirmed column structure.
type SpanConflictError struct {
	Kind      models.PageKind
	Reason    string
	Existing  Set
	Incoming  Set
	Merged    Set
	Collapsed []Span // merged spans that swallowed two or more existing spans

	// Filled in by the page parser.
	Lines   []string
	Context string
}

func (e *SpanConflictError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "span conflict on %s pages: %s", e.Kind, e.Reason)
	fmt.Fprintf(&b, "\n  expected (%d spans): %v", len(e.Existing), e.Existing)
	fmt.Fprintf(&b, "\n  incoming (%d spans): %v", len(e.Incoming), e.Incoming)
	fmt.Fprintf(&b, "\n  merged   (%d spans): %v", len(e.Merged), e.Merged)
	if len(e.Collapsed) > 0 {
		fmt.Fprintf(&b, "\n  collapsed: %v", Set(e.Collapsed))
	}
	if len(e.Lines) > 0 {
		longest := ""
		for _, l := range e.Lines {
			if len(l) > len(longest) {
				longest = l
			}
		}
		for _, r := range strings.Split(Ruler(longest), "\n") {
			fmt.Fprintf(&b, "\n  col:  %s", r)
		}
		for _, l := range e.Lines {
			fmt.Fprintf(&b, "\n  line: %s", l)
		}
	}
	if e.Context != "" {
		fmt.Fprintf(&b, "\n  page context:\n%s", e.Context)
	}
	return b.String()
}

func (e *SpanConflictError) Is(target error) bool {
	return target == ErrSpanConflict
}

// Registry is the accumulated span set per page kind. It is a value: Merge
// returns a new Registry and never modifies the receiver.
type Registry struct {
	Program           Set `json:"program"`
	DepartmentSummary Set `json:"department_summary"`
}

// Get returns the confirmed spans for kind.
func (r Registry) Get(kind models.PageKind) Set {
	if kind == models.DepartmentSummaryPage {
		return r.DepartmentSummary
	}
	return r.Program
}

func (r Registry) with(kind models.PageKind, s Set) Registry {
	if kind == models.DepartmentSummaryPage {
		r.DepartmentSummary = s
	} else {
		r.Program = s
	}
	return r
}

// Merge unions incoming into the entry for kind. If the union collapses two
// previously distinct spans into one, it returns the receiver unchanged with
// a *SpanConflictError.
func (r Registry) Merge(kind models.PageKind, incoming Set) (Registry, error) {
	if err := incoming.Validate(); err != nil {
		return r, fmt.Errorf("invalid %s spans: %w", kind, err)
	}
	existing := r.Get(kind)
	merged := Union(existing, incoming)
	if collapsed := Collapsed(existing, merged); len(collapsed) > 0 {
		return r, &SpanConflictError{
			Kind:      kind,
			Reason:    fmt.Sprintf("%d confirmed spans would collapse into %d", len(existing), len(merged)),
			Existing:  existing,
			Incoming:  incoming,
			Merged:    merged,
			Collapsed: collapsed,
		}
	}
	return r.with(kind, merged), nil
}

// Collapsed returns the spans of merged that cover more than one span of
// existing. merged must be a superset of existing as produced by Union.
func Collapsed(existing, merged Set) []Span {
	var out []Span
	i := 0
	for _, m := range merged {
		n := 0
		for i < len(existing) && existing[i].Start < m.End {
			if existing[i].Start >= m.Start {
				n++
			}
			i++
		}
		if n > 1 {
			out = append(out, m)
		}
	}
	return out
}

// Gaps returns the whitespace between the existing spans that a collapsed
// span bridged.
func Gaps(existing Set, collapsed Span) []Span {
	var out []Span
	for i := 1; i < len(existing); i++ {
		g := Span{existing[i-1].End, existing[i].Start}
		if g.Start >= collapsed.Start && g.End <= collapsed.End {
			out = append(out, g)
		}
	}
	return out
}

// Crosses reports whether any span of s intersects g.
func (s Set) Crosses(g Span) bool {
	for _, sp := range s {
		if sp.Start < g.End && g.Start < sp.End {
			return true
		}
	}
	return false
}
