package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/insightdelivered/budget-worksheet-converter/internal/models"
	"github.com/insightdelivered/budget-worksheet-converter/internal/spans"
)

// lineID returns the group id a body line opens, or "" for a continuation
// line. Label literals win over the sequence column. Text in the sequence
// column only counts as an id when it ends before the gap; text running on
// into the gap is explanation overflow, not an id.
func (l Layout) lineID(line string) string {
	if label := matchLabel(line); label != "" {
		return label
	}
	id := strings.TrimSpace(spans.Cut(line, 0, l.SequenceWidth))
	if id == "" {
		return ""
	}
	if !isBlank(spans.Cut(line, l.SequenceWidth, l.ContentStart)) {
		return ""
	}
	return id
}

// GroupLines partitions body lines into record groups in first-seen order.
// Stored lines start at ContentStart. Lines before the first id belong to
// DefaultGroupID; groups that never receive a line are not returned.
func (l Layout) GroupLines(lines []string) ([]models.RecordGroup, error) {
	var (
		order  []string
		groups = make(map[string]*models.RecordGroup)
		open   = DefaultGroupID
	)

	for i, line := range lines {
		if id := l.lineID(line); id != "" && id != open {
			if _, seen := groups[id]; seen {
				return nil, fmt.Errorf("%w: body line %d reopens group %q after %q: %q",
					ErrGroupInconsistency, i, id, open, line)
			}
			open = id
		}

		g, ok := groups[open]
		if !ok {
			g = &models.RecordGroup{ID: open}
			groups[open] = g
			order = append(order, open)
		}
		g.Lines = append(g.Lines, spans.Cut(line, l.ContentStart, -1))
	}

	if err := checkGroups(order, groups); err != nil {
		return nil, err
	}

	out := make([]models.RecordGroup, len(order))
	for i, id := range order {
		out[i] = *groups[id]
	}
	return out, nil
}

// checkGroups verifies that the discovered ids and the group keys are the
// same set.
func checkGroups(order []string, groups map[string]*models.RecordGroup) error {
	ids := append([]string(nil), order...)
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(ids)
	sort.Strings(keys)

	if len(ids) != len(keys) {
		return fmt.Errorf("%w: ids %q, groups %q", ErrGroupInconsistency, ids, keys)
	}
	for i := range ids {
		if ids[i] != keys[i] {
			return fmt.Errorf("%w: ids %q, groups %q", ErrGroupInconsistency, ids, keys)
		}
	}
	return nil
}
