package spans

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightdelivered/budget-worksheet-converter/internal/models"
)

func TestRegistry_MergeFirstPage(t *testing.T) {
	var reg Registry
	incoming := Set{{2, 7}, {10, 15}}

	next, err := reg.Merge(models.ProgramPage, incoming)
	require.NoError(t, err)
	assert.True(t, incoming.Equal(next.Get(models.ProgramPage)))
	assert.Empty(t, next.Get(models.DepartmentSummaryPage))
	assert.Empty(t, reg.Get(models.ProgramPage), "receiver must not change")
}

func TestRegistry_MergeWidensWithoutConflict(t *testing.T) {
	reg := Registry{Program: Set{{2, 7}, {10, 15}}}

	next, err := reg.Merge(models.ProgramPage, Set{{1, 4}, {12, 16}, {20, 21}})
	require.NoError(t, err)
	assert.True(t, Set{{1, 7}, {10, 16}, {20, 21}}.Equal(next.Program), "got %v", next.Program)
}

func TestRegistry_MergeKindsIndependent(t *testing.T) {
	reg := Registry{Program: Set{{0, 3}, {5, 8}}}

	next, err := reg.Merge(models.DepartmentSummaryPage, Set{{0, 8}})
	require.NoError(t, err)
	assert.True(t, Set{{0, 3}, {5, 8}}.Equal(next.Program))
	assert.True(t, Set{{0, 8}}.Equal(next.DepartmentSummary))
}

func TestRegistry_MergeCollapseIsConflict(t *testing.T) {
	reg := Registry{Program: Set{{2, 7}, {10, 15}, {20, 22}}}

	next, err := reg.Merge(models.ProgramPage, Set{{5, 12}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSpanConflict))

	var conflict *SpanConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, models.ProgramPage, conflict.Kind)
	assert.Equal(t, []Span{{2, 15}}, conflict.Collapsed)
	assert.True(t, Set{{2, 15}, {20, 22}}.Equal(conflict.Merged))
	assert.Contains(t, err.Error(), "3 confirmed spans would collapse into 2")

	assert.Equal(t, reg, next, "registry must be unchanged on conflict")
}

func TestRegistry_CollapseHiddenByNewSpan(t *testing.T) {
	// Count stays at two but the original pair collapsed.
	reg := Registry{Program: Set{{0, 3}, {5, 8}}}

	_, err := reg.Merge(models.ProgramPage, Set{{2, 6}, {30, 31}})
	assert.ErrorIs(t, err, ErrSpanConflict)
}

func TestRegistry_NeverShrinks(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	var reg Registry

	for i := 0; i < 1000; i++ {
		before := len(reg.Program)
		next, err := reg.Merge(models.ProgramPage, randomSet(rng))
		if err != nil {
			assert.Equal(t, reg, next)
			continue
		}
		assert.GreaterOrEqual(t, len(next.Program), before)
		reg = next
	}
}

func TestGapsAndCrosses(t *testing.T) {
	existing := Set{{2, 7}, {10, 15}, {20, 22}}
	gaps := Gaps(existing, Span{2, 15})
	assert.Equal(t, []Span{{7, 10}}, gaps)

	assert.True(t, Set{{5, 12}}.Crosses(gaps[0]))
	assert.False(t, Set{{2, 7}, {10, 11}}.Crosses(gaps[0]))
}

func TestRegistry_MergeRejectsInvalidSet(t *testing.T) {
	reg := Registry{Program: Set{{0, 3}}}

	next, err := reg.Merge(models.ProgramPage, Set{{5, 9}, {7, 12}})
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrSpanConflict))
	assert.Equal(t, reg, next)
}

func TestSpanConflictError_ShowsColumns(t *testing.T) {
	err := &SpanConflictError{
		Kind:     models.DepartmentSummaryPage,
		Reason:   "2 confirmed spans would collapse into 1",
		Existing: Set{{0, 2}, {4, 6}},
		Incoming: Set{{0, 6}},
		Merged:   Set{{0, 6}},
		Lines:    []string{"ab--cd"},
		Context:  "kind=department-summary",
	}

	msg := err.Error()
	assert.Contains(t, msg, "span conflict on department-summary pages")
	assert.Contains(t, msg, "\n  col:  000000\n  col:  012345\n  line: ab--cd")
	assert.Contains(t, msg, "page context:\nkind=department-summary")
}
