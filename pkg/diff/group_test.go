package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineRange_IntersectsOrTouches(t *testing.T) {
	a := LineRange{StartLine: 1, EndLine: 4}
	b := LineRange{StartLine: 4, EndLine: 6} // abuts exactly at line 4
	assert.True(t, a.intersectsOrTouches(b))

	c := LineRange{StartLine: 5, EndLine: 7}
	assert.False(t, a.intersectsOrTouches(c))
}

func TestLineRange_Join(t *testing.T) {
	a := LineRange{StartLine: 2, EndLine: 5}
	b := LineRange{StartLine: 4, EndLine: 9}
	assert.Equal(t, LineRange{StartLine: 2, EndLine: 9}, a.join(b))
}

func TestToPublicLineRange(t *testing.T) {
	// A pure insertion after line index 2 (0-based) becomes the empty
	// public range [3,3).
	assert.Equal(t, LineRange{StartLine: 3, EndLine: 3}, toPublicLineRange(2, 2))
	assert.Equal(t, LineRange{StartLine: 1, EndLine: 4}, toPublicLineRange(0, 3))
}

func TestTrimTrailingLineIfEmptyEdge_Trims(t *testing.T) {
	m := DetailedLineRangeMapping{
		Original: LineRange{StartLine: 1, EndLine: 3},
		Modified: LineRange{StartLine: 1, EndLine: 3},
		InnerChanges: []RangeMapping{
			{
				Original: CharRange{StartLine: 1, StartColumn: 1, EndLine: 2, EndColumn: 1},
				Modified: CharRange{StartLine: 1, StartColumn: 1, EndLine: 2, EndColumn: 1},
			},
		},
	}
	trimTrailingLineIfEmptyEdge(&m)
	assert.Equal(t, LineRange{StartLine: 1, EndLine: 2}, m.Original)
	assert.Equal(t, LineRange{StartLine: 1, EndLine: 2}, m.Modified)
}

func TestTrimTrailingLineIfEmptyEdge_NoOpWhenLastColumnNotOne(t *testing.T) {
	m := DetailedLineRangeMapping{
		Original: LineRange{StartLine: 1, EndLine: 3},
		Modified: LineRange{StartLine: 1, EndLine: 3},
		InnerChanges: []RangeMapping{
			{
				Original: CharRange{StartLine: 1, StartColumn: 1, EndLine: 2, EndColumn: 5},
				Modified: CharRange{StartLine: 1, StartColumn: 1, EndLine: 2, EndColumn: 5},
			},
		},
	}
	want := m
	trimTrailingLineIfEmptyEdge(&m)
	assert.Equal(t, want, m)
}

func TestTrimTrailingLineIfEmptyEdge_NoOpWhenWouldEmptyRange(t *testing.T) {
	// Range is already a single line; trimming it further would make
	// it empty, so it's left alone.
	m := DetailedLineRangeMapping{
		Original: LineRange{StartLine: 1, EndLine: 2},
		Modified: LineRange{StartLine: 1, EndLine: 2},
		InnerChanges: []RangeMapping{
			{
				Original: CharRange{StartLine: 1, StartColumn: 1, EndLine: 1, EndColumn: 1},
				Modified: CharRange{StartLine: 1, StartColumn: 1, EndLine: 1, EndColumn: 1},
			},
		},
	}
	want := m
	trimTrailingLineIfEmptyEdge(&m)
	assert.Equal(t, want, m)
}

func TestGroupRefinedDiffs_MergesTouchingRanges(t *testing.T) {
	mappings := []DetailedLineRangeMapping{
		{Original: LineRange{StartLine: 0, EndLine: 2}, Modified: LineRange{StartLine: 0, EndLine: 2}},
		{Original: LineRange{StartLine: 2, EndLine: 3}, Modified: LineRange{StartLine: 2, EndLine: 3}}, // touches previous
		{Original: LineRange{StartLine: 10, EndLine: 11}, Modified: LineRange{StartLine: 10, EndLine: 11}},
	}
	out := groupRefinedDiffs(mappings)
	if assert.Len(t, out, 2) {
		assert.Equal(t, LineRange{StartLine: 1, EndLine: 4}, out[0].Original)
		assert.Equal(t, LineRange{StartLine: 11, EndLine: 12}, out[1].Original)
	}
}

func TestGroupRefinedDiffs_Empty(t *testing.T) {
	assert.Nil(t, groupRefinedDiffs(nil))
}
