package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// stringSequence is a minimal test double implementing sequence over a
// plain string, one element per byte, so optimizer behavior can be
// exercised without going through lineSequence/charSequence.
type stringSequence struct {
	s string
}

func (s stringSequence) len() int             { return len(s.s) }
func (s stringSequence) element(i int) uint32 { return uint32(s.s[i]) }
func (s stringSequence) strongEqual(a, b int) bool {
	return s.s[a] == s.s[b]
}
func (s stringSequence) boundaryScore(i int) (int, bool) { return 0, false }

func TestJoinByShifting_MergesFullySlidableGap(t *testing.T) {
	// "aaa" -> "aaaaa": one 'a' inserted at the start, another after
	// two matched 'a's. The second insertion can slide left through the
	// whole repeated run, so the two merge into a single two-character
	// insertion at the start.
	seq1 := stringSequence{"aaa"}
	seq2 := stringSequence{"aaaaa"}

	diffs := []SequenceDiff{
		{Seq1Start: 0, Seq1End: 0, Seq2Start: 0, Seq2End: 1},
		{Seq1Start: 2, Seq1End: 2, Seq2Start: 3, Seq2End: 4},
	}
	out := joinSequenceDiffsByShifting(seq1, seq2, diffs)
	assert.Equal(t, []SequenceDiff{{Seq1Start: 0, Seq1End: 0, Seq2Start: 0, Seq2End: 2}}, out)
}

func TestJoinByShifting_KeepsDistinctInsertions(t *testing.T) {
	// "xy" -> "xayb": two unrelated single-character insertions. The
	// gap between them is not a repetition of either insertion, so no
	// slide is valid in either direction and both diffs survive.
	seq1 := stringSequence{"xy"}
	seq2 := stringSequence{"xayb"}

	diffs := []SequenceDiff{
		{Seq1Start: 1, Seq1End: 1, Seq2Start: 1, Seq2End: 2},
		{Seq1Start: 2, Seq1End: 2, Seq2Start: 3, Seq2End: 4},
	}
	out := joinSequenceDiffsByShifting(seq1, seq2, diffs)
	assert.Equal(t, diffs, out)
}

func TestShiftSequenceDiffs_PrefersWordBoundary(t *testing.T) {
	// "ab cd" -> "ab ab cd": the raw LCS may report the insertion as
	// " ab" after the first "ab"; shifting finds the equivalent "ab "
	// at the very start, whose boundaries land on the word edges.
	cs1 := newFullLineCharSequence([]string{"ab cd"})
	cs2 := newFullLineCharSequence([]string{"ab ab cd"})

	diffs := []SequenceDiff{{Seq1Start: 2, Seq1End: 2, Seq2Start: 2, Seq2End: 5}}
	out := shiftSequenceDiffs(cs1, cs2, diffs)
	assert.Equal(t, []SequenceDiff{{Seq1Start: 0, Seq1End: 0, Seq2Start: 0, Seq2End: 3}}, out)
}

func TestRemoveShortMatches_MergesTinyGap(t *testing.T) {
	diffs := []SequenceDiff{
		{Seq1Start: 0, Seq1End: 2, Seq2Start: 0, Seq2End: 2},
		{Seq1Start: 3, Seq1End: 5, Seq2Start: 3, Seq2End: 5}, // gap of 1
	}
	out := removeShortMatches(diffs)
	assert.Len(t, out, 1)
	assert.Equal(t, SequenceDiff{Seq1Start: 0, Seq1End: 5, Seq2Start: 0, Seq2End: 5}, out[0])
}

func TestRemoveShortMatches_EitherSequenceSuffices(t *testing.T) {
	// After word extension the two sequences' gaps can differ; a tiny
	// gap on just one side is enough to fold the match away.
	diffs := []SequenceDiff{
		{Seq1Start: 0, Seq1End: 2, Seq2Start: 0, Seq2End: 2},
		{Seq1Start: 10, Seq1End: 12, Seq2Start: 3, Seq2End: 5},
	}
	out := removeShortMatches(diffs)
	assert.Equal(t, []SequenceDiff{{Seq1Start: 0, Seq1End: 12, Seq2Start: 0, Seq2End: 5}}, out)
}

func TestRemoveShortMatches_KeepsLargeGapSeparate(t *testing.T) {
	diffs := []SequenceDiff{
		{Seq1Start: 0, Seq1End: 2, Seq2Start: 0, Seq2End: 2},
		{Seq1Start: 10, Seq1End: 12, Seq2Start: 10, Seq2End: 12},
	}
	out := removeShortMatches(diffs)
	assert.Len(t, out, 2)
}

func TestMergeTouching(t *testing.T) {
	diffs := []SequenceDiff{
		{Seq1Start: 0, Seq1End: 3, Seq2Start: 0, Seq2End: 3},
		{Seq1Start: 3, Seq1End: 5, Seq2Start: 3, Seq2End: 5}, // touches exactly
		{Seq1Start: 10, Seq1End: 12, Seq2Start: 10, Seq2End: 12},
	}
	out := mergeTouching(diffs)
	assert.Len(t, out, 2)
	assert.Equal(t, SequenceDiff{Seq1Start: 0, Seq1End: 5, Seq2Start: 0, Seq2End: 5}, out[0])
}

func TestOptimizeSequenceDiffs_Idempotent(t *testing.T) {
	seq1 := stringSequence{"the quick brown fox jumps"}
	seq2 := stringSequence{"the slow brown fox leaps"}

	diffs, _ := lcsDP(seq1, seq2, deadline{}, nil)
	once := optimizeSequenceDiffs(seq1, seq2, diffs)
	twice := optimizeSequenceDiffs(seq1, seq2, once)
	assert.Equal(t, once, twice)
}

func TestRemoveVeryShortMatchingLinesBetweenDiffs_MergesAcrossBlankLine(t *testing.T) {
	// Each surrounding diff spans 3 lines on both sides (totalSpan==6,
	// above veryShortLineMinSpan), separated by a single blank gap
	// line, so the merge should fire.
	lines1 := []string{"a1", "a2", "a3", "", "b1", "b2", "b3"}
	lines2 := []string{"A1", "A2", "A3", "", "B1", "B2", "B3"}
	diffs := []SequenceDiff{
		{Seq1Start: 0, Seq1End: 3, Seq2Start: 0, Seq2End: 3},
		{Seq1Start: 4, Seq1End: 7, Seq2Start: 4, Seq2End: 7},
	}
	out := removeVeryShortMatchingLinesBetweenDiffs(lines1, lines2, diffs)
	assert.Len(t, out, 1)
	assert.Equal(t, SequenceDiff{Seq1Start: 0, Seq1End: 7, Seq2Start: 0, Seq2End: 7}, out[0])
}

func TestRemoveVeryShortMatchingLinesBetweenDiffs_KeepsSmallDiffsSeparate(t *testing.T) {
	lines1 := []string{"a", "", "b"}
	lines2 := []string{"A", "", "B"}
	diffs := []SequenceDiff{
		{Seq1Start: 0, Seq1End: 1, Seq2Start: 0, Seq2End: 1},
		{Seq1Start: 2, Seq1End: 3, Seq2Start: 2, Seq2End: 3},
	}
	// Both surrounding diffs have totalSpan()==2, below the
	// veryShortLineMinSpan(5) threshold, so the near-blank gap is not
	// considered worth merging over.
	out := removeVeryShortMatchingLinesBetweenDiffs(lines1, lines2, diffs)
	assert.Len(t, out, 2)
}
