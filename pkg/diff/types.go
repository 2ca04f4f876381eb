// Package diff computes a precise, hierarchical difference between two
// documents represented as ordered sequences of lines.
//
// The output is a list of changed regions; each region carries both a
// line-range span and, within it, a set of character-range mappings that
// pinpoint the exact edit. The engine is built for interactive editors and
// diff viewers: it snaps changes to word and line boundaries, avoids tiny
// stuttering matches, and runs within a caller-supplied time budget on
// inputs up to tens of thousands of lines.
package diff

// Position is a 1-based (line, column) location in one of the two input
// documents. Column is measured in 16-bit code units (see codeunit.go).
type Position struct {
	Line   int
	Column int
}

// CharRange is an inclusive-start, exclusive-end span between two
// Positions in a single document side.
type CharRange struct {
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
}

func newCharRange(start, end Position) CharRange {
	return CharRange{
		StartLine:   start.Line,
		StartColumn: start.Column,
		EndLine:     end.Line,
		EndColumn:   end.Column,
	}
}

// LineRange is a 1-based, half-open (EndLine exclusive) span of lines.
// It is empty when StartLine == EndLine.
type LineRange struct {
	StartLine int
	EndLine   int
}

func (r LineRange) isEmpty() bool { return r.StartLine == r.EndLine }

// intersectsOrTouches reports whether r and o share or abut at least one
// line, treating the half-open ranges as if they were closed for the
// purpose of "touching".
func (r LineRange) intersectsOrTouches(o LineRange) bool {
	return r.StartLine <= o.EndLine && o.StartLine <= r.EndLine
}

func (r LineRange) join(o LineRange) LineRange {
	return LineRange{
		StartLine: min(r.StartLine, o.StartLine),
		EndLine:   max(r.EndLine, o.EndLine),
	}
}

// RangeMapping is a character-level change between the two documents.
type RangeMapping struct {
	Original CharRange
	Modified CharRange
}

// DetailedLineRangeMapping is a line-level change together with the
// character-level changes it contains.
type DetailedLineRangeMapping struct {
	Original     LineRange
	Modified     LineRange
	InnerChanges []RangeMapping
}

// LinesDiff is the final output of ComputeDiff.
type LinesDiff struct {
	Changes []DetailedLineRangeMapping
	// Moves is always empty: moved-block detection is not implemented.
	Moves      []struct{}
	HitTimeout bool
}

// Options configures ComputeDiff.
type Options struct {
	// IgnoreTrimWhitespace, when true, makes line identity use
	// whitespace-trimmed content; when false, lines that differ only in
	// whitespace count as different lines and are reported as changes,
	// refined at character level like any other change.
	IgnoreTrimWhitespace bool
	// MaxComputationTimeMS is the deadline budget in milliseconds; 0
	// disables the check.
	MaxComputationTimeMS int
	// ComputeMoves is accepted for interface parity but ignored: no
	// moved-block detection is implemented.
	ComputeMoves bool
	// ExtendToSubwords enables the second, sub-word-aware extension
	// pass during character-level refinement.
	ExtendToSubwords bool
}

// SequenceDiff is the core working unit: indices [Seq1Start,Seq1End) in
// sequence 1 correspond to indices [Seq2Start,Seq2End) in sequence 2.
// Both ranges are 0-based and half-open.
type SequenceDiff struct {
	Seq1Start int
	Seq1End   int
	Seq2Start int
	Seq2End   int
}

func (d SequenceDiff) seq1Range() rangeI { return rangeI{d.Seq1Start, d.Seq1End} }
func (d SequenceDiff) seq2Range() rangeI { return rangeI{d.Seq2Start, d.Seq2End} }

func (d SequenceDiff) isEmpty() bool {
	return d.Seq1Start == d.Seq1End && d.Seq2Start == d.Seq2End
}

// isInsertion reports whether d touches nothing in sequence 1.
func (d SequenceDiff) isInsertion() bool { return d.Seq1Start == d.Seq1End }

// isDeletion reports whether d touches nothing in sequence 2.
func (d SequenceDiff) isDeletion() bool { return d.Seq2Start == d.Seq2End }

func (d SequenceDiff) totalSpan() int {
	return (d.Seq1End - d.Seq1Start) + (d.Seq2End - d.Seq2Start)
}

// swap exchanges the two sequences' roles, turning an insertion into a
// deletion and vice versa.
func (d SequenceDiff) swap() SequenceDiff {
	return SequenceDiff{Seq1Start: d.Seq2Start, Seq1End: d.Seq2End, Seq2Start: d.Seq1Start, Seq2End: d.Seq1End}
}

// delta shifts both ranges by n.
func (d SequenceDiff) delta(n int) SequenceDiff {
	return SequenceDiff{Seq1Start: d.Seq1Start + n, Seq1End: d.Seq1End + n, Seq2Start: d.Seq2Start + n, Seq2End: d.Seq2End + n}
}

func (d SequenceDiff) join(o SequenceDiff) SequenceDiff {
	return SequenceDiff{
		Seq1Start: min(d.Seq1Start, o.Seq1Start), Seq1End: max(d.Seq1End, o.Seq1End),
		Seq2Start: min(d.Seq2Start, o.Seq2Start), Seq2End: max(d.Seq2End, o.Seq2End),
	}
}

// intersect intersects d and o per sequence; ok is false when the
// ranges don't meet (even degenerately) in one of the sequences.
func (d SequenceDiff) intersect(o SequenceDiff) (SequenceDiff, bool) {
	s1, ok1 := intersectRanges(d.seq1Range(), o.seq1Range())
	s2, ok2 := intersectRanges(d.seq2Range(), o.seq2Range())
	if !ok1 || !ok2 {
		return SequenceDiff{}, false
	}
	return newSequenceDiff(s1, s2), true
}

// rangeI is a small half-open [Start,End) integer range, used internally
// by the optimizer and LCS backtracking to avoid repeating the
// start/end pair shape everywhere.
type rangeI struct {
	Start int
	End   int
}

func (r rangeI) isEmpty() bool { return r.Start == r.End }

// intersects reports a non-empty overlap between r and o.
func (r rangeI) intersects(o rangeI) bool {
	return max(r.Start, o.Start) < min(r.End, o.End)
}

// intersectRanges returns the (possibly empty) intersection of a and b;
// ok is false when they don't meet at all.
func intersectRanges(a, b rangeI) (rangeI, bool) {
	s, e := max(a.Start, b.Start), min(a.End, b.End)
	if s > e {
		return rangeI{}, false
	}
	return rangeI{s, e}, true
}

func newSequenceDiff(s1, s2 rangeI) SequenceDiff {
	return SequenceDiff{Seq1Start: s1.Start, Seq1End: s1.End, Seq2Start: s2.Start, Seq2End: s2.End}
}
