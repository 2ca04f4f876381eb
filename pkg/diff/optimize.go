package diff

// optimizeSequenceDiffs runs the cleanup passes shared by line- and
// character-level diffing: equal-content gaps between neighbouring
// changes are slid shut where possible, and what remains is nudged onto
// the most pleasing boundary. Joining runs twice since a merge produced
// by the first run can expose a pair the first run walked past.
func optimizeSequenceDiffs(seq1, seq2 sequence, diffs []SequenceDiff) []SequenceDiff {
	diffs = joinSequenceDiffsByShifting(seq1, seq2, diffs)
	diffs = joinSequenceDiffsByShifting(seq1, seq2, diffs)
	diffs = shiftSequenceDiffs(seq1, seq2, diffs)
	return diffs
}

// joinSequenceDiffsByShifting slides each pure insertion or deletion
// through the equal-content gap separating it from its neighbour: a
// slide by d is valid when the element rotating into the diff equals
// the one rotating out, in both sequences. A diff that can slide the
// entire gap is merged into the neighbour; otherwise it shifts by the
// maximal valid amount. The left sweep uses element identity, the right
// sweep strong equality, so that with whitespace-trimmed line identity
// a change never slides across a whitespace-only match.
func joinSequenceDiffsByShifting(seq1, seq2 sequence, diffs []SequenceDiff) []SequenceDiff {
	if len(diffs) == 0 {
		return diffs
	}

	result := make([]SequenceDiff, 0, len(diffs))
	result = append(result, diffs[0])

	for i := 1; i < len(diffs); i++ {
		prev := result[len(result)-1]
		cur := diffs[i]

		if cur.isInsertion() || cur.isDeletion() {
			length := cur.Seq1Start - prev.Seq1End
			var d int
			for d = 1; d <= length; d++ {
				if seq1.element(cur.Seq1Start-d) != seq1.element(cur.Seq1End-d) ||
					seq2.element(cur.Seq2Start-d) != seq2.element(cur.Seq2End-d) {
					break
				}
			}
			d--
			if d == length {
				result[len(result)-1] = SequenceDiff{
					Seq1Start: prev.Seq1Start, Seq1End: cur.Seq1End - length,
					Seq2Start: prev.Seq2Start, Seq2End: cur.Seq2End - length,
				}
				continue
			}
			cur = cur.delta(-d)
		}
		result = append(result, cur)
	}

	result2 := make([]SequenceDiff, 0, len(result))
	for i := 0; i < len(result)-1; i++ {
		cur := result[i]
		next := result[i+1]

		if cur.isInsertion() || cur.isDeletion() {
			length := next.Seq1Start - cur.Seq1End
			var d int
			for d = 0; d < length; d++ {
				if !seq1.strongEqual(cur.Seq1Start+d, cur.Seq1End+d) ||
					!seq2.strongEqual(cur.Seq2Start+d, cur.Seq2End+d) {
					break
				}
			}
			if d == length {
				result[i+1] = SequenceDiff{
					Seq1Start: cur.Seq1Start + length, Seq1End: next.Seq1End,
					Seq2Start: cur.Seq2Start + length, Seq2End: next.Seq2End,
				}
				continue
			}
			if d > 0 {
				cur = cur.delta(d)
			}
		}
		result2 = append(result2, cur)
	}
	result2 = append(result2, result[len(result)-1])
	return result2
}

// mergeTouching folds any diffs that now touch or overlap into one.
func mergeTouching(diffs []SequenceDiff) []SequenceDiff {
	if len(diffs) == 0 {
		return diffs
	}
	var out []SequenceDiff
	cur := diffs[0]
	for _, next := range diffs[1:] {
		if next.Seq1Start <= cur.Seq1End && next.Seq2Start <= cur.Seq2End {
			cur = cur.join(next)
			continue
		}
		out = append(out, cur)
		cur = next
	}
	out = append(out, cur)
	return out
}

// maxBoundaryShift caps how far a diff may be slid per side while
// hunting for a better boundary score.
const maxBoundaryShift = 100

// shiftSequenceDiffs slides each pure insertion or deletion within its
// admissible window to the position with the best combined boundary
// score. Diffs that touch content in both sequences have no freedom to
// move and are left alone.
func shiftSequenceDiffs(seq1, seq2 sequence, diffs []SequenceDiff) []SequenceDiff {
	if _, ok := seq1.boundaryScore(0); !ok {
		return diffs
	}
	if _, ok := seq2.boundaryScore(0); !ok {
		return diffs
	}

	out := make([]SequenceDiff, len(diffs))
	copy(out, diffs)
	for i, d := range out {
		low1, low2 := 0, 0
		if i > 0 {
			low1, low2 = out[i-1].Seq1End+1, out[i-1].Seq2End+1
		}
		high1, high2 := seq1.len(), seq2.len()
		if i+1 < len(out) {
			high1, high2 = out[i+1].Seq1Start-1, out[i+1].Seq2Start-1
		}

		switch {
		case d.isInsertion():
			out[i] = shiftDiffToBetterPosition(d, seq1, seq2, low1, high1, low2, high2)
		case d.isDeletion():
			out[i] = shiftDiffToBetterPosition(d.swap(), seq2, seq1, low2, high2, low1, high1).swap()
		}
	}
	return out
}

// shiftDiffToBetterPosition takes a diff normalized so that its seq1
// side is empty (a pure insertion into seq2), slides it over every
// admissible delta within [low,high) on both sequences, and returns it
// at the delta maximizing the boundary score at the seq1 point plus
// both seq2 endpoints. A slide by delta is admissible when each element
// rotating into the inserted span equals the one rotating out.
func shiftDiffToBetterPosition(d SequenceDiff, seq1, seq2 sequence, low1, high1, low2, high2 int) SequenceDiff {
	deltaBefore := 1
	for d.Seq1Start-deltaBefore >= low1 &&
		d.Seq2Start-deltaBefore >= low2 &&
		seq2.strongEqual(d.Seq2Start-deltaBefore, d.Seq2End-deltaBefore) &&
		deltaBefore < maxBoundaryShift {
		deltaBefore++
	}
	deltaBefore--

	deltaAfter := 0
	for d.Seq1Start+deltaAfter < high1 &&
		d.Seq2End+deltaAfter < high2 &&
		seq2.strongEqual(d.Seq2Start+deltaAfter, d.Seq2End+deltaAfter) &&
		deltaAfter < maxBoundaryShift {
		deltaAfter++
	}

	if deltaBefore == 0 && deltaAfter == 0 {
		return d
	}

	bestDelta := 0
	bestScore := -1
	for delta := -deltaBefore; delta <= deltaAfter; delta++ {
		score := scoreAt(seq1, d.Seq1Start+delta) +
			scoreAt(seq2, d.Seq2Start+delta) +
			scoreAt(seq2, d.Seq2End+delta)
		if score > bestScore {
			bestScore, bestDelta = score, delta
		}
	}
	return d.delta(bestDelta)
}

func scoreAt(seq sequence, pos int) int {
	s, _ := seq.boundaryScore(pos)
	return s
}

// shortMatchGap is the largest equal-content gap between two diffs that
// gets folded away rather than kept as its own matching region.
const shortMatchGap = 2

// removeShortMatches merges any two diffs separated by a very small
// equal-content gap in either sequence, since a two-element match
// sandwiched between two changes rarely reads as meaningful context.
func removeShortMatches(diffs []SequenceDiff) []SequenceDiff {
	var out []SequenceDiff
	for _, s := range diffs {
		if len(out) > 0 {
			last := out[len(out)-1]
			if s.Seq1Start-last.Seq1End <= shortMatchGap || s.Seq2Start-last.Seq2End <= shortMatchGap {
				out[len(out)-1] = last.join(s)
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

// maxVeryShortLineMergeIterations bounds the line-level-only pass that
// merges changes separated by a near-empty gap, preventing pathological
// inputs from looping for a long time for a marginal benefit.
const maxVeryShortLineMergeIterations = 10

// veryShortLineGapCodeUnits is the maximum number of non-whitespace code
// units the unchanged gap between two diffs may contain, summed over all
// of its lines, and still be considered for merging.
const veryShortLineGapCodeUnits = 4

// veryShortLineMinSpan is the minimum totalSpan() one of the two
// surrounding diffs must have for the merge to be worthwhile; merging
// around a gap between two already-tiny diffs adds noise rather than
// removing it.
const veryShortLineMinSpan = 5

// removeVeryShortMatchingLinesBetweenDiffs is line-level only: it merges
// two diffs whose unchanged gap holds at most veryShortLineGapCodeUnits
// non-whitespace code units, iterating until stable or the iteration cap
// is hit.
func removeVeryShortMatchingLinesBetweenDiffs(lines1, lines2 []string, diffs []SequenceDiff) []SequenceDiff {
	if len(diffs) < 2 {
		return diffs
	}
	for iter := 0; iter < maxVeryShortLineMergeIterations; iter++ {
		changed := false
		var out []SequenceDiff
		cur := diffs[0]
		for _, next := range diffs[1:] {
			if mergeableAcrossVeryShortGap(lines1, cur, next) {
				cur = SequenceDiff{
					Seq1Start: cur.Seq1Start, Seq1End: next.Seq1End,
					Seq2Start: cur.Seq2Start, Seq2End: next.Seq2End,
				}
				changed = true
				continue
			}
			out = append(out, cur)
			cur = next
		}
		out = append(out, cur)
		diffs = out
		if !changed {
			break
		}
	}
	return diffs
}

func mergeableAcrossVeryShortGap(lines1 []string, cur, next SequenceDiff) bool {
	gap := next.Seq1Start - cur.Seq1End
	if gap <= 0 {
		return false
	}
	nonWs := 0
	for line := cur.Seq1End; line < next.Seq1Start; line++ {
		if line < 0 || line >= len(lines1) {
			continue
		}
		nonWs += countNonWhitespace(encodeCodeUnits(lines1[line]))
	}
	if nonWs > veryShortLineGapCodeUnits {
		return false
	}
	return cur.totalSpan() > veryShortLineMinSpan || next.totalSpan() > veryShortLineMinSpan
}
