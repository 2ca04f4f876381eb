package diff

import "math"

// refineDiff computes the character-level changes inside one line-level
// SequenceDiff, returning a single DetailedLineRangeMapping (still
// carrying raw half-open line indices; group.go adjusts and merges
// these into the public LineRange form).
func refineDiff(lines1, lines2 []string, lineDiff SequenceDiff, opts Options, dl deadline) (DetailedLineRangeMapping, bool) {
	origRange := lineRangeToCharRange(lines1, lineDiff.Seq1Start, lineDiff.Seq1End)
	modRange := lineRangeToCharRange(lines2, lineDiff.Seq2Start, lineDiff.Seq2End)

	cs1 := newCharSequence(lines1, origRange, opts.IgnoreTrimWhitespace)
	cs2 := newCharSequence(lines2, modRange, opts.IgnoreTrimWhitespace)

	var charDiffs []SequenceDiff
	hitTimeout := false
	if cs1.len() > 0 || cs2.len() > 0 {
		charDiffs, hitTimeout = computeLCSDiffs(cs1, cs2, dl, charLevelLCSThreshold, nil)
		charDiffs = optimizeSequenceDiffs(cs1, cs2, charDiffs)
		charDiffs = extendDiffsToEntireWord(cs1, cs2, charDiffs, false, false)
		if opts.ExtendToSubwords {
			charDiffs = extendDiffsToEntireWord(cs1, cs2, charDiffs, true, true)
		}
		charDiffs = removeShortMatches(charDiffs)
		charDiffs = removeVeryShortMatchingTextBetween(cs1, cs2, charDiffs)
	}

	mapping := DetailedLineRangeMapping{
		Original: LineRange{StartLine: lineDiff.Seq1Start, EndLine: lineDiff.Seq1End},
		Modified: LineRange{StartLine: lineDiff.Seq2Start, EndLine: lineDiff.Seq2End},
	}
	for _, cd := range charDiffs {
		os, oe := cs1.translateRange(cd.Seq1Start, cd.Seq1End)
		ms, me := cs2.translateRange(cd.Seq2Start, cd.Seq2End)
		mapping.InnerChanges = append(mapping.InnerChanges, RangeMapping{
			Original: newCharRange(os, oe),
			Modified: newCharRange(ms, me),
		})
	}
	return mapping, hitTimeout
}

// lineRangeToCharRange converts a 0-based half-open [start,end) line
// index range into the CharRange spanning those whole lines, or, when
// the range is empty (a pure insertion or deletion at the line level),
// a zero-width point at the boundary where the change happens.
func lineRangeToCharRange(lines []string, start, end int) CharRange {
	if start == end {
		// "end of previous line" and "start of line" collapse to the
		// same point: the position right after a line's last
		// character is the same document location as column 1 of
		// the following line, and start+1 is that following line's
		// 1-based number even when it doesn't otherwise exist yet
		// (a pure insertion at end of file).
		return CharRange{StartLine: start + 1, StartColumn: 1, EndLine: start + 1, EndColumn: 1}
	}
	endCol := 1
	if end-1 < len(lines) {
		endCol = codeUnitLen(lines[end-1]) + 1
	}
	return CharRange{StartLine: start + 1, StartColumn: 1, EndLine: end, EndColumn: endCol}
}

// shouldExtendToWord decides whether a word straddling one or more diff
// boundaries gets pulled whole into the changed region. eq counts the
// word's code units (over both sequences) that currently sit in equal
// regions, wordLen the word's combined length over both sequences.
// Without force, extension happens only when less than two thirds of
// the word survives unchanged; force extends whenever any boundary
// still splits the word. The division happens before the comparison so
// the decision boundary lands exactly where real-valued arithmetic puts
// it.
func shouldExtendToWord(eq, wordLen int, force bool) bool {
	if wordLen <= 0 {
		return false
	}
	if force && eq < wordLen {
		return true
	}
	return float64(eq) < float64(wordLen)*2.0/3.0
}

// invertDiffs returns the equal spans between, before, and after diffs,
// as SequenceDiffs pairing the equal ranges of both sequences.
func invertDiffs(diffs []SequenceDiff, len1, len2 int) []SequenceDiff {
	out := make([]SequenceDiff, 0, len(diffs)+1)
	prev1, prev2 := 0, 0
	for _, d := range diffs {
		out = append(out, SequenceDiff{Seq1Start: prev1, Seq1End: d.Seq1Start, Seq2Start: prev2, Seq2End: d.Seq2Start})
		prev1, prev2 = d.Seq1End, d.Seq2End
	}
	out = append(out, SequenceDiff{Seq1Start: prev1, Seq1End: len1, Seq2Start: prev2, Seq2End: len2})
	return out
}

// extendDiffsToEntireWord walks the equal spans between diffs and, for
// each word (or subword) straddling an equal span's edge, decides via
// shouldExtendToWord whether the whole word should become part of the
// changed region. Words spanning several short equal spans are unioned
// across them before deciding. Extended words are emitted as additional
// diffs and merged back into the main list.
func extendDiffsToEntireWord(cs1, cs2 *charSequence, diffs []SequenceDiff, subword, force bool) []SequenceDiff {
	find1, find2 := cs1.findWordContaining, cs2.findWordContaining
	if subword {
		find1, find2 = cs1.findSubwordContaining, cs2.findSubwordContaining
	}

	equalSpans := invertDiffs(diffs, cs1.len(), cs2.len())

	var additional []SequenceDiff
	lastPoint1, lastPoint2 := 0, 0

	scanWord := func(off1, off2 int, equal SequenceDiff) {
		if off1 < lastPoint1 || off2 < lastPoint2 {
			return
		}
		s1, e1, ok1 := find1(off1)
		s2, e2, ok2 := find2(off2)
		if !ok1 || !ok2 {
			return
		}
		w := SequenceDiff{Seq1Start: s1, Seq1End: e1, Seq2Start: s2, Seq2End: e2}

		equalChars := 0
		if ep, ok := w.intersect(equal); ok {
			equalChars = ep.totalSpan()
		}

		// The word cannot reach back into already-consumed equal spans,
		// but it may extend forward over the next ones; union the word
		// extents across every equal span it overlaps.
		for len(equalSpans) > 0 {
			next := equalSpans[0]
			if !w.seq1Range().intersects(next.seq1Range()) && !w.seq2Range().intersects(next.seq2Range()) {
				break
			}
			vs1, ve1, vok1 := find1(next.Seq1Start)
			vs2, ve2, vok2 := find2(next.Seq2Start)
			if !vok1 || !vok2 {
				break
			}
			v := SequenceDiff{Seq1Start: vs1, Seq1End: ve1, Seq2Start: vs2, Seq2End: ve2}
			if vp, ok := v.intersect(next); ok {
				equalChars += vp.totalSpan()
			}
			w = w.join(v)
			if w.Seq1End < next.Seq1End {
				break
			}
			equalSpans = equalSpans[1:]
		}

		if shouldExtendToWord(equalChars, w.totalSpan(), force) {
			additional = append(additional, w)
		}
		lastPoint1, lastPoint2 = w.Seq1End, w.Seq2End
	}

	for len(equalSpans) > 0 {
		span := equalSpans[0]
		equalSpans = equalSpans[1:]
		if span.Seq1Start == span.Seq1End {
			continue
		}
		scanWord(span.Seq1Start, span.Seq2Start, span)
		// The span is non-empty, so its last offset is a position that
		// is equal in both sequences.
		scanWord(span.Seq1End-1, span.Seq2End-1, span)
	}

	return mergeAdditionalDiffs(diffs, additional)
}

// mergeAdditionalDiffs merges two seq1-sorted diff lists into one,
// unifying any resulting neighbours that touch or overlap.
func mergeAdditionalDiffs(a, b []SequenceDiff) []SequenceDiff {
	var out []SequenceDiff
	for len(a) > 0 || len(b) > 0 {
		var next SequenceDiff
		if len(a) > 0 && (len(b) == 0 || a[0].Seq1Start < b[0].Seq1Start) {
			next, a = a[0], a[1:]
		} else {
			next, b = b[0], b[1:]
		}
		if len(out) > 0 && out[len(out)-1].Seq1End >= next.Seq1Start {
			out[len(out)-1] = out[len(out)-1].join(next)
		} else {
			out = append(out, next)
		}
	}
	return out
}

// veryShortTextScoreCap bounds the (lineCount*40+length) measure fed
// into the gap-merging score, so one very long diff on one side can't
// dominate the decision by itself.
const veryShortTextScoreCap = 130

// veryShortTextMergeThreshold is the combined score the two surrounding
// diffs must exceed for the gap between them to be folded away.
var veryShortTextMergeThreshold = 1.3 * math.Pow(math.Pow(veryShortTextScoreCap, 1.5), 1.5)

func veryShortTextSideScore(lineCount, length int) float64 {
	v := float64(lineCount*40 + length)
	if v > veryShortTextScoreCap {
		v = veryShortTextScoreCap
	}
	return math.Pow(v, 1.5)
}

// diffOwnScore measures how substantial a diff is, combining its line
// count and length on both sides. Only diffs that are large enough on
// this measure justify swallowing the equal text between them.
func diffOwnScore(cs1, cs2 *charSequence, d SequenceDiff) float64 {
	side1 := veryShortTextSideScore(cs1.countLinesIn(d.Seq1Start, d.Seq1End), d.Seq1End-d.Seq1Start)
	side2 := veryShortTextSideScore(cs2.countLinesIn(d.Seq2Start, d.Seq2End), d.Seq2End-d.Seq2Start)
	return math.Pow(side1+side2, 1.5)
}

// veryShortTextGapMaxLines and veryShortTextGapMaxLen bound the gap
// eligible for merging before its text is even inspected.
const (
	veryShortTextGapMaxLines      = 5
	veryShortTextGapMaxLen        = 500
	veryShortTextGapMaxTrimmedLen = 20
	veryShortTextGapMaxNewlines   = 1
)

// gapEligibleForMerge applies the gap filter: short enough outright,
// and (after trimming whitespace) short enough and with at most one
// newline.
func gapEligibleForMerge(cs1 *charSequence, cur, next SequenceDiff) bool {
	gapLines := cs1.countLinesIn(cur.Seq1End, next.Seq1Start)
	gapLen := next.Seq1Start - cur.Seq1End
	if gapLines > veryShortTextGapMaxLines || gapLen > veryShortTextGapMaxLen {
		return false
	}
	trimmed, _ := trimWhitespaceUnits(cs1.getText(cur.Seq1End, next.Seq1Start))
	if len(trimmed) > veryShortTextGapMaxTrimmedLen {
		return false
	}
	newlines := 0
	for _, u := range trimmed {
		if u == '\n' {
			newlines++
		}
	}
	return newlines <= veryShortTextGapMaxNewlines
}

const maxVeryShortTextMergeIterations = 10

// removeVeryShortMatchingTextBetween merges character-level diffs
// separated by a gap too small to read as meaningful surrounding
// context, then extends each diff longer than veryShortAffixMinSpan over
// a short, mostly-whitespace equal run up to its line boundary.
func removeVeryShortMatchingTextBetween(cs1, cs2 *charSequence, diffs []SequenceDiff) []SequenceDiff {
	if len(diffs) == 0 {
		return diffs
	}
	for iter := 0; iter < maxVeryShortTextMergeIterations; iter++ {
		changed := false
		var out []SequenceDiff
		cur := diffs[0]
		for _, next := range diffs[1:] {
			if gapEligibleForMerge(cs1, cur, next) &&
				diffOwnScore(cs1, cs2, cur)+diffOwnScore(cs1, cs2, next) > veryShortTextMergeThreshold {
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

	return extendShortPrefixSuffix(cs1, cs2, diffs)
}

// veryShortAffixMinSpan guards prefix/suffix extension: it only kicks
// in for a diff substantial enough that absorbing a tiny bit of
// untouched edge content is still a net simplification, not noise
// added to a one-character edit.
const veryShortAffixMinSpan = 100

// veryShortAffixMaxNonWhitespace is the cap on non-whitespace code
// units a prefix or suffix slice may contain and still be folded into
// the diff.
const veryShortAffixMaxNonWhitespace = 3

// extendShortPrefixSuffix absorbs the unchanged run between a large
// diff and its enclosing line boundary when that run is mostly
// whitespace and very short, rather than leaving a nearly-empty sliver
// of "equal" text at the edge. It measures seq1 only and applies the
// same shift to seq2's boundary (the asymmetry is intentional, see
// DESIGN.md).
func extendShortPrefixSuffix(cs1, cs2 *charSequence, diffs []SequenceDiff) []SequenceDiff {
	out := make([]SequenceDiff, len(diffs))
	copy(out, diffs)

	for i, d := range out {
		if d.totalSpan() <= veryShortAffixMinSpan {
			continue
		}

		lineStart, lineEnd := cs1.extendToFullLines(d.Seq1Start, d.Seq1End)

		lowBound1, lowBound2 := 0, 0
		if i > 0 {
			lowBound1, lowBound2 = out[i-1].Seq1End, out[i-1].Seq2End
		}
		if lineStart < lowBound1 {
			lineStart = lowBound1
		}
		highBound1, highBound2 := cs1.len(), cs2.len()
		if i < len(out)-1 {
			highBound1, highBound2 = out[i+1].Seq1Start, out[i+1].Seq2Start
		}
		if lineEnd > highBound1 {
			lineEnd = highBound1
		}

		if prefixLen := d.Seq1Start - lineStart; prefixLen > 0 {
			prefix := cs1.getText(lineStart, d.Seq1Start)
			if countNonWhitespace(prefix) <= veryShortAffixMaxNonWhitespace {
				n := min(prefixLen, d.Seq2Start-lowBound2)
				d.Seq1Start -= n
				d.Seq2Start -= n
			}
		}
		if suffixLen := lineEnd - d.Seq1End; suffixLen > 0 {
			suffix := cs1.getText(d.Seq1End, lineEnd)
			if countNonWhitespace(suffix) <= veryShortAffixMaxNonWhitespace {
				n := min(suffixLen, highBound2-d.Seq2End)
				d.Seq1End += n
				d.Seq2End += n
			}
		}
		out[i] = d
	}

	return mergeTouching(out)
}
