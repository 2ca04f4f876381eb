package diff

// ComputeDiff computes the hierarchical line-and-character difference
// between two documents, each given as an ordered slice of lines (no
// trailing newline characters).
func ComputeDiff(original, modified []string, opts Options) LinesDiff {
	if len(original) == 0 {
		original = []string{""}
	}
	if len(modified) == 0 {
		modified = []string{""}
	}

	if len(original) == 1 && len(modified) == 1 && original[0] == modified[0] {
		return LinesDiff{}
	}

	if (len(original) == 1 && original[0] == "") || (len(modified) == 1 && modified[0] == "") {
		// One side is a single empty line: the whole other file is the
		// change, at line granularity, with a single inner change
		// spanning its entire body.
		return LinesDiff{Changes: []DetailedLineRangeMapping{{
			Original: LineRange{StartLine: 1, EndLine: len(original) + 1},
			Modified: LineRange{StartLine: 1, EndLine: len(modified) + 1},
			InnerChanges: []RangeMapping{{
				Original: CharRange{StartLine: 1, StartColumn: 1, EndLine: len(original), EndColumn: codeUnitLen(original[len(original)-1]) + 1},
				Modified: CharRange{StartLine: 1, StartColumn: 1, EndLine: len(modified), EndColumn: codeUnitLen(modified[len(modified)-1]) + 1},
			}},
		}}}
	}

	in := newInterner()
	seq1 := newLineSequence(original, opts.IgnoreTrimWhitespace, in)
	seq2 := newLineSequence(modified, opts.IgnoreTrimWhitespace, in)

	dl := newDeadline(opts.MaxComputationTimeMS)

	lineDiffs, hitTimeout := computeLCSDiffs(seq1, seq2, dl, lineLevelLCSThreshold, nil)
	lineDiffs = optimizeSequenceDiffs(seq1, seq2, lineDiffs)
	lineDiffs = removeVeryShortMatchingLinesBetweenDiffs(original, modified, lineDiffs)

	// Refinement runs even when the line-level pass timed out: the
	// expired deadline makes the character-level pass return its own
	// coarse full-range result immediately, so the single surviving
	// change still carries a whole-body inner change.
	var mappings []DetailedLineRangeMapping
	for _, ld := range lineDiffs {
		mapping, refineTimedOut := refineDiff(original, modified, ld, opts, dl)
		if refineTimedOut {
			hitTimeout = true
		}
		mappings = append(mappings, mapping)
	}

	return LinesDiff{
		Changes:    groupRefinedDiffs(mappings),
		HitTimeout: hitTimeout,
	}
}
