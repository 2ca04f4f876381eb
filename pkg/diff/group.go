package diff

// toPublicLineRange converts a raw 0-based half-open [start,end) line
// index range into the public 1-based half-open LineRange convention.
// A pure insertion/deletion (start==end) naturally comes out empty,
// positioned right after line `start`.
func toPublicLineRange(start, end int) LineRange {
	return LineRange{StartLine: start + 1, EndLine: end + 1}
}

// trimTrailingLineIfEmptyEdge implements the "line_end_delta" half of
// §4.8 step 1: when the last inner change on both sides ends exactly
// at column 1 (it touches nothing on its last line), that line wasn't
// actually part of the change, so it's dropped from the reported
// range as long as the range stays non-empty.
func trimTrailingLineIfEmptyEdge(m *DetailedLineRangeMapping) {
	if len(m.InnerChanges) == 0 {
		return
	}
	last := m.InnerChanges[len(m.InnerChanges)-1]
	if last.Original.EndColumn != 1 || last.Modified.EndColumn != 1 {
		return
	}
	if m.Original.EndLine-1 <= m.Original.StartLine || m.Modified.EndLine-1 <= m.Modified.StartLine {
		return
	}
	m.Original.EndLine--
	m.Modified.EndLine--
}

// groupRefinedDiffs converts the raw per-line-diff mappings produced by
// refineDiff into the final change list, merging any whose public line
// ranges end up touching or overlapping once insertions/deletions are
// expressed in the shared one-line-after convention.
func groupRefinedDiffs(mappings []DetailedLineRangeMapping) []DetailedLineRangeMapping {
	if len(mappings) == 0 {
		return nil
	}

	adjusted := make([]DetailedLineRangeMapping, len(mappings))
	for i, m := range mappings {
		adjusted[i] = DetailedLineRangeMapping{
			Original:     toPublicLineRange(m.Original.StartLine, m.Original.EndLine),
			Modified:     toPublicLineRange(m.Modified.StartLine, m.Modified.EndLine),
			InnerChanges: m.InnerChanges,
		}
		trimTrailingLineIfEmptyEdge(&adjusted[i])
	}

	var out []DetailedLineRangeMapping
	cur := adjusted[0]
	for _, next := range adjusted[1:] {
		if cur.Original.intersectsOrTouches(next.Original) || cur.Modified.intersectsOrTouches(next.Modified) {
			cur = DetailedLineRangeMapping{
				Original:     cur.Original.join(next.Original),
				Modified:     cur.Modified.join(next.Modified),
				InnerChanges: append(append([]RangeMapping{}, cur.InnerChanges...), next.InnerChanges...),
			}
			continue
		}
		out = append(out, cur)
		cur = next
	}
	out = append(out, cur)
	return out
}
