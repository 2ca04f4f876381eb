package diff

// sequence is the abstraction the LCS algorithms and optimizer operate
// on. It is implemented by lineSequence (diffing whole lines) and
// charSequence (diffing the characters of one line-range slice).
type sequence interface {
	len() int
	element(i int) uint32
	// strongEqual is a byte-exact equality test, used where element
	// equality alone would be too permissive (e.g. lines that are
	// identical after whitespace trimming but not before).
	strongEqual(a, b int) bool
	// boundaryScore scores how desirable position i is as the start
	// or end of a change; higher is better. Returns ok=false when the
	// sequence has no boundary-scoring support.
	boundaryScore(i int) (score int, ok bool)
}

// lineSequence is a view over an array of lines.
type lineSequence struct {
	lines []string
	ids   []uint32
}

// newLineSequence builds a lineSequence over lines, interning each
// line's identity (optionally after whitespace-trimming it) using in.
func newLineSequence(lines []string, ignoreWhitespace bool, in *interner) *lineSequence {
	ids := make([]uint32, len(lines))
	for i, l := range lines {
		key := l
		if ignoreWhitespace {
			trimmed, _ := trimWhitespaceUnits(encodeCodeUnits(l))
			key = decodeCodeUnits(trimmed)
		}
		ids[i] = in.intern(key)
	}
	return &lineSequence{lines: lines, ids: ids}
}

func (s *lineSequence) len() int            { return len(s.lines) }
func (s *lineSequence) element(i int) uint32 { return s.ids[i] }

func (s *lineSequence) strongEqual(a, b int) bool {
	return s.lines[a] == s.lines[b]
}

func (s *lineSequence) boundaryScore(i int) (int, bool) {
	indentAt := func(idx int) int {
		if idx < 0 || idx >= len(s.lines) {
			return 0
		}
		return indent(encodeCodeUnits(s.lines[idx]))
	}
	return 1000 - indentAt(i-1) - indentAt(i), true
}
