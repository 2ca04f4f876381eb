package diff

// dpDir is the backtracking direction recorded at each DP cell.
type dpDir uint8

const (
	dpNone dpDir = iota
	dpHorz
	dpVert
	dpDiag
)

// lcsDP computes the non-matching intervals between seq1 and seq2
// using a dense O(m*n) DP table with a consecutive-diagonal
// preference: extending an existing diagonal run is rewarded, which
// biases the result toward contiguous matches rather than scattered
// ones. On deadline expiry it returns a single full-range diff.
func lcsDP(seq1, seq2 sequence, dl deadline, score scoreFunc) ([]SequenceDiff, bool) {
	m, n := seq1.len(), seq2.len()

	lcsLen := make([][]float64, m+1)
	dir := make([][]dpDir, m+1)
	runLen := make([][]int, m+1)
	for i := range lcsLen {
		lcsLen[i] = make([]float64, n+1)
		dir[i] = make([]dpDir, n+1)
		runLen[i] = make([]int, n+1)
	}

	checks := 0
	for s1 := 1; s1 <= m; s1++ {
		for s2 := 1; s2 <= n; s2++ {
			checks++
			if checks%deadlineCheckInterval == 0 && dl.expired() {
				return fullRangeDiff(seq1, seq2), true
			}

			h := lcsLen[s1-1][s2]
			v := lcsLen[s1][s2-1]

			if seq1.element(s1-1) == seq2.element(s2-1) {
				reward := 1.0
				if score != nil {
					reward = score(s1-1, s2-1)
				}
				d := lcsLen[s1-1][s2-1] + reward
				if dir[s1-1][s2-1] == dpDiag {
					d += float64(runLen[s1-1][s2-1])
				}

				switch {
				case d >= h && d >= v:
					lcsLen[s1][s2] = d
					dir[s1][s2] = dpDiag
					runLen[s1][s2] = runLen[s1-1][s2-1] + 1
				case h >= v:
					lcsLen[s1][s2] = h
					dir[s1][s2] = dpHorz
				default:
					lcsLen[s1][s2] = v
					dir[s1][s2] = dpVert
				}
			} else if h >= v {
				lcsLen[s1][s2] = h
				dir[s1][s2] = dpHorz
			} else {
				lcsLen[s1][s2] = v
				dir[s1][s2] = dpVert
			}
		}
	}

	diffs := backtrackDP(dir, m, n)

	// Release the DP matrices before returning; they can be large
	// relative to the output.
	lcsLen, runLen = nil, nil

	return diffs, false
}

func backtrackDP(dir [][]dpDir, m, n int) []SequenceDiff {
	type pair struct{ i, j int }
	var matches []pair

	i, j := m, n
	for i > 0 && j > 0 {
		switch dir[i][j] {
		case dpDiag:
			matches = append(matches, pair{i - 1, j - 1})
			i--
			j--
		case dpHorz:
			i--
		case dpVert:
			j--
		default:
			i, j = 0, 0
		}
	}
	// matches was built walking backward; reverse it into document order.
	for l, r := 0, len(matches)-1; l < r; l, r = l+1, r-1 {
		matches[l], matches[r] = matches[r], matches[l]
	}

	var diffs []SequenceDiff
	prevI, prevJ := 0, 0
	for _, mt := range matches {
		if mt.i > prevI || mt.j > prevJ {
			diffs = append(diffs, SequenceDiff{
				Seq1Start: prevI, Seq1End: mt.i,
				Seq2Start: prevJ, Seq2End: mt.j,
			})
		}
		prevI, prevJ = mt.i+1, mt.j+1
	}
	if prevI < m || prevJ < n {
		diffs = append(diffs, SequenceDiff{
			Seq1Start: prevI, Seq1End: m,
			Seq2Start: prevJ, Seq2End: n,
		})
	}
	return diffs
}
