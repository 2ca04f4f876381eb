package diff

// myersNode is one step of a Myers D-path: a single horizontal or
// vertical move followed by a maximal diagonal "snake" of matches.
// Nodes form a singly-linked chain back to the origin, so the whole
// edit path can be reconstructed by walking prev pointers — only the
// previous generation's nodes need to stay reachable while building
// the next one, which is what keeps this space-efficient relative to
// keeping every generation's array forever.
type myersNode struct {
	prev *myersNode
	x1   int // x position after the move, before the snake
	y1   int // y position after the move, before the snake
	x    int // x position after the snake
	y    int // y position after the snake
}

// lcsMyers computes the non-matching intervals between seq1 and seq2
// using the O(ND) Myers algorithm, where D is the size of the edit
// script. On deadline expiry it returns a single full-range diff.
func lcsMyers(seq1, seq2 sequence, dl deadline) ([]SequenceDiff, bool) {
	m, n := seq1.len(), seq2.len()
	maxD := m + n

	offset := maxD
	size := 2*maxD + 1
	// size==0 only when m==n==0.
	if size == 0 {
		size = 1
	}
	gen := make([]*myersNode, size)

	origin := extendSnake(seq1, seq2, 0, 0)
	gen[0+offset] = origin
	if origin.x >= m && origin.y >= n {
		return reconstructMyers(origin, m, n), false
	}

	for d := 1; d <= maxD; d++ {
		if dl.expired() {
			return fullRangeDiff(seq1, seq2), true
		}

		prevGen := gen
		gen = make([]*myersNode, size)

		for k := -d; k <= d; k += 2 {
			var moveDown bool
			switch {
			case k == -d:
				moveDown = true
			case k == d:
				moveDown = false
			default:
				left, right := prevGen[k-1+offset], prevGen[k+1+offset]
				lx, rx := -1, -1
				if left != nil {
					lx = left.x
				}
				if right != nil {
					rx = right.x
				}
				moveDown = lx < rx
			}

			var src *myersNode
			if moveDown {
				src = prevGen[k+1+offset]
			} else {
				src = prevGen[k-1+offset]
			}
			if src == nil {
				// Infeasible state for this k at this d; the path
				// simply doesn't pass through here.
				continue
			}
			x1 := src.x
			if !moveDown {
				x1++
			}
			y1 := x1 - k
			if x1 < 0 || x1 > m || y1 < 0 || y1 > n {
				continue
			}

			node := extendSnake(seq1, seq2, x1, y1)
			node.prev = src
			gen[k+offset] = node

			if node.x >= m && node.y >= n {
				return reconstructMyers(node, m, n), false
			}
		}
	}

	// Unreachable: Myers guarantees a complete path by d == m+n.
	return fullRangeDiff(seq1, seq2), false
}

func extendSnake(seq1, seq2 sequence, x1, y1 int) *myersNode {
	m, n := seq1.len(), seq2.len()
	x, y := x1, y1
	for x < m && y < n && seq1.element(x) == seq2.element(y) {
		x++
		y++
	}
	return &myersNode{x1: x1, y1: y1, x: x, y: y}
}

// reconstructMyers walks the chain of snakes ending at final back to
// the origin, then replays it forward to produce the non-matching
// intervals, which are the gaps between consecutive non-empty snakes.
// Zero-length snakes are plain D-steps and never act as anchors, so a
// run of consecutive edits comes out as one diff, not one per step.
func reconstructMyers(final *myersNode, m, n int) []SequenceDiff {
	type block struct{ aStart, aEnd, bStart, bEnd int }
	var blocks []block
	for node := final; node != nil; node = node.prev {
		if node.x > node.x1 {
			blocks = append(blocks, block{node.x1, node.x, node.y1, node.y})
		}
	}
	for l, r := 0, len(blocks)-1; l < r; l, r = l+1, r-1 {
		blocks[l], blocks[r] = blocks[r], blocks[l]
	}

	var diffs []SequenceDiff
	prevI, prevJ := 0, 0
	for _, b := range blocks {
		if b.aStart > prevI || b.bStart > prevJ {
			diffs = append(diffs, SequenceDiff{
				Seq1Start: prevI, Seq1End: b.aStart,
				Seq2Start: prevJ, Seq2End: b.bStart,
			})
		}
		prevI, prevJ = b.aEnd, b.bEnd
	}
	if prevI < m || prevJ < n {
		diffs = append(diffs, SequenceDiff{
			Seq1Start: prevI, Seq1End: m,
			Seq2Start: prevJ, Seq2End: n,
		})
	}
	return diffs
}
