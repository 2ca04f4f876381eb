package diff

import "time"

// deadline is a monotonic wall-clock budget shared by both LCS
// algorithms and checked at the inner loop of each. A zero deadline
// (budget 0) never expires.
type deadline struct {
	at      time.Time
	enabled bool
}

func newDeadline(maxComputationTimeMS int) deadline {
	if maxComputationTimeMS <= 0 {
		return deadline{}
	}
	return deadline{
		at:      time.Now().Add(time.Duration(maxComputationTimeMS) * time.Millisecond),
		enabled: true,
	}
}

func (d deadline) expired() bool {
	return d.enabled && time.Now().After(d.at)
}

// deadlineCheckInterval bounds how often the DP/Myers inner loops call
// time.Now(): checking every iteration would itself become a
// meaningful cost on large inputs.
const deadlineCheckInterval = 1024

// scoreFunc optionally reweights a diagonal (match) step in the dense
// DP algorithm; nil means every match is worth a reward of 1.0. No
// caller in this engine currently supplies one, but the hook is kept
// because both VSCode and the dense DP recurrence in spec.md §4.5
// define it as part of the algorithm's contract.
type scoreFunc func(i1, i2 int) float64

// lineLevelLCSThreshold and charLevelLCSThreshold are the combined
// seq1.len()+seq2.len() cutoffs below which the dense O(mn) DP
// algorithm is used instead of the O(ND) Myers algorithm.
const (
	lineLevelLCSThreshold = 1700
	charLevelLCSThreshold = 500
)

// computeLCSDiffs selects between the dense DP and Myers algorithms
// based on combined input size, matching the documented selection
// policy, and runs whichever is chosen.
func computeLCSDiffs(seq1, seq2 sequence, dl deadline, threshold int, score scoreFunc) ([]SequenceDiff, bool) {
	if seq1.len()+seq2.len() < threshold {
		return lcsDP(seq1, seq2, dl, score)
	}
	return lcsMyers(seq1, seq2, dl)
}

// fullRangeDiff is returned by either LCS algorithm when its deadline
// is breached: a single SequenceDiff spanning the entire input.
func fullRangeDiff(seq1, seq2 sequence) []SequenceDiff {
	return []SequenceDiff{{Seq1Start: 0, Seq1End: seq1.len(), Seq2Start: 0, Seq2End: seq2.len()}}
}
