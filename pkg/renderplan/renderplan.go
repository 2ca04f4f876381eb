// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package renderplan turns a diff.LinesDiff into the unified-diff hunk
// shape that the HTML templates render: grouped runs of context,
// deleted, and inserted lines, with enough padding bookkeeping for a
// side-by-side view.
//
// It used to run its own patience-diff pass (see
// https://cs.opensource.google/go/x/tools/+/master:internal/diffp/);
// now the line alignment comes from pkg/diff, and this package is
// only responsible for slicing that alignment into hunks with
// surrounding context.
package renderplan

import (
	"fmt"
	"strings"

	"github.com/thehowl/diffy/pkg/diff"
)

// Unified is the hunk-grouped view of a diff, ready for rendering.
type Unified struct {
	OldName string
	NewName string
	Hunks   []Hunk
}

// Hunk is a single hunk of the Unified diff.
type Hunk struct {
	LineOld  int
	CountOld int
	LineNew  int
	CountNew int
	Lines    []HunkLine
}

// HunkLine is an individual line in a Hunk.
type HunkLine struct {
	NumberX int
	NumberY int
	Value   string
}

// Possible results of HunkLine.Type.
const (
	TypeInsert  = "insert"
	TypeDelete  = "delete"
	TypeEqual   = "equal"
	TypeInvalid = "invalid"
)

func (l HunkLine) Type() string {
	if l.Value == "" {
		return TypeInvalid
	}
	switch l.Value[0] {
	case '+':
		return TypeInsert
	case '-':
		return TypeDelete
	case ' ':
		return TypeEqual
	}
	return TypeInvalid
}

func (l HunkLine) Symbol() byte {
	if l.Value == "" {
		return 0
	}
	return l.Value[0]
}

func (l HunkLine) Content() string {
	if l.Value == "" {
		return ""
	}
	return l.Value[1:]
}

func (d Unified) String() string {
	if len(d.Hunks) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "diff %s %s\n", d.OldName, d.NewName)
	fmt.Fprintf(&b, "--- %s\n", d.OldName)
	fmt.Fprintf(&b, "+++ %s\n", d.NewName)
	for _, hunk := range d.Hunks {
		fmt.Fprintf(&b, "@@ -%d,%d +%d,%d @@\n", hunk.LineOld, hunk.CountOld, hunk.LineNew, hunk.CountNew)
		for _, s := range hunk.Lines {
			b.WriteString(s.Value)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// SplitViewPaddings reports, for each line index in the hunk, how many
// blank padding lines the opposite side needs so a side-by-side view
// stays aligned across runs of pure insertions or deletions.
func (h Hunk) SplitViewPaddings() struct{ Red, Green map[int]int } {
	red, green := map[int]int{}, map[int]int{}
	for i := 0; i < len(h.Lines); i++ {
		if h.Lines[i].Type() == TypeEqual {
			continue
		}
		ins, del := countNextInsertDelete(h.Lines[i:])
		if ins > del {
			red[i+del] = ins - del
		} else if del > ins {
			green[i+ins] = del - ins
		}
		i += ins + del - 1
	}
	return struct {
		Red   map[int]int
		Green map[int]int
	}{red, green}
}

func countNextInsertDelete(ll []HunkLine) (ins, del int) {
	for _, l := range ll {
		switch l.Type() {
		case TypeInsert:
			ins++
		case TypeDelete:
			del++
		default:
			return
		}
	}
	return
}

// Build converts ld, computed over original and modified, into a
// Unified diff with context lines of unchanged context around each
// change, merging hunks whose context would otherwise overlap.
func Build(oldName, newName string, original, modified []string, ld diff.LinesDiff, context int) Unified {
	u := Unified{OldName: oldName, NewName: newName}
	if len(ld.Changes) == 0 {
		return u
	}
	if context < 0 {
		context = 0
	}

	type span struct {
		oldStart, oldEnd int // 0-based half-open, into original
		newStart, newEnd int // 0-based half-open, into modified
	}
	spans := make([]span, len(ld.Changes))
	for i, c := range ld.Changes {
		oldStart := clampIdx(c.Original.StartLine-1, context)
		oldEnd := clampIdxHi(c.Original.EndLine-1+context, len(original))
		newStart := clampIdx(c.Modified.StartLine-1, context)
		newEnd := clampIdxHi(c.Modified.EndLine-1+context, len(modified))
		spans[i] = span{oldStart, oldEnd, newStart, newEnd}
	}

	// Merge hunks whose padded spans overlap or touch.
	merged := []span{spans[0]}
	changeGroups := [][]diff.DetailedLineRangeMapping{{ld.Changes[0]}}
	for i := 1; i < len(spans); i++ {
		last := &merged[len(merged)-1]
		s := spans[i]
		if s.oldStart <= last.oldEnd && s.newStart <= last.newEnd {
			last.oldEnd = max(last.oldEnd, s.oldEnd)
			last.newEnd = max(last.newEnd, s.newEnd)
			changeGroups[len(changeGroups)-1] = append(changeGroups[len(changeGroups)-1], ld.Changes[i])
			continue
		}
		merged = append(merged, s)
		changeGroups = append(changeGroups, []diff.DetailedLineRangeMapping{ld.Changes[i]})
	}

	for gi, s := range merged {
		hunk := buildHunk(original, modified, s.oldStart, s.oldEnd, s.newStart, s.newEnd, changeGroups[gi])
		u.Hunks = append(u.Hunks, hunk)
	}
	return u
}

func buildHunk(original, modified []string, oldStart, oldEnd, newStart, newEnd int, changes []diff.DetailedLineRangeMapping) Hunk {
	hunk := Hunk{
		LineOld:  oldStart + 1,
		CountOld: oldEnd - oldStart,
		LineNew:  newStart + 1,
		CountNew: newEnd - newStart,
	}
	oi, ni := oldStart, newStart
	for _, c := range changes {
		cOld := c.Original.StartLine - 1
		cNew := c.Modified.StartLine - 1
		for oi < cOld || ni < cNew {
			hunk.Lines = append(hunk.Lines, HunkLine{NumberX: oi + 1, NumberY: ni + 1, Value: " " + original[oi]})
			oi++
			ni++
		}
		for l := c.Original.StartLine - 1; l < c.Original.EndLine-1; l++ {
			hunk.Lines = append(hunk.Lines, HunkLine{NumberX: l + 1, NumberY: -1, Value: "-" + original[l]})
		}
		for l := c.Modified.StartLine - 1; l < c.Modified.EndLine-1; l++ {
			hunk.Lines = append(hunk.Lines, HunkLine{NumberX: -1, NumberY: l + 1, Value: "+" + modified[l]})
		}
		oi, ni = c.Original.EndLine-1, c.Modified.EndLine-1
	}
	for oi < oldEnd && ni < newEnd {
		hunk.Lines = append(hunk.Lines, HunkLine{NumberX: oi + 1, NumberY: ni + 1, Value: " " + original[oi]})
		oi++
		ni++
	}
	return hunk
}

func clampIdx(v, context int) int {
	v -= context
	if v < 0 {
		return 0
	}
	return v
}

func clampIdxHi(v, n int) int {
	if v > n {
		return n
	}
	if v < 0 {
		return 0
	}
	return v
}

