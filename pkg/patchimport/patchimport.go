// Package patchimport reads externally supplied unified-diff text (as
// produced by `git diff`, for example) and converts it into the same
// hunk shape pkg/renderplan produces from a computed diff, so an
// imported patch and a freshly computed one can share one rendering
// path.
package patchimport

import (
	"fmt"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"
	"github.com/thehowl/diffy/pkg/renderplan"
)

// Parse reads a single unified-diff file entry from diffText (the
// first one, if diffText contains several) and returns it as a
// renderplan.Unified.
func Parse(diffText string) (renderplan.Unified, error) {
	files, err := ParseMulti(diffText)
	if err != nil {
		return renderplan.Unified{}, err
	}
	if len(files) == 0 {
		return renderplan.Unified{}, fmt.Errorf("patchimport: no file diffs found")
	}
	return files[0], nil
}

// ParseMulti reads every file entry in diffText and returns one
// renderplan.Unified per file, in the order they appear.
func ParseMulti(diffText string) ([]renderplan.Unified, error) {
	fileDiffs, err := godiff.ParseMultiFileDiff([]byte(diffText))
	if err != nil {
		return nil, fmt.Errorf("patchimport: %w", err)
	}

	units := make([]renderplan.Unified, 0, len(fileDiffs))
	for _, fd := range fileDiffs {
		u := renderplan.Unified{
			OldName: cleanDiffPath(fd.OrigName),
			NewName: cleanDiffPath(fd.NewName),
		}
		for _, h := range fd.Hunks {
			u.Hunks = append(u.Hunks, buildHunk(h))
		}
		units = append(units, u)
	}
	return units, nil
}

func buildHunk(h *godiff.Hunk) renderplan.Hunk {
	hunk := renderplan.Hunk{
		LineOld:  int(h.OrigStartLine),
		CountOld: int(h.OrigLines),
		LineNew:  int(h.NewStartLine),
		CountNew: int(h.NewLines),
	}

	oldNum, newNum := int(h.OrigStartLine), int(h.NewStartLine)
	for _, line := range strings.Split(string(h.Body), "\n") {
		if line == "" {
			continue
		}
		switch line[0] {
		case '+':
			hunk.Lines = append(hunk.Lines, renderplan.HunkLine{NumberX: -1, NumberY: newNum, Value: line})
			newNum++
		case '-':
			hunk.Lines = append(hunk.Lines, renderplan.HunkLine{NumberX: oldNum, NumberY: -1, Value: line})
			oldNum++
		case '\\':
			// "\ No newline at end of file": not a content line.
			continue
		default:
			hunk.Lines = append(hunk.Lines, renderplan.HunkLine{NumberX: oldNum, NumberY: newNum, Value: line})
			oldNum++
			newNum++
		}
	}
	return hunk
}

func cleanDiffPath(path string) string {
	path = strings.TrimPrefix(path, "a/")
	path = strings.TrimPrefix(path, "b/")
	return path
}
