package patchimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thehowl/diffy/pkg/renderplan"
)

const samplePatch = `diff --git a/foo.txt b/foo.txt
index 1111111..2222222 100644
--- a/foo.txt
+++ b/foo.txt
@@ -1,3 +1,3 @@
 one
-two
+TWO
 three
`

func TestParse_SingleFile(t *testing.T) {
	u, err := Parse(samplePatch)
	require.NoError(t, err)

	assert.Equal(t, "foo.txt", u.OldName)
	assert.Equal(t, "foo.txt", u.NewName)
	require.Len(t, u.Hunks, 1)

	h := u.Hunks[0]
	assert.Equal(t, 1, h.LineOld)
	assert.Equal(t, 3, h.CountOld)
	assert.Equal(t, 1, h.LineNew)
	assert.Equal(t, 3, h.CountNew)

	require.Len(t, h.Lines, 4)
	assert.Equal(t, renderplan.TypeEqual, h.Lines[0].Type())
	assert.Equal(t, renderplan.TypeDelete, h.Lines[1].Type())
	assert.Equal(t, renderplan.TypeInsert, h.Lines[2].Type())
	assert.Equal(t, renderplan.TypeEqual, h.Lines[3].Type())

	// Line numbering continues through the hunk on the side each line
	// belongs to, with -1 marking "no line on this side".
	assert.Equal(t, 2, h.Lines[1].NumberX)
	assert.Equal(t, -1, h.Lines[1].NumberY)
	assert.Equal(t, -1, h.Lines[2].NumberX)
	assert.Equal(t, 2, h.Lines[2].NumberY)
	assert.Equal(t, 3, h.Lines[3].NumberX)
	assert.Equal(t, 3, h.Lines[3].NumberY)

	assert.Equal(t, "two", h.Lines[1].Content())
	assert.Equal(t, "TWO", h.Lines[2].Content())
}

func TestParseMulti_TwoFiles(t *testing.T) {
	patch := samplePatch + `diff --git a/bar.txt b/bar.txt
index 3333333..4444444 100644
--- a/bar.txt
+++ b/bar.txt
@@ -1,1 +1,2 @@
 keep
+added
`
	units, err := ParseMulti(patch)
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, "foo.txt", units[0].OldName)
	assert.Equal(t, "bar.txt", units[1].OldName)

	require.Len(t, units[1].Hunks, 1)
	h := units[1].Hunks[0]
	require.Len(t, h.Lines, 2)
	assert.Equal(t, renderplan.TypeInsert, h.Lines[1].Type())
	assert.Equal(t, 2, h.Lines[1].NumberY)
}

func TestParse_SkipsNoNewlineMarker(t *testing.T) {
	patch := `--- a/x.txt
+++ b/x.txt
@@ -1,1 +1,1 @@
-old
+new
\ No newline at end of file
`
	u, err := Parse(patch)
	require.NoError(t, err)
	require.Len(t, u.Hunks, 1)
	// The "\ No newline" marker is metadata, not a content line.
	assert.Len(t, u.Hunks[0].Lines, 2)
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse("")
	assert.Error(t, err)
}
