// Command difftool compares two local files from the command line,
// printing a unified diff. By default it runs the hierarchical engine
// in pkg/diff; -legacy switches to a flat Myers-only path for
// comparison, and -import renders an existing patch file instead of
// comparing anything.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
	"github.com/thehowl/diffy/pkg/diff"
	"github.com/thehowl/diffy/pkg/patchimport"
	"github.com/thehowl/diffy/pkg/renderplan"
)

func main() {
	var (
		legacy      = flag.Bool("legacy", false, "use a flat Myers-only diff instead of the hierarchical engine")
		context     = flag.Int("context", 3, "number of context lines around each change")
		ignoreSpace = flag.Bool("w", false, "ignore leading/trailing whitespace when comparing lines")
		importPath  = flag.String("import", "", "render an existing unified-diff patch file instead of comparing two files")
	)
	flag.Parse()

	if *importPath != "" {
		if err := renderImported(*importPath); err != nil {
			fmt.Fprintln(os.Stderr, "difftool:", err)
			os.Exit(1)
		}
		return
	}

	args := flag.Args()
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: difftool [-legacy] [-context N] [-w] <old-file> <new-file>")
		fmt.Fprintln(os.Stderr, "       difftool -import <patch-file>")
		os.Exit(2)
	}
	oldPath, newPath := args[0], args[1]

	oldContent, err := os.ReadFile(oldPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "difftool:", err)
		os.Exit(1)
	}
	newContent, err := os.ReadFile(newPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "difftool:", err)
		os.Exit(1)
	}

	if *legacy {
		edits := myers.ComputeEdits(span.URIFromPath(oldPath), string(oldContent), string(newContent))
		unified := gotextdiff.ToUnified(oldPath, newPath, string(oldContent), edits)
		fmt.Print(unified)
		return
	}

	original := splitLines(string(oldContent))
	modified := splitLines(string(newContent))
	opts := diff.Options{IgnoreTrimWhitespace: *ignoreSpace, ExtendToSubwords: true}
	ld := diff.ComputeDiff(original, modified, opts)
	unif := renderplan.Build(oldPath, newPath, original, modified, ld, *context)
	fmt.Print(unif.String())
}

// renderImported reads a patch file and re-renders every file entry it
// contains through the same renderplan shape a computed diff uses.
func renderImported(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	units, err := patchimport.ParseMulti(string(content))
	if err != nil {
		return err
	}
	if len(units) == 0 {
		return fmt.Errorf("%s: no file diffs found", path)
	}
	for _, u := range units {
		fmt.Print(u.String())
	}
	return nil
}

func splitLines(content string) []string {
	lines := strings.Split(content, "\n")
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	return lines
}
