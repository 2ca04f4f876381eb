package templates

import (
	"embed"
	"fmt"
	"html"
	"html/template"
	"maps"
	"net/url"
	"strconv"
	"strings"

	"github.com/thehowl/diffy/pkg/renderplan"
)

var (
	funcMap = map[string]any{
		"hunk_header": func(hunk renderplan.Hunk) string {
			return fmt.Sprintf("@@ -%d,%d +%d,%d @@", hunk.LineOld, hunk.CountOld, hunk.LineNew, hunk.CountNew)
		},
	}
	Templates = template.Must(
		template.New("").
			Funcs(funcMap).
			ParseFS(templateFS, "*.tmpl"),
	)
	//go:embed *
	templateFS embed.FS
)

type FileTemplateData struct {
	ID string
	// HitTimeout is true once pkg/diff.ComputeDiff has ever hit its
	// deadline-breach path for this id, whether that happened on this
	// request or a previous one (see db.File.HitTimeout).
	HitTimeout bool
	Diff       renderplan.Unified
	Space      string
	Context    int
	Split      bool
	Query      url.Values
}

// spaceLabels maps the "w" query value to the human label shown next
// to each whitespace-handling link, in display order.
var spaceLabels = []struct{ value, label string }{
	{"", "none"},
	{"w", "all"},
	{"b", "change"},
}

// SpaceOptions renders the three whitespace-handling links in one
// pass, bolding whichever one is currently active, instead of the
// template repeating the same three-way if/else per link.
func (f *FileTemplateData) SpaceOptions() template.HTML {
	var bld strings.Builder
	for i, opt := range spaceLabels {
		if i != 0 {
			bld.WriteString(" ")
		}
		href := html.EscapeString(f.WithQueryValue("w", opt.value))
		label := opt.label
		if opt.value == f.Space {
			label = "<b>" + label + "</b>"
		}
		fmt.Fprintf(&bld, `<a href="%s">%s</a>`, href, label)
	}
	return template.HTML(bld.String())
}

func (f *FileTemplateData) WithQueryValue(key, value string) string {
	uvCopy := make(url.Values)
	maps.Copy(uvCopy, f.Query)
	if value == "" {
		uvCopy.Del(key)
	} else {
		uvCopy.Set(key, value)
	}
	if len(uvCopy) == 0 {
		return ""
	}
	return "?" + uvCopy.Encode()
}

func (f *FileTemplateData) ContextLinks() template.HTML {
	const (
		minVal = 0
		maxVal = 1000
	)
	smallest := f.Context - 3
	greatest := f.Context + 3
	if smallest < minVal {
		greatest += (minVal - smallest)
		smallest = minVal
	}
	if greatest > maxVal {
		smallest -= (greatest - maxVal)
		greatest = maxVal
	}
	var bld strings.Builder

	for i := smallest; i <= greatest; i++ {
		if bld.Len() != 0 {
			bld.WriteString(" | ")
		}
		if i == f.Context {
			bld.WriteString("<b>" + strconv.Itoa(f.Context) + "</b>")
			continue
		}
		intString := strconv.Itoa(i)
		if intString == "3" {
			intString = ""
		}
		uri := "/" + f.ID + f.WithQueryValue("c", intString)
		bld.WriteString(
			`<a href="` + html.EscapeString(uri) + `">` +
				strconv.Itoa(i) + `</a>`,
		)
	}
	return template.HTML(bld.String())
}
