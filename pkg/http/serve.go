package http

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/thehowl/diffy/pkg/diff"
	"github.com/thehowl/diffy/pkg/renderplan"
	"github.com/thehowl/diffy/templates"
)

func (s *Server) serveDiff(w http.ResponseWriter, r *http.Request) error {
	// parse filename
	id := chi.URLParam(r, "id")
	wantRaw := false
	if strings.HasSuffix(id, ".diff") {
		id = id[:len(id)-len(".diff")]
		wantRaw = true
	} else if !isBrowser(r) {
		wantRaw = true
	}

	files, err := s.getFiles(r.Context(), id)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		w.Write([]byte("not found"))
		w.WriteHeader(404)
		return nil
	}

	meta, err := s.DB.GetFile(id)
	if err != nil {
		return err
	}

	qry := r.URL.Query()
	opts := diff.Options{MaxComputationTimeMS: 5000, ExtendToSubwords: true}
	space := qry.Get("w")
	switch {
	case space == "w" || space == "b": // both values select trimmed-whitespace line comparison
		opts.IgnoreTrimWhitespace = true
	case !qry.Has("w") && meta.DefaultIgnoreWhitespace:
		// The uploader asked for whitespace to be ignored by default;
		// an explicit "w" query parameter always overrides this.
		opts.IgnoreTrimWhitespace = true
		space = "w"
	default:
		space = ""
	}
	context, err := strconv.Atoi(qry.Get("c"))
	if err != nil {
		context = 3
	} else {
		context = max(0, min(1000, context))
	}

	original := splitLines(files[0].Content)
	modified := splitLines(files[1].Content)
	ld := diff.ComputeDiff(original, modified, opts)
	unif := renderplan.Build(files[0].Name, files[1].Name, original, modified, ld, context)

	hitTimeout := ld.HitTimeout || meta.HitTimeout
	if ld.HitTimeout {
		// Best-effort: a failure to persist the flag shouldn't stop
		// the response the viewer is already waiting on.
		if _, err := s.DB.MarkTimedOut(id); err != nil {
			log.Printf("mark timed out %q: %v", id, err)
		}
	}

	if wantRaw {
		w.Header().Set(ctHeader, ctPlain)
		w.Write([]byte(unif.String()))
		return nil
	}
	return templates.Templates.ExecuteTemplate(w, "file.tmpl", &templates.FileTemplateData{
		ID:         id,
		Diff:       unif,
		HitTimeout: hitTimeout,
		Space:      space,
		Context:    context,
		Split:      qry.Has("split"),
		Query:      r.URL.Query(),
	})
}

// splitLines splits file content into lines the way editors display
// them: a trailing newline does not produce a trailing empty line.
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

func (s *Server) getFiles(ctx context.Context, id string) ([]diffFile, error) {
	if id == "example" {
		return exampleFiles, nil
	}

	// determine whether file exists
	f, err := s.DB.GetFile(id)
	if err != nil {
		return nil, err
	}
	if f.IsZero() {
		return nil, nil
	}

	// get from storage
	data, err := s.Storage.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// decode
	files, err := tgzReadFiles(data)
	if err != nil {
		return nil, err
	}
	if len(files) != 2 {
		return nil, fmt.Errorf("expected 2 files got %d", len(files))
	}

	return files, nil
}

var exampleFiles = []diffFile{
	{
		Name: "main.go",
		Content: `package main

import "fmt"

func sayHello(to string) string {
	return "hello " + to + "!"
}

func main() {
	fmt.Println(sayHello("world"))
}
`,
	},
	{
		Name: "server.go",
		Content: `package main

import (
	"fmt"
	"net/http"
	"os"
)

// sayHello greets whoever is passed in as an argument.
func sayHello(to string) string {
	return "hello " + to + "!"
}

func main() {
	if os.Getenv("DEBUG") == "1" {
		fmt.Println(sayHello("world"))
	}
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sayHello("internet")))
	})
	panic(http.ListenAndServe(":8080", nil))
}
`,
	},
}

type diffFile struct {
	Name    string
	Content string
}

func tgzReadFiles(data []byte) ([]diffFile, error) {
	gzrd, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var files []diffFile
	rd := tar.NewReader(gzrd)
	for {
		f, err := rd.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}

		data, err := io.ReadAll(rd)
		if err != nil {
			return nil, err
		}
		files = append(files, diffFile{Name: f.Name, Content: string(data)})
	}

	if err := gzrd.Close(); err != nil {
		return nil, err
	}

	return files, nil
}

func (s *Server) serveFile(n int) func(w http.ResponseWriter, r *http.Request) {
	return s.e(func(w http.ResponseWriter, r *http.Request) error {
		return s._serveFile(w, r, n)
	})
}

func (s *Server) _serveFile(w http.ResponseWriter, r *http.Request, idx int) error {
	// parse filename
	id := chi.URLParam(r, "id")

	files, err := s.getFiles(r.Context(), id)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		w.WriteHeader(404)
		w.Write([]byte("not found"))
		return nil
	}

	fn := files[idx]
	w.Header().Set(ctHeader, ctPlain)
	w.Header().Set("Content-Disposition", "inline; filename="+strconv.Quote(fn.Name))
	w.Write([]byte(fn.Content))
	return nil
}

// fileInfo is the JSON shape returned by serveInfo: the metadata diffy
// keeps about an uploaded pair, without re-running the diff itself.
type fileInfo struct {
	ID                      string    `json:"id"`
	CreatedAt               time.Time `json:"created_at"`
	Sum                     string    `json:"sum"`
	DefaultIgnoreWhitespace bool      `json:"default_ignore_whitespace"`
	HitTimeout              bool      `json:"hit_timeout"`
}

// serveStats exposes a single operational counter: how many distinct
// uploads have ever made pkg/diff hit its deadline-breach path. It's
// deliberately minimal — there is no per-id breakdown here, see
// serveInfo for that.
func (s *Server) serveStats(w http.ResponseWriter, r *http.Request) error {
	total, err := s.DB.TimeoutsTotal()
	if err != nil {
		return err
	}
	return json.NewEncoder(w).Encode(struct {
		TimeoutsTotal uint64 `json:"timeouts_total"`
	}{total})
}

// serveInfo exposes the stored metadata for id as JSON, notably
// whether its diff has ever needed pkg/diff's deadline-breach path,
// without forcing the caller to load and recompute the whole diff.
func (s *Server) serveInfo(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	if id == "example" {
		w.WriteHeader(404)
		w.Write([]byte("not found"))
		return nil
	}

	f, err := s.DB.GetFile(id)
	if err != nil {
		return err
	}
	if f.IsZero() {
		w.WriteHeader(404)
		w.Write([]byte("not found"))
		return nil
	}

	return json.NewEncoder(w).Encode(fileInfo{
		ID:                      id,
		CreatedAt:               f.CreatedAt,
		Sum:                     f.Sum,
		DefaultIgnoreWhitespace: f.DefaultIgnoreWhitespace,
		HitTimeout:              f.HitTimeout,
	})
}
