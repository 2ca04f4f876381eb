package http

import (
	"bytes"
	"fmt"
	"runtime"
	"strings"
)

// smallStacktrace renders the caller's stack as a compact, fixed-width
// trace suitable for a single log line per frame, trimming each file
// path so it doesn't dominate the line.
func smallStacktrace() string {
	const unicodeEllipsis = "…"

	var buf bytes.Buffer
	pc := make([]uintptr, 100)
	pc = pc[:runtime.Callers(3, pc)]
	frames := runtime.CallersFrames(pc)
	for {
		f, more := frames.Next()

		if idx := strings.LastIndexByte(f.Function, '/'); idx >= 0 {
			f.Function = f.Function[idx+1:]
		}

		fullPath := fmt.Sprintf("%s:%-4d", f.File, f.Line)
		if len(fullPath) > 30 {
			fullPath = unicodeEllipsis + fullPath[len(fullPath)-29:]
		}

		fmt.Fprintf(&buf, "%30s %s\n", fullPath, f.Function)

		if !more {
			return buf.String()
		}
	}
}
