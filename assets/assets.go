// Package assets serves the static files for the demo server. The page
// itself is embedded; the widget runtime artifacts (wasm_exec.js,
// widget.wasm) are produced after compile time by the wasm build step, so
// they are layered in from the on-disk assets directory instead.
package assets

import (
	"embed"
	"io/fs"
	"os"
)

//go:embed index.html
var embedded embed.FS

// Files returns the demo file system: embedded files first, with dir
// filling in anything not embedded.
func Files(dir string) fs.FS {
	return layeredFS{primary: embedded, fallback: os.DirFS(dir)}
}

// layeredFS tries primary and falls back to fallback on any open error.
type layeredFS struct {
	primary  fs.FS
	fallback fs.FS
}

func (l layeredFS) Open(name string) (fs.File, error) {
	f, err := l.primary.Open(name)
	if err == nil {
		return f, nil
	}
	return l.fallback.Open(name)
}
