// Package web embeds the dashboard page and its static assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates static
var files embed.FS

// FS returns the embedded web filesystem rooted at the web directory.
func FS() fs.FS {
	return files
}

// Static returns the static assets, rooted so /static/x maps to x.
func Static() (fs.FS, error) {
	return fs.Sub(files, "static")
}
