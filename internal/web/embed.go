// Package web embeds the frontend: the rendering engine that consumes
// the scene API. All camera, console and input behavior lives on this
// side of the wire; the Go process only serves data.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var staticFS embed.FS

// Static returns the embedded frontend filesystem rooted at its
// content directory
func Static() (fs.FS, error) {
	return fs.Sub(staticFS, "static")
}
