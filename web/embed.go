// Package web bundles the HTML templates and static assets into the binary.
package web

import (
	"embed"
	"io/fs"
)

// Templates holds the layouts, partials and pages parsed by the view engine.
//
//go:embed templates
var Templates embed.FS

//go:embed static
var static embed.FS

// Static returns the asset tree rooted at static/, served under /static/.
func Static() (fs.FS, error) {
	return fs.Sub(static, "static")
}
