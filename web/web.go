// Package web holds the bundled browser client.
package web

import (
	"embed"
	"io/fs"
)

// IndexFile is the page served at the site root.
const IndexFile = "default.html"

//go:embed static
var content embed.FS

// Static returns the client asset tree rooted at the static directory.
func Static() fs.FS {
	sub, err := fs.Sub(content, "static")
	if err != nil {
		// Only reachable if the embed directive above is changed.
		panic(err)
	}
	return sub
}
