// Package public holds the browser front end served at the site root.
package public

import (
	"embed"
	"io/fs"
)

//go:embed web
var web embed.FS

// Files is rooted at the web directory, so index.html is served at "/".
var Files = mustSub(web, "web")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
