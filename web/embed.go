// Package web embeds the dashboard served at / and /assets.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var files embed.FS

// AssetsFS serves web/static/assets
func AssetsFS() http.FileSystem {
	sub, err := fs.Sub(files, "static/assets")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// IndexHTML returns the dashboard page
func IndexHTML() []byte {
	b, err := files.ReadFile("static/index.html")
	if err != nil {
		panic(err)
	}
	return b
}
