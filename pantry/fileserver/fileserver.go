// pantry/fileserver/fileserver.go

// Package fileserver serves static assets from an fs.FS (usually embedded)
// without directory listings.
package fileserver

import (
	"io"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"
)

// Options configures the static file handler.
type Options struct {
	// CacheControl is set on every successful response.
	// Example: "public, max-age=31536000, immutable" for content-hashed URLs.
	CacheControl string
}

// Handler serves files from fsys under urlPrefix. For urlPrefix "/static"
// a request for "/static/form.js" opens "form.js" in fsys. Directories and
// missing files are 404; methods other than GET and HEAD are 405.
//
//	r.Handle("/static/*", fileserver.Handler("/static", staticFS, fileserver.Options{}))
func Handler(urlPrefix string, fsys fs.FS, opts Options) http.Handler {
	return http.StripPrefix(urlPrefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if name == "" {
			http.NotFound(w, r)
			return
		}

		f, err := fsys.Open(name)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer f.Close()

		fi, err := f.Stat()
		if err != nil || fi.IsDir() {
			http.NotFound(w, r)
			return
		}

		if opts.CacheControl != "" {
			w.Header().Set("Cache-Control", opts.CacheControl)
		}
		w.Header().Set("Content-Type", mimeType(name))

		if rs, ok := f.(io.ReadSeeker); ok {
			http.ServeContent(w, r, name, fi.ModTime(), rs)
			return
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
}

// mimeType returns the content type for name by extension.
func mimeType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	switch ext {
	case ".js", ".mjs":
		return "text/javascript; charset=utf-8"
	case ".json":
		return "application/json"
	}
	return "application/octet-stream"
}
