// templates/engine.go
package templates

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Set describes one group of template files.
type Set struct {
	// Name is for logging only. The set named "shared" holds the layout and
	// partials every page is built on.
	Name string
	// FS is usually an embed.FS.
	FS fs.FS
	// Patterns are glob patterns within FS, e.g. "templates/pages/*.gohtml".
	Patterns []string
}

// Engine compiles a shared layout set plus one clone per page file, so every
// page can define its own "content" block.
type Engine struct {
	mu     sync.RWMutex
	funcs  template.FuncMap
	base   *template.Template
	byName map[string]*template.Template
	logger *zap.Logger
}

// New creates an Engine with the default helpers plus extra.
func New(logger *zap.Logger, extra template.FuncMap) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	funcs := Funcs()
	for k, v := range extra {
		funcs[k] = v
	}
	return &Engine{
		funcs:  funcs,
		byName: map[string]*template.Template{},
		logger: logger,
	}
}

// Boot compiles the sets. Exactly one must be named "shared".
func (e *Engine) Boot(sets ...Set) error {
	var shared *Set
	var pages []Set
	for i := range sets {
		if sets[i].Name == "shared" {
			shared = &sets[i]
		} else {
			pages = append(pages, sets[i])
		}
	}
	if shared == nil {
		return fmt.Errorf("templates: shared set not provided")
	}

	base, err := e.parseFS(shared.FS, shared.Patterns...)
	if err != nil {
		return fmt.Errorf("parse shared: %w", err)
	}
	e.base = base

	for _, s := range pages {
		if err := e.compileSetPerPage(s); err != nil {
			return fmt.Errorf("compile set %q: %w", s.Name, err)
		}
	}
	return nil
}

// compileSetPerPage clones the shared base for each page file, parses the
// whole set into the clone with every other file's "content" block renamed
// out of the way, and indexes the names the page file defines.
func (e *Engine) compileSetPerPage(s Set) error {
	files, err := globAll(s.FS, s.Patterns)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		e.logger.Warn("no templates matched", zap.String("set", s.Name))
		return nil
	}
	sort.Strings(files)

	sources := make(map[string]string, len(files))
	for _, p := range files {
		b, err := fs.ReadFile(s.FS, p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		sources[p] = string(b)
	}

	for _, page := range files {
		owned := extractDefineNames(sources[page])
		delete(owned, "content")

		clone, err := e.base.Clone()
		if err != nil {
			return fmt.Errorf("clone base: %w", err)
		}
		for _, p := range files {
			text := sources[p]
			if p != page {
				text = reContentDefine.ReplaceAllString(text, fmt.Sprintf(`{{ define "%s" }}`, ignoredContentName(p)))
			}
			if _, err := clone.Funcs(e.funcs).Parse(text); err != nil {
				return fmt.Errorf("parse %s (for %s): %w", p, page, err)
			}
		}

		e.mu.Lock()
		for name := range owned {
			e.byName[name] = clone
		}
		e.mu.Unlock()

		e.logger.Debug("template page compiled",
			zap.String("set", s.Name),
			zap.String("page", filepath.Base(page)))
	}
	return nil
}

var (
	reContentDefine = regexp.MustCompile(`{{-?\s*define\s+"content"\s*-?}}`)
	reDefineName    = regexp.MustCompile(`{{-?\s*define\s+"([^"]+)"`)
)

func ignoredContentName(path string) string {
	base := filepath.Base(path)
	return "_content_ignored_" + strings.TrimSuffix(base, filepath.Ext(base))
}

func extractDefineNames(src string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, g := range reDefineName.FindAllStringSubmatch(src, -1) {
		out[g[1]] = struct{}{}
	}
	return out
}

func (e *Engine) parseFS(filesystem fs.FS, patterns ...string) (*template.Template, error) {
	root := template.New("root").Funcs(e.funcs)
	files, err := globAll(filesystem, patterns)
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	for _, path := range files {
		b, err := fs.ReadFile(filesystem, path)
		if err != nil {
			return nil, err
		}
		if _, err = root.Parse(string(b)); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return root, nil
}

func globAll(filesystem fs.FS, patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, pat := range patterns {
		matches, err := fs.Glob(filesystem, pat)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	return out, nil
}

// Execute renders the named template into a buffer.
func (e *Engine) Execute(name string, data any) ([]byte, error) {
	e.mu.RLock()
	t, ok := e.byName[name]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("template %q not found", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Render writes the named page with status. Rendering happens before the
// header is sent, so a template error still produces a clean 500.
func (e *Engine) Render(w http.ResponseWriter, status int, name string, data any) {
	body, err := e.Execute(name, data)
	if err != nil {
		e.logger.Error("template render failed", zap.String("name", name), zap.Error(err))
		http.Error(w, "template exec error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
