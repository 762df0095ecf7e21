package templates

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"shared/layout.gohtml": {Data: []byte(`{{ define "layout" }}<main>{{ template "content" . }}</main>{{ end }}`)},
		"pages/a.gohtml":       {Data: []byte(`{{ define "page_a" }}{{ template "layout" . }}{{ end }}{{ define "content" }}A:{{ .Name }}{{ end }}`)},
		"pages/b.gohtml":       {Data: []byte(`{{ define "page_b" }}{{ template "layout" . }}{{ end }}{{ define "content" }}B:{{ runeCount .Name }}{{ end }}`)},
	}
}

func boot(t *testing.T) *Engine {
	t.Helper()
	fsys := testFS()
	e := New(nil, nil)
	require.NoError(t, e.Boot(
		Set{Name: "shared", FS: fsys, Patterns: []string{"shared/*.gohtml"}},
		Set{Name: "pages", FS: fsys, Patterns: []string{"pages/*.gohtml"}},
	))
	return e
}

func TestEngine_EachPageKeepsItsContent(t *testing.T) {
	e := boot(t)

	a, err := e.Execute("page_a", map[string]string{"Name": "<Zoë>"})
	require.NoError(t, err)
	assert.Equal(t, "<main>A:&lt;Zoë&gt;</main>", string(a))

	b, err := e.Execute("page_b", map[string]string{"Name": "Zoë"})
	require.NoError(t, err)
	assert.Equal(t, "<main>B:3</main>", string(b))

	_, err = e.Execute("missing", nil)
	assert.Error(t, err)
}

func TestEngine_BootRequiresShared(t *testing.T) {
	err := New(nil, nil).Boot(Set{Name: "pages", FS: testFS(), Patterns: []string{"pages/*.gohtml"}})
	assert.Error(t, err)
}

func TestEngine_Render(t *testing.T) {
	e := boot(t)

	rec := httptest.NewRecorder()
	e.Render(rec, http.StatusUnprocessableEntity, "page_a", map[string]string{"Name": "x"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	rec = httptest.NewRecorder()
	e.Render(rec, http.StatusOK, "nope", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestFuncs_Seconds(t *testing.T) {
	seconds := Funcs()["seconds"].(func(time.Duration) int64)
	assert.Equal(t, int64(2), seconds(2*time.Second))
	assert.Equal(t, int64(2), seconds(1500*time.Millisecond))
	assert.Equal(t, int64(0), seconds(0))
}

func TestFuncs_Dict(t *testing.T) {
	m, err := dict("In", 1, "Label", "Name")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"In": 1, "Label": "Name"}, m)

	_, err = dict("odd")
	assert.Error(t, err)
	_, err = dict(1, 2)
	assert.Error(t, err)
}
