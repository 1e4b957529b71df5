package fetcher

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

const page = `<!DOCTYPE html>
<html>
<head><title> Water Purification </title><style>body{color:red}</style></head>
<body>
  <header>Site header</header>
  <nav><a href="/">Home</a></nav>
  <h1>Boiling</h1>
  <p>Bring water to a <b>rolling</b> boil.</p>
  <script>alert("x")</script>
  <noscript>Enable JS</noscript>
  <!-- hidden -->
  <p>Let it cool.</p>
  <footer>Copyright</footer>
</body>
</html>`

func TestExtractHTML(t *testing.T) {
	title, text, err := extractHTML(strings.NewReader(page))
	require.NoError(t, err)

	assert.Equal(t, "Water Purification", title)
	assert.Equal(t, "Boiling Bring water to a rolling boil. Let it cool.", text)
}

func newSite(t *testing.T, robots string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var robotsHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		robotsHits.Add(1)
		if robots == "" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(robots))
	})
	mux.HandleFunc("/guide", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "TestAgent/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	})
	mux.HandleFunc("/plain.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("plain   text"))
	})
	mux.HandleFunc("/private/doc", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<p>secret</p>"))
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/guide", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &robotsHits
}

func TestFetch_HTTP(t *testing.T) {
	srv, _ := newSite(t, "")
	f := New(Config{UserAgent: "TestAgent/1.0", RequestsPerSecond: 100})

	doc, err := f.Fetch(t.Context(), srv.URL+"/guide")
	require.NoError(t, err)
	assert.Equal(t, "Water Purification", doc.Title)
	assert.Contains(t, doc.Text, "rolling boil")
	assert.NotContains(t, doc.Text, "Copyright")
	assert.Equal(t, srv.URL+"/guide", doc.URL)
}

func TestFetch_Redirect(t *testing.T) {
	srv, _ := newSite(t, "")
	f := New(Config{UserAgent: "TestAgent/1.0", RequestsPerSecond: 100})

	doc, err := f.Fetch(t.Context(), srv.URL+"/moved")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/guide", doc.URL)
}

func TestFetch_PlainText(t *testing.T) {
	srv, _ := newSite(t, "")
	f := New(Config{RequestsPerSecond: 100})

	doc, err := f.Fetch(t.Context(), srv.URL+"/plain.txt")
	require.NoError(t, err)
	assert.Equal(t, "plain   text", doc.Text)
}

func TestFetch_NotFound(t *testing.T) {
	srv, _ := newSite(t, "")
	f := New(Config{RequestsPerSecond: 100})

	_, err := f.Fetch(t.Context(), srv.URL+"/missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFetch_Robots(t *testing.T) {
	srv, hits := newSite(t, "User-agent: *\nDisallow: /private/\n")

	t.Run("disallowed path is rejected", func(t *testing.T) {
		f := New(Config{RequestsPerSecond: 100})
		_, err := f.Fetch(t.Context(), srv.URL+"/private/doc")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		// robots.txt is cached per host
		_, err = f.Fetch(t.Context(), srv.URL+"/plain.txt")
		require.NoError(t, err)
		assert.Equal(t, int32(1), hits.Load())
	})

	t.Run("ignore robots", func(t *testing.T) {
		f := New(Config{RequestsPerSecond: 100, IgnoreRobots: true})
		doc, err := f.Fetch(t.Context(), srv.URL+"/private/doc")
		require.NoError(t, err)
		assert.Equal(t, "secret", doc.Text)
	})
}

func TestFetch_Files(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("first aid basics"), 0o600))
	html := filepath.Join(dir, "guide.html")
	require.NoError(t, os.WriteFile(html, []byte(page), 0o600))

	f := New(Config{})

	doc, err := f.Fetch(t.Context(), txt)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", doc.Title)
	assert.Equal(t, "first aid basics", doc.Text)
	assert.True(t, strings.HasPrefix(doc.URL, "file://"))

	doc, err = f.Fetch(t.Context(), "file://"+filepath.ToSlash(txt))
	require.NoError(t, err)
	assert.Equal(t, "first aid basics", doc.Text)

	doc, err = f.Fetch(t.Context(), html)
	require.NoError(t, err)
	assert.Equal(t, "Water Purification", doc.Title)
	assert.NotContains(t, doc.Text, "<p>")

	_, err = f.Fetch(t.Context(), filepath.Join(dir, "missing.txt"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFetch_InvalidInput(t *testing.T) {
	f := New(Config{})

	_, err := f.Fetch(t.Context(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.Fetch(t.Context(), "ftp://example.com/file")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
