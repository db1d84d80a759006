package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSource(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "export.ics")
	require.NoError(t, os.WriteFile(path, []byte("BEGIN:VCALENDAR\n"), 0o600))

	body, err := File{Path: path}.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "BEGIN:VCALENDAR\n", string(body))
}

func TestFileSourceEmptyPath(t *testing.T) {
	t.Parallel()

	_, err := File{}.Fetch(context.Background())
	assert.Error(t, err)
}

func TestHTTPSourceCachesWithETag(t *testing.T) {
	t.Parallel()

	const payload = "BEGIN:VCALENDAR\nEND:VCALENDAR\n"
	var hits int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	src := NewHTTP(srv.URL, t.TempDir())
	ctx := context.Background()

	body, err := src.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, payload, string(body))

	// Second fetch: conditional request, 304, body served from cache.
	body, err = src.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, payload, string(body))
	assert.Equal(t, 2, hits)
}

func TestHTTPSourceFallsBackToCacheOnServerError(t *testing.T) {
	t.Parallel()

	const payload = "BEGIN:VCALENDAR\nEND:VCALENDAR\n"
	var fail bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	src := NewHTTP(srv.URL, t.TempDir())
	ctx := context.Background()

	_, err := src.Fetch(ctx)
	require.NoError(t, err)

	fail = true
	body, err := src.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, payload, string(body), "cached body survives a failing host")
}

func TestHTTPSourceErrorWithoutCache(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	src := NewHTTP(srv.URL, t.TempDir())
	_, err := src.Fetch(context.Background())
	assert.Error(t, err)
}

func TestRedactURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://example.com/...(redacted)",
		redactURL("https://example.com/private/export.ics?token=secret"))
	assert.Equal(t, "ics://...(redacted)", redactURL("not a url"))
}
