package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articlePage = `<html><head><title>T</title><script>var x = 1;</script></head>
<body>
<h1>Launch Day</h1>
<p>The <b>widget</b> ships.</p>
</body></html>`

func newArticleServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(articlePage))
	})
	mux.HandleFunc("/plain", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("just text"))
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("missing"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchFormats(t *testing.T) {
	srv := newArticleServer(t)
	f := &Fetcher{Client: srv.Client(), UserAgent: "test"}
	ctx := context.Background()

	text, err := f.Fetch(ctx, FetchToolParams{URL: srv.URL + "/article"})
	require.NoError(t, err)
	assert.Contains(t, text, "Launch Day The widget ships.")
	assert.NotContains(t, text, "var x")
	assert.Contains(t, text, "status=200")

	markdown, err := f.Fetch(ctx, FetchToolParams{URL: srv.URL + "/article", Format: "markdown"})
	require.NoError(t, err)
	assert.Contains(t, markdown, "# Launch Day")
	assert.Contains(t, markdown, "**widget**")

	page, err := f.Fetch(ctx, FetchToolParams{URL: srv.URL + "/article", Format: "HTML"})
	require.NoError(t, err)
	assert.Contains(t, page, "<h1>Launch Day</h1>")

	plain, err := f.Fetch(ctx, FetchToolParams{URL: srv.URL + "/plain", Format: "markdown"})
	require.NoError(t, err)
	assert.Contains(t, plain, "just text")
}

func TestFetchNonOKIsPartial(t *testing.T) {
	srv := newArticleServer(t)
	f := &Fetcher{Client: srv.Client()}

	out, err := f.Fetch(context.Background(), FetchToolParams{URL: srv.URL + "/gone"})
	require.NoError(t, err)
	assert.Contains(t, out, "[PARTIAL] missing")
	assert.Contains(t, out, "status=404")
}

func TestFetchValidation(t *testing.T) {
	f := NewFetcher()
	ctx := context.Background()

	cases := []struct {
		params FetchToolParams
		want   string
	}{
		{FetchToolParams{}, "URL parameter is required"},
		{FetchToolParams{URL: "ftp://example.com"}, "must start with http"},
		{FetchToolParams{URL: "https://example.com", Format: "pdf"}, "format must be one of"},
	}
	for _, tc := range cases {
		out, err := f.Fetch(ctx, tc.params)
		require.NoError(t, err)
		assert.Contains(t, out, "[ERROR]")
		assert.Contains(t, out, tc.want)
	}
}
