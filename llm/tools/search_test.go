package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const liteResultsPage = `<html><body><table>
<tr><td><a class="result-link" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fpcb&amp;rut=x">PCB Trends 2025</a></td></tr>
<tr><td class="result-snippet">Design rules are changing.</td></tr>
<tr><td><a class="result-link" href="https://example.org/news">Industry News</a></td></tr>
<tr><td class="result-snippet">Weekly roundup.</td></tr>
<tr><td><a class="result-link" href="https://example.net/third">Third</a></td></tr>
</table></body></html>`

func TestParseLiteSearchResults(t *testing.T) {
	hits, err := parseLiteSearchResults(liteResultsPage, 10)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "PCB Trends 2025", hits[0].Title)
	assert.Equal(t, "https://example.com/pcb", hits[0].Link)
	assert.Equal(t, "Design rules are changing.", hits[0].Snippet)
	assert.Equal(t, 1, hits[0].Position)
	assert.Equal(t, "https://example.org/news", hits[1].Link)
	assert.Equal(t, 3, hits[2].Position)
}

func TestParseLiteSearchResultsHonoursLimit(t *testing.T) {
	hits, err := parseLiteSearchResults(liteResultsPage, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "Industry News", hits[1].Title)
}

func TestSearcherSearch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(liteResultsPage))
	}))
	defer srv.Close()

	s := &Searcher{Endpoint: srv.URL, Client: srv.Client()}
	out, err := s.Search(context.Background(), SearchToolParams{Query: "pcb trends", MaxResults: 2})
	require.NoError(t, err)

	assert.Equal(t, "pcb trends", gotQuery)
	assert.Contains(t, out, "Found 2 search results for 'pcb trends'")
	assert.Contains(t, out, "https://example.com/pcb")
	assert.NotContains(t, out, "example.net")
	assert.Contains(t, out, "matches=2")
}

func TestSearcherErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := &Searcher{Endpoint: srv.URL, Client: srv.Client()}

	out, err := s.Search(context.Background(), SearchToolParams{Query: "  "})
	require.NoError(t, err)
	assert.Contains(t, out, "[ERROR] query parameter is required")

	out, err = s.Search(context.Background(), SearchToolParams{Query: "x"})
	require.NoError(t, err)
	assert.Contains(t, out, "status code: 429")
}

func TestSearcherNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body>nothing</body></html>"))
	}))
	defer srv.Close()

	s := &Searcher{Endpoint: srv.URL, Client: srv.Client()}
	out, err := s.Search(context.Background(), SearchToolParams{Query: "obscure"})
	require.NoError(t, err)
	assert.Equal(t, "No results found for 'obscure'", out)
}

func TestSearcherWaitHonoursContext(t *testing.T) {
	s := NewSearcher()
	require.NoError(t, s.wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.wait(ctx), context.Canceled)
}
