package tools

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"golang.org/x/net/html"
)

const (
	// SearchToolName is the name of the search tool
	SearchToolName = "web_search"

	DefaultSearchMaxResults = 10
	MaxSearchMaxResults     = 20
	SearchTimeout           = 30 * time.Second
	MinSearchInterval       = 500 * time.Millisecond

	duckDuckGoLiteURL = "https://lite.duckduckgo.com/lite/"
)

// SearchToolParams defines the parameters for the search tool
type SearchToolParams struct {
	Query      string `json:"query" jsonschema:"description=The search keywords or question to look for on the web"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"description=Maximum number of search results to return (default: 10, max: 20)"`
}

// SearchHit is a single search result
type SearchHit struct {
	Title    string
	Link     string
	Snippet  string
	Position int
}

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:133.0) Gecko/20100101 Firefox/133.0",
}

const searchDescription = `Search the web for recent developments, articles, newsletter layouts, or images.

CAPABILITIES:
- Returns title, URL, and snippet for each result
- Use fetch to read a promising result in full

PARAMETERS:
- query (required): The search keywords or question
- max_results (optional): Maximum results (default: 10, max: 20)

EXAMPLES:
- Industry news: {"query": "PCB design trends 2025"}
- Layout ideas: {"query": "modern B2B email newsletter template single column"}`

// Searcher queries DuckDuckGo Lite and keeps a minimum gap between requests.
type Searcher struct {
	Endpoint    string
	Client      *http.Client
	MinInterval time.Duration

	mu   sync.Mutex
	last time.Time
}

// NewSearcher returns a searcher against the public DuckDuckGo Lite endpoint.
func NewSearcher() *Searcher {
	return &Searcher{
		Endpoint:    duckDuckGoLiteURL,
		Client:      &http.Client{Timeout: SearchTimeout},
		MinInterval: MinSearchInterval,
	}
}

// Search performs a web search and formats the hits for the model.
func (s *Searcher) Search(ctx context.Context, params SearchToolParams) (string, error) {
	if strings.TrimSpace(params.Query) == "" {
		return Error("query parameter is required")
	}

	maxResults := params.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultSearchMaxResults
	}
	if maxResults > MaxSearchMaxResults {
		maxResults = MaxSearchMaxResults
	}

	if err := s.wait(ctx); err != nil {
		return Error(fmt.Sprintf("search cancelled: %v", err))
	}

	searchURL := s.Endpoint + "?q=" + url.QueryEscape(params.Query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return Error(fmt.Sprintf("failed to create request: %v", err))
	}
	setRandomizedHeaders(req)

	resp, err := s.Client.Do(req)
	if err != nil {
		return Error(fmt.Sprintf("search request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Error(fmt.Sprintf("search failed with status code: %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Error(fmt.Sprintf("failed to read response: %v", err))
	}

	results, err := parseLiteSearchResults(string(body), maxResults)
	if err != nil {
		return Error(fmt.Sprintf("failed to parse results: %v", err))
	}

	if len(results) == 0 {
		return Success(fmt.Sprintf("No results found for '%s'", params.Query), nil)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d search results for '%s':\n\n", len(results), params.Query))
	links := make([]string, 0, len(results))
	for _, res := range results {
		sb.WriteString(fmt.Sprintf("- **%s**\n", res.Title))
		sb.WriteString(fmt.Sprintf("  URL: %s\n", res.Link))
		sb.WriteString(fmt.Sprintf("  Snippet: %s\n\n", res.Snippet))
		links = append(links, res.Link)
	}

	return Success(sb.String(), &Metadata{
		MatchCount: len(results),
		Files:      links,
	})
}

// wait enforces the minimum interval plus jitter between searches.
func (s *Searcher) wait(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.MinInterval > 0 {
		gap := s.MinInterval + time.Duration(rand.IntN(1500))*time.Millisecond
		if elapsed := time.Since(s.last); elapsed < gap {
			timer := time.NewTimer(gap - elapsed)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	s.last = time.Now()
	return nil
}

// Tool wraps the searcher as an eino tool.
func (s *Searcher) Tool() tool.InvokableTool {
	return mustTool(utils.InferTool(SearchToolName, searchDescription, s.Search))
}

func setRandomizedHeaders(req *http.Request) {
	req.Header.Set("User-Agent", userAgents[rand.IntN(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}

// parseLiteSearchResults parses DuckDuckGo Lite HTML results
func parseLiteSearchResults(htmlContent string, maxResults int) ([]SearchHit, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var results []SearchHit
	var current *SearchHit

	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if n.Data == "a" && hasClass(n, "result-link") {
				if current != nil && current.Link != "" {
					current.Position = len(results) + 1
					results = append(results, *current)
					if len(results) >= maxResults {
						current = nil
						return
					}
				}
				current = &SearchHit{Title: getTextContent(n)}
				for _, attr := range n.Attr {
					if attr.Key == "href" {
						current.Link = cleanDuckDuckGoURL(attr.Val)
						break
					}
				}
			}
			if n.Data == "td" && hasClass(n, "result-snippet") && current != nil {
				current.Snippet = getTextContent(n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if len(results) >= maxResults {
				return
			}
			traverse(c)
		}
	}

	traverse(doc)

	if current != nil && current.Link != "" && len(results) < maxResults {
		current.Position = len(results) + 1
		results = append(results, *current)
	}

	return results, nil
}

// cleanDuckDuckGoURL extracts the final URL from DuckDuckGo's redirect link
func cleanDuckDuckGoURL(rawURL string) string {
	if idx := strings.Index(rawURL, "uddg="); idx != -1 {
		encoded := rawURL[idx+5:]
		if ampIdx := strings.Index(encoded, "&"); ampIdx != -1 {
			encoded = encoded[:ampIdx]
		}
		if decoded, err := url.QueryUnescape(encoded); err == nil {
			return decoded
		}
	}
	return rawURL
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key == "class" {
			for _, c := range strings.Fields(attr.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

func getTextContent(n *html.Node) string {
	var text strings.Builder
	var traverse func(*html.Node)
	traverse = func(node *html.Node) {
		if node.Type == html.TextNode {
			text.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(n)
	return strings.TrimSpace(text.String())
}
