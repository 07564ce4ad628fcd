package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
)

const (
	// FetchToolName is the name of the fetch tool
	FetchToolName = "fetch"

	DefaultFetchTimeout = 30
	MaxFetchTimeout     = 120
	// MaxReadSize is the maximum response size (5MB)
	MaxReadSize = int64(5 * 1024 * 1024)
)

// FetchToolParams defines the arguments for the fetch tool.
type FetchToolParams struct {
	URL     string `json:"url" jsonschema:"description=The URL to fetch content from. Must start with http:// or https://"`
	Format  string `json:"format,omitempty" jsonschema:"description=The format to return the content in (text, markdown, or html). Default is text.,enum=text,enum=markdown,enum=html"`
	Timeout int    `json:"timeout,omitempty" jsonschema:"description=Optional timeout in seconds (default: 30, max: 120)"`
}

const fetchDescription = `Fetch a web page found with web_search and return it as text, markdown, or HTML.

SUPPORTED FORMATS:
- text:     Plain text extraction (default)
- markdown: HTML converted to markdown, best for articles
- html:     The page body, useful when studying a newsletter layout

PARAMETERS:
- url (required): The URL to fetch (must start with http:// or https://)
- format (optional): text, markdown, or html (default: text)
- timeout (optional): Timeout in seconds (default: 30, max: 120)`

// Fetcher downloads pages and converts them for the model.
type Fetcher struct {
	Client    *http.Client
	UserAgent string
}

// NewFetcher returns a fetcher with a default client.
func NewFetcher() *Fetcher {
	return &Fetcher{
		Client:    &http.Client{},
		UserAgent: "newsletter-agent-fetch/1.0",
	}
}

// Fetch implements the logic for fetching and converting web content.
func (f *Fetcher) Fetch(ctx context.Context, params FetchToolParams) (string, error) {
	if params.URL == "" {
		return Error("URL parameter is required")
	}
	if !strings.HasPrefix(params.URL, "http://") && !strings.HasPrefix(params.URL, "https://") {
		return Error("URL must start with http:// or https://")
	}

	format := strings.ToLower(params.Format)
	if format == "" {
		format = "text"
	}
	if format != "text" && format != "markdown" && format != "html" {
		return Error("format must be one of: text, markdown, html")
	}

	timeout := params.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if timeout > MaxFetchTimeout {
		timeout = MaxFetchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, params.URL, nil)
	if err != nil {
		return Error(fmt.Sprintf("failed to create request: %v", err))
	}
	req.Header.Set("User-Agent", f.UserAgent)

	startTime := time.Now()
	resp, err := f.Client.Do(req)
	if err != nil {
		return Error(fmt.Sprintf("failed to fetch URL: %v", err))
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, MaxReadSize))
	if err != nil {
		return Error(fmt.Sprintf("failed to read response: %v", err))
	}

	content := string(bodyBytes)
	truncated := int64(len(content)) >= MaxReadSize

	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		content, err = convertHTML(content, format)
		if err != nil {
			return Error(fmt.Sprintf("failed to convert to %s: %v", format, err))
		}
	}

	if truncated {
		content += fmt.Sprintf("\n\n[Content truncated to %d bytes]", MaxReadSize)
	}

	meta := &Metadata{
		URL:        params.URL,
		StatusCode: resp.StatusCode,
		Duration:   time.Since(startTime).Milliseconds(),
	}
	if resp.StatusCode != http.StatusOK {
		return Partial(content, meta)
	}
	return Success(content, meta)
}

// Tool wraps the fetcher as an eino tool.
func (f *Fetcher) Tool() tool.InvokableTool {
	return mustTool(utils.InferTool(FetchToolName, fetchDescription, f.Fetch))
}

func convertHTML(content, format string) (string, error) {
	switch format {
	case "markdown":
		return convertHTMLToMarkdown(content)
	case "html":
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
		if err != nil {
			return "", err
		}
		body, err := doc.Find("body").Html()
		if err == nil && body != "" {
			return "<html>\n<body>\n" + body + "\n</body>\n</html>", nil
		}
		return content, nil
	default:
		return extractTextFromHTML(content)
	}
}

func extractTextFromHTML(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript").Remove()

	text := doc.Find("body").Text()
	return strings.Join(strings.Fields(text), " "), nil
}

func convertHTMLToMarkdown(html string) (string, error) {
	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(html)
	if err != nil {
		return "", err
	}

	lines := strings.Split(markdown, "\n")
	var result []string
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return strings.Join(result, "\n"), nil
}
