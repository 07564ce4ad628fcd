package pipeline

import (
	"regexp"
	"strings"
)

var htmlFence = regexp.MustCompile("(?is)```html[ \\t]*\\r?\\n(.*?)```")

// ExtractHTML pulls an HTML document out of an agent reply. A fenced html
// block wins; otherwise the span from the doctype or html tag to the last
// closing html tag is used.
func ExtractHTML(text string) (string, bool) {
	if m := htmlFence.FindStringSubmatch(text); m != nil {
		if doc := strings.TrimSpace(m[1]); doc != "" {
			return doc, true
		}
	}

	lower := strings.ToLower(text)
	start := strings.Index(lower, "<!doctype html")
	if start < 0 {
		start = strings.Index(lower, "<html")
	}
	if start < 0 {
		return "", false
	}

	end := strings.LastIndex(lower, "</html>")
	if end < start {
		return "", false
	}
	return text[start : end+len("</html>")], true
}
