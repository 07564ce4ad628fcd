package parser

import (
	"strings"
	"unicode"
)

// DefaultSectionSize is the size in characters of one section of a long
// document.
const DefaultSectionSize = 12000

// Sections splits content into parts of at most size characters. Paragraph
// boundaries are preferred, then sentence boundaries; a single run of text
// longer than size is cut hard.
func Sections(content string, size int) []string {
	if size <= 0 {
		size = DefaultSectionSize
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	if len([]rune(content)) <= size {
		return []string{content}
	}

	var pieces []string
	for _, p := range strings.Split(content, "\n\n") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if len([]rune(p)) <= size {
			pieces = append(pieces, p)
			continue
		}
		for _, s := range splitSentences(p) {
			if len([]rune(s)) <= size {
				pieces = append(pieces, s)
				continue
			}
			pieces = append(pieces, hardSplit(s, size)...)
		}
	}

	var (
		sections []string
		current  strings.Builder
		curLen   int
	)
	flush := func() {
		if curLen > 0 {
			sections = append(sections, strings.TrimSpace(current.String()))
			current.Reset()
			curLen = 0
		}
	}
	for _, p := range pieces {
		n := len([]rune(p))
		if curLen > 0 && curLen+2+n > size {
			flush()
		}
		if curLen > 0 {
			current.WriteString("\n\n")
			curLen += 2
		}
		current.WriteString(p)
		curLen += n
	}
	flush()
	return sections
}

func splitSentences(text string) []string {
	var (
		sentences []string
		current   strings.Builder
	)
	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if !isSentenceEnd(r) {
			continue
		}
		if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '。' || r == '！' || r == '？'
}

func hardSplit(text string, size int) []string {
	runes := []rune(text)
	var parts []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}
