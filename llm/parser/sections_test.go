package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSectionsShortContent(t *testing.T) {
	assert.Nil(t, Sections("  \n ", 10))
	assert.Equal(t, []string{"Ships in May."}, Sections(" Ships in May. ", 100))
}

func TestSectionsParagraphs(t *testing.T) {
	content := "First paragraph.\n\nSecond paragraph.\n\nThird paragraph."
	got := Sections(content, 36)
	assert.Equal(t, []string{
		"First paragraph.\n\nSecond paragraph.",
		"Third paragraph.",
	}, got)
}

func TestSectionsLongParagraph(t *testing.T) {
	content := "One two three. Four five six. Seven eight nine."
	got := Sections(content, 20)
	assert.Equal(t, []string{"One two three.", "Four five six.", "Seven eight nine."}, got)
}

func TestSectionsHardSplit(t *testing.T) {
	content := strings.Repeat("x", 25)
	got := Sections(content, 10)
	assert.Equal(t, []string{"xxxxxxxxxx", "xxxxxxxxxx", "xxxxx"}, got)
}

func TestSectionsKeepAllText(t *testing.T) {
	content := strings.Repeat("Routing is fast. ", 200) + "\n\n" + strings.Repeat("Placement is smart. ", 200)
	got := Sections(content, 500)
	for _, s := range got {
		assert.LessOrEqual(t, len([]rune(s)), 500)
	}
	joined := strings.Join(got, " ")
	assert.Equal(t, 200, strings.Count(joined, "Routing is fast."))
	assert.Equal(t, 200, strings.Count(joined, "Placement is smart."))
}
