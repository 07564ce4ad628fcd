package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
)

// Entry is one message of a run, tagged with the agent that produced it.
type Entry struct {
	Agent   string
	Message adk.Message
}

// Transcript keeps the messages of a run in memory. Tool responses are
// truncated and only the newest entries are retained.
type Transcript struct {
	mu              sync.RWMutex
	entries         []Entry
	maxEntries      int
	maxToolResponse int
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{
		maxEntries:      500,
		maxToolResponse: 2000,
	}
}

// Add records msg. Nil messages are ignored.
func (t *Transcript) Add(ctx context.Context, agentName string, msg adk.Message) error {
	if msg == nil {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if msg.Role == schema.Tool {
		msg = t.compressToolResponse(msg)
	}

	t.entries = append(t.entries, Entry{Agent: agentName, Message: msg})
	if len(t.entries) > t.maxEntries {
		t.entries = t.entries[len(t.entries)-t.maxEntries:]
	}
	return nil
}

// compressToolResponse cuts long tool output at a sentence or line break
// past the halfway mark.
func (t *Transcript) compressToolResponse(msg adk.Message) adk.Message {
	if len(msg.Content) <= t.maxToolResponse {
		return msg
	}

	originalLen := len(msg.Content)
	truncated := msg.Content[:t.maxToolResponse]

	cutoff := t.maxToolResponse
	for _, bp := range []string{".\n", ". ", "\n\n", "\n"} {
		if idx := strings.LastIndex(truncated, bp); idx > t.maxToolResponse/2 {
			cutoff = idx + len(bp)
			break
		}
	}

	compressed := msg.Content[:cutoff] + fmt.Sprintf(
		"\n\n[Content truncated: original %d chars -> %d chars]", originalLen, cutoff)

	return &schema.Message{
		Role:       msg.Role,
		Content:    compressed,
		ToolCallID: msg.ToolCallID,
	}
}

// List returns a copy of the recorded entries.
func (t *Transcript) List(ctx context.Context) ([]Entry, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	result := make([]Entry, len(t.entries))
	copy(result, t.entries)
	return result, nil
}

// Clear drops every entry.
func (t *Transcript) Clear(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = nil
	return nil
}

// Markdown renders the transcript for the transcript artifact.
func (t *Transcript) Markdown() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var sb strings.Builder
	sb.WriteString("# Newsletter run transcript\n")
	for _, e := range t.entries {
		msg := e.Message
		sb.WriteString(fmt.Sprintf("\n## %s (%s)\n\n", e.Agent, msg.Role))
		for _, tc := range msg.ToolCalls {
			sb.WriteString(fmt.Sprintf("- call `%s` %s\n", tc.Function.Name, tc.Function.Arguments))
		}
		if msg.Content != "" {
			sb.WriteString(msg.Content)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
