package agent

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptTruncatesToolResponses(t *testing.T) {
	ctx := context.Background()
	tr := NewTranscript()

	long := strings.Repeat("Sentence about widgets. ", 200)
	require.NoError(t, tr.Add(ctx, TrendFindingAgentName, schema.ToolMessage(long, "call-1")))
	require.NoError(t, tr.Add(ctx, TrendFindingAgentName, schema.AssistantMessage(long, nil)))

	entries, err := tr.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	tool := entries[0].Message
	assert.Less(t, len(tool.Content), len(long))
	assert.Contains(t, tool.Content, "[Content truncated: original")
	assert.Equal(t, "call-1", tool.ToolCallID)
	assert.True(t, strings.HasPrefix(tool.Content, "Sentence about widgets."))

	assert.Equal(t, long, entries[1].Message.Content)
}

func TestTranscriptKeepsNewestEntries(t *testing.T) {
	ctx := context.Background()
	tr := NewTranscript()
	tr.maxEntries = 3

	for i := 0; i < 5; i++ {
		require.NoError(t, tr.Add(ctx, "a", schema.AssistantMessage(fmt.Sprintf("m%d", i), nil)))
	}
	require.NoError(t, tr.Add(ctx, "a", nil))

	entries, err := tr.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "m2", entries[0].Message.Content)
	assert.Equal(t, "m4", entries[2].Message.Content)

	require.NoError(t, tr.Clear(ctx))
	entries, _ = tr.List(ctx)
	assert.Empty(t, entries)
}

func TestTranscriptMarkdown(t *testing.T) {
	ctx := context.Background()
	tr := NewTranscript()

	call := schema.AssistantMessage("", []schema.ToolCall{{
		ID:       "c1",
		Function: schema.FunctionCall{Name: "write_file", Arguments: `{"file_path":"x"}`},
	}})
	require.NoError(t, tr.Add(ctx, ContentWritingAgentName, call))
	require.NoError(t, tr.Add(ctx, ContentWritingAgentName, schema.AssistantMessage("Saved.", nil)))

	out := tr.Markdown()
	assert.Contains(t, out, "## ContentWritingAgent (assistant)")
	assert.Contains(t, out, "- call `write_file`")
	assert.Contains(t, out, "Saved.")
}
