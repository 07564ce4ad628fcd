package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsletter-agent/pipeline"
)

func TestPromptApprover(t *testing.T) {
	req := pipeline.ApprovalRequest{Stage: "ContentWritingAgent", Path: "output/newsletter_content.txt", Draft: "Subject: Launch"}

	tests := []struct {
		name   string
		input  string
		want   pipeline.Approval
		errIs  error
		prompt string
	}{
		{name: "yes", input: "y\n", want: pipeline.Approval{Approved: true}},
		{name: "yes word", input: "YES\n", want: pipeline.Approval{Approved: true}},
		{name: "no asks why", input: "n\nmention the beta\n", want: pipeline.Approval{Reason: "mention the beta"}, prompt: "What should change?"},
		{name: "text is the reason", input: "  make it shorter \n", want: pipeline.Approval{Reason: "make it shorter"}},
		{name: "empty line waits", input: "\n", errIs: pipeline.ErrNoDecision},
		{name: "end of input waits", input: "", errIs: pipeline.ErrNoDecision},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			approve := promptApprover(strings.NewReader(tt.input), &out)

			got, err := approve(context.Background(), req)
			if tt.errIs != nil {
				require.ErrorIs(t, err, tt.errIs)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.Contains(t, out.String(), "Subject: Launch")
			assert.Contains(t, out.String(), "ContentWritingAgent wants to write output/newsletter_content.txt")
			if tt.prompt != "" {
				assert.Contains(t, out.String(), tt.prompt)
			}
		})
	}
}

func TestPromptApproverTruncatesLongDraft(t *testing.T) {
	var out bytes.Buffer
	approve := promptApprover(strings.NewReader("y\n"), &out)

	draft := strings.Repeat("é", draftPreviewRunes+10)
	_, err := approve(context.Background(), pipeline.ApprovalRequest{Draft: draft})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "[10 more characters]")
	assert.NotContains(t, out.String(), draft)
}

func TestPromptApproverCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := promptApprover(strings.NewReader("y\n"), &bytes.Buffer{})(ctx, pipeline.ApprovalRequest{})
	require.ErrorIs(t, err, context.Canceled)
}
