package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
)

// ResultStatus represents the status of a tool execution
type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusError   ResultStatus = "error"
	StatusPartial ResultStatus = "partial"
)

// Metadata contains structured metadata about tool execution
type Metadata struct {
	FilePath   string   `json:"file_path,omitempty"`
	ByteCount  int      `json:"byte_count,omitempty"`
	Duration   int64    `json:"duration_ms,omitempty"`
	MatchCount int      `json:"match_count,omitempty"`
	Files      []string `json:"files,omitempty"`
	URL        string   `json:"url,omitempty"`
	StatusCode int      `json:"status_code,omitempty"`
}

// ToolResult represents a free-text tool response with trailing metadata
type ToolResult struct {
	Status   ResultStatus `json:"status"`
	Content  string       `json:"content"`
	Metadata *Metadata    `json:"metadata,omitempty"`
}

// String returns the formatted string representation for LLM consumption
func (r *ToolResult) String() string {
	var sb strings.Builder

	switch r.Status {
	case StatusError:
		sb.WriteString("[ERROR] ")
	case StatusPartial:
		sb.WriteString("[PARTIAL] ")
	}

	sb.WriteString(r.Content)

	if r.Metadata != nil {
		md := r.Metadata
		var attrs []string

		if md.FilePath != "" {
			attrs = append(attrs, fmt.Sprintf("file=%s", md.FilePath))
		}
		if md.ByteCount > 0 {
			attrs = append(attrs, fmt.Sprintf("bytes=%d", md.ByteCount))
		}
		if md.Duration > 0 {
			attrs = append(attrs, fmt.Sprintf("duration=%dms", md.Duration))
		}
		if md.MatchCount > 0 {
			attrs = append(attrs, fmt.Sprintf("matches=%d", md.MatchCount))
		}
		if md.URL != "" {
			attrs = append(attrs, fmt.Sprintf("url=%s", md.URL))
		}
		if md.StatusCode > 0 {
			attrs = append(attrs, fmt.Sprintf("status=%d", md.StatusCode))
		}

		if len(attrs) > 0 {
			sb.WriteString(fmt.Sprintf("\n\n<metadata %s />", strings.Join(attrs, " ")))
		}
	}

	return sb.String()
}

// Success creates a successful tool result
func Success(content string, metadata *Metadata) (string, error) {
	return (&ToolResult{
		Status:   StatusSuccess,
		Content:  content,
		Metadata: metadata,
	}).String(), nil
}

// Error creates an error tool result
func Error(content string) (string, error) {
	return (&ToolResult{
		Status:  StatusError,
		Content: content,
	}).String(), nil
}

// Partial creates a partial success tool result
func Partial(content string, metadata *Metadata) (string, error) {
	return (&ToolResult{
		Status:   StatusPartial,
		Content:  content,
		Metadata: metadata,
	}).String(), nil
}

// NoParams is the input of tools that take no arguments.
type NoParams struct{}

// ErrorHandler turns tool errors into tool results so that a failing tool
// does not abort the whole agent run. Interrupts are passed through.
func ErrorHandler() compose.ToolMiddleware {
	return compose.ToolMiddleware{
		Invokable: func(next compose.InvokableToolEndpoint) compose.InvokableToolEndpoint {
			return func(ctx context.Context, in *compose.ToolInput) (*compose.ToolOutput, error) {
				output, err := next(ctx, in)
				if err != nil {
					errStr := err.Error()
					if strings.Contains(errStr, "interrupt signal") {
						return nil, err
					}

					if idx := strings.Index(errStr, "err="); idx != -1 {
						coreErr := strings.TrimSpace(errStr[idx+4:])
						return &compose.ToolOutput{
							Result: fmt.Sprintf("Error: %s", coreErr),
						}, nil
					}

					return &compose.ToolOutput{
						Result: fmt.Sprintf("Error: %s", errStr),
					}, nil
				}
				return output, nil
			}
		},
	}
}

func mustTool(t tool.InvokableTool, err error) tool.InvokableTool {
	if err != nil {
		panic(fmt.Sprintf("failed to create tool: %v", err))
	}
	return t
}

// Names returns the tool names in order, skipping tools whose info fails.
func Names(ctx context.Context, list []tool.BaseTool) []string {
	names := make([]string, 0, len(list))
	for _, t := range list {
		info, err := t.Info(ctx)
		if err != nil {
			continue
		}
		names = append(names, info.Name)
	}
	return names
}
