package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	commontool "github.com/cloudwego/eino-examples/adk/common/tool"
	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/compose"

	"newsletter-agent/llm/tools"
)

// ApprovalRequest describes a write the writer is waiting to have approved.
type ApprovalRequest struct {
	RunID       string `json:"run_id"`
	Stage       string `json:"stage"`
	InterruptID string `json:"interrupt_id"`
	Tool        string `json:"tool,omitempty"`
	Path        string `json:"path,omitempty"`
	Draft       string `json:"draft"`
}

// Approval is the reviewer's answer. Reason is passed to the writer when
// the draft is rejected.
type Approval struct {
	Approved bool
	Reason   string
}

func (a Approval) result() *commontool.ApprovalResult {
	r := &commontool.ApprovalResult{Approved: a.Approved}
	if !a.Approved && a.Reason != "" {
		reason := a.Reason
		r.DisapproveReason = &reason
	}
	return r
}

// Approver asks a reviewer about a draft. Returning ErrNoDecision saves the
// run so that it can be resumed later.
type Approver func(ctx context.Context, req ApprovalRequest) (Approval, error)

// InterruptError is returned by a stage whose agent stopped for approval.
type InterruptError struct {
	Request ApprovalRequest
}

func (e *InterruptError) Error() string {
	if e.Request.Path != "" {
		return fmt.Sprintf("%s is waiting for approval to write %s", e.Request.Stage, e.Request.Path)
	}
	return fmt.Sprintf("%s is waiting for approval", e.Request.Stage)
}

// Resumer is a stage that can continue after an approval interrupt.
type Resumer interface {
	Stage
	Resume(ctx context.Context, run *Run, req ApprovalRequest, approval Approval) (string, error)
}

func newApprovalRequest(run *Run, stage string, info *adk.InterruptInfo) ApprovalRequest {
	req := ApprovalRequest{RunID: run.ID, Stage: stage}
	if info == nil || len(info.InterruptContexts) == 0 {
		return req
	}

	ic := info.InterruptContexts[0]
	req.InterruptID = ic.ID

	var ai *commontool.ApprovalInfo
	switch v := ic.Info.(type) {
	case *commontool.ApprovalInfo:
		ai = v
	case commontool.ApprovalInfo:
		ai = &v
	default:
		req.Draft = fmt.Sprint(ic.Info)
		return req
	}

	req.Tool = ai.ToolName
	var args tools.WriteFileParams
	if err := json.Unmarshal([]byte(ai.ArgumentsInJSON), &args); err != nil {
		req.Draft = ai.ArgumentsInJSON
		return req
	}
	req.Path, req.Draft = args.FilePath, args.Content
	return req
}

// pendingRun is what a stopped run keeps in the checkpoint store next to
// the agent checkpoint.
type pendingRun struct {
	Request        ApprovalRequest   `json:"request"`
	State          map[string]string `json:"state"`
	Content        fileStamp         `json:"content"`
	ContentExisted bool              `json:"content_existed"`
}

func pendingKey(runID string) string {
	return runID + ":pending"
}

func savePending(ctx context.Context, store compose.CheckPointStore, p pendingRun) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode pending run: %w", err)
	}
	if err := store.Set(ctx, pendingKey(p.Request.RunID), data); err != nil {
		return fmt.Errorf("failed to save pending run: %w", err)
	}
	return nil
}

func loadPending(ctx context.Context, store compose.CheckPointStore, runID string) (pendingRun, error) {
	var p pendingRun
	data, ok, err := store.Get(ctx, pendingKey(runID))
	if err != nil {
		return p, fmt.Errorf("failed to load pending run: %w", err)
	}
	if !ok || len(data) == 0 {
		return p, fmt.Errorf("%w: %s", ErrNoPendingRun, runID)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("failed to decode pending run %s: %w", runID, err)
	}
	return p, nil
}

// clearPending marks a run as no longer waiting. Stores without Delete get
// an empty value, which loadPending treats as missing.
func clearPending(ctx context.Context, store compose.CheckPointStore, runID string) error {
	if d, ok := store.(interface {
		Delete(ctx context.Context, checkPointID string) error
	}); ok {
		return d.Delete(ctx, pendingKey(runID))
	}
	return store.Set(ctx, pendingKey(runID), []byte{})
}

func isInterrupt(err error) (*InterruptError, bool) {
	var ie *InterruptError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
