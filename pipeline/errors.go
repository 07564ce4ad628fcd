package pipeline

import "errors"

var (
	// ErrEmptyOutput is returned when the writing stage produced no text.
	ErrEmptyOutput = errors.New("content writing produced no text")
	// ErrNoHTML is returned when the design stage neither saved the HTML file
	// nor returned a document that could be saved instead.
	ErrNoHTML = errors.New("visual design produced no HTML document")
	// ErrUnknownMode is returned for a coordinator mode other than pipeline or agent.
	ErrUnknownMode = errors.New("unknown coordinator mode")
	// ErrAwaitingApproval is returned when a run stopped for copy approval and
	// was saved so that it can be resumed.
	ErrAwaitingApproval = errors.New("run is waiting for copy approval")
	// ErrNoDecision is returned by an Approver that leaves the decision for later.
	ErrNoDecision = errors.New("no approval decision")
	// ErrNoPendingRun is returned when resuming a run that is not waiting.
	ErrNoPendingRun = errors.New("no run waiting for approval")
)
