package pipeline

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"sync"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"newsletter-agent/llm/agent"
	"newsletter-agent/pubsub"
)

// Stage is one unit of work of the newsletter pipeline.
type Stage interface {
	Name() string
	// OutputKey is the state key the stage result is stored under.
	OutputKey() string
	Run(ctx context.Context, run *Run) (string, error)
}

// Run is the shared state of one coordinator run.
type Run struct {
	ID string

	mu    sync.RWMutex
	state map[string]string

	pub        publisher
	transcript *agent.Transcript
	onEvent    func(*adk.AgentEvent)
}

func newRun(id string, broker *Broker, transcript *agent.Transcript) *Run {
	return &Run{
		ID:         id,
		state:      make(map[string]string),
		pub:        publisher{broker: broker, runID: id},
		transcript: transcript,
	}
}

func (r *Run) snapshot() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.state)
}

func (r *Run) restore(state map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	maps.Copy(r.state, state)
}

// Get returns a state value, or "" when unset.
func (r *Run) Get(key string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state[key]
}

// Set stores a state value.
func (r *Run) Set(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state[key] = value
}

// Message records an agent message of stage and publishes it.
func (r *Run) Message(ctx context.Context, stage, agentName string, msg adk.Message) {
	if msg == nil {
		return
	}
	if r.transcript != nil {
		_ = r.transcript.Add(ctx, agentName, msg)
	}

	text := msg.Content
	if len(msg.ToolCalls) > 0 {
		names := make([]string, 0, len(msg.ToolCalls))
		for _, tc := range msg.ToolCalls {
			names = append(names, tc.Function.Name)
		}
		text = "calling " + strings.Join(names, ", ")
	} else if msg.Role == schema.Tool {
		text = "tool result received"
	}
	r.pub.publish(pubsub.UpdatedEvent, Event{Stage: stage, Agent: agentName, Text: text})
}

// InputFunc builds the user message of an agent stage from the run state.
type InputFunc func(run *Run) string

// AgentStage runs an adk agent to completion and returns its final answer.
type AgentStage struct {
	name        string
	outputKey   string
	agent       adk.Agent
	input       InputFunc
	checkPoints compose.CheckPointStore
}

// NewAgentStage wraps a. checkPoints may be nil.
func NewAgentStage(name, outputKey string, a adk.Agent, input InputFunc, checkPoints compose.CheckPointStore) *AgentStage {
	return &AgentStage{
		name:        name,
		outputKey:   outputKey,
		agent:       a,
		input:       input,
		checkPoints: checkPoints,
	}
}

func (s *AgentStage) Name() string      { return s.name }
func (s *AgentStage) OutputKey() string { return s.outputKey }

func (s *AgentStage) runner(ctx context.Context) *adk.Runner {
	return adk.NewRunner(ctx, adk.RunnerConfig{
		Agent:           s.agent,
		EnableStreaming: false,
		CheckPointStore: s.checkPoints,
	})
}

func (s *AgentStage) checkPointID(run *Run) string {
	return run.ID + ":" + s.name
}

// Run queries the agent and returns the content of the last assistant
// message that is not a tool call. An agent that stops for approval yields
// an *InterruptError.
func (s *AgentStage) Run(ctx context.Context, run *Run) (string, error) {
	var opts []adk.AgentRunOption
	if s.checkPoints != nil {
		opts = append(opts, adk.WithCheckPointID(s.checkPointID(run)))
	}
	return s.consume(ctx, run, s.runner(ctx).Query(ctx, s.input(run), opts...))
}

// Resume continues the agent from its checkpoint with the reviewer's answer.
func (s *AgentStage) Resume(ctx context.Context, run *Run, req ApprovalRequest, approval Approval) (string, error) {
	if s.checkPoints == nil {
		return "", fmt.Errorf("%s: cannot resume without a checkpoint store", s.name)
	}
	iter, err := s.runner(ctx).ResumeWithParams(ctx, s.checkPointID(run), &adk.ResumeParams{
		Targets: map[string]any{req.InterruptID: approval.result()},
	})
	if err != nil {
		return "", fmt.Errorf("%s: failed to resume: %w", s.name, err)
	}
	return s.consume(ctx, run, iter)
}

func (s *AgentStage) consume(ctx context.Context, run *Run, iter *adk.AsyncIterator[*adk.AgentEvent]) (string, error) {
	var last string
	for {
		event, ok := iter.Next()
		if !ok {
			break
		}
		if run.onEvent != nil {
			run.onEvent(event)
		}
		if event.Err != nil {
			return "", fmt.Errorf("%s: %w", s.name, event.Err)
		}
		if event.Action != nil && event.Action.Interrupted != nil {
			return last, &InterruptError{Request: newApprovalRequest(run, s.name, event.Action.Interrupted)}
		}
		if event.Output == nil || event.Output.MessageOutput == nil {
			continue
		}

		msg, err := event.Output.MessageOutput.GetMessage()
		if err != nil {
			return "", fmt.Errorf("%s: failed to read agent message: %w", s.name, err)
		}
		agentName := event.AgentName
		if agentName == "" {
			agentName = s.agent.Name(ctx)
		}
		run.Message(ctx, s.name, agentName, msg)

		if msg.Role == schema.Assistant && len(msg.ToolCalls) == 0 && strings.TrimSpace(msg.Content) != "" {
			last = msg.Content
		}
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	return last, nil
}

// Step is a group of stages that run one after the other, or concurrently
// when Parallel is set.
type Step struct {
	Name     string
	Stages   []Stage
	Parallel bool
}
