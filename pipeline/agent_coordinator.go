package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"newsletter-agent/config"
	"newsletter-agent/llm/agent"
	"newsletter-agent/llm/tools"
	"newsletter-agent/logging"
	"newsletter-agent/pubsub"
)

// stageKeys maps the agents the LLM coordinator may call to their output keys.
var stageKeys = map[string]string{
	agent.DataCollectionAgentName: agent.KeyInternalInsights,
	agent.TrendFindingAgentName:   agent.KeyExternalTrends,
	agent.ContentWritingAgentName: agent.KeyTextContent,
	agent.VisualDesignAgentName:   agent.KeyFinalDesign,
}

// AgentCoordinator runs the LLM-driven coordinator agent. The model checks
// the content file itself; the same output checks as pipeline mode are
// applied afterwards. Copy approval is not available in this mode.
type AgentCoordinator struct {
	Agent     adk.Agent
	Workspace *tools.Workspace

	Broker     *Broker
	Logger     *zap.Logger
	Transcript *agent.Transcript

	OnAgentEvent func(*adk.AgentEvent)
}

type agentTrack struct {
	first, last time.Time
	output      string
}

// Run sends the newsletter request to the coordinator agent.
func (c *AgentCoordinator) Run(ctx context.Context) (*Report, error) {
	if c.Agent == nil {
		return nil, fmt.Errorf("agent coordinator has no agent")
	}
	log := logging.OrNop(c.Logger)

	run := newRun(uuid.NewString(), c.Broker, c.Transcript)
	log = log.With(zap.String("run_id", run.ID))

	report := &Report{
		RunID:          run.ID,
		Mode:           config.ModeAgent,
		ContentExisted: Gate{ContentPath: c.Workspace.ContentPath}.Check().ContentExists,
		Started:        time.Now(),
	}
	log.Info("newsletter run started", zap.String("mode", config.ModeAgent))
	run.pub.publish(pubsub.StartedEvent, Event{Text: agent.CoordinatorAgentName})

	contentBefore := stampFile(c.Workspace.ContentPath)
	htmlBefore := stampFile(c.Workspace.HTMLPath)
	tracks, order, err := c.drive(ctx, run, log)
	for _, name := range order {
		t := tracks[name]
		report.Stages = append(report.Stages, StageResult{
			Name:        name,
			OutputKey:   stageKeys[name],
			Duration:    t.last.Sub(t.first),
			OutputBytes: len(t.output),
		})
		run.Set(stageKeys[name], t.output)
	}

	if err == nil {
		err = c.checkOutputs(run, tracks, report, contentBefore, htmlBefore, log)
	}

	report.Duration = time.Since(report.Started)
	if artifacts, lerr := ListArtifacts(c.Workspace.OutputDir); lerr == nil {
		report.Artifacts = artifacts
	}

	if err != nil {
		log.Error("newsletter run failed", zap.Error(err))
		run.pub.publish(pubsub.FailedEvent, Event{Err: err.Error(), Duration: report.Duration})
		return report, err
	}
	log.Info("newsletter run finished", zap.Duration("duration", report.Duration))
	run.pub.publish(pubsub.FinishedEvent, Event{Duration: report.Duration})
	return report, nil
}

func (c *AgentCoordinator) drive(ctx context.Context, run *Run, log *zap.Logger) (map[string]*agentTrack, []string, error) {
	runner := adk.NewRunner(ctx, adk.RunnerConfig{
		Agent:           c.Agent,
		EnableStreaming: false,
	})

	tracks := make(map[string]*agentTrack)
	var order []string

	iter := runner.Query(ctx, agent.RunRequest)
	for {
		event, ok := iter.Next()
		if !ok {
			break
		}
		if c.OnAgentEvent != nil {
			c.OnAgentEvent(event)
		}
		if event.Err != nil {
			return tracks, order, fmt.Errorf("%s: %w", agent.CoordinatorAgentName, event.Err)
		}
		if event.Action != nil && event.Action.Interrupted != nil {
			return tracks, order, fmt.Errorf("%s: agent interrupted, which agent mode cannot resume", agent.CoordinatorAgentName)
		}
		if event.Output == nil || event.Output.MessageOutput == nil {
			continue
		}
		msg, err := event.Output.MessageOutput.GetMessage()
		if err != nil {
			return tracks, order, fmt.Errorf("failed to read agent message: %w", err)
		}

		name := event.AgentName
		if name == "" {
			name = agent.CoordinatorAgentName
		}
		run.Message(ctx, name, name, msg)

		if _, known := stageKeys[name]; !known {
			continue
		}
		t, seen := tracks[name]
		if !seen {
			t = &agentTrack{first: time.Now()}
			tracks[name] = t
			order = append(order, name)
			log.Info("stage started", zap.String("stage", name))
			run.pub.publish(pubsub.StartedEvent, Event{Stage: name})
		}
		t.last = time.Now()
		if msg.Role == schema.Assistant && len(msg.ToolCalls) == 0 && strings.TrimSpace(msg.Content) != "" {
			t.output = msg.Content
		}
	}

	for _, name := range order {
		t := tracks[name]
		run.pub.publish(pubsub.FinishedEvent, Event{Stage: name, Duration: t.last.Sub(t.first), Text: preview(t.output)})
	}
	return tracks, order, ctx.Err()
}

func (c *AgentCoordinator) checkOutputs(run *Run, tracks map[string]*agentTrack, report *Report, contentBefore, htmlBefore fileStamp, log *zap.Logger) error {
	helper := &Coordinator{Workspace: c.Workspace, Logger: c.Logger}

	if _, wrote := tracks[agent.ContentWritingAgentName]; wrote {
		saved, err := helper.ensureContent(run, contentBefore, log)
		if err != nil {
			return err
		}
		report.ContentSaved = saved
	}

	extracted, err := helper.ensureHTML(run, htmlBefore, log)
	if err != nil {
		return err
	}
	report.HTMLExtracted = extracted

	helper.Transcript = c.Transcript
	helper.writeTranscript(log)
	return nil
}
