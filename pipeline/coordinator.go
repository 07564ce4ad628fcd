package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"newsletter-agent/config"
	"newsletter-agent/llm/agent"
	"newsletter-agent/llm/tools"
	"newsletter-agent/logging"
	"newsletter-agent/pubsub"
)

// TranscriptFile is written to the output directory when a transcript is kept.
const TranscriptFile = "transcript.md"

// Coordinator runs the newsletter stages in code. The gate decides between
// a full run and a design-only run.
type Coordinator struct {
	Workspace *tools.Workspace
	Research  Step
	Writing   Stage
	Design    Stage

	Broker     *Broker
	Logger     *zap.Logger
	Transcript *agent.Transcript

	// CheckPoints keeps runs that stopped for copy approval. Resume needs
	// the same store.
	CheckPoints compose.CheckPointStore
	// Approver answers copy approval requests in process. Without one a
	// run that needs approval is saved and ends with ErrAwaitingApproval.
	Approver Approver

	// Force runs every stage even when the content file exists.
	Force bool
	// OnAgentEvent sees every raw agent event, for debug printing.
	OnAgentEvent func(*adk.AgentEvent)
}

func (c *Coordinator) logger() *zap.Logger {
	return logging.OrNop(c.Logger)
}

// Gate returns the gate over the configured content file.
func (c *Coordinator) Gate() Gate {
	return Gate{ContentPath: c.Workspace.ContentPath}
}

// Run checks the gate and runs the scheduled stages.
func (c *Coordinator) Run(ctx context.Context) (*Report, error) {
	decision := fullRun()
	if !c.Force {
		decision = c.Gate().Check()
	}
	return c.run(ctx, decision)
}

// RunDesign runs only the design stage on the existing content file.
func (c *Coordinator) RunDesign(ctx context.Context) (*Report, error) {
	return c.run(ctx, designOnly())
}

func (c *Coordinator) newRun(id string) *Run {
	run := newRun(id, c.Broker, c.Transcript)
	run.onEvent = c.OnAgentEvent
	return run
}

func (c *Coordinator) run(ctx context.Context, decision Decision) (*Report, error) {
	run := c.newRun(uuid.NewString())
	report := &Report{
		RunID:          run.ID,
		Mode:           config.ModePipeline,
		ContentExisted: decision.ContentExists,
		Started:        time.Now(),
	}
	log := c.logger().With(zap.String("run_id", run.ID))
	log.Info("newsletter run started",
		zap.Strings("run", decision.Run),
		zap.Strings("skip", decision.Skip))
	run.pub.publish(pubsub.StartedEvent, Event{Text: strings.Join(decision.Run, ", ")})

	err := c.execute(ctx, run, decision, report, log)
	return c.finish(run, report, err, log)
}

// Resume continues a run that stopped for copy approval: the writer gets
// the answer, then the design stage runs as usual.
func (c *Coordinator) Resume(ctx context.Context, runID string, approval Approval) (*Report, error) {
	if c.CheckPoints == nil {
		return nil, fmt.Errorf("cannot resume run %s without a checkpoint store", runID)
	}
	p, err := loadPending(ctx, c.CheckPoints, runID)
	if err != nil {
		return nil, err
	}

	run := c.newRun(runID)
	run.restore(p.State)
	report := &Report{
		RunID:          run.ID,
		Mode:           config.ModePipeline,
		ContentExisted: p.ContentExisted,
		Resumed:        true,
		Started:        time.Now(),
	}
	log := c.logger().With(zap.String("run_id", run.ID))
	log.Info("newsletter run resumed", zap.String("stage", p.Request.Stage), zap.Bool("approved", approval.Approved))
	run.pub.publish(pubsub.StartedEvent, Event{Text: p.Request.Stage})

	res, err := c.resumeStage(ctx, run, c.Writing, p.Request, approval)
	err = c.settleWriting(ctx, run, report, res, err, p.Content, log)
	if err == nil {
		if cerr := clearPending(ctx, c.CheckPoints, runID); cerr != nil {
			log.Warn("failed to clear pending run", zap.Error(cerr))
		}
		err = c.design(ctx, run, report, log)
	}
	return c.finish(run, report, err, log)
}

func (c *Coordinator) finish(run *Run, report *Report, err error, log *zap.Logger) (*Report, error) {
	report.Duration = time.Since(report.Started)
	if artifacts, lerr := ListArtifacts(c.Workspace.OutputDir); lerr == nil {
		report.Artifacts = artifacts
	} else {
		log.Warn("failed to list artifacts", zap.Error(lerr))
	}

	if report.Pending != nil && errors.Is(err, ErrAwaitingApproval) {
		log.Info("newsletter run waiting for approval",
			zap.String("stage", report.Pending.Stage),
			zap.String("path", report.Pending.Path))
		run.pub.publish(pubsub.InterruptedEvent, Event{Text: report.Pending.Path, Duration: report.Duration})
		return report, err
	}
	if err != nil {
		log.Error("newsletter run failed", zap.Error(err), zap.Duration("duration", report.Duration))
		run.pub.publish(pubsub.FailedEvent, Event{Err: err.Error(), Duration: report.Duration})
		return report, err
	}
	log.Info("newsletter run finished", zap.Duration("duration", report.Duration))
	run.pub.publish(pubsub.FinishedEvent, Event{Duration: report.Duration})
	return report, nil
}

func (c *Coordinator) execute(ctx context.Context, run *Run, decision Decision, report *Report, log *zap.Logger) error {
	if !decision.Runs(PhaseResearch) {
		for _, s := range c.Research.Stages {
			report.Stages = append(report.Stages, c.skip(run, s))
		}
	} else {
		results, err := c.runStep(ctx, run, c.Research)
		report.Stages = append(report.Stages, results...)
		if err != nil {
			return err
		}
	}

	if !decision.Runs(PhaseWriting) {
		report.Stages = append(report.Stages, c.skip(run, c.Writing))

		existing := c.Workspace.ReadContent()
		if !existing.Success {
			return fmt.Errorf("failed to read content file %s: %s", existing.FilePath, existing.Error)
		}
		run.Set(agent.KeyTextContent, existing.Content)
	} else {
		before := stampFile(c.Workspace.ContentPath)
		res, runErr := c.runStage(ctx, run, c.Writing)
		if err := c.settleWriting(ctx, run, report, res, runErr, before, log); err != nil {
			return err
		}
	}

	return c.design(ctx, run, report, log)
}

// settleWriting answers every approval the writer asks for, then checks
// that the copy ended up in the content file. before is the content file as
// it was when the writer started.
func (c *Coordinator) settleWriting(ctx context.Context, run *Run, report *Report, res StageResult, err error, before fileStamp, log *zap.Logger) error {
	for {
		ie, ok := isInterrupt(err)
		if !ok {
			break
		}
		approval, aerr := c.approve(ctx, ie.Request)
		if errors.Is(aerr, ErrNoDecision) {
			report.Stages = append(report.Stages, res)
			return c.park(ctx, run, report, ie.Request, before)
		}
		if aerr != nil {
			report.Stages = append(report.Stages, res)
			return fmt.Errorf("approval of %s failed: %w", ie.Request.Stage, aerr)
		}
		log.Info("copy approval answered", zap.Bool("approved", approval.Approved))
		res, err = c.resumeStage(ctx, run, c.Writing, ie.Request, approval)
	}

	report.Stages = append(report.Stages, res)
	if err != nil {
		return err
	}
	saved, err := c.ensureContent(run, before, log)
	if err != nil {
		return err
	}
	report.ContentSaved = saved
	return nil
}

func (c *Coordinator) approve(ctx context.Context, req ApprovalRequest) (Approval, error) {
	if c.Approver == nil {
		return Approval{}, ErrNoDecision
	}
	return c.Approver(ctx, req)
}

// park saves a run waiting for approval so that Resume can pick it up.
func (c *Coordinator) park(ctx context.Context, run *Run, report *Report, req ApprovalRequest, before fileStamp) error {
	if c.CheckPoints == nil {
		return fmt.Errorf("%s needs approval but no checkpoint store is configured", req.Stage)
	}
	err := savePending(ctx, c.CheckPoints, pendingRun{
		Request:        req,
		State:          run.snapshot(),
		Content:        before,
		ContentExisted: report.ContentExisted,
	})
	if err != nil {
		return err
	}
	report.Pending = &req
	return fmt.Errorf("%w: %s", ErrAwaitingApproval, req.Stage)
}

func (c *Coordinator) design(ctx context.Context, run *Run, report *Report, log *zap.Logger) error {
	before := stampFile(c.Workspace.HTMLPath)
	res, err := c.runStage(ctx, run, c.Design)
	report.Stages = append(report.Stages, res)
	if err != nil {
		return err
	}
	extracted, err := c.ensureHTML(run, before, log)
	if err != nil {
		return err
	}
	report.HTMLExtracted = extracted

	c.writeTranscript(log)
	return nil
}

func (c *Coordinator) skip(run *Run, s Stage) StageResult {
	run.pub.publish(pubsub.SkippedEvent, Event{Stage: s.Name()})
	return StageResult{Name: s.Name(), OutputKey: s.OutputKey(), Skipped: true}
}

func (c *Coordinator) runStep(ctx context.Context, run *Run, step Step) ([]StageResult, error) {
	results := make([]StageResult, len(step.Stages))

	if !step.Parallel {
		for i, s := range step.Stages {
			res, err := c.runStage(ctx, run, s)
			results[i] = res
			if err != nil {
				return results[:i+1], err
			}
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range step.Stages {
		g.Go(func() error {
			res, err := c.runStage(gctx, run, s)
			results[i] = res
			return err
		})
	}
	err := g.Wait()
	return results, err
}

func (c *Coordinator) runStage(ctx context.Context, run *Run, s Stage) (StageResult, error) {
	return c.timeStage(run, s, func() (string, error) { return s.Run(ctx, run) })
}

func (c *Coordinator) resumeStage(ctx context.Context, run *Run, s Stage, req ApprovalRequest, approval Approval) (StageResult, error) {
	r, ok := s.(Resumer)
	if !ok {
		return StageResult{Name: s.Name(), OutputKey: s.OutputKey()}, fmt.Errorf("stage %s cannot be resumed", s.Name())
	}
	return c.timeStage(run, s, func() (string, error) { return r.Resume(ctx, run, req, approval) })
}

func (c *Coordinator) timeStage(run *Run, s Stage, call func() (string, error)) (StageResult, error) {
	log := c.logger().With(zap.String("run_id", run.ID), zap.String("stage", s.Name()))
	log.Info("stage started")
	run.pub.publish(pubsub.StartedEvent, Event{Stage: s.Name()})

	start := time.Now()
	out, err := call()
	res := StageResult{
		Name:        s.Name(),
		OutputKey:   s.OutputKey(),
		Duration:    time.Since(start),
		OutputBytes: len(out),
	}

	if ie, ok := isInterrupt(err); ok {
		res.Waiting = true
		log.Info("stage waiting for approval", zap.String("path", ie.Request.Path))
		run.pub.publish(pubsub.InterruptedEvent, Event{Stage: s.Name(), Text: ie.Request.Path, Duration: res.Duration})
		return res, err
	}
	if err != nil {
		res.Err = err.Error()
		log.Error("stage failed", zap.Error(err), zap.Duration("duration", res.Duration))
		run.pub.publish(pubsub.FailedEvent, Event{Stage: s.Name(), Err: res.Err, Duration: res.Duration})
		return res, fmt.Errorf("stage %s: %w", s.Name(), err)
	}

	run.Set(s.OutputKey(), out)
	log.Info("stage finished", zap.Duration("duration", res.Duration), zap.Int("bytes", res.OutputBytes))
	run.pub.publish(pubsub.FinishedEvent, Event{Stage: s.Name(), Duration: res.Duration, Text: preview(out)})
	return res, nil
}

// ensureContent makes the content file hold this run's copy. A file the
// writer wrote during the stage wins and becomes text_content; otherwise
// the writer's reply is saved, replacing any copy from an earlier run. It
// reports whether the coordinator had to save it.
func (c *Coordinator) ensureContent(run *Run, before fileStamp, log *zap.Logger) (bool, error) {
	if before.writtenSince(c.Workspace.ContentPath) {
		saved := c.Workspace.ReadContent()
		if !saved.Success {
			return false, fmt.Errorf("failed to read content file %s: %s", saved.FilePath, saved.Error)
		}
		if strings.TrimSpace(saved.Content) == "" {
			return false, ErrEmptyOutput
		}
		run.Set(agent.KeyTextContent, saved.Content)
		return false, nil
	}

	text := run.Get(agent.KeyTextContent)
	if strings.TrimSpace(text) == "" {
		return false, ErrEmptyOutput
	}
	res := c.Workspace.WriteFile(c.Workspace.ContentPath, text)
	if !res.Success {
		return false, fmt.Errorf("failed to save content file: %s", res.Error)
	}
	log.Warn("writer did not save the content file, saved by coordinator",
		zap.String("path", res.FilePath), zap.Bool("replaced", before.Exists))
	return true, nil
}

// ensureHTML saves the HTML from the designer reply unless the designer
// wrote the HTML file during the stage. A file left by an earlier run does
// not count. It reports whether it had to.
func (c *Coordinator) ensureHTML(run *Run, before fileStamp, log *zap.Logger) (bool, error) {
	if before.writtenSince(c.Workspace.HTMLPath) {
		return false, nil
	}

	doc, ok := ExtractHTML(run.Get(agent.KeyFinalDesign))
	if !ok {
		return false, ErrNoHTML
	}
	res := c.Workspace.WriteFile(c.Workspace.HTMLPath, doc)
	if !res.Success {
		return false, fmt.Errorf("failed to save HTML file: %s", res.Error)
	}
	log.Warn("designer did not save the HTML file, saved from reply",
		zap.String("path", res.FilePath), zap.Bool("replaced", before.Exists))
	return true, nil
}

func (c *Coordinator) writeTranscript(log *zap.Logger) {
	if c.Transcript == nil {
		return
	}
	path := filepath.Join(c.Workspace.OutputDir, TranscriptFile)
	if res := c.Workspace.WriteFile(path, c.Transcript.Markdown()); !res.Success {
		log.Warn("failed to write transcript", zap.String("error", res.Error))
	}
}

func preview(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	const limit = 80
	if utf8.RuneCountInString(s) > limit {
		return string([]rune(s)[:limit]) + "..."
	}
	return s
}

// IsPostConditionError reports whether err comes from a stage output check
// rather than from a stage itself.
func IsPostConditionError(err error) bool {
	return errors.Is(err, ErrEmptyOutput) || errors.Is(err, ErrNoHTML)
}
