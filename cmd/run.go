package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cloudwego/eino-examples/adk/common/prints"
	"github.com/cloudwego/eino/adk"
	"github.com/spf13/cobra"

	"newsletter-agent/config"
	"newsletter-agent/llm/agent"
	"newsletter-agent/pipeline"
	"newsletter-agent/store"
	"newsletter-agent/tui/progress"
)

var (
	forceRun     bool
	useTUI       bool
	debug        bool
	resumeRunID  string
	rejectReason string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate the newsletter",
	Long: `Run the newsletter workflow.

Without a content file the research, writing and design stages all run. With
an existing content file only the design stage runs; pass --force to redo
everything.

With --approve the writer stops before saving the content file and the draft
is shown for approval. A run left waiting is continued with --resume, which
approves the draft unless --reject gives a reason to revise it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runNewsletter(ctx)
	},
}

func init() {
	runCmd.Flags().BoolVarP(&forceRun, "force", "f", false, "Run every stage even when the content file exists")
	runCmd.Flags().String("mode", config.ModePipeline, "Coordinator: pipeline (gate in code) or agent (LLM coordinator)")
	runCmd.Flags().Bool("parallel", false, "Run data collection and trend finding concurrently")
	runCmd.Flags().String("topic", "", "Industry the trend research and copy focus on")
	runCmd.Flags().BoolVar(&useTUI, "tui", false, "Show a live progress view")
	runCmd.Flags().BoolVar(&debug, "debug", false, "Print every agent event")
	runCmd.Flags().Bool("approve", false, "Ask for approval before the writer saves the content file")
	runCmd.Flags().StringVar(&resumeRunID, "resume", "", "Continue a run that is waiting for copy approval")
	runCmd.Flags().StringVar(&rejectReason, "reject", "", "With --resume, reject the draft and ask the writer for these changes")
}

func runNewsletter(ctx context.Context) error {
	if resumeRunID != "" {
		cfg.Pipeline.ApproveCopy = true
	}
	if rejectReason != "" && resumeRunID == "" {
		return fmt.Errorf("--reject needs --resume")
	}

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.close()

	runFn, stageNames, err := buildRunner(ctx, a)
	if err != nil {
		return err
	}

	var report *pipeline.Report
	if useTUI {
		model := progress.New(ctx, a.broker, runFn, a.workspace.ContentPath, stageNames...)
		final, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
		if err != nil {
			return fmt.Errorf("progress view failed: %w", err)
		}
		m := final.(progress.Model)
		if !m.Done() {
			return context.Canceled
		}
		report, err = m.Report(), m.Err()
		if report != nil {
			fmt.Println(report)
		}
		return err
	}

	report, err = runFn(ctx)
	if report != nil {
		fmt.Println(report)
	}
	if errors.Is(err, pipeline.ErrAwaitingApproval) && !durableCheckPoints(a) {
		logger.Warn("checkpoints are kept in memory, so this run cannot be resumed after exit; set checkpoint.redis_addr to keep it")
	}
	return err
}

func durableCheckPoints(a *app) bool {
	_, ok := a.checkPoints.(*store.RedisStore)
	return ok
}

// buildRunner returns the run function of the configured coordinator and
// the stage names it is expected to report.
func buildRunner(ctx context.Context, a *app) (progress.RunFunc, []string, error) {
	var onEvent func(*adk.AgentEvent)
	if debug {
		onEvent = prints.Event
	}

	switch cfg.Pipeline.Mode {
	case config.ModePipeline:
		coord, err := newCoordinator(ctx, a)
		if err != nil {
			return nil, nil, err
		}
		coord.Force = forceRun
		coord.OnAgentEvent = onEvent
		if !useTUI {
			coord.Approver = promptApprover(os.Stdin, os.Stdout)
		}
		if resumeRunID != "" {
			approval := pipeline.Approval{Approved: rejectReason == "", Reason: rejectReason}
			return func(ctx context.Context) (*pipeline.Report, error) {
				return coord.Resume(ctx, resumeRunID, approval)
			}, []string{coord.Writing.Name(), coord.Design.Name()}, nil
		}
		return coord.Run, stageNames(coord), nil

	case config.ModeAgent:
		if forceRun {
			logger.Warn("--force has no effect in agent mode: the coordinator agent checks the content file itself")
		}
		if resumeRunID != "" {
			return nil, nil, fmt.Errorf("--resume is only available in pipeline mode")
		}
		if cfg.Pipeline.ApproveCopy {
			logger.Warn("copy approval is only available in pipeline mode, continuing without it")
		}
		coordinator, err := agent.NewCoordinatorAgent(ctx, a.agentConfig)
		if err != nil {
			return nil, nil, err
		}
		ac := &pipeline.AgentCoordinator{
			Agent:        coordinator,
			Workspace:    a.workspace,
			Broker:       a.broker,
			Logger:       logger,
			Transcript:   a.transcript,
			OnAgentEvent: onEvent,
		}
		return ac.Run, nil, nil
	}
	return nil, nil, fmt.Errorf("%w: %q", pipeline.ErrUnknownMode, cfg.Pipeline.Mode)
}

func newCoordinator(ctx context.Context, a *app) (*pipeline.Coordinator, error) {
	research, writing, design, err := pipeline.Stages(ctx, a.agentConfig, a.checkPoints)
	if err != nil {
		return nil, err
	}
	return &pipeline.Coordinator{
		Workspace:   a.workspace,
		Research:    research,
		Writing:     writing,
		Design:      design,
		Broker:      a.broker,
		Logger:      logger,
		Transcript:  a.transcript,
		CheckPoints: a.checkPoints,
	}, nil
}

func stageNames(c *pipeline.Coordinator) []string {
	names := make([]string, 0, len(c.Research.Stages)+2)
	for _, s := range c.Research.Stages {
		names = append(names, s.Name())
	}
	return append(names, c.Writing.Name(), c.Design.Name())
}
