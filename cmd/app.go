package cmd

import (
	"context"
	"os"
	"time"

	clc "github.com/cloudwego/eino-ext/callbacks/cozeloop"
	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/coze-dev/cozeloop-go"
	"go.uber.org/zap"

	"newsletter-agent/config"
	"newsletter-agent/llm/agent"
	"newsletter-agent/llm/mcptools"
	"newsletter-agent/llm/providers"
	"newsletter-agent/llm/tools"
	"newsletter-agent/pipeline"
	"newsletter-agent/store"
)

// app holds everything a run needs. close releases subprocesses and
// connections in reverse order of creation.
type app struct {
	workspace   *tools.Workspace
	agentConfig *agent.Config
	checkPoints compose.CheckPointStore
	broker      *pipeline.Broker
	transcript  *agent.Transcript

	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApp wires the workspace, MCP servers and checkpoint store. The chat
// model is only created when withModel is set.
func newApp(ctx context.Context, withModel bool) (*app, error) {
	a := &app{
		workspace: tools.NewWorkspace(&cfg),
		broker:    pipeline.NewBroker(),
	}
	a.closers = append(a.closers, a.broker.Shutdown)

	a.agentConfig = &agent.Config{
		Workspace:        a.workspace,
		Searcher:         tools.NewSearcher(),
		Fetcher:          tools.NewFetcher(),
		Topic:            cfg.Pipeline.Topic,
		ParallelResearch: cfg.Pipeline.ParallelResearch,
		MaxIterations:    cfg.Pipeline.MaxIterations,
		ApproveCopy:      cfg.Pipeline.ApproveCopy && cfg.Pipeline.Mode == config.ModePipeline,
	}

	if withModel {
		a.closers = append(a.closers, setupTracing())

		cm, err := providers.New(ctx, &cfg, logger)
		if err != nil {
			a.close()
			return nil, err
		}
		a.agentConfig.ChatModel = cm

		checkPoints, closeStore := store.NewCheckPointStore(ctx, cfg.Checkpoint, logger)
		a.checkPoints = checkPoints
		a.closers = append(a.closers, func() { _ = closeStore() })
	}

	if cfg.Pipeline.Transcript {
		a.transcript = agent.NewTranscript()
	}

	a.agentConfig.PDFTools = a.connectMCP(ctx, "pdf_reader", cfg.PDFReader.Enabled, mcptools.FromConfig("pdf_reader", cfg.PDFReader))
	a.agentConfig.ImageTools = a.connectMCP(ctx, "image_gen", cfg.ImageGen.Enabled, mcptools.FromConfig("image_gen", cfg.ImageGen))

	return a, nil
}

// connectMCP starts an MCP server. A server that fails to start is logged
// and skipped; the agents keep their local tools.
func (a *app) connectMCP(ctx context.Context, name string, enabled bool, sc mcptools.ServerConfig) []tool.BaseTool {
	if !enabled {
		return nil
	}
	ts, err := mcptools.Connect(ctx, sc, logger)
	if err != nil {
		logger.Warn("MCP server unavailable, continuing without it",
			zap.String("server", name), zap.Error(err))
		return nil
	}
	a.closers = append(a.closers, func() {
		if err := ts.Close(); err != nil {
			logger.Debug("failed to close MCP server", zap.String("server", name), zap.Error(err))
		}
	})
	return ts.Tools()
}

// setupTracing registers the CozeLoop callback handler when credentials are
// present. The returned function flushes and closes the client.
func setupTracing() func() {
	token := os.Getenv("COZE_LOOP_API_TOKEN")
	workspaceID := os.Getenv("COZELOOP_WORKSPACE_ID")
	if token == "" || workspaceID == "" {
		return func() {}
	}

	client, err := cozeloop.NewClient(
		cozeloop.WithAPIToken(token),
		cozeloop.WithWorkspaceID(workspaceID),
	)
	if err != nil {
		logger.Warn("cozeloop tracing disabled", zap.Error(err))
		return func() {}
	}
	callbacks.AppendGlobalHandlers(clc.NewLoopHandler(client))
	logger.Info("cozeloop tracing enabled", zap.String("workspace", workspaceID))

	return func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client.Close(closeCtx)
	}
}
