package agent

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	commontool "github.com/cloudwego/eino-examples/adk/common/tool"
	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"

	"newsletter-agent/llm/tools"
)

// Agent names as they appear in events and transcripts.
const (
	DataCollectionAgentName = "DataCollectionAgent"
	TrendFindingAgentName   = "TrendFindingAgent"
	SequentialResearchName  = "SequentialResearchTeam"
	ParallelResearchName    = "ParallelResearchTeam"
	ContentWritingAgentName = "ContentWritingAgent"
	VisualDesignAgentName   = "VisualDesignAgent"
	CoordinatorAgentName    = "marketing_coordinator"
)

const (
	defaultMaxIterations = 50
	defaultTopic         = "ECAD libraries, PCB layout, and PCB design"
)

// Config holds the dependencies shared by every newsletter agent.
type Config struct {
	ChatModel model.ToolCallingChatModel
	Workspace *tools.Workspace
	Searcher  *tools.Searcher
	Fetcher   *tools.Fetcher

	// PDFTools come from the PDF reader MCP server and may be empty.
	PDFTools []tool.BaseTool
	// ImageTools come from the optional image generation MCP server.
	ImageTools []tool.BaseTool

	Topic            string
	ParallelResearch bool
	MaxIterations    int
	// ApproveCopy puts write_file of the writer behind a reviewer approval.
	// The run interrupts on every call and continues on resume.
	ApproveCopy bool
}

func (c *Config) validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.ChatModel == nil {
		return errors.New("chat model is required")
	}
	if c.Workspace == nil {
		return errors.New("workspace is required")
	}
	if c.Topic == "" {
		c.Topic = defaultTopic
	}
	if c.Searcher == nil {
		c.Searcher = tools.NewSearcher()
	}
	if c.Fetcher == nil {
		c.Fetcher = tools.NewFetcher()
	}
	return nil
}

// Paths returns the workspace-relative paths used in the prompts.
func (c *Config) Paths() PromptPaths {
	w := c.Workspace
	rel := func(p string) string {
		r := w.Rel(p)
		if filepath.IsAbs(r) {
			return r
		}
		return "./" + filepath.ToSlash(r)
	}
	return PromptPaths{
		ProductData:  rel(w.ProductDataDir),
		StyleSamples: rel(w.StyleSamplesDir),
		ContentFile:  rel(w.ContentPath),
		HTMLFile:     rel(w.HTMLPath),
		ImagesDir:    rel(w.ImagesDir),
	}
}

// DataCollectionTools are the tools of the data collection agent.
func DataCollectionTools(c *Config) []tool.BaseTool {
	list := []tool.BaseTool{
		c.Workspace.GetListProductDocsTool(),
		c.Workspace.GetReadProductDocTool(),
	}
	return append(list, c.PDFTools...)
}

// TrendFindingTools are the tools of the trend finding agent.
func TrendFindingTools(c *Config) []tool.BaseTool {
	return []tool.BaseTool{c.Searcher.Tool(), c.Fetcher.Tool()}
}

// ContentWritingTools are the tools of the content writing agent.
func ContentWritingTools(c *Config) []tool.BaseTool {
	write := c.Workspace.GetWriteFileTool()
	if c.ApproveCopy {
		return []tool.BaseTool{&commontool.InvokableApprovableTool{InvokableTool: write}}
	}
	return []tool.BaseTool{write}
}

// VisualDesignTools are the tools of the visual design agent.
func VisualDesignTools(c *Config) []tool.BaseTool {
	list := []tool.BaseTool{
		c.Searcher.Tool(),
		c.Fetcher.Tool(),
		c.Workspace.GetReadHTMLTool(),
		c.Workspace.GetListHTMLTool(),
		c.Workspace.GetReadContentTool(),
		c.Workspace.GetWriteFileTool(),
	}
	return append(list, c.ImageTools...)
}

type agentSpec struct {
	name        string
	description string
	instruction string
	outputKey   string
	tools       []tool.BaseTool
}

func newChatAgent(ctx context.Context, c *Config, spec agentSpec) (adk.Agent, error) {
	maxIter := c.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}

	cfg := &adk.ChatModelAgentConfig{
		Name:          spec.name,
		Description:   spec.description,
		Instruction:   spec.instruction,
		Model:         c.ChatModel,
		OutputKey:     spec.outputKey,
		MaxIterations: maxIter,
	}
	if len(spec.tools) > 0 {
		cfg.ToolsConfig = adk.ToolsConfig{
			ToolsNodeConfig: compose.ToolsNodeConfig{
				Tools:               spec.tools,
				ToolCallMiddlewares: []compose.ToolMiddleware{tools.ErrorHandler()},
			},
			EmitInternalEvents: true,
		}
	}

	a, err := adk.NewChatModelAgent(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", spec.name, err)
	}
	return a, nil
}

// NewDataCollectionAgent creates the agent that summarises the product material.
func NewDataCollectionAgent(ctx context.Context, c *Config) (adk.Agent, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	return newChatAgent(ctx, c, agentSpec{
		name:        DataCollectionAgentName,
		description: "Extracts the key selling points and their evidence from the internal product documents.",
		instruction: dataCollectionPrompt(c.Paths(), len(c.PDFTools) > 0),
		outputKey:   KeyInternalInsights,
		tools:       DataCollectionTools(c),
	})
}

// NewTrendFindingAgent creates the agent that researches industry trends.
func NewTrendFindingAgent(ctx context.Context, c *Config) (adk.Agent, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	return newChatAgent(ctx, c, agentSpec{
		name:        TrendFindingAgentName,
		description: "Searches the web for the three latest industry developments.",
		instruction: trendFindingPrompt(c.Topic),
		outputKey:   KeyExternalTrends,
		tools:       TrendFindingTools(c),
	})
}

// NewResearchTeam runs data collection and trend finding, one after the
// other or concurrently when ParallelResearch is set.
func NewResearchTeam(ctx context.Context, c *Config) (adk.Agent, error) {
	dataAgent, err := NewDataCollectionAgent(ctx, c)
	if err != nil {
		return nil, err
	}
	trendAgent, err := NewTrendFindingAgent(ctx, c)
	if err != nil {
		return nil, err
	}

	subAgents := []adk.Agent{dataAgent, trendAgent}
	if c.ParallelResearch {
		return adk.NewParallelAgent(ctx, &adk.ParallelAgentConfig{
			Name:        ParallelResearchName,
			Description: "Collects internal product insights and external trends concurrently.",
			SubAgents:   subAgents,
		})
	}
	return adk.NewSequentialAgent(ctx, &adk.SequentialAgentConfig{
		Name:        SequentialResearchName,
		Description: "Collects internal product insights, then external trends.",
		SubAgents:   subAgents,
	})
}

// NewContentWritingAgent creates the copywriter agent.
func NewContentWritingAgent(ctx context.Context, c *Config) (adk.Agent, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	return newChatAgent(ctx, c, agentSpec{
		name:        ContentWritingAgentName,
		description: "Writes the newsletter copy from the research notes and saves it to the content file.",
		instruction: contentWritingPrompt(c.Paths(), c.Topic, c.ApproveCopy),
		outputKey:   KeyTextContent,
		tools:       ContentWritingTools(c),
	})
}

// NewVisualDesignAgent creates the HTML designer agent.
func NewVisualDesignAgent(ctx context.Context, c *Config) (adk.Agent, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	return newChatAgent(ctx, c, agentSpec{
		name:        VisualDesignAgentName,
		description: "Turns the newsletter copy into a styled HTML email and saves it.",
		instruction: visualDesignPrompt(c.Paths(), len(c.ImageTools) > 0),
		outputKey:   KeyFinalDesign,
		tools:       VisualDesignTools(c),
	})
}

// NewCoordinatorAgent creates the LLM-driven coordinator that checks the
// content file and calls the other agents as tools.
func NewCoordinatorAgent(ctx context.Context, c *Config) (adk.Agent, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	team, err := NewResearchTeam(ctx, c)
	if err != nil {
		return nil, err
	}
	writer, err := NewContentWritingAgent(ctx, c)
	if err != nil {
		return nil, err
	}
	designer, err := NewVisualDesignAgent(ctx, c)
	if err != nil {
		return nil, err
	}

	return newChatAgent(ctx, c, agentSpec{
		name:        CoordinatorAgentName,
		description: "Decides which newsletter stages to run and runs them.",
		instruction: coordinatorPrompt(c.Paths(), team.Name(ctx)),
		tools: []tool.BaseTool{
			c.Workspace.GetCheckContentTool(),
			adk.NewAgentTool(ctx, team),
			adk.NewAgentTool(ctx, writer),
			adk.NewAgentTool(ctx, designer),
		},
	})
}
