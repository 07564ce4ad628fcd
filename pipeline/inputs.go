package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"

	"newsletter-agent/llm/agent"
)

func dataCollectionInput(productDir string) InputFunc {
	return func(*Run) string {
		return fmt.Sprintf("Read every product document under %s and report the key selling points with their evidence.", productDir)
	}
}

func trendFindingInput(topic string) InputFunc {
	return func(*Run) string {
		return fmt.Sprintf("Find the three latest developments in %s and write the trend report.", topic)
	}
}

func contentWritingInput(contentFile string) InputFunc {
	return func(run *Run) string {
		var sb strings.Builder
		sb.WriteString("Write the newsletter copy from these research notes and save it to ")
		sb.WriteString(contentFile)
		sb.WriteString(".\n")
		writeSection(&sb, agent.KeyInternalInsights, run.Get(agent.KeyInternalInsights))
		writeSection(&sb, agent.KeyExternalTrends, run.Get(agent.KeyExternalTrends))
		return sb.String()
	}
}

func visualDesignInput(contentFile, htmlFile string) InputFunc {
	return func(run *Run) string {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Design the HTML newsletter for the copy below (also saved in %s) and save it to %s.\n",
			contentFile, htmlFile))
		writeSection(&sb, agent.KeyTextContent, run.Get(agent.KeyTextContent))
		return sb.String()
	}
}

func writeSection(sb *strings.Builder, key, value string) {
	if strings.TrimSpace(value) == "" {
		value = "(not available)"
	}
	sb.WriteString("\n")
	sb.WriteString(key)
	sb.WriteString(":\n")
	sb.WriteString(strings.TrimSpace(value))
	sb.WriteString("\n")
}

// Stages builds the agent stages of pipeline mode from the agent config.
func Stages(ctx context.Context, cfg *agent.Config, checkPoints compose.CheckPointStore) (Step, Stage, Stage, error) {
	dataAgent, err := agent.NewDataCollectionAgent(ctx, cfg)
	if err != nil {
		return Step{}, nil, nil, err
	}
	trendAgent, err := agent.NewTrendFindingAgent(ctx, cfg)
	if err != nil {
		return Step{}, nil, nil, err
	}
	writer, err := agent.NewContentWritingAgent(ctx, cfg)
	if err != nil {
		return Step{}, nil, nil, err
	}
	designer, err := agent.NewVisualDesignAgent(ctx, cfg)
	if err != nil {
		return Step{}, nil, nil, err
	}

	paths := cfg.Paths()
	researchName := agent.SequentialResearchName
	if cfg.ParallelResearch {
		researchName = agent.ParallelResearchName
	}

	research := Step{
		Name:     researchName,
		Parallel: cfg.ParallelResearch,
		Stages: []Stage{
			NewAgentStage(agent.DataCollectionAgentName, agent.KeyInternalInsights, dataAgent,
				dataCollectionInput(paths.ProductData), checkPoints),
			NewAgentStage(agent.TrendFindingAgentName, agent.KeyExternalTrends, trendAgent,
				trendFindingInput(cfg.Topic), checkPoints),
		},
	}
	writing := NewAgentStage(agent.ContentWritingAgentName, agent.KeyTextContent, writer,
		contentWritingInput(paths.ContentFile), checkPoints)
	design := NewAgentStage(agent.VisualDesignAgentName, agent.KeyFinalDesign, designer,
		visualDesignInput(paths.ContentFile, paths.HTMLFile), checkPoints)

	return research, writing, design, nil
}
