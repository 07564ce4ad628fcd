package cmd

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/spf13/cobra"

	"newsletter-agent/llm/agent"
	"newsletter-agent/llm/tools"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools each agent receives",
	Long: `List the tools each agent receives, including the tools discovered from
the enabled MCP servers. The MCP servers are started to list their tools.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, false)
		if err != nil {
			return err
		}
		defer a.close()

		c := a.agentConfig
		sets := []struct {
			agent string
			tools []tool.BaseTool
		}{
			{agent.DataCollectionAgentName, agent.DataCollectionTools(c)},
			{agent.TrendFindingAgentName, agent.TrendFindingTools(c)},
			{agent.ContentWritingAgentName, agent.ContentWritingTools(c)},
			{agent.VisualDesignAgentName, agent.VisualDesignTools(c)},
		}

		out := cmd.OutOrStdout()
		for _, s := range sets {
			fmt.Fprintf(out, "%s:\n", s.agent)
			for _, name := range tools.Names(ctx, s.tools) {
				fmt.Fprintf(out, "  - %s\n", name)
			}
		}
		fmt.Fprintf(out, "%s:\n  - %s\n", agent.CoordinatorAgentName, strings.Join([]string{
			tools.CheckContentToolName,
			researchTeamName(),
			agent.ContentWritingAgentName,
			agent.VisualDesignAgentName,
		}, "\n  - "))
		return nil
	},
}

func researchTeamName() string {
	if cfg.Pipeline.ParallelResearch {
		return agent.ParallelResearchName
	}
	return agent.SequentialResearchName
}

func init() {
	toolsCmd.Flags().Bool("parallel", false, "Show the parallel research team")
}
