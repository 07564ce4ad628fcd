package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"newsletter-agent/pipeline"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which stages the next run would execute",
	RunE: func(cmd *cobra.Command, args []string) error {
		contentPath := cfg.ContentPath()
		decision := pipeline.Gate{ContentPath: contentPath}.Check()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Content file: %s\n", contentPath)
		if decision.ContentExists {
			fmt.Fprintln(out, "  present: the next run only redesigns the HTML")
		} else {
			fmt.Fprintln(out, "  missing: the next run researches and writes new copy")
		}
		fmt.Fprintf(out, "Stages to run: %s\n", strings.Join(decision.Run, ", "))
		if len(decision.Skip) > 0 {
			fmt.Fprintf(out, "Stages skipped: %s\n", strings.Join(decision.Skip, ", "))
		}

		artifacts, err := pipeline.ListArtifacts(cfg.OutputDir())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nOutput directory %s: %d entries\n", cfg.OutputDir(), len(artifacts))
		for _, a := range artifacts {
			if a.IsDir {
				fmt.Fprintf(out, "  - %s/\n", a.Name)
				continue
			}
			fmt.Fprintf(out, "  - %s (%d bytes)\n", a.Name, a.Size)
		}
		return nil
	},
}
