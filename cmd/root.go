// Package cmd implements the newsletter command line.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"newsletter-agent/config"
	"newsletter-agent/logging"
)

var (
	// Global flags
	configPath string
	workDir    string
	verbose    bool

	logger *zap.Logger
	cfg    config.Config
)

var rootCmd = &cobra.Command{
	Use:   "newsletter",
	Short: "Generate a marketing newsletter with a team of LLM agents",
	Long: `newsletter turns product documents and current industry trends into an
HTML marketing newsletter.

Research agents summarise the product material and search the web, a writer
drafts the copy into the content file, and a designer lays it out as HTML.
When the content file already exists only the design stage runs, so edited
copy can be re-laid out without repeating the research.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load(filepath.Join(workDir, ".env"))
		_ = godotenv.Load()

		var err error
		logger, err = logging.New(verbose)
		if err != nil {
			return err
		}

		path := configPath
		if path == "" {
			path = filepath.Join(workDir, config.DefaultFileName)
		}
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("workdir") || cfg.WorkDir == "" {
			cfg.WorkDir = workDir
		}
		cfg.ApplyEnv()
		if err := applyCommandFlags(cmd); err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		logger.Debug("configuration loaded",
			zap.String("config", path),
			zap.String("workdir", cfg.Resolve(".")),
			zap.String("provider", cfg.Model.Provider),
			zap.String("model", cfg.Model.Name),
			zap.String("mode", cfg.Pipeline.Mode))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// applyCommandFlags copies flags of the running subcommand onto the config.
func applyCommandFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if flags.Lookup("mode") != nil && flags.Changed("mode") {
		mode, err := flags.GetString("mode")
		if err != nil {
			return err
		}
		cfg.Pipeline.Mode = mode
	}
	if flags.Lookup("parallel") != nil && flags.Changed("parallel") {
		parallel, err := flags.GetBool("parallel")
		if err != nil {
			return err
		}
		cfg.Pipeline.ParallelResearch = parallel
	}
	if flags.Lookup("approve") != nil && flags.Changed("approve") {
		approve, err := flags.GetBool("approve")
		if err != nil {
			return err
		}
		cfg.Pipeline.ApproveCopy = approve
	}
	if flags.Lookup("topic") != nil && flags.Changed("topic") {
		topic, err := flags.GetString("topic")
		if err != nil {
			return err
		}
		cfg.Pipeline.Topic = topic
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default <workdir>/newsletter.yaml)")
	rootCmd.PersistentFlags().StringVarP(&workDir, "workdir", "w", ".", "Project directory holding product_data, style_samples and output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(runCmd, statusCmd, watchCmd, toolsCmd)
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
