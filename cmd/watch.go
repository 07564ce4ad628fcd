package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"newsletter-agent/pipeline"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Redesign the HTML whenever the content file is saved",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.close()

		coord, err := newCoordinator(ctx, a)
		if err != nil {
			return err
		}

		w := &pipeline.Watcher{
			ContentPath: a.workspace.ContentPath,
			Debounce:    watchDebounce,
			Logger:      logger,
			OnChange: func(ctx context.Context) error {
				report, err := coord.RunDesign(ctx)
				if report != nil {
					fmt.Fprintln(cmd.OutOrStdout(), report)
				}
				return err
			},
		}
		logger.Info("press Ctrl+C to stop", zap.String("content", a.workspace.ContentPath))
		return w.Watch(ctx)
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "Quiet period after the last save before redesigning")
}
