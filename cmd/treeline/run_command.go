package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"treeline/internal/config"
	"treeline/internal/logging"
	"treeline/internal/notifications"
	"treeline/internal/queue"
	"treeline/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var urlFlag string
	var nameFlag string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline once and wait for the training job",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger, err := ctx.newLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				name := strings.TrimSpace(nameFlag)
				if name == "" {
					name = cfg.Dataset.Name
				}
				sourceURL := strings.TrimSpace(urlFlag)
				if sourceURL == "" {
					sourceURL = cfg.Dataset.SourceURL
				}

				run, err := store.NewRun(signalCtx, name, sourceURL)
				if err != nil {
					return fmt.Errorf("enqueue run: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Enqueued run %d for dataset %s\n", run.ID, name)

				notifier := notifications.NewService(cfg)
				if err := notifier.NotifyRunStarted(signalCtx, name); err != nil {
					logger.Warn("run started notification failed", logging.Error(err))
				}

				mgr := workflow.NewManagerWithNotifier(cfg, store, logger, notifier)
				if err := registerStages(mgr, cfg, store, logger); err != nil {
					return err
				}

				final, err := mgr.ProcessRunToCompletion(signalCtx, run.ID)
				if err != nil && !errors.Is(err, context.Canceled) && final == nil {
					return err
				}
				return printRunOutcome(cmd, final, err)
			})
		},
	}

	cmd.Flags().StringVar(&urlFlag, "url", "", "Override the dataset source URL")
	cmd.Flags().StringVar(&nameFlag, "name", "", "Override the dataset name")
	return cmd
}

func printRunOutcome(cmd *cobra.Command, run *queue.Run, runErr error) error {
	out := cmd.OutOrStdout()
	if run == nil {
		return runErr
	}

	switch run.Status {
	case queue.StatusCompleted:
		fmt.Fprintf(out, "Run %d completed\n", run.ID)
		if run.JobName != "" {
			fmt.Fprintf(out, "  Training job:   %s\n", run.JobName)
		}
		if run.ModelArtifact != "" {
			fmt.Fprintf(out, "  Model artifact: %s\n", run.ModelArtifact)
		}
		if run.MetricsFile != "" {
			fmt.Fprintf(out, "  Metrics CSV:    %s\n", run.MetricsFile)
		}
		if run.ChartFile != "" {
			fmt.Fprintf(out, "  Metric chart:   %s\n", run.ChartFile)
		}
		return nil
	case queue.StatusFailed:
		message := run.ErrorMessage
		if message == "" && runErr != nil {
			message = runErr.Error()
		}
		return fmt.Errorf("run %d failed: %s", run.ID, message)
	default:
		fmt.Fprintf(out, "Run %d stopped at status %s\n", run.ID, run.Status)
		return runErr
	}
}
