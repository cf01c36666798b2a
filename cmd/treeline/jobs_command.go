package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"treeline/internal/config"
	"treeline/internal/logging"
	"treeline/internal/queue"
	"treeline/internal/services/awsconn"
	"treeline/internal/services/trainjob"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and control training jobs",
	}

	jobsCmd.AddCommand(newJobsDescribeCommand(ctx))
	jobsCmd.AddCommand(newJobsStopCommand(ctx))

	return jobsCmd
}

func newJobsDescribeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <job-name|run-id>",
		Short: "Show the current state of a training job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				jobName, err := resolveJobName(cmd, store, args[0])
				if err != nil {
					return err
				}

				jobs, err := newJobService(cfg)
				if err != nil {
					return err
				}
				state, err := jobs.Describe(cmd.Context(), jobName)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Job:              %s\n", jobName)
				fmt.Fprintf(out, "Status:           %s\n", state.Status)
				if state.SecondaryStatus != "" {
					fmt.Fprintf(out, "Secondary status: %s\n", state.SecondaryStatus)
				}
				if state.FailureReason != "" {
					fmt.Fprintf(out, "Failure reason:   %s\n", state.FailureReason)
				}
				if state.BillableSeconds > 0 {
					fmt.Fprintf(out, "Billable seconds: %d\n", state.BillableSeconds)
				}
				if state.ModelArtifact != "" {
					fmt.Fprintf(out, "Model artifact:   %s\n", state.ModelArtifact)
				}
				for _, metric := range state.FinalMetrics {
					fmt.Fprintf(out, "Metric %s: %g\n", metric.Name, metric.Value)
				}
				return nil
			})
		},
	}
}

func newJobsStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <job-name|run-id>",
		Short: "Request termination of a running training job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				jobName, err := resolveJobName(cmd, store, args[0])
				if err != nil {
					return err
				}
				jobs, err := newJobService(cfg)
				if err != nil {
					return err
				}
				if err := jobs.Stop(cmd.Context(), jobName); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Requested stop for job %s\n", jobName)
				return nil
			})
		},
	}
}

// resolveJobName accepts either a literal job name or a numeric run ID.
func resolveJobName(cmd *cobra.Command, store *queue.Store, arg string) (string, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		run, err := store.GetByID(cmd.Context(), id)
		if err != nil {
			return "", err
		}
		if run == nil {
			return "", fmt.Errorf("run %d not found", id)
		}
		if run.JobName == "" {
			return "", fmt.Errorf("run %d has no training job yet", id)
		}
		return run.JobName, nil
	}
	return arg, nil
}

func newJobService(cfg *config.Config) (*trainjob.Service, error) {
	sess, err := awsconn.New(cfg)
	if err != nil {
		return nil, err
	}
	return trainjob.NewService(cfg, sess, logging.NewNop()), nil
}
