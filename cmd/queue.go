package cmd

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steven-jianhao-li/zotero-ai-butler/internal/models"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Manage the analysis queue",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

var queueRetryCmd = &cobra.Command{
	Use:   "retry [job-id]",
	Short: "Re-queue a failed job with priority",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		if err := appInstance.Scheduler.Retry(args[0]); err != nil {
			if errors.Is(err, models.ErrInvalidState) {
				return fmt.Errorf("job %s is not failed; only failed jobs can be retried", args[0])
			}
			return fmt.Errorf("failed to retry job %s: %w", args[0], err)
		}
		fmt.Printf("%s: %s\n", color.GreenString("Re-queued"), args[0])
		return nil
	},
}

var queueRemoveCmd = &cobra.Command{
	Use:   "remove [job-id]",
	Short: "Remove a job from the queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		if err := appInstance.Scheduler.Remove(args[0]); err != nil {
			if errors.Is(err, models.ErrInvalidState) {
				return fmt.Errorf("job %s is running and cannot be removed", args[0])
			}
			return fmt.Errorf("failed to remove job %s: %w", args[0], err)
		}
		fmt.Printf("%s: %s\n", color.GreenString("Removed"), args[0])
		return nil
	},
}

var priorityOff bool

var queuePriorityCmd = &cobra.Command{
	Use:   "priority [job-id]",
	Short: "Move a job to the front of the queue",
	Long: `Marks a pending or failed job as priority so the next batch picks it
up first. Use --off to demote a priority job back to pending.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		if err := appInstance.Scheduler.SetPriority(args[0], !priorityOff); err != nil {
			if errors.Is(err, models.ErrInvalidState) {
				return fmt.Errorf("job %s is in a state that cannot change priority", args[0])
			}
			return fmt.Errorf("failed to change priority of job %s: %w", args[0], err)
		}
		if priorityOff {
			fmt.Printf("%s: %s\n", color.YellowString("Demoted"), args[0])
		} else {
			fmt.Printf("%s: %s\n", color.GreenString("Prioritized"), args[0])
		}
		return nil
	},
}

var clearAll bool

var queueClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear completed jobs from the queue",
	Long: `Removes completed jobs from the queue. With --all, removes every job
that is not currently running.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		var removed int
		if clearAll {
			removed = appInstance.Scheduler.ClearAll()
		} else {
			removed = appInstance.Scheduler.ClearCompleted()
		}
		fmt.Printf("Removed %d job(s).\n", removed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queueCmd)
	queueCmd.AddCommand(queueRetryCmd)
	queueCmd.AddCommand(queueRemoveCmd)
	queueCmd.AddCommand(queuePriorityCmd)
	queueCmd.AddCommand(queueClearCmd)

	queuePriorityCmd.Flags().BoolVar(&priorityOff, "off", false, "Demote the job back to pending")
	queueClearCmd.Flags().BoolVar(&clearAll, "all", false, "Remove all non-running jobs, not just completed ones")
}
