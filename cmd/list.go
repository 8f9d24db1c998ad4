package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/steven-jianhao-li/zotero-ai-butler/internal/clix"
	"github.com/steven-jianhao-li/zotero-ai-butler/internal/models"
)

var (
	listStatus string
	listLabels string
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List queued analysis jobs",
	Long: `Displays the analysis queue in execution order: priority jobs first,
then pending, running, completed and failed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get app from context: %w", err)
		}

		statusFilter, err := clix.ParseStatusFilter(cmd.Flags())
		if err != nil {
			return err
		}
		labelFilter, err := clix.ParseLabels(cmd.Flags())
		if err != nil {
			return err
		}

		jobs := appInstance.Jobs.Sorted()
		filtered := jobs[:0]
		for _, job := range jobs {
			if statusFilter != "" && job.Status != statusFilter {
				continue
			}
			if len(labelFilter) > 0 && !matchesAnyLabel(job.Label, labelFilter) {
				continue
			}
			filtered = append(filtered, job)
		}
		jobs = filtered

		if len(jobs) == 0 {
			fmt.Println("No jobs found.")
			return nil
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Job ID", "Label", "Status", "Progress", "Retries", "Created At", "Error"})
		table.SetBorder(true)
		table.SetRowLine(true)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)

		for _, job := range jobs {
			errMsg := job.ErrorMessage
			if len(errMsg) > 60 {
				errMsg = errMsg[:57] + "..."
			}
			row := []string{
				job.ID,
				job.Label,
				colorStatus(job.Status),
				strconv.Itoa(job.ProgressPercent) + "%",
				fmt.Sprintf("%d/%d", job.RetryCount, job.MaxRetries),
				job.CreatedAt.Format(time.RFC3339),
				errMsg,
			}
			table.Append(row)
		}

		table.Render()
		fmt.Printf("Displayed %d job(s).\n", len(jobs))
		return nil
	},
}

func colorStatus(status models.JobStatus) string {
	switch status {
	case models.JobStatusCompleted:
		return color.GreenString(string(status))
	case models.JobStatusFailed:
		return color.RedString(string(status))
	case models.JobStatusRunning:
		return color.CyanString(string(status))
	case models.JobStatusPriority:
		return color.YellowString(string(status))
	default:
		return string(status)
	}
}

func matchesAnyLabel(label string, filters []string) bool {
	for _, f := range filters {
		if strings.Contains(strings.ToLower(label), strings.ToLower(f)) {
			return true
		}
	}
	return false
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listStatus, "status", "s", "", "Only show jobs with this status (pending, priority, running, completed, failed)")
	listCmd.Flags().StringVarP(&listLabels, "labels", "T", "", "Comma-separated label substrings to filter by (match any)")
}
