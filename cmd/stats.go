package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show queue statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		stats := appInstance.Jobs.Stats()

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Metric", "Value"})
		table.SetBorder(true)
		table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
		table.SetAlignment(tablewriter.ALIGN_LEFT)

		table.Append([]string{"Total", strconv.Itoa(stats.Total)})
		table.Append([]string{"Pending", strconv.Itoa(stats.Pending)})
		table.Append([]string{"Priority", strconv.Itoa(stats.Priority)})
		table.Append([]string{"Running", strconv.Itoa(stats.Running)})
		table.Append([]string{"Completed", strconv.Itoa(stats.Completed)})
		table.Append([]string{"Failed", strconv.Itoa(stats.Failed)})
		table.Append([]string{"Success rate", fmt.Sprintf("%d%%", stats.SuccessRate)})

		table.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
