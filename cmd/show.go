package cmd

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steven-jianhao-li/zotero-ai-butler/internal/models"
)

var showCmd = &cobra.Command{
	Use:   "show [job-id]",
	Short: "Print the analysis result for a completed job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		art, err := appInstance.Artifacts.Load(args[0])
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return fmt.Errorf("no analysis result stored for job %s", args[0])
			}
			return fmt.Errorf("failed to load result for job %s: %w", args[0], err)
		}

		fmt.Println(color.CyanString(art.Title))
		fmt.Printf("Provider: %s (%s), analyzed %s\n\n", art.Provider, art.Model, art.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Println(art.Text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}
