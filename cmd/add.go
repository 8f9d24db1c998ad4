package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/steven-jianhao-li/zotero-ai-butler/internal/butler"
)

var (
	addLabel    string
	addPriority bool
)

var addCmd = &cobra.Command{
	Use:   "add [path]",
	Short: "Queue a document for analysis",
	Long: `Queues a document file for AI analysis. Pointing add at a directory
queues every recognized document under it (recursively). Adding the same
document twice is a no-op; the existing queue entry is kept.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		absInput, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("could not resolve path %q: %w", args[0], err)
		}

		stat, err := os.Stat(absInput)
		if err != nil {
			return fmt.Errorf("cannot access %s: %w", absInput, err)
		}

		maxRetries := appInstance.Config.Scheduler.MaxRetries

		// --- Directory mode ---
		if stat.IsDir() {
			fmt.Printf("Scanning directory: %s\n", absInput)
			docs, err := butler.DiscoverDocuments(cmd.Context(), absInput)
			if err != nil {
				return fmt.Errorf("failed to scan %s: %w", absInput, err)
			}
			if len(docs) == 0 {
				fmt.Println("No documents found.")
				return nil
			}
			for _, doc := range docs {
				job := butler.NewAnalysisJob(doc.Path, doc.Name, maxRetries)
				id := appInstance.Scheduler.Enqueue(job, addPriority)
				fmt.Printf("  - %s: %s (%s)\n", color.GreenString("Queued"), doc.Name, id)
			}
			fmt.Printf("Queued %d document(s).\n", len(docs))
			return nil
		}

		// --- Single file mode ---
		label := addLabel
		if label == "" {
			label = filepath.Base(absInput)
		}
		job := butler.NewAnalysisJob(absInput, label, maxRetries)
		id := appInstance.Scheduler.Enqueue(job, addPriority)
		fmt.Printf("%s: %s (%s)\n", color.GreenString("Queued"), label, id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVarP(&addLabel, "label", "t", "", "Display label for the job (defaults to the file name)")
	addCmd.Flags().BoolVarP(&addPriority, "priority", "p", false, "Queue ahead of normal jobs")
}
