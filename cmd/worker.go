package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/steven-jianhao-li/zotero-ai-butler/internal/app"
	"github.com/steven-jianhao-li/zotero-ai-butler/internal/models"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the analysis worker",
	Long: `Starts the scheduler and works through the queue until interrupted.
Jobs interrupted by a crash resume as pending on the next start.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get application context: %w", err)
		}

		if err := runWorker(appInstance); err != nil {
			log.Errorf("Worker exited with error: %v", err)
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

// runWorker starts the scheduler, echoes job events to the terminal, and
// blocks until a shutdown signal arrives.
func runWorker(appInstance *app.App) error {
	sched := appInstance.Scheduler

	unsubProgress := sched.OnProgress(func(jobID string, percent int, message string) {
		log.Infof("[%s] %d%% %s", jobID, percent, message)
	})
	defer unsubProgress()

	unsubComplete := sched.OnComplete(func(jobID string, success bool, errMsg string) {
		if success {
			fmt.Printf("%s: %s\n", color.GreenString("Completed"), jobID)
		} else {
			fmt.Printf("%s: %s (%s)\n", color.RedString("Failed"), jobID, errMsg)
		}
	})
	defer unsubComplete()

	unsubStream := sched.OnStream(func(ev models.StreamEvent) {
		if ev.Kind == models.StreamEventChunk {
			fmt.Print(ev.Chunk)
		}
	})
	defer unsubStream()

	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	cfg := appInstance.Config.Scheduler
	log.Infof("Worker started (concurrency: %d, batch size: %d)", cfg.Concurrency, cfg.BatchSize)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	log.Info("Shutdown signal received. Waiting for in-flight jobs...")
	sched.Stop()
	log.Info("Worker shutdown complete.")
	return nil
}
