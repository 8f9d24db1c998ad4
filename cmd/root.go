package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/steven-jianhao-li/zotero-ai-butler/internal/app"
	"github.com/steven-jianhao-li/zotero-ai-butler/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "butler",
	Short: "Butler CLI App",
	Long:  `Butler queues your library documents for AI analysis and keeps the results on hand.`,
	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is given, print help.
		cmd.Help()
	},
	// PersistentPreRunE runs before any subcommand's RunE
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		// Load configuration once
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		// Initialize the app once
		appInstance, err := app.NewApp(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}

		// Store the app instance in the command's context
		ctx := context.WithValue(cmd.Context(), appKey, appInstance)
		cmd.SetContext(ctx)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if appInstance, err := GetAppFromContext(cmd.Context()); err == nil {
			appInstance.Close()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Define a custom type for the context key to avoid collisions.
type contextKey string

const appKey contextKey = "app"

// Helper function to retrieve the app instance from context
func GetAppFromContext(ctx context.Context) (*app.App, error) {
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		// This should not happen if PersistentPreRunE ran successfully
		return nil, fmt.Errorf("application instance not found in context")
	}
	return appInstance, nil
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check data store health and provider configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get app instance: %w", err)
		}

		fmt.Println("Checking data store...")
		if _, err := appInstance.Persist.Load(); err != nil {
			return fmt.Errorf("queue snapshot read failed: %w", err)
		}
		fmt.Println("Data store OK.")

		fmt.Println("Checking providers...")
		names := appInstance.Providers.Names()
		if len(names) == 0 {
			return fmt.Errorf("no providers configured")
		}
		for _, name := range names {
			keys := appInstance.Keys.KeyCount(name)
			marker := "OK"
			if keys == 0 {
				marker = "no API keys"
			}
			fmt.Printf("  %s: %d key(s) - %s\n", name, keys, marker)
		}
		fmt.Printf("Active provider: %s\n", appInstance.Config.Provider)
		return nil
	},
}
