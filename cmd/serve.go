package cmd

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/steven-jianhao-li/zotero-ai-butler/internal/apihandlers"
)

var (
	serveAddr string // Listen address
	servePort string // Listen port
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the queue API server with an embedded worker",
	Long: `Starts an HTTP server exposing the analysis queue via a RESTful API
and runs the scheduler alongside it, so queued jobs execute while the
server is up.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		if err := appInstance.Scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer appInstance.Scheduler.Stop()

		// Setup Gin router
		router := gin.Default() // Includes logger and recovery middleware

		apiHandler := apihandlers.NewAPIHandler(appInstance)
		apiHandler.RegisterRoutes(router)

		addr := serveAddr
		if addr == "" {
			addr = appInstance.Config.Server.Address
		}
		port := servePort
		if port == "" {
			port = appInstance.Config.Server.Port
		}
		listenAddr := fmt.Sprintf("%s:%s", addr, port)

		srv := &http.Server{Addr: listenAddr, Handler: router}
		errCh := make(chan error, 1)
		go func() {
			log.Infof("Starting queue API server on http://%s", listenAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return fmt.Errorf("failed to run API server: %w", err)
		case <-shutdown:
		}

		log.Info("Shutdown signal received. Stopping server...")
		if err := srv.Close(); err != nil {
			log.Errorf("Error closing API server: %v", err)
		}
		log.Info("Queue API server stopped.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (defaults to server.address from config)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (defaults to server.port from config)")
}
