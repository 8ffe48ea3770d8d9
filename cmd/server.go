/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/jotnotes/apiserver/config"
	"github.com/jotnotes/apiserver/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the jotnotes API server",
	Long: `Starts the jotnotes API server. Usage:

	jotnotes server
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log := newLogger(cfg, "jotnotes-api")
		defer func() {
			_ = log.Sync()
		}()

		if _, err := maxprocs.Set(maxprocs.Logger(log.Infof)); err != nil {
			return fmt.Errorf("maxprocs: %w", err)
		}
		log.Infow("startup", "GOMAXPROCS", runtime.GOMAXPROCS(0))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv, err := server.New(ctx, cfg, log)
		if err != nil {
			log.Errorw("startup", "error", err)
			return fmt.Errorf("failed to start server: %w", err)
		}

		serverErrors := make(chan error, 1)
		go func() {
			serverErrors <- srv.Start()
		}()

		select {
		case err := <-serverErrors:
			if err != nil {
				log.Errorw("server error", "error", err)
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
			return err
		case <-ctx.Done():
			log.Infow("shutdown", "status", "shutdown started")
			defer log.Infow("shutdown", "status", "shutdown complete")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("could not stop server gracefully: %w", err)
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
