/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/jotnotes/apiserver/config"
	"github.com/jotnotes/apiserver/internal/db"
	"github.com/jotnotes/apiserver/internal/events"
	"github.com/jotnotes/apiserver/internal/mq"
	"github.com/jotnotes/apiserver/internal/services"
	"github.com/jotnotes/apiserver/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
)

// consumeCmd represents the consume command.
var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Consume note import events",
	Long: `Consumes the import channel and creates a note for every "create" event:

	{"type":"create","username":"alice","data":{"title":"a","content":"b"}}
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log := newLogger(cfg, "jotnotes-consumer")
		defer func() {
			_ = log.Sync()
		}()

		if _, err := maxprocs.Set(maxprocs.Logger(log.Infof)); err != nil {
			return fmt.Errorf("maxprocs: %w", err)
		}
		log.Infow("startup", "GOMAXPROCS", runtime.GOMAXPROCS(0))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		conn, err := db.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := conn.Close(); err != nil {
				log.Errorf("could not close db conn gracefully: %s", err)
			}
		}()

		queue, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		defer func() {
			if err := queue.Close(); err != nil {
				log.Errorf("could not close broker gracefully: %s", err)
			}
		}()

		var noteOpts []services.NoteOption
		if cfg.MQ.EventsChannel != "" {
			noteOpts = append(noteOpts, services.WithEventPublisher(events.NewPublisher(queue, cfg.MQ.EventsChannel, log)))
		}
		noteService := services.NewNoteService(store.NewNoteRepository(conn), noteOpts...)
		importer := events.NewImporter(store.NewUserRepository(conn), noteService, log)

		log.Infow("startup", "mq", cfg.MQ.Backend, "import_channel", cfg.MQ.ImportChannel)
		err = queue.Subscribe(ctx, cfg.MQ.ImportChannel, importer.Handle)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("listener error: %w", err)
		}
		log.Infow("shutdown", "status", "shutdown complete")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(consumeCmd)
}
