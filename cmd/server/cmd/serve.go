package cmd

import (
	"os/signal"
	"syscall"

	"planner/internal/app/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Запустить HTTP-сервер",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := server.New(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := app.Close(); err != nil {
				log.Error("failed to close storage", "error", err)
			}
		}()

		return app.Run(ctx)
	},
}
