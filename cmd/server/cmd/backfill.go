package cmd

import (
	"fmt"

	"planner/internal/app/server"

	"github.com/spf13/cobra"
)

var backfillUserID int

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Полная синхронизация календаря пользователя за год",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if backfillUserID <= 0 {
			return fmt.Errorf("укажите --user-id")
		}

		app, err := server.New(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer app.Close()

		res, err := app.Backfill(cmd.Context(), backfillUserID)
		if err != nil {
			return fmt.Errorf("синхронизация: %w", err)
		}

		fmt.Printf("✓ Загружено %d, создано %d, обновлено %d, без изменений %d, удалено %d, пропущено %d, ошибок %d\n",
			res.Fetched, res.Created, res.Updated, res.Unchanged, res.Deleted, res.Skipped, res.Failed)
		return nil
	},
}

func init() {
	backfillCmd.Flags().IntVar(&backfillUserID, "user-id", 0, "ID пользователя")
}
