package cmd

import (
	"fmt"

	"planner/internal/infrastructure/migration"

	"github.com/spf13/cobra"
)

var migrateDown bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Применить миграции базы данных",
	Long:  `Применяет все новые миграции. С флагом --down откатывает схему целиком.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		mg := migration.NewMigration(cfg, nil, log)

		if migrateDown {
			if err := mg.Down(); err != nil {
				return fmt.Errorf("откат миграций: %w", err)
			}
			fmt.Println("✓ Схема откачена")
			return nil
		}

		if err := mg.Up(); err != nil {
			return fmt.Errorf("применение миграций: %w", err)
		}
		fmt.Println("✓ Миграции применены")
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "откатить все миграции")
}
