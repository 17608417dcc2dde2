package cmd

import (
	"fmt"
	"os"

	"planner/internal/app/server/config"
	"planner/internal/utils/logger"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"
)

var (
	cfg      *config.Config
	log      *slog.Logger
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "planner",
	Short: "Planner - сервер событий с синхронизацией Google Calendar",
	Long: `Planner хранит события пользователей и синхронизирует их с Google Calendar
в обе стороны: изменения из Google приходят по push-уведомлениям,
локальные изменения выгружаются сразу после сохранения.`,
	PersistentPreRunE: setup,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func setup(_ *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	if logLevel != "" {
		cfg.Logger.LogLevel = logLevel
	}

	log = logger.New(cfg.Env,
		logger.WithLevel(cfg.Logger.LogLevel),
		logger.WithFile(cfg.Logger.File),
	)

	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "уровень логирования (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd, migrateCmd, backfillCmd, tokenCmd)
}
