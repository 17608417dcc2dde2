package cmd

import (
	"fmt"
	"time"

	"planner/internal/app/server"

	"github.com/spf13/cobra"
)

var (
	tokenLogin string
	tokenTTL   time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Выпустить bearer-токен для пользователя",
	Long: `Создает пользователя, если его еще нет, и печатает токен доступа к API.
Токен показывается один раз, в базе хранится только его хеш.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if tokenLogin == "" {
			return fmt.Errorf("укажите --login")
		}

		app, err := server.New(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer app.Close()

		userID, token, err := app.IssueToken(cmd.Context(), tokenLogin, tokenTTL)
		if err != nil {
			return fmt.Errorf("выпуск токена: %w", err)
		}

		fmt.Printf("user_id: %d\ntoken:   %s\n", userID, token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenLogin, "login", "", "логин пользователя")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "срок жизни токена, по умолчанию 24h")
}
