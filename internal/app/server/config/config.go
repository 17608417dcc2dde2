package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPath  = ".env"
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

const (
	defaultRunAddress         = ":8080"
	defaultMigrationsPath     = "migrations"
	defaultBatchSize          = 20
	defaultWindowDays         = 90
	defaultManualWindowDays   = 30
	defaultBackfillWindowDays = 365
	defaultWebhookPullTimeout = 2 * time.Minute
	defaultWatchRenewalLead   = 24 * time.Hour
)

type Config struct {
	Env    string
	DB     DB
	Server Server
	Logger Logger
	Google Google
	Sync   Sync
}

type DB struct {
	DatabaseURI string `env:"DATABASE_URI"`
	Migrations  string `env:"MIGRATIONS_PATH"`
}

type Server struct {
	RunAddress string `env:"RUN_ADDRESS"`
}

type Logger struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	File     string `env:"LOG_FILE"`
}

// Google настройки OAuth-клиента и push-уведомлений Google Calendar
type Google struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string `env:"GOOGLE_REDIRECT_URL"`
	WebhookURL   string `env:"GOOGLE_WEBHOOK_URL"`
	WebhookToken string `env:"GOOGLE_WEBHOOK_TOKEN"`
	// TokenKey ключ шифрования OAuth-токенов в базе
	TokenKey string `env:"TOKEN_ENCRYPTION_KEY"`
}

// Sync параметры движка синхронизации
type Sync struct {
	BatchSize          int           `env:"SYNC_BATCH_SIZE"`
	DefaultWindowDays  int           `env:"SYNC_DEFAULT_WINDOW_DAYS"`
	ManualWindowDays   int           `env:"SYNC_MANUAL_WINDOW_DAYS"`
	BackfillWindowDays int           `env:"SYNC_BACKFILL_WINDOW_DAYS"`
	WebhookPullTimeout time.Duration `env:"WEBHOOK_PULL_TIMEOUT"`
	// RenewalCron пустая строка отключает продление подписок
	RenewalCron string        `env:"WATCH_RENEWAL_CRON"`
	RenewalLead time.Duration `env:"WATCH_RENEWAL_LEAD"`
}

// Configured сообщает, заданы ли параметры OAuth-клиента
func (g Google) Configured() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

func Load() (*Config, error) {
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			log.Printf("failed to load %s: %v", envPath, err)
		}
	} else {
		log.Println("No .env file found, relying on environment variables")
	}

	viper.AutomaticEnv()

	viper.SetDefault("app_env", EnvLocal)
	viper.SetDefault("run_address", defaultRunAddress)
	viper.SetDefault("migrations_path", defaultMigrationsPath)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("sync_batch_size", defaultBatchSize)
	viper.SetDefault("sync_default_window_days", defaultWindowDays)
	viper.SetDefault("sync_manual_window_days", defaultManualWindowDays)
	viper.SetDefault("sync_backfill_window_days", defaultBackfillWindowDays)
	viper.SetDefault("webhook_pull_timeout", defaultWebhookPullTimeout)
	viper.SetDefault("watch_renewal_lead", defaultWatchRenewalLead)

	config := Config{
		Env: viper.GetString("app_env"),
		DB: DB{
			DatabaseURI: viper.GetString("database_uri"),
			Migrations:  viper.GetString("migrations_path"),
		},
		Server: Server{RunAddress: viper.GetString("run_address")},
		Logger: Logger{
			LogLevel: viper.GetString("log_level"),
			File:     viper.GetString("log_file"),
		},
		Google: Google{
			ClientID:     viper.GetString("google_client_id"),
			ClientSecret: viper.GetString("google_client_secret"),
			RedirectURL:  viper.GetString("google_redirect_url"),
			WebhookURL:   viper.GetString("google_webhook_url"),
			WebhookToken: viper.GetString("google_webhook_token"),
			TokenKey:     viper.GetString("token_encryption_key"),
		},
		Sync: Sync{
			BatchSize:          viper.GetInt("sync_batch_size"),
			DefaultWindowDays:  viper.GetInt("sync_default_window_days"),
			ManualWindowDays:   viper.GetInt("sync_manual_window_days"),
			BackfillWindowDays: viper.GetInt("sync_backfill_window_days"),
			WebhookPullTimeout: viper.GetDuration("webhook_pull_timeout"),
			RenewalCron:        viper.GetString("watch_renewal_cron"),
			RenewalLead:        viper.GetDuration("watch_renewal_lead"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	if c.DB.DatabaseURI == "" {
		return fmt.Errorf("database_uri is required")
	}
	if c.Sync.BatchSize <= 0 {
		return fmt.Errorf("sync_batch_size must be positive, got %d", c.Sync.BatchSize)
	}
	if c.Google.Configured() && c.Google.TokenKey == "" {
		return fmt.Errorf("token_encryption_key is required when google oauth is configured")
	}
	return nil
}
