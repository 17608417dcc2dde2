package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"planner/internal/app/server/api"
	"planner/internal/app/server/config"
	"planner/internal/app/server/crypto"
	"planner/internal/app/server/scheduler"
	"planner/internal/domain/calsync"
	"planner/internal/domain/event"
	"planner/internal/domain/session"
	"planner/internal/infrastructure/google"
	"planner/internal/infrastructure/storage/postgres"

	"golang.org/x/exp/slog"
)

const (
	shutdownTimeout   = 30 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// App собранное серверное приложение: хранилище, сервисы и фоновые обработчики
type App struct {
	cfg        *config.Config
	log        *slog.Logger
	storage    *postgres.Storage
	users      *postgres.UserRepository
	sessionDB  *postgres.SessionRepository
	sessions   *session.Service
	events     *event.Service
	sync       *calsync.Service
	dispatcher *calsync.Dispatcher
}

// New подключается к базе, применяет миграции и связывает сервисы
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	storage, err := postgres.New(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	pool := storage.Pool()

	// без ключа токены не сохраняются, подключение Google вернет ошибку
	var sealer postgres.TokenSealer
	if cfg.Google.TokenKey != "" {
		cipher, err := crypto.NewTokenCipher(cfg.Google.TokenKey)
		if err != nil {
			_ = storage.Close()
			return nil, fmt.Errorf("init token cipher: %w", err)
		}
		sealer = cipher
	}
	credRepo := postgres.NewCredentialRepository(pool, sealer, log)

	deps := calsync.Deps{
		Events:      postgres.NewEventRepository(pool, log),
		Channels:    postgres.NewChannelRepository(pool, log),
		Credentials: credRepo,
	}

	oauth := google.NewOAuth(cfg.Google)
	if oauth != nil {
		deps.Auth = oauth
	} else {
		log.Warn("google oauth is not configured, calendar sync is disabled")
	}
	deps.Remotes = google.NewFactory(oauth, credRepo, log)

	syncService := calsync.NewService(deps, calsync.Config{
		BatchSize:          cfg.Sync.BatchSize,
		DefaultWindowDays:  cfg.Sync.DefaultWindowDays,
		ManualWindowDays:   cfg.Sync.ManualWindowDays,
		BackfillWindowDays: cfg.Sync.BackfillWindowDays,
		WebhookURL:         cfg.Google.WebhookURL,
		WebhookToken:       cfg.Google.WebhookToken,
	}, log)

	sessionRepo := postgres.NewSessionRepository(pool, log)

	return &App{
		cfg:        cfg,
		log:        log,
		storage:    storage,
		users:      postgres.NewUserRepository(pool, log),
		sessionDB:  sessionRepo,
		sessions:   session.NewService(sessionRepo, session.DefaultTTL, log),
		events:     event.NewService(deps.Events, syncService, log),
		sync:       syncService,
		dispatcher: calsync.NewDispatcher(syncService, cfg.Sync.WebhookPullTimeout, log),
	}, nil
}

// Run обслуживает HTTP до отмены ctx, затем корректно завершает работу
func (a *App) Run(ctx context.Context) error {
	router := api.New(api.Services{
		DB:         a.storage,
		Sessions:   a.sessions,
		Events:     a.events,
		Sync:       a.sync,
		Dispatcher: a.dispatcher,
	}, a.log)

	var sched *scheduler.Scheduler
	if a.cfg.Sync.RenewalCron != "" {
		var err error
		sched, err = scheduler.New(a.cfg.Sync.RenewalCron, a.sync, a.cfg.Sync.RenewalLead, a.log)
		if err != nil {
			return err
		}
		sched.Start()
	}

	srv := &http.Server{
		Addr:              a.cfg.Server.RunAddress,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.log.Info("http server started", "address", srv.Addr, "env", a.cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("http server shutdown failed", "error", err)
	}
	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			a.log.Error("scheduler stop timed out", "error", err)
		}
	}
	// уведомления, принятые до остановки, дорабатываются
	a.dispatcher.Wait()

	return runErr
}

// Backfill полная пересинхронизация календаря пользователя без HTTP
func (a *App) Backfill(ctx context.Context, userID int) (*calsync.PullResult, error) {
	return a.sync.Backfill(ctx, userID)
}

// IssueToken создает пользователя при необходимости и выпускает bearer-токен;
// ttl <= 0 означает срок по умолчанию
func (a *App) IssueToken(ctx context.Context, login string, ttl time.Duration) (int, string, error) {
	userID, err := a.users.Ensure(ctx, login)
	if err != nil {
		return 0, "", err
	}

	token, err := session.NewService(a.sessionDB, ttl, a.log).Create(ctx, userID)
	if err != nil {
		return 0, "", err
	}

	return userID, token, nil
}

func (a *App) Close() error {
	return a.storage.Close()
}
