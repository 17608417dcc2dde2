//POST   /api/google/webhook     # Push-уведомление Google (публичный)
//POST   /api/google/sync-now    # Синхронизировать сейчас (auth)
//POST   /api/google/backfill    # Полная синхронизация за год (auth)
//POST   /api/google/watch       # Подписка на изменения (auth)
//DELETE /api/google/disconnect  # Отключить Google (auth)
//GET    /api/google/auth-url    # Ссылка на OAuth (auth)
//POST   /api/google/connect     # Обмен кода OAuth (auth)
//GET    /api/google/status      # Состояние подключения (auth)
//GET    /api/events             # Список событий (auth)
//POST   /api/events             # Создать событие (auth)
//GET    /api/events/{id}        # Получить событие (auth)
//PUT    /api/events/{id}        # Обновить событие (auth)
//DELETE /api/events/{id}        # Удалить событие (auth)

package api

import (
	calsyncAPI "planner/internal/app/server/api/http/calsync"
	eventAPI "planner/internal/app/server/api/http/event"
	healthAPI "planner/internal/app/server/api/http/health"
	"planner/internal/app/server/api/http/middleware"
	"planner/internal/app/server/api/http/middleware/auth"
	"planner/internal/app/server/api/http/middleware/logger"
	"planner/internal/domain/calsync"
	"planner/internal/domain/event"
	"planner/internal/domain/session"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"
)

// Services доменные сервисы, которые обслуживает HTTP-слой
type Services struct {
	DB         healthAPI.Pinger
	Sessions   session.Servicer
	Events     event.Servicer
	Sync       calsync.Servicer
	Dispatcher calsyncAPI.Dispatcher
}

type Handlers struct {
	Health  *healthAPI.Handler
	Event   *eventAPI.Handler
	Calsync *calsyncAPI.Handler
}

// New создает *chi.Mux с ВСЕМИ операциями через huma.Register
func New(services Services, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	config := huma.DefaultConfig("Planner API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}

	API := humachi.New(mux, config)

	h := handlers(services, log)
	h.Health.SetupRoutes(API)
	h.Event.SetupRoutes(API)
	h.Calsync.SetupRoutes(API)

	return mux
}

func handlers(services Services, log *slog.Logger) *Handlers {
	authMW := auth.New(services.Sessions, log)
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(services.DB, log, middlewares.GetAllAndClear())

	middlewares.Add(authMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	eventHandler := eventAPI.NewHandler(services.Events, log, middlewares.GetAllAndClear())

	middlewares.Add(loggerMW.Middleware())
	public := middlewares.GetAllAndClear()
	middlewares.Add(authMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	calsyncHandler := calsyncAPI.NewHandler(services.Sync, services.Dispatcher, log, middlewares.GetAllAndClear(), public)

	return &Handlers{
		Health:  healthHandler,
		Event:   eventHandler,
		Calsync: calsyncHandler,
	}
}
