package calsync

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) webhookOp() huma.Operation {
	return huma.Operation{
		OperationID: "google-webhook",
		Method:      http.MethodPost,
		Path:        "/api/google/webhook",
		Summary:     "Push-уведомление Google Calendar",
		Description: "Всегда отвечает 200. Синхронизация запускается в фоне.",
		Tags:        []string{"google"},
		Middlewares: h.public,
	}
}

func (h *Handler) syncNowOp() huma.Operation {
	return huma.Operation{
		OperationID: "google-sync-now",
		Method:      http.MethodPost,
		Path:        "/api/google/sync-now",
		Summary:     "Синхронизировать сейчас",
		Tags:        []string{"google"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) backfillOp() huma.Operation {
	return huma.Operation{
		OperationID: "google-backfill",
		Method:      http.MethodPost,
		Path:        "/api/google/backfill",
		Summary:     "Полная синхронизация за год",
		Tags:        []string{"google"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) watchOp() huma.Operation {
	return huma.Operation{
		OperationID: "google-watch",
		Method:      http.MethodPost,
		Path:        "/api/google/watch",
		Summary:     "Подписаться на изменения календаря",
		Tags:        []string{"google"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) disconnectOp() huma.Operation {
	return huma.Operation{
		OperationID: "google-disconnect",
		Method:      http.MethodDelete,
		Path:        "/api/google/disconnect",
		Summary:     "Отключить календарь Google",
		Tags:        []string{"google"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) authURLOp() huma.Operation {
	return huma.Operation{
		OperationID: "google-auth-url",
		Method:      http.MethodGet,
		Path:        "/api/google/auth-url",
		Summary:     "Ссылка на экран согласия OAuth",
		Tags:        []string{"google"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) connectOp() huma.Operation {
	return huma.Operation{
		OperationID: "google-connect",
		Method:      http.MethodPost,
		Path:        "/api/google/connect",
		Summary:     "Подключить календарь по коду OAuth",
		Tags:        []string{"google"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) statusOp() huma.Operation {
	return huma.Operation{
		OperationID: "google-status",
		Method:      http.MethodGet,
		Path:        "/api/google/status",
		Summary:     "Состояние подключения",
		Tags:        []string{"google"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}
