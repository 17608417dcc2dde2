package event

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "events-list",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Список событий пользователя",
		Tags:        []string{"events"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) createOp() huma.Operation {
	return huma.Operation{
		OperationID: "events-create",
		Method:      http.MethodPost,
		Path:        "/api/events",
		Summary:     "Создать событие",
		Description: "Сохраняет событие локально и выгружает его в подключенный календарь Google.",
		Tags:        []string{"events"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) findOp() huma.Operation {
	return huma.Operation{
		OperationID: "events-find",
		Method:      http.MethodGet,
		Path:        "/api/events/{id}",
		Summary:     "Получить событие",
		Tags:        []string{"events"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) updateOp() huma.Operation {
	return huma.Operation{
		OperationID: "events-update",
		Method:      http.MethodPut,
		Path:        "/api/events/{id}",
		Summary:     "Обновить событие",
		Tags:        []string{"events"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) deleteOp() huma.Operation {
	return huma.Operation{
		OperationID: "events-delete",
		Method:      http.MethodDelete,
		Path:        "/api/events/{id}",
		Summary:     "Удалить событие",
		Description: "Удаляет событие локально, затем в календаре Google.",
		Tags:        []string{"events"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}
