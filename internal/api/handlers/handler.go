// Package handlers содержит HTTP-обработчики сервиса hashdoc.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// APIHandler объединяет обработчики сервиса и строит маршрутизатор.
type APIHandler struct {
	documents *DocumentsHandler
	health    *HealthHandler
}

// NewAPIHandler создаёт корневой обработчик API.
func NewAPIHandler(documents *DocumentsHandler, health *HealthHandler) *APIHandler {
	return &APIHandler{
		documents: documents,
		health:    health,
	}
}

// Routes регистрирует маршруты сервиса на переданном маршрутизаторе.
func (h *APIHandler) Routes(r chi.Router) {
	r.Get("/health/live", h.health.HealthLive)
	r.Get("/health/ready", h.health.HealthReady)
	r.Get("/metrics", h.health.GetMetrics)

	r.Route("/api/v1/documents", func(r chi.Router) {
		r.Post("/", h.documents.Upload)
		r.Get("/", h.documents.List)
		r.Delete("/{id}", h.documents.Delete)
	})
}

// writeJSON сериализует ответ обработчика.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Ошибка сериализации ответа", slog.String("error", err.Error()))
	}
}
