package handlers

import (
	"FileShelf/internal/config"
	"FileShelf/internal/middleware"
	"FileShelf/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Router chi.Router
}

// NewHandler разводящий для хендлеров
func NewHandler(
	shelf *service.Shelf,
	logger *zap.SugaredLogger,
	config *config.Config,
) *Handler {
	r := chi.NewRouter()

	r.Use(middleware.WithGzip)
	r.Use(middleware.WithLogging)

	fileHandler := NewFileHandler(shelf, logger, config)

	// постоянные ссылки вида /?open=<id>&name=<name>
	r.Get("/", fileHandler.Shared)

	r.Get("/api/files", fileHandler.List)
	r.Get("/api/files/{id}", fileHandler.Download)
	r.Get("/api/storage", fileHandler.Storage)

	return &Handler{Router: r}
}
