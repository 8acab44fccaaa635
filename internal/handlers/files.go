package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"time"

	"FileShelf/internal/codec"
	"FileShelf/internal/config"
	"FileShelf/internal/model"
	"FileShelf/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// FileHandler отдаёт файлы активного пользователя полки.
type FileHandler struct {
	Shelf  *service.Shelf
	Logger *zap.SugaredLogger
	Config *config.Config
}

// NewFileHandler создаёт хендлер файлов
func NewFileHandler(shelf *service.Shelf, logger *zap.SugaredLogger, cfg *config.Config) *FileHandler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &FileHandler{Shelf: shelf, Logger: logger, Config: cfg}
}

// FileDTO: запись без содержимого.
type FileDTO struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Category   string    `json:"category"`
	Size       int64     `json:"size"`
	UploadTime time.Time `json:"uploadTime"`
	IsLarge    bool      `json:"isLargeFile"`
}

// StorageDTO: занятое место.
type StorageDTO struct {
	Used    int64   `json:"used"`
	Limit   int64   `json:"limit"`
	Percent float64 `json:"percent"`
	Display string  `json:"display"`
}

func toDTO(f model.FileRecord) FileDTO {
	return FileDTO{
		ID:         f.ID,
		Name:       f.Name,
		Type:       f.MimeType,
		Category:   string(codec.CategoryOf(f.Name)),
		Size:       f.SizeBytes,
		UploadTime: f.UploadedAt,
		IsLarge:    f.IsLarge,
	}
}

// writeError переводит ошибки сервиса в HTTP-статусы.
func (h *FileHandler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrNoActiveIdentity):
		http.Error(w, "no active identity", http.StatusUnauthorized)
	case errors.Is(err, service.ErrFileNotFound):
		http.Error(w, "file not found", http.StatusNotFound)
	default:
		h.Logger.Errorw(op+": service error", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

// writeBlob отдаёт содержимое файла; inline: показать в браузере, иначе скачать.
func writeBlob(w http.ResponseWriter, blob codec.Blob, name string, inline bool) {
	disposition := "attachment"
	if inline {
		disposition = "inline"
	}
	w.Header().Set("Content-Type", blob.MimeType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(blob.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob.Data)
}

// Shared открывает постоянную ссылку. Без параметра open отвечает статусом полки.
func (h *FileHandler) Shared(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get(service.ParamOpen) == "" {
		u := h.Shelf.Current()
		resp := map[string]any{"status": "ok"}
		if u != nil {
			resp["userId"] = u.UserID
			resp["username"] = u.DisplayName
		}
		writeJSON(w, resp)
		return
	}

	link, err := h.Shelf.ResolveShared(q)
	if err != nil {
		h.writeError(w, "Shared", err)
		return
	}
	blob, err := codec.Decode(link.Record.EncodedContent)
	if err != nil {
		h.writeError(w, "Shared", err)
		return
	}
	writeBlob(w, blob, link.DisplayName, link.Preview)
}

// List: GET /api/files?q=<term>
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	files, err := h.Shelf.Search(r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, "List", err)
		return
	}
	out := make([]FileDTO, 0, len(files))
	for _, f := range files {
		out = append(out, toDTO(f))
	}
	writeJSON(w, out)
}

// Download: GET /api/files/{id}, всегда как вложение.
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, blob, err := h.Shelf.Download(id)
	if err != nil {
		h.writeError(w, "Download", err)
		return
	}
	writeBlob(w, blob, rec.Name, false)
}

// Storage: GET /api/storage
func (h *FileHandler) Storage(w http.ResponseWriter, r *http.Request) {
	u, err := h.Shelf.Usage()
	if err != nil {
		h.writeError(w, "Storage", err)
		return
	}
	writeJSON(w, StorageDTO{
		Used:    u.UsedBytes,
		Limit:   u.LimitBytes,
		Percent: u.Percent,
		Display: u.String(),
	})
}
