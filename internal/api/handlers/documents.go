// documents.go — обработчики API документов:
// загрузка (multipart), листинг с подписанными ссылками, удаление.
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/avkuzmin/hashdoc/internal/api/errors"
	"github.com/avkuzmin/hashdoc/internal/domain/model"
	"github.com/avkuzmin/hashdoc/internal/service"
)

// Лимит памяти для разбора multipart-формы; остальное уходит во временные
// файлы, откуда содержимое читается потоком.
const multipartMemoryLimit = 32 << 20 // 32 MiB

// DocumentsHandler — обработчик endpoints документов.
type DocumentsHandler struct {
	ingestSvc     *service.IngestService
	listSvc       *service.ListService
	deleteSvc     *service.DeleteService
	maxUploadSize int64
	logger        *slog.Logger
}

// NewDocumentsHandler создаёт обработчик документов.
// maxUploadSize — лимит размера загрузки в байтах (HD_MAX_UPLOAD_SIZE).
func NewDocumentsHandler(
	ingestSvc *service.IngestService,
	listSvc *service.ListService,
	deleteSvc *service.DeleteService,
	maxUploadSize int64,
	logger *slog.Logger,
) *DocumentsHandler {
	return &DocumentsHandler{
		ingestSvc:     ingestSvc,
		listSvc:       listSvc,
		deleteSvc:     deleteSvc,
		maxUploadSize: maxUploadSize,
		logger:        logger.With(slog.String("component", "documents_handler")),
	}
}

// uploadResponse — ответ успешной загрузки.
type uploadResponse struct {
	ContentHash string `json:"content_hash"`
	IsDuplicate bool   `json:"is_duplicate"`
}

// documentItem — элемент листинга документов.
type documentItem struct {
	ID             string    `json:"id"`
	Filename       string    `json:"filename"`
	Size           int64     `json:"size"`
	ContentHash    string    `json:"content_hash"`
	IsDuplicate    bool      `json:"is_duplicate"`
	CreatedAt      time.Time `json:"created_at"`
	SignedURL      string    `json:"signed_url,omitempty"`
	URLUnavailable bool      `json:"url_unavailable,omitempty"`
}

// listResponse — ответ листинга.
type listResponse struct {
	Items []documentItem `json:"items"`
	Total int            `json:"total"`
}

// Upload обрабатывает POST /api/v1/documents — multipart-загрузку документа.
// Часть формы: file. Имя файла берётся из заголовка части.
func (h *DocumentsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			apierrors.FileTooLarge(w, fmt.Sprintf("Размер загрузки превышает лимит %d байт", h.maxUploadSize))
			return
		}
		apierrors.ValidationError(w, "Некорректная multipart-форма: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.ValidationError(w, "Часть формы 'file' обязательна")
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if filename == "" {
		apierrors.ValidationError(w, "Пустое или недопустимое имя файла")
		return
	}

	result, err := h.ingestSvc.Ingest(r.Context(), file, filename, header.Size)
	if err != nil {
		h.writeIngestError(w, filename, err)
		return
	}

	writeJSON(w, http.StatusCreated, uploadResponse{
		ContentHash: result.ContentHash,
		IsDuplicate: result.IsDuplicate,
	})
}

// List обрабатывает GET /api/v1/documents — листинг документов
// с подписанными ссылками, новые первыми.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.listSvc.List(r.Context())
	if err != nil {
		h.logger.Error("Ошибка листинга документов", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Листинг документов не удался")
		return
	}

	items := make([]documentItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, toDocumentItem(doc))
	}

	writeJSON(w, http.StatusOK, listResponse{Items: items, Total: len(items)})
}

// Delete обрабатывает DELETE /api/v1/documents/{id}?filename=...
// Оркестрация: объект, затем строка метаданных.
func (h *DocumentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	recordID := chi.URLParam(r, "id")
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		apierrors.ValidationError(w, "Параметр 'filename' обязателен")
		return
	}

	if err := h.deleteSvc.Delete(r.Context(), recordID, filename); err != nil {
		h.writeDeleteError(w, recordID, filename, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeIngestError маппит таксономию ошибок загрузки в HTTP-ответы.
func (h *DocumentsHandler) writeIngestError(w http.ResponseWriter, filename string, err error) {
	var orphanErr *service.OrphanedObjectError

	switch {
	case errors.Is(err, service.ErrHashing):
		apierrors.WriteError(w, http.StatusBadRequest, apierrors.CodeHashingFailed,
			"Не удалось вычислить отпечаток содержимого")
	case errors.Is(err, service.ErrDuplicateCheck):
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.CodeDuplicateCheckFailed,
			"Проверка дубликата не удалась")
	case errors.Is(err, service.ErrObjectExists):
		apierrors.ObjectExists(w, fmt.Sprintf("Объект %q уже существует", filename))
	case errors.Is(err, service.ErrObjectWrite):
		apierrors.WriteError(w, http.StatusBadGateway, apierrors.CodeObjectWriteFailed,
			"Запись объекта в object store не удалась")
	case errors.As(err, &orphanErr):
		// Объект осиротел — ключ в сообщении для ручной очистки
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.CodeOrphanedObject,
			fmt.Sprintf("Вставка метаданных и компенсация отказали, объект %q осиротел", orphanErr.Key))
	case errors.Is(err, service.ErrMetadataInsert):
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.CodeMetadataInsertFailed,
			"Вставка метаданных не удалась, объект удалён компенсацией")
	default:
		h.logger.Error("Непредвиденная ошибка загрузки",
			slog.String("filename", filename),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Загрузка документа не удалась")
	}
}

// writeDeleteError маппит таксономию ошибок удаления в HTTP-ответы.
func (h *DocumentsHandler) writeDeleteError(w http.ResponseWriter, recordID, filename string, err error) {
	var orphanErr *service.OrphanedMetadataError

	switch {
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, fmt.Sprintf("Документ %s не найден", recordID))
	case errors.Is(err, service.ErrObjectDelete):
		apierrors.WriteError(w, http.StatusBadGateway, apierrors.CodeObjectDeleteFailed,
			fmt.Sprintf("Удаление объекта %q не удалось, метаданные сохранены", filename))
	case errors.As(err, &orphanErr):
		// Строка осиротела — id в сообщении для повторного удаления
		apierrors.WriteError(w, http.StatusInternalServerError, apierrors.CodeMetadataDeleteFailed,
			fmt.Sprintf("Объект %q удалён, но метаданные %s осиротели", filename, orphanErr.RecordID))
	default:
		h.logger.Error("Непредвиденная ошибка удаления",
			slog.String("document_id", recordID),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Удаление документа не удалось")
	}
}

// toDocumentItem маппит view model сервиса в JSON-представление.
func toDocumentItem(doc *model.SignedDocument) documentItem {
	return documentItem{
		ID:             doc.Record.ID,
		Filename:       doc.Record.Filename,
		Size:           doc.Record.Size,
		ContentHash:    doc.Record.ContentHash,
		IsDuplicate:    doc.Record.IsDuplicate,
		CreatedAt:      doc.Record.CreatedAt,
		SignedURL:      doc.SignedURL,
		URLUnavailable: doc.URLUnavailable,
	}
}

// sanitizeFilename нормализует имя файла из заголовка multipart-части:
// отбрасывает путь, отклоняет пустые и служебные имена.
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	return name
}
