// deletion.go — оркестратор удаления документа.
// Порядок строго «объект, затем метаданные»: опасное orphan-состояние —
// «метаданные без объекта» (обнаружимо: ссылка не работает), а не
// «объект без ссылающейся записи» (невидим и непереиспользуем навсегда).
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/avkuzmin/hashdoc/internal/objectstore"
	"github.com/avkuzmin/hashdoc/internal/repository"
)

// Prometheus-метрики удаления.
var deletesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hd_deletes_total",
	Help: "Общее количество удалений документов (по статусу).",
}, []string{"status"})

// DeleteService — оркестратор удаления документов.
type DeleteService struct {
	fileRepo repository.FileRepository
	objStore objectstore.Client
	logger   *slog.Logger
}

// NewDeleteService создаёт оркестратор удаления.
func NewDeleteService(
	fileRepo repository.FileRepository,
	objStore objectstore.Client,
	logger *slog.Logger,
) *DeleteService {
	return &DeleteService{
		fileRepo: fileRepo,
		objStore: objStore,
		logger:   logger.With(slog.String("component", "delete_service")),
	}
}

// Delete удаляет документ: сначала объект, затем строку метаданных.
//
//  1. Отказ удаления объекта → ErrObjectDelete, строка метаданных
//     намеренно не трогается (fail-safe: запись продолжает отражать
//     возможно существующий объект).
//  2. Отказ удаления метаданных → OrphanedMetadataError: объект уже
//     удалён, строка осиротела — зеркальный разрыв консистентности
//     относительно ingest, и он так же наблюдаем. Несуществующий
//     recordID — отдельный случай: ErrNotFound.
//
// Транзакции поверх обоих хранилищ намеренно нет.
func (s *DeleteService) Delete(ctx context.Context, recordID, filename string) error {
	// 1. Удаляем объект. Отсутствующий объект не считается отказом:
	// это позволяет повторить удаление осиротевшей строки метаданных.
	if err := s.objStore.Remove(ctx, filename); err != nil && !errors.Is(err, objectstore.ErrNotFound) {
		deletesTotal.WithLabelValues("object_error").Inc()
		return fmt.Errorf("%w: %s: %v", ErrObjectDelete, filename, err)
	}

	// 2. Удаляем строку метаданных. Несуществующий id — не разрыв
	// консистентности, а обычный not found: объекта-сироты здесь нет.
	if err := s.fileRepo.Delete(ctx, recordID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			deletesTotal.WithLabelValues("not_found").Inc()
			return fmt.Errorf("%w: %s", ErrNotFound, recordID)
		}
		deletesTotal.WithLabelValues("orphaned_metadata").Inc()
		s.logger.Error("Объект удалён, но удаление метаданных отказало — строка осиротела",
			slog.String("document_id", recordID),
			slog.String("filename", filename),
			slog.String("error", err.Error()),
		)
		return &OrphanedMetadataError{RecordID: recordID, Key: filename, Err: err}
	}

	deletesTotal.WithLabelValues("success").Inc()
	s.logger.Info("Документ удалён",
		slog.String("document_id", recordID),
		slog.String("filename", filename),
	)

	return nil
}
