// ingest.go — сага загрузки документа.
// Полный pipeline: отпечаток → проверка дубликата → запись объекта →
// вставка метаданных, с компенсирующим удалением объекта при отказе вставки.
//
// Двухшаговая сага с одним компенсирующим действием: распределённой
// транзакции нет, атомарность аппроксимируется. Разрыв наблюдаем —
// отказ самой компенсации поднимается как OrphanedObjectError,
// а не проглатывается.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/avkuzmin/hashdoc/internal/domain/model"
	"github.com/avkuzmin/hashdoc/internal/hasher"
	"github.com/avkuzmin/hashdoc/internal/objectstore"
	"github.com/avkuzmin/hashdoc/internal/repository"
)

// Prometheus-метрики ingest.
var (
	ingestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hd_ingests_total",
		Help: "Общее количество загрузок документов (по статусу).",
	}, []string{"status"})

	ingestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hd_ingest_duration_seconds",
		Help:    "Длительность полного pipeline загрузки.",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})

	ingestBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hd_ingest_bytes_total",
		Help: "Общее количество принятых байт.",
	})

	duplicatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hd_duplicates_total",
		Help: "Количество загрузок, помеченных как дубликат по отпечатку.",
	})

	compensationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hd_compensations_total",
		Help: "Компенсирующие удаления объекта после отказа вставки метаданных (по статусу).",
	}, []string{"status"})
)

// IngestResult — результат загрузки документа.
type IngestResult struct {
	// ContentHash — отпечаток содержимого
	ContentHash string
	// IsDuplicate — содержимое уже встречалось на момент вставки
	IsDuplicate bool
}

// IngestService — оркестратор загрузки документов.
// Stateless: никакого client-side locking, никакого кэширования записей;
// конкурентные загрузки не сериализуются друг относительно друга.
type IngestService struct {
	fileRepo repository.FileRepository
	objStore objectstore.Client
	detector *DuplicateDetector
	logger   *slog.Logger
}

// NewIngestService создаёт оркестратор загрузки.
func NewIngestService(
	fileRepo repository.FileRepository,
	objStore objectstore.Client,
	detector *DuplicateDetector,
	logger *slog.Logger,
) *IngestService {
	return &IngestService{
		fileRepo: fileRepo,
		objStore: objStore,
		detector: detector,
		logger:   logger.With(slog.String("component", "ingest_service")),
	}
}

// Ingest выполняет полный pipeline загрузки документа.
//
// Шаги строго последовательны — решение каждого шага зависит от исхода
// предыдущего:
//  1. Отпечаток содержимого (streaming) — отказ: ErrHashing, без side effects
//  2. Проверка дубликата (existence, limit 1) — отказ: ErrDuplicateCheck, без side effects
//  3. Запись объекта по ключу filename — занятый ключ: ErrObjectExists,
//     иной отказ: ErrObjectWrite; ничего ещё не сохранено
//  4. Вставка метаданных — при отказе компенсирующее удаление объекта
//     (ErrMetadataInsert при успешной компенсации, OrphanedObjectError
//     при отказе самой компенсации)
//
// content читается дважды (отпечаток, затем тело put) через Seek,
// без удержания содержимого в памяти.
func (s *IngestService) Ingest(ctx context.Context, content io.ReadSeeker, filename string, size int64) (*IngestResult, error) {
	start := time.Now()

	// 1. Отпечаток содержимого
	contentHash, err := hasher.Sum(content)
	if err != nil {
		ingestsTotal.WithLabelValues("hash_error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrHashing, err)
	}

	// 2. Проверка дубликата
	isDuplicate, err := s.detector.IsDuplicate(ctx, contentHash)
	if err != nil {
		ingestsTotal.WithLabelValues("dedup_error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrDuplicateCheck, err)
	}

	// Возврат потока к началу перед передачей в object store
	if _, err := content.Seek(0, io.SeekStart); err != nil {
		ingestsTotal.WithLabelValues("hash_error").Inc()
		return nil, fmt.Errorf("%w: возврат потока: %v", ErrHashing, err)
	}

	// 3. Запись объекта (no-overwrite: занятый ключ — коллизия имени)
	if err := s.objStore.Put(ctx, filename, content, size); err != nil {
		if errors.Is(err, objectstore.ErrAlreadyExists) {
			ingestsTotal.WithLabelValues("name_conflict").Inc()
			return nil, fmt.Errorf("%w: %s", ErrObjectExists, filename)
		}
		ingestsTotal.WithLabelValues("object_error").Inc()
		return nil, fmt.Errorf("%w: %v", ErrObjectWrite, err)
	}

	// 4. Вставка метаданных; при отказе — компенсация
	record := &model.FileRecord{
		Filename:    filename,
		Size:        size,
		ContentHash: contentHash,
		IsDuplicate: isDuplicate,
	}
	if _, err := s.fileRepo.Insert(ctx, record); err != nil {
		return nil, s.compensate(ctx, filename, err)
	}

	// Метрики и лог успеха
	duration := time.Since(start)
	ingestsTotal.WithLabelValues("success").Inc()
	ingestDuration.Observe(duration.Seconds())
	ingestBytesTotal.Add(float64(size))
	if isDuplicate {
		duplicatesTotal.Inc()
	}

	s.logger.Info("Документ загружен",
		slog.String("document_id", record.ID),
		slog.String("filename", filename),
		slog.Int64("size", size),
		slog.String("content_hash", contentHash),
		slog.Bool("is_duplicate", isDuplicate),
		slog.Duration("duration", duration),
	)

	return &IngestResult{
		ContentHash: contentHash,
		IsDuplicate: isDuplicate,
	}, nil
}

// compensate удаляет уже записанный объект после отказа вставки метаданных,
// восстанавливая инвариант «запись существует ⇔ существуют обе половины».
// Отказ самой компенсации поднимается отдельной ошибкой: объект осиротел,
// заявлять восстановленную консистентность нельзя.
func (s *IngestService) compensate(ctx context.Context, key string, insertErr error) error {
	s.logger.Warn("Вставка метаданных отказала, выполняется компенсирующее удаление объекта",
		slog.String("key", key),
		slog.String("error", insertErr.Error()),
	)

	if removeErr := s.objStore.Remove(ctx, key); removeErr != nil {
		compensationsTotal.WithLabelValues("failed").Inc()
		ingestsTotal.WithLabelValues("orphaned_object").Inc()
		s.logger.Error("Компенсирующее удаление отказало — объект осиротел",
			slog.String("key", key),
			slog.String("remove_error", removeErr.Error()),
		)
		return &OrphanedObjectError{Key: key, InsertErr: insertErr, RemoveErr: removeErr}
	}

	compensationsTotal.WithLabelValues("success").Inc()
	ingestsTotal.WithLabelValues("metadata_error").Inc()
	return fmt.Errorf("%w: %v", ErrMetadataInsert, insertErr)
}
