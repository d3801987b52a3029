// retrieval.go — сервис листинга документов с подписанными ссылками.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/avkuzmin/hashdoc/internal/domain/model"
	"github.com/avkuzmin/hashdoc/internal/objectstore"
	"github.com/avkuzmin/hashdoc/internal/repository"
)

// Prometheus-метрики листинга.
var (
	listsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hd_lists_total",
		Help: "Общее количество листингов (по статусу).",
	}, []string{"status"})

	signFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hd_sign_failures_total",
		Help: "Количество per-item отказов подписания ссылки в листинге.",
	})
)

// ListService — сервис листинга: записи metadata store плюс свежая
// подписанная ссылка на каждую.
type ListService struct {
	fileRepo repository.FileRepository
	objStore objectstore.Client
	signTTL  time.Duration
	logger   *slog.Logger
}

// NewListService создаёт сервис листинга.
// signTTL — срок действия подписанных ссылок (HD_SIGN_TTL).
func NewListService(
	fileRepo repository.FileRepository,
	objStore objectstore.Client,
	signTTL time.Duration,
	logger *slog.Logger,
) *ListService {
	return &ListService{
		fileRepo: fileRepo,
		objStore: objStore,
		signTTL:  signTTL,
		logger:   logger.With(slog.String("component", "list_service")),
	}
}

// List возвращает все документы, новые первыми, каждый со свежей
// подписанной ссылкой.
//
// Изоляция per-item сбоев: отказ подписания одной записи не прерывает
// листинг — запись возвращается с URLUnavailable=true. Длина результата
// всегда равна числу строк в metadata store.
//
// Снимок на момент вызова: курсор между вызовами не сохраняется,
// повторный List даёт свежий снимок и свежие ссылки.
func (s *ListService) List(ctx context.Context) ([]*model.SignedDocument, error) {
	records, err := s.fileRepo.ListAll(ctx)
	if err != nil {
		listsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("листинг документов: %w", err)
	}

	docs := make([]*model.SignedDocument, 0, len(records))
	for _, record := range records {
		doc := &model.SignedDocument{Record: record}

		url, signErr := s.objStore.Sign(ctx, record.Filename, s.signTTL)
		if signErr != nil {
			signFailuresTotal.Inc()
			doc.URLUnavailable = true
			s.logger.Warn("Подписание ссылки отказало, запись возвращается без ссылки",
				slog.String("document_id", record.ID),
				slog.String("filename", record.Filename),
				slog.String("error", signErr.Error()),
			)
		} else {
			doc.SignedURL = url
		}

		docs = append(docs, doc)
	}

	listsTotal.WithLabelValues("success").Inc()
	s.logger.Debug("Листинг выполнен",
		slog.Int("count", len(docs)),
	)

	return docs, nil
}
