// dedup.go — детектор дубликатов по контентному отпечатку.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/avkuzmin/hashdoc/internal/repository"
)

// DuplicateDetector — проверка дублирования по content hash.
//
// Политика — первоклассный инвариант, а не деталь реализации:
// точное совпадение отпечатка, никакого fuzzy/perceptual matching.
// Запрос ограничен existence-проверкой (не более одной строки).
//
// Проверка не линеаризуема относительно конкурентных вставок:
// две одновременные загрузки одинаковых байтов могут обе пройти
// как «ещё не дубликат». Это принятое свойство модели
// (is_duplicate — факт на момент вставки), не дефект.
type DuplicateDetector struct {
	fileRepo repository.FileRepository
	logger   *slog.Logger
}

// NewDuplicateDetector создаёт детектор дубликатов.
func NewDuplicateDetector(fileRepo repository.FileRepository, logger *slog.Logger) *DuplicateDetector {
	return &DuplicateDetector{
		fileRepo: fileRepo,
		logger:   logger.With(slog.String("component", "duplicate_detector")),
	}
}

// IsDuplicate возвращает true, если хотя бы одна существующая запись
// несёт тот же отпечаток.
func (d *DuplicateDetector) IsDuplicate(ctx context.Context, contentHash string) (bool, error) {
	exists, err := d.fileRepo.ExistsByHash(ctx, contentHash)
	if err != nil {
		return false, fmt.Errorf("existence-проверка отпечатка %s: %w", contentHash, err)
	}

	if exists {
		d.logger.Debug("Отпечаток уже встречался",
			slog.String("content_hash", contentHash),
		)
	}

	return exists, nil
}
