// Пакет model — доменные модели hashdoc.
// FileRecord — маппинг таблицы documents (metadata store).
package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrMalformedRecord — запись metadata store не прошла валидацию на границе.
// Динамические данные хранилища маппятся в строго типизированный FileRecord
// только после явной проверки, без молчаливого приведения типов.
var ErrMalformedRecord = errors.New("некорректная запись метаданных")

// Длина hex-представления SHA-256 отпечатка.
const contentHashHexLen = 64

// FileRecord — запись документа в metadata store.
// Запись существует тогда и только тогда, когда существует и объект
// в object store, и строка метаданных; этот инвариант поддерживает
// сервисный слой (ingest/deletion).
type FileRecord struct {
	// ID — идентификатор записи, присваивается metadata store при вставке
	ID string
	// Filename — логическое имя файла; одновременно ключ объекта в object store.
	// Уникально per stored object — повторный put по тому же ключу запрещён.
	Filename string
	// Size — размер содержимого в байтах, фиксируется при загрузке
	Size int64
	// ContentHash — SHA-256 отпечаток содержимого (hex, lowercase).
	// Чистая функция от байтов файла, не зависит от имени.
	ContentHash string
	// IsDuplicate — на момент вставки уже существовала запись с тем же
	// ContentHash. Факт фиксируется один раз и не пересчитывается
	// при удалении более ранних записей.
	IsDuplicate bool
	// CreatedAt — время создания записи (присваивает хранилище).
	// Определяет порядок листинга: created_at DESC.
	CreatedAt time.Time
}

// Validate проверяет запись после маппинга из metadata store.
// Возвращает ErrMalformedRecord с деталями при нарушении формата.
func (f *FileRecord) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("%w: пустой id", ErrMalformedRecord)
	}
	if f.Filename == "" {
		return fmt.Errorf("%w: пустое имя файла (id %s)", ErrMalformedRecord, f.ID)
	}
	if f.Size < 0 {
		return fmt.Errorf("%w: отрицательный размер %d (id %s)", ErrMalformedRecord, f.Size, f.ID)
	}
	if len(f.ContentHash) != contentHashHexLen {
		return fmt.Errorf("%w: длина content_hash %d, ожидалась %d (id %s)",
			ErrMalformedRecord, len(f.ContentHash), contentHashHexLen, f.ID)
	}
	for _, c := range f.ContentHash {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return fmt.Errorf("%w: content_hash содержит не-hex символ %q (id %s)",
				ErrMalformedRecord, c, f.ID)
		}
	}
	return nil
}

// SignedDocument — view model элемента листинга: запись плюс свежая
// подписанная ссылка. Ссылка запрашивается заново при каждом листинге
// и не сохраняется в metadata store.
type SignedDocument struct {
	// Record — запись документа
	Record *FileRecord
	// SignedURL — подписанная ссылка на скачивание (пустая при URLUnavailable)
	SignedURL string
	// URLUnavailable — получить ссылку не удалось; запись при этом
	// остаётся в листинге (изоляция per-item сбоев)
	URLUnavailable bool
}
