// errors.go — таксономия ошибок оркестрации.
// Каждая публичная операция завершается либо успехом, либо одной
// терминальной ошибкой, указывающей отказавший шаг. Частичные состояния
// (orphan-объект, orphan-метаданные) несут ключ/id для ручной сверки.
package service

import (
	"errors"
	"fmt"
)

// Ошибки сервисного слоя.
var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("документ не найден")
	// ErrHashing — не удалось вычислить отпечаток (нечитаемый вход).
	// Побочных эффектов нет.
	ErrHashing = errors.New("вычисление отпечатка не удалось")
	// ErrDuplicateCheck — проверка дубликата в metadata store отказала.
	// Побочных эффектов нет.
	ErrDuplicateCheck = errors.New("проверка дубликата не удалась")
	// ErrObjectExists — ключ в object store занят (коллизия имени,
	// независимая от дублирования по отпечатку).
	ErrObjectExists = errors.New("объект с таким именем уже существует")
	// ErrObjectWrite — запись объекта отказала; ничего не сохранено.
	ErrObjectWrite = errors.New("запись объекта не удалась")
	// ErrMetadataInsert — вставка метаданных отказала, компенсирующее
	// удаление объекта выполнено: чистый отказ без осиротевших половин.
	ErrMetadataInsert = errors.New("вставка метаданных не удалась")
	// ErrObjectDelete — удаление объекта отказало; строка метаданных
	// намеренно сохранена (fail-safe: не удалять метаданные возможно
	// ещё существующего объекта).
	ErrObjectDelete = errors.New("удаление объекта не удалось")
)

// OrphanedObjectError — вставка метаданных отказала И компенсирующее
// удаление объекта тоже отказало. Объект осиротел — консистентность
// НЕ восстановлена, требуется операционная очистка по ключу.
type OrphanedObjectError struct {
	// Key — ключ осиротевшего объекта в object store
	Key string
	// InsertErr — исходная ошибка вставки метаданных
	InsertErr error
	// RemoveErr — ошибка компенсирующего удаления
	RemoveErr error
}

func (e *OrphanedObjectError) Error() string {
	return fmt.Sprintf("объект %q осиротел: вставка метаданных: %v; компенсирующее удаление: %v",
		e.Key, e.InsertErr, e.RemoveErr)
}

// Unwrap возвращает исходную ошибку вставки.
func (e *OrphanedObjectError) Unwrap() error { return e.InsertErr }

// OrphanedMetadataError — объект уже удалён, но удаление строки метаданных
// отказало. Строка ссылается на несуществующий объект; состояние
// обнаружимо при листинге (ссылка не работает) и требует повторного delete.
type OrphanedMetadataError struct {
	// RecordID — id осиротевшей записи метаданных
	RecordID string
	// Key — ключ уже удалённого объекта
	Key string
	// Err — ошибка удаления метаданных
	Err error
}

func (e *OrphanedMetadataError) Error() string {
	return fmt.Sprintf("метаданные %s осиротели (объект %q уже удалён): %v",
		e.RecordID, e.Key, e.Err)
}

// Unwrap возвращает ошибку удаления метаданных.
func (e *OrphanedMetadataError) Unwrap() error { return e.Err }
