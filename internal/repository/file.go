package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/avkuzmin/hashdoc/internal/domain/model"
)

// fileColumns — список столбцов таблицы documents для SELECT-запросов.
// DRY: одно место для всех SELECT'ов.
const fileColumns = `document_id, filename, size, content_hash, is_duplicate, created_at`

// FileRepository — интерфейс доступа к таблице documents.
// Контракт metadata store: insert, delete, existence-проверка по отпечатку,
// упорядоченный листинг. Мутации записей не поддерживаются — «обновление»
// документа означает удаление и повторную загрузку.
type FileRepository interface {
	// Insert создаёт запись и возвращает присвоенный id.
	// CreatedAt присваивает хранилище; поле записи заполняется возвращённым значением.
	Insert(ctx context.Context, f *model.FileRecord) (string, error)
	// Delete удаляет запись по id. ErrNotFound если записи нет.
	Delete(ctx context.Context, id string) error
	// ExistsByHash проверяет существование хотя бы одной записи
	// с указанным content_hash. Ровно existence-проверка (LIMIT 1):
	// полный набор дубликатов не материализуется.
	ExistsByHash(ctx context.Context, contentHash string) (bool, error)
	// ListAll возвращает все записи, упорядоченные по created_at DESC
	// (новые первыми). Снимок на момент вызова, без курсора между вызовами.
	ListAll(ctx context.Context) ([]*model.FileRecord, error)
}

// fileRepo — реализация FileRepository через pgx.
type fileRepo struct {
	db DBTX
}

// NewFileRepository создаёт репозиторий документов.
func NewFileRepository(db DBTX) FileRepository {
	return &fileRepo{db: db}
}

// Insert создаёт запись документа. id генерируется на стороне клиента (UUID),
// created_at присваивает PostgreSQL.
func (r *fileRepo) Insert(ctx context.Context, f *model.FileRecord) (string, error) {
	id := uuid.New().String()

	query := `
		INSERT INTO documents (document_id, filename, size, content_hash, is_duplicate)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	err := r.db.QueryRow(ctx, query,
		id, f.Filename, f.Size, f.ContentHash, f.IsDuplicate,
	).Scan(&f.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("ошибка вставки записи документа: %w", err)
	}

	f.ID = id
	return id, nil
}

// Delete удаляет запись по id или возвращает ErrNotFound.
func (r *fileRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM documents WHERE document_id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления записи документа: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ExistsByHash — existence-проверка по content_hash (LIMIT 1).
func (r *fileRepo) ExistsByHash(ctx context.Context, contentHash string) (bool, error) {
	var one int
	err := r.db.QueryRow(ctx,
		`SELECT 1 FROM documents WHERE content_hash = $1 LIMIT 1`, contentHash,
	).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("ошибка проверки отпечатка: %w", err)
	}
	return true, nil
}

// ListAll возвращает все записи, новые первыми.
// Каждая строка валидируется на границе; некорректная строка прерывает
// листинг с model.ErrMalformedRecord, а не приводится молча.
func (r *fileRepo) ListAll(ctx context.Context) ([]*model.FileRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents ORDER BY created_at DESC`, fileColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка листинга документов: %w", err)
	}
	defer rows.Close()

	var result []*model.FileRecord
	for rows.Next() {
		f, err := scanFileRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации результатов: %w", err)
	}

	return result, nil
}

// scanFileRecord маппит строку в FileRecord с валидацией на границе.
func scanFileRecord(row pgx.Row) (*model.FileRecord, error) {
	f := &model.FileRecord{}
	if err := row.Scan(
		&f.ID, &f.Filename, &f.Size, &f.ContentHash, &f.IsDuplicate, &f.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("ошибка сканирования записи документа: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}
