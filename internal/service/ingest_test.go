package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/avkuzmin/hashdoc/internal/hasher"
)

// newIngestService собирает оркестратор загрузки поверх fakes.
func newIngestService(repo *fakeFileRepo, store *fakeObjectStore) *IngestService {
	logger := slog.Default()
	detector := NewDuplicateDetector(repo, logger)
	return NewIngestService(repo, store, detector, logger)
}

// ingestBytes — хелпер: загрузка содержимого из памяти.
func ingestBytes(t *testing.T, svc *IngestService, content, filename string) (*IngestResult, error) {
	t.Helper()
	return svc.Ingest(context.Background(), bytes.NewReader([]byte(content)), filename, int64(len(content)))
}

// TestIngest_Success проверяет полный успешный pipeline:
// отпечаток, запись объекта, вставка метаданных.
func TestIngest_Success(t *testing.T) {
	repo := newFakeFileRepo()
	store := newFakeObjectStore()
	svc := newIngestService(repo, store)

	result, err := ingestBytes(t, svc, "hello", "a.txt")
	if err != nil {
		t.Fatalf("Ingest ошибка: %v", err)
	}

	if result.IsDuplicate {
		t.Error("IsDuplicate = true, ожидался false для первой загрузки")
	}
	if want := hasher.SumBytes([]byte("hello")); result.ContentHash != want {
		t.Errorf("ContentHash = %q, ожидался %q", result.ContentHash, want)
	}
	if !store.has("a.txt") {
		t.Error("объект a.txt не записан в object store")
	}

	rec := repo.get("doc-1")
	if rec == nil {
		t.Fatal("запись doc-1 не найдена в metadata store")
	}
	if rec.Filename != "a.txt" || rec.Size != 5 || rec.IsDuplicate {
		t.Errorf("запись = %+v, ожидались filename=a.txt size=5 is_duplicate=false", rec)
	}
}

// TestIngest_DuplicateDetection проверяет сценарий: одинаковые байты
// под разными именами — первая загрузка не дубликат, вторая дубликат.
func TestIngest_DuplicateDetection(t *testing.T) {
	repo := newFakeFileRepo()
	store := newFakeObjectStore()
	svc := newIngestService(repo, store)

	first, err := ingestBytes(t, svc, "hello", "a.txt")
	if err != nil {
		t.Fatalf("первая загрузка ошибка: %v", err)
	}
	second, err := ingestBytes(t, svc, "hello", "b.txt")
	if err != nil {
		t.Fatalf("вторая загрузка ошибка: %v", err)
	}

	if first.IsDuplicate {
		t.Error("первая загрузка: IsDuplicate = true, ожидался false")
	}
	if !second.IsDuplicate {
		t.Error("вторая загрузка: IsDuplicate = false, ожидался true")
	}
	if first.ContentHash != second.ContentHash {
		t.Errorf("отпечатки одинаковых байтов различаются: %q != %q",
			first.ContentHash, second.ContentHash)
	}
	// Дубликаты хранятся как отдельные объекты, лишь помечаются
	if !store.has("a.txt") || !store.has("b.txt") {
		t.Error("оба объекта должны существовать в object store")
	}

	// Обе записи доступны через листинг
	docs, err := newListService(repo, store).List(context.Background())
	if err != nil {
		t.Fatalf("List ошибка: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("длина листинга = %d, ожидалась 2", len(docs))
	}
}

// TestIngest_NameConflict проверяет коллизию ключа: повторная загрузка
// под занятым именем — ErrObjectExists, строка метаданных не создаётся.
func TestIngest_NameConflict(t *testing.T) {
	repo := newFakeFileRepo()
	store := newFakeObjectStore()
	svc := newIngestService(repo, store)

	if _, err := ingestBytes(t, svc, "hello", "a.txt"); err != nil {
		t.Fatalf("первая загрузка ошибка: %v", err)
	}

	_, err := ingestBytes(t, svc, "other content", "a.txt")
	if !errors.Is(err, ErrObjectExists) {
		t.Fatalf("ошибка = %v, ожидалась ErrObjectExists", err)
	}

	// Ровно одна запись метаданных
	records, _ := repo.ListAll(context.Background())
	if len(records) != 1 {
		t.Errorf("записей метаданных = %d, ожидалась 1", len(records))
	}
}

// TestIngest_MetadataInsertFailed_CompensationRuns проверяет компенсацию:
// при отказе вставки метаданных объект удаляется до проброса ошибки.
func TestIngest_MetadataInsertFailed_CompensationRuns(t *testing.T) {
	repo := newFakeFileRepo()
	repo.insertErr = errors.New("вставка отказала")
	store := newFakeObjectStore()
	svc := newIngestService(repo, store)

	_, err := ingestBytes(t, svc, "hello", "a.txt")
	if !errors.Is(err, ErrMetadataInsert) {
		t.Fatalf("ошибка = %v, ожидалась ErrMetadataInsert", err)
	}

	// Компенсация выполнилась: объекта больше нет
	if store.has("a.txt") {
		t.Error("объект a.txt существует после компенсации, ожидалось удаление")
	}
}

// TestIngest_CompensationFailed_OrphanedObject проверяет отказ самой
// компенсации: ошибка — OrphanedObjectError с ключом, объект остаётся.
func TestIngest_CompensationFailed_OrphanedObject(t *testing.T) {
	repo := newFakeFileRepo()
	repo.insertErr = errors.New("вставка отказала")
	store := newFakeObjectStore()
	store.removeErr = errors.New("удаление отказало")
	svc := newIngestService(repo, store)

	_, err := ingestBytes(t, svc, "hello", "a.txt")

	var orphanErr *OrphanedObjectError
	if !errors.As(err, &orphanErr) {
		t.Fatalf("ошибка = %v, ожидалась OrphanedObjectError", err)
	}
	if orphanErr.Key != "a.txt" {
		t.Errorf("Key = %q, ожидался a.txt", orphanErr.Key)
	}
	// Осиротевший объект всё ещё существует — консистентность не восстановлена
	if !store.has("a.txt") {
		t.Error("осиротевший объект a.txt отсутствует, ожидалось сохранение")
	}
}

// failSeeker — нечитаемый вход для проверки ErrHashing.
type failSeeker struct{}

func (failSeeker) Read([]byte) (int, error) { return 0, errors.New("ошибка чтения") }
func (failSeeker) Seek(int64, int) (int64, error) { return 0, nil }

// TestIngest_HashingFailed проверяет отказ на шаге отпечатка:
// ErrHashing, никаких side effects.
func TestIngest_HashingFailed(t *testing.T) {
	repo := newFakeFileRepo()
	store := newFakeObjectStore()
	svc := newIngestService(repo, store)

	_, err := svc.Ingest(context.Background(), failSeeker{}, "a.txt", 5)
	if !errors.Is(err, ErrHashing) {
		t.Fatalf("ошибка = %v, ожидалась ErrHashing", err)
	}
	if len(store.ops) != 0 {
		t.Errorf("object store вызывался (%v), ожидалось отсутствие side effects", store.ops)
	}
}

// TestIngest_DuplicateCheckFailed проверяет отказ проверки дубликата:
// ErrDuplicateCheck, объект не записывается.
func TestIngest_DuplicateCheckFailed(t *testing.T) {
	repo := newFakeFileRepo()
	repo.existsErr = errors.New("metadata store недоступен")
	store := newFakeObjectStore()
	svc := newIngestService(repo, store)

	_, err := ingestBytes(t, svc, "hello", "a.txt")
	if !errors.Is(err, ErrDuplicateCheck) {
		t.Fatalf("ошибка = %v, ожидалась ErrDuplicateCheck", err)
	}
	if len(store.ops) != 0 {
		t.Errorf("object store вызывался (%v), ожидалось отсутствие side effects", store.ops)
	}
}

// TestIngest_DuplicateFlagIsPointInTime проверяет: is_duplicate —
// факт на момент вставки, не пересчитывается при удалении более
// ранней записи с тем же отпечатком.
func TestIngest_DuplicateFlagIsPointInTime(t *testing.T) {
	repo := newFakeFileRepo()
	store := newFakeObjectStore()
	svc := newIngestService(repo, store)
	del := NewDeleteService(repo, store, slog.Default())

	if _, err := ingestBytes(t, svc, "hello", "a.txt"); err != nil {
		t.Fatalf("первая загрузка ошибка: %v", err)
	}
	if _, err := ingestBytes(t, svc, "hello", "b.txt"); err != nil {
		t.Fatalf("вторая загрузка ошибка: %v", err)
	}

	// Удаляем оригинал
	if err := del.Delete(context.Background(), "doc-1", "a.txt"); err != nil {
		t.Fatalf("Delete ошибка: %v", err)
	}

	// Флаг второй записи остаётся true
	rec := repo.get("doc-2")
	if rec == nil {
		t.Fatal("запись doc-2 не найдена")
	}
	if !rec.IsDuplicate {
		t.Error("IsDuplicate = false после удаления оригинала, ожидалось сохранение true")
	}
}

// TestIngest_Streaming проверяет, что содержимое передаётся в object store
// после возврата потока к началу (отпечаток и тело совпадают).
func TestIngest_Streaming(t *testing.T) {
	repo := newFakeFileRepo()
	store := newFakeObjectStore()
	svc := newIngestService(repo, store)

	content := bytes.Repeat([]byte("data"), 1024)
	result, err := svc.Ingest(context.Background(), bytes.NewReader(content), "big.bin", int64(len(content)))
	if err != nil {
		t.Fatalf("Ingest ошибка: %v", err)
	}

	store.mu.Lock()
	stored := store.objects["big.bin"]
	store.mu.Unlock()

	if !bytes.Equal(stored, content) {
		t.Error("содержимое в object store не совпадает с загруженным")
	}
	if want := hasher.SumBytes(content); result.ContentHash != want {
		t.Errorf("ContentHash = %q, ожидался %q", result.ContentHash, want)
	}
}

var _ io.ReadSeeker = failSeeker{}
