package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/avkuzmin/hashdoc/internal/domain/model"
	"github.com/avkuzmin/hashdoc/internal/objectstore"
	"github.com/avkuzmin/hashdoc/internal/repository"
)

// --- In-memory fake metadata store ---

// fakeFileRepo — in-memory реализация FileRepository для тестов.
// Порядок ListAll — обратный порядку вставки (created_at DESC).
// insertErr/deleteErr позволяют инжектировать отказы.
type fakeFileRepo struct {
	mu        sync.Mutex
	records   []*model.FileRecord
	nextID    int
	insertErr error
	deleteErr error
	listErr   error
	existsErr error
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{}
}

func (f *fakeFileRepo) Insert(_ context.Context, rec *model.FileRecord) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return "", f.insertErr
	}
	f.nextID++
	stored := *rec
	stored.ID = fmt.Sprintf("doc-%d", f.nextID)
	stored.CreatedAt = time.Now().UTC()
	f.records = append(f.records, &stored)
	rec.ID = stored.ID
	rec.CreatedAt = stored.CreatedAt
	return stored.ID, nil
}

func (f *fakeFileRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, rec := range f.records {
		if rec.ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeFileRepo) ExistsByHash(_ context.Context, contentHash string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	for _, rec := range f.records {
		if rec.ContentHash == contentHash {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeFileRepo) ListAll(_ context.Context) ([]*model.FileRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	// created_at DESC — новые первыми
	out := make([]*model.FileRecord, 0, len(f.records))
	for i := len(f.records) - 1; i >= 0; i-- {
		cp := *f.records[i]
		out = append(out, &cp)
	}
	return out, nil
}

// get возвращает хранимую запись по id (для ассертов).
func (f *fakeFileRepo) get(id string) *model.FileRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.records {
		if rec.ID == id {
			cp := *rec
			return &cp
		}
	}
	return nil
}

// --- In-memory fake object store ---

// fakeObjectStore — in-memory реализация objectstore.Client для тестов.
// Ключи уникальны (no-overwrite). removeErr/signErr инжектируют отказы;
// signFailKeys — отказ подписания только для указанных ключей.
type fakeObjectStore struct {
	mu           sync.Mutex
	objects      map[string][]byte
	putErr       error
	removeErr    error
	signErr      error
	signFailKeys map[string]bool
	signCalls    int
	ops          []string // последовательность операций для проверки порядка
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{
		objects:      make(map[string][]byte),
		signFailKeys: make(map[string]bool),
	}
}

func (f *fakeObjectStore) Put(_ context.Context, key string, r io.Reader, _ int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "put "+key)
	if f.putErr != nil {
		return f.putErr
	}
	if _, exists := f.objects[key]; exists {
		return fmt.Errorf("put %s: %w", key, objectstore.ErrAlreadyExists)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[key] = b
	return nil
}

func (f *fakeObjectStore) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "remove "+key)
	if f.removeErr != nil {
		return f.removeErr
	}
	if _, exists := f.objects[key]; !exists {
		return fmt.Errorf("remove %s: %w", key, objectstore.ErrNotFound)
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeObjectStore) Sign(_ context.Context, key string, _ time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signCalls++
	if f.signErr != nil {
		return "", f.signErr
	}
	if f.signFailKeys[key] {
		return "", errors.New("подписание отказало")
	}
	return "https://objstore/signed/" + key, nil
}

// has проверяет существование объекта по ключу.
func (f *fakeObjectStore) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}
