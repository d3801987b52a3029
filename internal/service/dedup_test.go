package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

// TestDuplicateDetector_NotDuplicate проверяет отсутствие совпадений.
func TestDuplicateDetector_NotDuplicate(t *testing.T) {
	repo := newFakeFileRepo()
	det := NewDuplicateDetector(repo, slog.Default())

	dup, err := det.IsDuplicate(context.Background(), strings.Repeat("ab", 32))
	if err != nil {
		t.Fatalf("IsDuplicate ошибка: %v", err)
	}
	if dup {
		t.Error("IsDuplicate = true для пустого хранилища")
	}
}

// TestDuplicateDetector_ExactMatchOnly проверяет политику exact match:
// совпадает только идентичный отпечаток, близкие значения — нет.
func TestDuplicateDetector_ExactMatchOnly(t *testing.T) {
	repo := newFakeFileRepo()
	store := newFakeObjectStore()
	seedDocuments(t, repo, store, "a.txt")

	records, _ := repo.ListAll(context.Background())
	hash := records[0].ContentHash

	det := NewDuplicateDetector(repo, slog.Default())

	dup, err := det.IsDuplicate(context.Background(), hash)
	if err != nil {
		t.Fatalf("IsDuplicate ошибка: %v", err)
	}
	if !dup {
		t.Error("IsDuplicate = false для существующего отпечатка")
	}

	// Отличие в одном символе — не дубликат
	altered := "0" + hash[1:]
	if altered == hash {
		altered = "1" + hash[1:]
	}
	dup, err = det.IsDuplicate(context.Background(), altered)
	if err != nil {
		t.Fatalf("IsDuplicate ошибка: %v", err)
	}
	if dup {
		t.Error("IsDuplicate = true для изменённого отпечатка (ожидался exact match)")
	}
}

// TestDuplicateDetector_StoreError проверяет проброс отказа хранилища.
func TestDuplicateDetector_StoreError(t *testing.T) {
	repo := newFakeFileRepo()
	repo.existsErr = errors.New("metadata store недоступен")
	det := NewDuplicateDetector(repo, slog.Default())

	_, err := det.IsDuplicate(context.Background(), strings.Repeat("ab", 32))
	if err == nil {
		t.Fatal("ожидалась ошибка existence-проверки")
	}
}
