package hasher

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"
)

// Известный вектор: SHA-256("hello").
const helloSHA256 = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"

// TestSum_KnownVector проверяет отпечаток против известного вектора.
func TestSum_KnownVector(t *testing.T) {
	got, err := Sum(strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Sum ошибка: %v", err)
	}
	if got != helloSHA256 {
		t.Errorf("Sum = %q, ожидался %q", got, helloSHA256)
	}
}

// TestSum_Deterministic проверяет: одинаковые байты — одинаковый отпечаток,
// разные байты — разный.
func TestSum_Deterministic(t *testing.T) {
	a1, err := Sum(strings.NewReader("payload-a"))
	if err != nil {
		t.Fatalf("Sum ошибка: %v", err)
	}
	a2, err := Sum(strings.NewReader("payload-a"))
	if err != nil {
		t.Fatalf("Sum ошибка: %v", err)
	}
	b, err := Sum(strings.NewReader("payload-b"))
	if err != nil {
		t.Fatalf("Sum ошибка: %v", err)
	}

	if a1 != a2 {
		t.Errorf("отпечатки одинаковых байтов различаются: %q != %q", a1, a2)
	}
	if a1 == b {
		t.Errorf("отпечатки разных байтов совпали: %q", a1)
	}
}

// TestSum_Empty проверяет отпечаток пустого содержимого.
func TestSum_Empty(t *testing.T) {
	got, err := Sum(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Sum ошибка: %v", err)
	}
	// SHA-256 пустой строки
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got != want {
		t.Errorf("Sum = %q, ожидался %q", got, want)
	}
}

// TestSum_StreamingEqualsWhole проверяет, что отпечаток не зависит
// от разбиения потока на куски и совпадает с SumBytes.
func TestSum_StreamingEqualsWhole(t *testing.T) {
	chunked, err := Sum(iotest.OneByteReader(strings.NewReader("hello")))
	if err != nil {
		t.Fatalf("Sum ошибка: %v", err)
	}
	if chunked != helloSHA256 {
		t.Errorf("Sum по одному байту = %q, ожидался %q", chunked, helloSHA256)
	}
	if chunked != SumBytes([]byte("hello")) {
		t.Errorf("Sum и SumBytes разошлись: %q", chunked)
	}
}

// failReader всегда возвращает ошибку чтения.
type failReader struct{}

func (failReader) Read([]byte) (int, error) { return 0, errors.New("ошибка ввода") }

// TestSum_ReadError проверяет проброс ошибки нечитаемого входа.
func TestSum_ReadError(t *testing.T) {
	_, err := Sum(failReader{})
	if err == nil {
		t.Fatal("ожидалась ошибка чтения")
	}
}
