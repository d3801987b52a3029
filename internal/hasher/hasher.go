// Пакет hasher — вычисление контентного отпечатка документа.
// Алгоритм — SHA-256, hex lowercase. Алгоритм зафиксирован на весь срок
// жизни деплоймента: отпечатки сравниваются между записями, созданными
// в разное время, поэтому смена алгоритма означает миграцию всех записей.
package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// Sum вычисляет SHA-256 отпечаток содержимого из reader.
// Чтение — streaming, содержимое не буферизуется целиком:
// большие файлы не удерживаются в памяти дважды.
// Чистая функция: ни сети, ни хранилища, ни побочных эффектов.
func Sum(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("чтение содержимого для отпечатка: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SumBytes вычисляет отпечаток содержимого, уже находящегося в памяти.
// Удобство для тестов и мелких payload'ов; семантика идентична Sum.
func SumBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
