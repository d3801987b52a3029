// Пакет objectstore — клиент внешнего blob-хранилища.
// Хранилище — внешний коллаборатор с контрактом put/remove/sign;
// его внутреннее устройство и формат персистентности вне зоны
// ответственности hashdoc.
package objectstore

import (
	"context"
	"errors"
	"io"
	"time"
)

// Ошибки клиента object store.
var (
	// ErrAlreadyExists — по ключу уже существует объект.
	// Перезапись отключена политикой: повторный put по занятому ключу
	// всегда отклоняется.
	ErrAlreadyExists = errors.New("объект с таким ключом уже существует")
	// ErrNotFound — объект по ключу отсутствует.
	ErrNotFound = errors.New("объект не найден")
)

// Client — контракт внешнего blob-хранилища.
type Client interface {
	// Put записывает объект по ключу. Содержимое передаётся потоком.
	// Возвращает ErrAlreadyExists при коллизии ключа.
	Put(ctx context.Context, key string, r io.Reader, size int64) error
	// Remove удаляет объект по ключу.
	Remove(ctx context.Context, key string) error
	// Sign возвращает подписанную time-bounded ссылку на чтение объекта.
	// Ссылка не продлевается автоматически — истёкшая ссылка заменяется
	// только новым вызовом Sign.
	Sign(ctx context.Context, key string, ttl time.Duration) (string, error)
}
