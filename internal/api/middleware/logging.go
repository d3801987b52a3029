// logging.go — slog-логирование HTTP-запросов hashdoc.
// Каждый запрос логируется по завершении обработки: метод, путь, статус,
// длительность, размер ответа. Уровень выбирается по статус-коду, чтобы
// отказы загрузок и удалений были видны без фильтрации по пути.
package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// statusRecorder перехватывает статус-код и объём записанного ответа.
// Для загрузок документов объём тела запроса виден по Content-Length,
// объём ответа — здесь.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += int64(n)
	return n, err
}

// Unwrap открывает оригинальный ResponseWriter для http.ResponseController
// (MaxBytesReader в обработчике загрузки полагается на него).
func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

// RequestLogger возвращает middleware логирования запросов.
// Уровень: INFO для 1xx-3xx, WARN для 4xx (коллизии имён, превышение
// лимита загрузки), ERROR для 5xx (отказы хранилищ, orphan-состояния).
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	log := logger.With(slog.String("component", "http"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)

			next.ServeHTTP(rec, r)

			level := slog.LevelInfo
			switch {
			case rec.status >= 500:
				level = slog.LevelError
			case rec.status >= 400:
				level = slog.LevelWarn
			}

			log.LogAttrs(r.Context(), level, "Запрос обработан",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("response_bytes", rec.bytes),
				slog.Int64("request_bytes", r.ContentLength),
				slog.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}
