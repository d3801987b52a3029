// Пакет errors — конструкторы стандартных ошибок API hashdoc.
// Единый формат: {"error": {"code": "...", "message": "..."}}.
// Все HTTP-ответы с ошибками должны использовать WriteError.
package errors //nolint:revive // конфликт имени со stdlib осознанный, импортируется как apierrors

import (
	"encoding/json"
	"net/http"
)

// Машиночитаемые коды ошибок API.
// Коды частичных состояний (ORPHANED_OBJECT, METADATA_DELETE_FAILED)
// сигнализируют о необходимости ручной сверки.
const (
	CodeValidationError      = "VALIDATION_ERROR"
	CodeNotFound             = "NOT_FOUND"
	CodeFileTooLarge         = "FILE_TOO_LARGE"
	CodeHashingFailed        = "HASHING_FAILED"
	CodeDuplicateCheckFailed = "DUPLICATE_CHECK_FAILED"
	CodeObjectExists         = "OBJECT_EXISTS"
	CodeObjectWriteFailed    = "OBJECT_WRITE_FAILED"
	CodeMetadataInsertFailed = "METADATA_INSERT_FAILED"
	CodeOrphanedObject       = "ORPHANED_OBJECT"
	CodeObjectDeleteFailed   = "OBJECT_DELETE_FAILED"
	CodeMetadataDeleteFailed = "METADATA_DELETE_FAILED"
	CodeInternalError        = "INTERNAL_ERROR"
)

// errorBody — структура тела ответа ошибки.
type errorBody struct {
	Error errorDetail `json:"error"`
}

// errorDetail — детали ошибки.
type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError записывает ответ ошибки в стандартном формате.
// statusCode — HTTP статус-код, code — машиночитаемый код, message — описание.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// --- Конструкторы для типичных ошибок ---

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, CodeValidationError, message)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, CodeNotFound, message)
}

// FileTooLarge — 413 файл превышает лимит.
func FileTooLarge(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusRequestEntityTooLarge, CodeFileTooLarge, message)
}

// ObjectExists — 409 коллизия имени: ключ в object store занят.
func ObjectExists(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, CodeObjectExists, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, CodeInternalError, message)
}
