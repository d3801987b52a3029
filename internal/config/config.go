// Пакет config — загрузка и валидация конфигурации hashdoc
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации hashdoc.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера (диапазон 8040-8049)
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- HTTP Server Timeouts ---

	// Таймаут чтения HTTP-сервера (по умолчанию 30s)
	HTTPReadTimeout time.Duration
	// Таймаут записи HTTP-сервера (по умолчанию 60s)
	HTTPWriteTimeout time.Duration
	// Таймаут простоя HTTP-сервера (по умолчанию 120s)
	HTTPIdleTimeout time.Duration

	// --- PostgreSQL (metadata store) ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string

	// --- Object store ---

	// Базовый URL object store (например, https://objstore.kryukov.lan)
	ObjectStoreURL string
	// Путь к CA-сертификату для TLS-соединений с object store (опционально)
	ObjectStoreCACertPath string
	// Bearer-токен для доступа к object store (опционально)
	ObjectStoreToken string
	// Таймаут HTTP-запросов к object store
	ObjectStoreTimeout time.Duration

	// --- Документы ---

	// Время жизни подписанных ссылок на скачивание
	SignTTL time.Duration
	// Максимальный размер загружаемого документа в байтах
	MaxUploadSize int64

	// --- Dephealth ---

	// Имя группы в метриках topologymetrics (HD_DEPHEALTH_GROUP)
	DephealthGroup string
	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// HD_PORT — порт HTTP-сервера (по умолчанию 8040)
	cfg.Port, err = getEnvInt("HD_PORT", 8040)
	if err != nil {
		return nil, fmt.Errorf("HD_PORT: %w", err)
	}
	if cfg.Port < 8040 || cfg.Port > 8049 {
		return nil, fmt.Errorf("HD_PORT: значение %d вне допустимого диапазона 8040-8049", cfg.Port)
	}

	// HD_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("HD_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("HD_LOG_LEVEL: %w", err)
	}

	// HD_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("HD_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("HD_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- HTTP Server Timeouts ---

	// HD_HTTP_READ_TIMEOUT — таймаут чтения (по умолчанию 30s)
	cfg.HTTPReadTimeout, err = getEnvDuration("HD_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("HD_HTTP_READ_TIMEOUT: %w", err)
	}

	// HD_HTTP_WRITE_TIMEOUT — таймаут записи (по умолчанию 60s)
	cfg.HTTPWriteTimeout, err = getEnvDuration("HD_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("HD_HTTP_WRITE_TIMEOUT: %w", err)
	}

	// HD_HTTP_IDLE_TIMEOUT — таймаут простоя (по умолчанию 120s)
	cfg.HTTPIdleTimeout, err = getEnvDuration("HD_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("HD_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// --- PostgreSQL ---

	// HD_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("HD_DB_HOST")
	if err != nil {
		return nil, err
	}

	// HD_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("HD_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("HD_DB_PORT: %w", err)
	}

	// HD_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("HD_DB_NAME")
	if err != nil {
		return nil, err
	}

	// HD_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("HD_DB_USER")
	if err != nil {
		return nil, err
	}

	// HD_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("HD_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// HD_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("HD_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("HD_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// --- Object store ---

	// HD_OBJECTSTORE_URL — обязательный
	cfg.ObjectStoreURL, err = getEnvRequired("HD_OBJECTSTORE_URL")
	if err != nil {
		return nil, err
	}
	// Убираем trailing slash
	cfg.ObjectStoreURL = strings.TrimRight(cfg.ObjectStoreURL, "/")

	// HD_OBJECTSTORE_CA_CERT_PATH — путь к CA-сертификату (опционально)
	cfg.ObjectStoreCACertPath = getEnvDefault("HD_OBJECTSTORE_CA_CERT_PATH", "")

	// HD_OBJECTSTORE_TOKEN — bearer-токен (опционально)
	cfg.ObjectStoreToken = getEnvDefault("HD_OBJECTSTORE_TOKEN", "")

	// HD_OBJECTSTORE_TIMEOUT — таймаут запросов к object store (по умолчанию 30s)
	cfg.ObjectStoreTimeout, err = getEnvDuration("HD_OBJECTSTORE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("HD_OBJECTSTORE_TIMEOUT: %w", err)
	}

	// --- Документы ---

	// HD_SIGN_TTL — время жизни подписанных ссылок (по умолчанию 8760h = 1 год)
	cfg.SignTTL, err = getEnvDuration("HD_SIGN_TTL", 8760*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("HD_SIGN_TTL: %w", err)
	}
	if cfg.SignTTL <= 0 {
		return nil, fmt.Errorf("HD_SIGN_TTL: значение должно быть > 0")
	}

	// HD_MAX_UPLOAD_SIZE — максимальный размер загрузки в байтах (по умолчанию 1 GiB)
	cfg.MaxUploadSize, err = getEnvInt64("HD_MAX_UPLOAD_SIZE", 1<<30)
	if err != nil {
		return nil, fmt.Errorf("HD_MAX_UPLOAD_SIZE: %w", err)
	}
	if cfg.MaxUploadSize <= 0 {
		return nil, fmt.Errorf("HD_MAX_UPLOAD_SIZE: значение должно быть > 0")
	}

	// --- Dephealth ---

	// HD_DEPHEALTH_GROUP — имя группы в метриках (по умолчанию hashdoc)
	cfg.DephealthGroup = getEnvDefault("HD_DEPHEALTH_GROUP", "hashdoc")

	// HD_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("HD_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("HD_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	// HD_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("HD_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("HD_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL подключения к PostgreSQL.
// Используется для лейблов метрик topologymetrics.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 возвращает int64-значение переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
