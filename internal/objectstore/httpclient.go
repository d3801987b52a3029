// httpclient.go — HTTP-реализация клиента object store.
// Поддерживает TLS с кастомным CA (HD_OBJECTSTORE_CA_CERT_PATH),
// streaming-загрузку тела и Bearer-авторизацию сервисным токеном.
//
// Формат API хранилища:
//
//	PUT    {base}/api/v1/objects/{key}        — запись (409 = ключ занят)
//	DELETE {base}/api/v1/objects/{key}        — удаление (404 = нет объекта)
//	POST   {base}/api/v1/objects/{key}/sign   — подписанная ссылка
package objectstore

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// HTTPClient — клиент object store поверх net/http.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *slog.Logger
}

// компилятор: HTTPClient реализует Client.
var _ Client = (*HTTPClient)(nil)

// NewHTTPClient создаёт HTTP-клиент object store.
// baseURL — базовый URL хранилища (например, https://objstore:8020).
// caCertPath — путь к CA-сертификату для TLS (пустая строка — стандартный пул).
// token — сервисный Bearer-токен (пустая строка — без авторизации).
// timeout — таймаут HTTP-запросов (HD_OBJECTSTORE_TIMEOUT).
func NewHTTPClient(baseURL, caCertPath, token string, timeout time.Duration, logger *slog.Logger) (*HTTPClient, error) {
	transport := &http.Transport{
		// Пул idle-соединений для переиспользования между операциями
		MaxIdleConnsPerHost: 10,
	}

	if caCertPath != "" {
		tlsConfig, err := buildTLSConfig(caCertPath)
		if err != nil {
			return nil, fmt.Errorf("загрузка CA-сертификата object store: %w", err)
		}
		transport.TLSClientConfig = tlsConfig
		logger.Info("CA-сертификат object store добавлен в пул доверия",
			slog.String("ca_cert", caCertPath),
		)
	}

	return &HTTPClient{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		logger:  logger.With(slog.String("component", "objectstore_client")),
	}, nil
}

// Put записывает объект по ключу. Тело передаётся потоком без буферизации.
// 409 от хранилища транслируется в ErrAlreadyExists (no-overwrite policy).
func (c *HTTPClient) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.objectURL(key), r)
	if err != nil {
		return fmt.Errorf("создание запроса Put: %w", err)
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "application/octet-stream")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("запрос Put %s: %w", key, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("put %s: %w", key, ErrAlreadyExists)
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	default:
		return fmt.Errorf("object store вернул статус %d для put %s: %s",
			resp.StatusCode, key, readErrorBody(resp.Body))
	}
}

// Remove удаляет объект по ключу. 404 транслируется в ErrNotFound.
func (c *HTTPClient) Remove(ctx context.Context, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.objectURL(key), http.NoBody)
	if err != nil {
		return fmt.Errorf("создание запроса Remove: %w", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("запрос Remove %s: %w", key, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("remove %s: %w", key, ErrNotFound)
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	default:
		return fmt.Errorf("object store вернул статус %d для remove %s: %s",
			resp.StatusCode, key, readErrorBody(resp.Body))
	}
}

// Sign запрашивает подписанную ссылку на объект с указанным TTL.
func (c *HTTPClient) Sign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	body, err := json.Marshal(struct {
		TTLSeconds int64 `json:"ttl_seconds"`
	}{TTLSeconds: int64(ttl.Seconds())})
	if err != nil {
		return "", fmt.Errorf("кодирование запроса Sign: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.objectURL(key)+"/sign", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("создание запроса Sign: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("запрос Sign %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("sign %s: %w", key, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("object store вернул статус %d для sign %s: %s",
			resp.StatusCode, key, readErrorBody(resp.Body))
	}

	var signResp struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&signResp); err != nil {
		return "", fmt.Errorf("декодирование ответа Sign: %w", err)
	}
	if signResp.URL == "" {
		return "", fmt.Errorf("пустой url в ответе Sign для %s", key)
	}

	return signResp.URL, nil
}

// CheckReady проверяет готовность object store через его health endpoint.
// Возвращает статус ("ok", "fail") и сообщение.
// Реализует интерфейс handlers.ReadinessChecker.
func (c *HTTPClient) CheckReady() (status string, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health/ready", http.NoBody)
	if err != nil {
		return "fail", fmt.Sprintf("создание запроса readiness: %v", err)
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "fail", fmt.Sprintf("object store недоступен: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "fail", fmt.Sprintf("object store вернул статус %d", resp.StatusCode)
	}
	return "ok", "подключение активно"
}

// objectURL строит URL объекта; ключ экранируется как сегмент пути.
func (c *HTTPClient) objectURL(key string) string {
	return c.baseURL + "/api/v1/objects/" + url.PathEscape(key)
}

// authorize добавляет Bearer-токен, если он задан.
func (c *HTTPClient) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// readErrorBody читает усечённое тело ответа для сообщения об ошибке.
func readErrorBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(b))
}

// buildTLSConfig создаёт TLS-конфигурацию с кастомным CA-сертификатом.
func buildTLSConfig(caCertPath string) (*tls.Config, error) {
	caCert, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("чтение CA-сертификата: %w", err)
	}

	caCertPool, err := x509.SystemCertPool()
	if err != nil {
		caCertPool = x509.NewCertPool()
	}
	caCertPool.AppendCertsFromPEM(caCert)

	return &tls.Config{
		RootCAs: caCertPool,
	}, nil
}
