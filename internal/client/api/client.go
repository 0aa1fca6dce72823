// Package api реализует HTTP-клиент серверного каталога.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	baseURL    string
	clientID   string

	// inflight дедупликация одновременных GET-запросов: второй запрос
	// того же пути не уходит в сеть, а ждёт результат первого.
	mu       sync.Mutex
	inflight map[string]*inflightCall
}

type inflightCall struct {
	done chan struct{}
	raw  json.RawMessage
	err  error
}

// NewClient создает новый API клиент. clientID передаётся в каждом
// запросе заголовком X-Client-Id для эхо-подавления realtime-событий.
func NewClient(baseURL, clientID string) *Client {
	return &Client{
		baseURL:  baseURL,
		clientID: clientID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		inflight: make(map[string]*inflightCall),
	}
}

// APIError ошибка, которой сервер ответил по HTTP. Для конфликтов (409)
// Data содержит текущую авторитетную запись.
type APIError struct {
	Status  int
	Message string
	Data    json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
}

// IsConflict reports whether err is a 409 response.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsRejection reports whether err is any 4xx response. Такая мутация
// отвергнута сервером и повторять её бессмысленно.
func IsRejection(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500
}

// IsConnectivityError различает транспортные сбои и ответы сервера:
// любой полученный HTTP-ответ, даже 5xx, означает что сеть есть.
func IsConnectivityError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return false
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// dataEnvelope успешный ответ сервера: {"data": ...}.
type dataEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// errorEnvelope ответ об ошибке: {"error": ..., "data": ...}.
type errorEnvelope struct {
	Error string          `json:"error"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// doRequest выполняет HTTP запрос и возвращает содержимое поля data.
func (c *Client) doRequest(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.clientID != "" {
		req.Header.Set("X-Client-Id", c.clientID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Транспортный сбой: сервер недоступен, ответа нет.
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var envelope errorEnvelope
		if err := json.Unmarshal(respBody, &envelope); err == nil && envelope.Error != "" {
			apiErr.Message = envelope.Error
			apiErr.Data = envelope.Data
		}
		return nil, apiErr
	}

	var envelope dataEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return envelope.Data, nil
}

// getDeduped выполняет GET с дедупликацией одновременных запросов
// одного и того же пути.
func (c *Client) getDeduped(ctx context.Context, path string, result any) error {
	c.mu.Lock()
	if call, ok := c.inflight[path]; ok {
		c.mu.Unlock()

		select {
		case <-call.done:
		case <-ctx.Done():
			return ctx.Err()
		}
		if call.err != nil {
			return call.err
		}
		return json.Unmarshal(call.raw, result)
	}

	call := &inflightCall{done: make(chan struct{})}
	c.inflight[path] = call
	c.mu.Unlock()

	call.raw, call.err = c.doRequest(ctx, http.MethodGet, path, nil)

	c.mu.Lock()
	delete(c.inflight, path)
	c.mu.Unlock()
	close(call.done)

	if call.err != nil {
		return call.err
	}
	return json.Unmarshal(call.raw, result)
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	raw, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if result != nil {
		if err := json.Unmarshal(raw, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// Replay повторяет сохранённую в outbox мутацию как есть.
func (c *Client) Replay(ctx context.Context, method, path string, body json.RawMessage) error {
	var payload any
	if len(body) > 0 {
		payload = body
	}
	_, err := c.doRequest(ctx, method, path, payload)
	return err
}
