package slicer

import (
	"errors"
	"fmt"
)

// Ошибки клиента Slicer.
var (
	// ErrTimeout — deploy/undeploy не достиг терминального статуса за отведённое время.
	ErrTimeout = errors.New("slicer operation timed out")

	// ErrDeployFailed — Slicer сообщил DEPLOY_FAILED.
	ErrDeployFailed = errors.New("testbed deploy failed")

	// ErrUndeployFailed — Slicer сообщил UNDEPLOY_FAILED.
	ErrUndeployFailed = errors.New("testbed undeploy failed")

	// ErrRequest — запрос не удалось выполнить (сеть, кодирование).
	ErrRequest = errors.New("slicer request failed")
)

// APIError — ошибка, которую вернул Slicer (HTTP >= 400).
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

// Error реализует интерфейс error.
func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("slicer API error: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("slicer API error: HTTP %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsNotFound возвращает true, если Slicer ответил 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}
