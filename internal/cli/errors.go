package cli

import (
	"errors"
	"fmt"
)

// ErrHistoryDisabled — команда history вызвана без --db-url.
var ErrHistoryDisabled = errors.New("run history requires --db-url or DB_URL")

// ErrEventsDisabled — команда events вызвана без --rabbitmq-url.
var ErrEventsDisabled = errors.New("lifecycle events require --rabbitmq-url or RABBITMQ_URL")

// ExitError — команда завершилась с кодом Code. Сообщение уже выведено,
// main только выставляет код завершения.
type ExitError struct {
	Code int
	Err  error
}

// Error реализует интерфейс error.
func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d: %v", e.Code, e.Err)
}

// Unwrap возвращает исходную ошибку.
func (e *ExitError) Unwrap() error {
	return e.Err
}
