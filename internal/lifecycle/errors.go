package lifecycle

import (
	"errors"
	"fmt"

	"github.com/shaiso/slicerun/internal/domain"
)

// Ошибки конфигурации оркестратора.
var (
	// ErrMissingSystemName — не задано имя SysTest.
	ErrMissingSystemName = errors.New("system name is required")

	// ErrMissingOwner — не задан владелец SysTest.
	ErrMissingOwner = errors.New("owner is required")

	// ErrMissingClient — не задан клиент Slicer.
	ErrMissingClient = errors.New("slicer client is required")

	// ErrMissingLoader — не задан загрузчик описания топологии.
	ErrMissingLoader = errors.New("spec loader is required")

	// ErrStepPanicked — шаг завершился паникой.
	ErrStepPanicked = errors.New("step panicked")
)

// ErrorKind — класс фатальной ошибки.
type ErrorKind string

const (
	// KindConfiguration — описание топологии отсутствует или некорректно,
	// либо оркестратор неверно сконфигурирован. Slicer не затронут.
	KindConfiguration ErrorKind = "configuration"

	// KindSetupRemote — ошибка create/reserve/deploy на стороне Slicer.
	KindSetupRemote ErrorKind = "setup_remote"
)

// FatalError — ошибка fail-fast шага. Прерывает run.
type FatalError struct {
	Step domain.Step
	Kind ErrorKind
	Err  error
}

// Error реализует интерфейс error.
func (e *FatalError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

// Unwrap возвращает исходную ошибку.
func (e *FatalError) Unwrap() error {
	return e.Err
}

// RecoverableError — ошибка best-effort шага. Не прерывает run
// и не меняет его исход.
type RecoverableError struct {
	Step domain.Step
	Err  error
}

// Error реализует интерфейс error.
func (e *RecoverableError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

// Unwrap возвращает исходную ошибку.
func (e *RecoverableError) Unwrap() error {
	return e.Err
}

func fatal(step domain.Step, kind ErrorKind, err error) *FatalError {
	return &FatalError{Step: step, Kind: kind, Err: err}
}
