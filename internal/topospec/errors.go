package topospec

import (
	"errors"
	"strings"
)

// Ошибки загрузки описания топологии.
var (
	// ErrFileNotFound — файл описания не существует.
	ErrFileNotFound = errors.New("topology spec file not found")

	// ErrParse — файл не является корректным описанием топологии.
	ErrParse = errors.New("topology spec parse error")
)

// ParseError — ошибка разбора с указанием места.
type ParseError struct {
	Path    string // путь к файлу
	Field   string // поле документа, например "topology_spec"
	Message string // описание ошибки
	Err     error  // ошибка YAML-декодера, если есть
}

// Error реализует интерфейс error.
func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString(e.Path)
	if e.Field != "" {
		b.WriteString(": ")
		b.WriteString(e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// Unwrap позволяет errors.Is(err, ErrParse) и доступ к ошибке декодера.
func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrParse, e.Err}
	}
	return []error{ErrParse}
}

func newParseError(path, field, message string, err error) *ParseError {
	return &ParseError{
		Path:    path,
		Field:   field,
		Message: message,
		Err:     err,
	}
}
