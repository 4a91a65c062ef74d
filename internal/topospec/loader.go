package topospec

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/slicerun/internal/domain"
)

// DefaultFileName — имя файла описания рядом с исполняемым файлом.
const DefaultFileName = "topology_spec.yaml"

// Секции документа.
const (
	sectionTopology = "topology_spec"
	sectionDeploy   = "deploy_spec"
)

// Loader загружает описание топологии с файловой системы.
// Нулевое значение готово к использованию.
type Loader struct{}

// Load реализует lifecycle.SpecLoader.
func (Loader) Load(path string) (*domain.TopologySpec, error) {
	return Load(path)
}

// Load читает и разбирает файл описания топологии.
//
// Возвращает ошибку, удовлетворяющую errors.Is(err, ErrFileNotFound),
// если файла нет, и *ParseError (errors.Is(err, ErrParse)) для остальных
// проблем с содержимым.
func Load(path string) (*domain.TopologySpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("read topology spec: %w", err)
	}
	return Parse(path, data)
}

// Parse разбирает содержимое описания топологии.
// path используется только в сообщениях об ошибках.
func Parse(path string, data []byte) (*domain.TopologySpec, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, newParseError(path, "", "invalid YAML", err)
	}
	if len(raw) == 0 {
		return nil, newParseError(path, "", "document is empty", nil)
	}

	raw = normalizeMap(raw)

	topology, err := section(path, raw, sectionTopology)
	if err != nil {
		return nil, err
	}
	deploy, err := section(path, raw, sectionDeploy)
	if err != nil {
		return nil, err
	}

	return &domain.TopologySpec{
		Path:       path,
		Definition: domain.TopologyDefinition(topology),
		Deploy:     domain.DeploySpec(deploy),
		Raw:        raw,
	}, nil
}

// DefaultPath возвращает путь к topology_spec.yaml рядом с исполняемым файлом.
// Если путь к исполняемому файлу определить не удалось — текущий каталог.
func DefaultPath() string {
	exe, err := os.Executable()
	if err != nil {
		return DefaultFileName
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), DefaultFileName)
}

// section достаёт обязательную секцию-mapping из документа.
func section(path string, raw map[string]any, name string) (map[string]any, error) {
	val, ok := raw[name]
	if !ok {
		return nil, newParseError(path, name, "section is missing", nil)
	}
	m, ok := val.(map[string]any)
	if !ok {
		return nil, newParseError(path, name,
			fmt.Sprintf("section must be a mapping, got %s", typeName(val)), nil)
	}
	return m, nil
}

// normalizeMap приводит вложенные map[any]any к map[string]any,
// чтобы payload можно было сериализовать в JSON.
func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return normalizeMap(val)
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "sequence"
	case string:
		return "string"
	case bool:
		return "bool"
	case int, int64, float64:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
