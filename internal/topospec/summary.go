package topospec

import (
	"fmt"
	"sort"

	"github.com/shaiso/slicerun/internal/domain"
)

// Summary — сводка по описанию топологии для вывода пользователю.
type Summary struct {
	UseOVS        string      `json:"use_ovs"`
	UsePatchPanel string      `json:"use_patch_panel"`
	DUTs          []DUT       `json:"duts"`
	Components    []Component `json:"components"`
}

// DUT — устройство под тестом из topology_spec.duts.duts.
type DUT struct {
	Name     string `json:"name"`
	OSType   string `json:"os_type"`
	ImplType string `json:"impl_type"`
}

// Component — компонент из deploy_spec (ветка и сборка).
type Component struct {
	Name   string `json:"name"`
	Branch string `json:"branch"`
	Build  string `json:"build"`
}

// Summarize извлекает известные поля из описания. Отсутствующие поля
// отображаются как "N/A"; неизвестная структура не считается ошибкой.
func Summarize(spec *domain.TopologySpec) Summary {
	var s Summary

	topo := spec.TopologyDefinition()
	s.UseOVS = stringOr(topo["use_ovs"], "N/A")
	s.UsePatchPanel = stringOr(topo["use_patch_panel"], "N/A")

	if duts, ok := topo["duts"].(map[string]any); ok {
		list, _ := duts["duts"].([]any)
		for _, item := range list {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			for _, name := range sortedKeys(entry) {
				cfg, _ := entry[name].(map[string]any)
				s.DUTs = append(s.DUTs, DUT{
					Name:     name,
					OSType:   stringOr(cfg["os_type"], "N/A"),
					ImplType: stringOr(cfg["impl_type"], "N/A"),
				})
			}
		}
	}

	deploy := spec.DeploySpec()
	for _, name := range sortedKeys(deploy) {
		cfg, ok := deploy[name].(map[string]any)
		if !ok {
			continue
		}
		s.Components = append(s.Components, Component{
			Name:   name,
			Branch: stringOr(cfg["branch"], "N/A"),
			Build:  stringOr(cfg["build"], "N/A"),
		})
	}

	return s
}

func stringOr(v any, def string) string {
	if v == nil {
		return def
	}
	return fmt.Sprint(v)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
