package topospec

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const validSpec = `
topology_spec:
  use_ovs: true
  use_patch_panel: false
  duts:
    duts:
      - spine1:
          os_type: junos
          impl_type: vjunos
      - leaf1:
          os_type: eos
          impl_type: ceos
deploy_spec:
  apstra:
    branch: master
    build: latest
  dcdr:
    branch: release-5.1
    build: 42
extra: kept
`

func writeSpec(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write spec: %v", err)
	}
	return path
}

func TestLoad_Valid(t *testing.T) {
	path := writeSpec(t, validSpec)

	spec, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if spec.Path != path {
		t.Errorf("expected path %s, got %s", path, spec.Path)
	}
	if spec.TopologyDefinition()["use_ovs"] != true {
		t.Errorf("expected use_ovs=true, got %v", spec.TopologyDefinition()["use_ovs"])
	}
	apstra, ok := spec.DeploySpec()["apstra"].(map[string]any)
	if !ok {
		t.Fatalf("deploy_spec.apstra should be a map, got %T", spec.DeploySpec()["apstra"])
	}
	if apstra["branch"] != "master" {
		t.Errorf("expected branch=master, got %v", apstra["branch"])
	}
	if spec.Raw["extra"] != "kept" {
		t.Errorf("unknown sections should be kept in Raw, got %v", spec.Raw["extra"])
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected ErrFileNotFound, got %v", err)
	}
	if errors.Is(err, ErrParse) {
		t.Error("file error must not be reported as parse error")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{
			name:  "invalid yaml",
			input: "topology_spec: [unclosed",
			field: "",
		},
		{
			name:  "empty document",
			input: "",
			field: "",
		},
		{
			name:  "top level sequence",
			input: "- a\n- b\n",
			field: "",
		},
		{
			name:  "missing topology_spec",
			input: "deploy_spec: {a: 1}\n",
			field: "topology_spec",
		},
		{
			name:  "missing deploy_spec",
			input: "topology_spec: {a: 1}\n",
			field: "deploy_spec",
		},
		{
			name:  "topology_spec is a list",
			input: "topology_spec: [1, 2]\ndeploy_spec: {a: 1}\n",
			field: "topology_spec",
		},
		{
			name:  "deploy_spec is null",
			input: "topology_spec: {a: 1}\ndeploy_spec:\n",
			field: "deploy_spec",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("spec.yaml", []byte(tt.input))
			if !errors.Is(err, ErrParse) {
				t.Fatalf("expected ErrParse, got %v", err)
			}

			var pErr *ParseError
			if !errors.As(err, &pErr) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if pErr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, pErr.Field)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	spec, err := Parse("spec.yaml", []byte(validSpec))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := Summarize(spec)

	if s.UseOVS != "true" || s.UsePatchPanel != "false" {
		t.Errorf("unexpected flags: use_ovs=%s use_patch_panel=%s", s.UseOVS, s.UsePatchPanel)
	}
	if len(s.DUTs) != 2 {
		t.Fatalf("expected 2 DUTs, got %d", len(s.DUTs))
	}
	if s.DUTs[0] != (DUT{Name: "spine1", OSType: "junos", ImplType: "vjunos"}) {
		t.Errorf("unexpected first DUT: %+v", s.DUTs[0])
	}
	if len(s.Components) != 2 {
		t.Fatalf("expected 2 components, got %d", len(s.Components))
	}
	if s.Components[1] != (Component{Name: "dcdr", Branch: "release-5.1", Build: "42"}) {
		t.Errorf("unexpected component: %+v", s.Components[1])
	}
}

func TestSummarize_MissingFields(t *testing.T) {
	spec, err := Parse("spec.yaml", []byte("topology_spec: {}\ndeploy_spec: {note: text}\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := Summarize(spec)

	if s.UseOVS != "N/A" {
		t.Errorf("expected N/A, got %s", s.UseOVS)
	}
	if len(s.DUTs) != 0 || len(s.Components) != 0 {
		t.Errorf("expected no DUTs/components, got %+v", s)
	}
}
