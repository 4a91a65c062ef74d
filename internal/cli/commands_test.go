package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/shaiso/slicerun/internal/domain"
	"github.com/shaiso/slicerun/internal/mq"
	"github.com/shaiso/slicerun/internal/repo"
)

const testSpec = `
topology_spec:
  use_ovs: true
  duts:
    duts:
      - spine1:
          os_type: junos
          impl_type: vjunos
deploy_spec:
  apstra:
    branch: master
    build: latest
`

func writeTestSpec(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "topology_spec.yaml")
	if err := os.WriteFile(path, []byte(testSpec), 0o644); err != nil {
		t.Fatalf("write spec: %v", err)
	}
	return path
}

// fakeSlicer — минимальный Slicer API: записывает запросы и отвечает
// статусами из failures.
type fakeSlicer struct {
	mu       sync.Mutex
	requests []string
	failures map[string]int
}

func (f *fakeSlicer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path

	f.mu.Lock()
	f.requests = append(f.requests, key)
	status := f.failures[key]
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"code": "rejected", "message": "rejected by fake"},
		})
		return
	}

	var data any
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/v1/systests":
		data = map[string]any{"name": "T1", "owner": "owner@example.com"}
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/reservation"):
		data = map[string]any{"name": "T1", "immediate": true, "duration_sec": 10000}
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/deployment"):
		data = map[string]any{"name": "T1", "deploy_status": "DEPLOYING"}
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/deployment"):
		data = map[string]any{"name": "T1", "deploy_status": "DEPLOYED"}
	case r.Method == http.MethodDelete && strings.HasSuffix(r.URL.Path, "/deployment"):
		data = map[string]any{"name": "T1", "deploy_status": "UNDEPLOYED"}
	default:
		w.WriteHeader(http.StatusNoContent)
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func (f *fakeSlicer) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func executeRoot(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := NewRootCmd("test", &stdout, &stderr)
	root.SetArgs(append([]string{
		"--system", "T1",
		"--owner", "owner@example.com",
		"--db-url=",
		"--rabbitmq-url=",
		"--metrics-addr=",
	}, args...))

	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestUpCmd_HappyPath(t *testing.T) {
	fake := &fakeSlicer{}
	server := httptest.NewServer(fake)
	defer server.Close()

	out, _, err := executeRoot(t, "up",
		"--slicer-url", server.URL,
		"--spec", writeTestSpec(t),
		"--poll-interval", "5ms",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"POST /api/v1/systests",
		"POST /api/v1/systests/T1/reservation",
		"POST /api/v1/systests/T1/deployment",
		"GET /api/v1/systests/T1/deployment",
		"DELETE /api/v1/systests/T1/deployment",
		"DELETE /api/v1/systests/T1/reservation",
		"DELETE /api/v1/systests/T1",
	}
	if diff := cmp.Diff(want, fake.seen()); diff != "" {
		t.Errorf("requests mismatch (-want +got):\n%s", diff)
	}

	assertInOrder(t, out,
		"Topology deployment completed successfully!",
		"Cleanup completed!",
	)
}

func TestUpCmd_DeployRejectedExitsWithOne(t *testing.T) {
	fake := &fakeSlicer{failures: map[string]int{
		"POST /api/v1/systests/T1/deployment": http.StatusConflict,
	}}
	server := httptest.NewServer(fake)
	defer server.Close()

	out, _, err := executeRoot(t, "up",
		"--slicer-url", server.URL,
		"--spec", writeTestSpec(t),
	)

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("expected ExitError{Code: 1}, got %v", err)
	}
	for _, req := range fake.seen() {
		if strings.HasPrefix(req, "DELETE") {
			t.Errorf("cleanup request %q after setup failure", req)
		}
	}
	if !strings.Contains(out, "❌ Deploy Error:") {
		t.Errorf("output missing deploy error:\n%s", out)
	}
}

func TestUpCmd_MissingSpecFile(t *testing.T) {
	fake := &fakeSlicer{}
	server := httptest.NewServer(fake)
	defer server.Close()

	out, _, err := executeRoot(t, "up",
		"--slicer-url", server.URL,
		"--spec", filepath.Join(t.TempDir(), "missing.yaml"),
	)

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("expected ExitError{Code: 1}, got %v", err)
	}
	if len(fake.seen()) != 0 {
		t.Errorf("no remote calls expected, got %v", fake.seen())
	}
	if !strings.Contains(out, "❌ File Error:") {
		t.Errorf("output missing file error:\n%s", out)
	}
}

func TestTeardownCmd_ContinuesAfterFailures(t *testing.T) {
	fake := &fakeSlicer{failures: map[string]int{
		"DELETE /api/v1/systests/T1/deployment":  http.StatusNotFound,
		"DELETE /api/v1/systests/T1/reservation": http.StatusInternalServerError,
	}}
	server := httptest.NewServer(fake)
	defer server.Close()

	out, _, err := executeRoot(t, "teardown", "--slicer-url", server.URL)
	if err != nil {
		t.Fatalf("teardown must exit 0, got %v", err)
	}

	want := []string{
		"DELETE /api/v1/systests/T1/deployment",
		"DELETE /api/v1/systests/T1/reservation",
		"DELETE /api/v1/systests/T1",
	}
	if diff := cmp.Diff(want, fake.seen()); diff != "" {
		t.Errorf("requests mismatch (-want +got):\n%s", diff)
	}
	if strings.Count(out, "⚠ Warning:") != 2 {
		t.Errorf("expected two warnings:\n%s", out)
	}
}

func TestValidateCmd(t *testing.T) {
	path := writeTestSpec(t)

	t.Run("text", func(t *testing.T) {
		out, _, err := executeRoot(t, "validate", "--spec", path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertInOrder(t, out,
			"✓ Topology specification loaded successfully",
			"  - Use OVS: true",
			"  - Number of DUTs: 1",
			"    • spine1: junos (vjunos)",
			"  - apstra: master (latest)",
		)
	})

	t.Run("json", func(t *testing.T) {
		out, _, err := executeRoot(t, "validate", "--spec", path, "--json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var got validateResult
		if err := json.Unmarshal([]byte(out), &got); err != nil {
			t.Fatalf("invalid json %q: %v", out, err)
		}
		if !got.Valid || got.Summary == nil || len(got.Summary.DUTs) != 1 {
			t.Errorf("unexpected result: %+v", got)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(bad, []byte("topology_spec: [1, 2]\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		out, _, err := executeRoot(t, "validate", "--spec", bad)

		var exitErr *ExitError
		if !errors.As(err, &exitErr) || exitErr.Code != 1 {
			t.Fatalf("expected ExitError{Code: 1}, got %v", err)
		}
		if !strings.Contains(out, "❌ YAML Parsing Error:") {
			t.Errorf("output missing parse error:\n%s", out)
		}
	})
}

func TestScheduleCmd_PrintsNextRuns(t *testing.T) {
	out, _, err := executeRoot(t, "schedule", "--cron", "@every 1h", "--next", "3", "--json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var times []time.Time
	if err := json.Unmarshal([]byte(out), &times); err != nil {
		t.Fatalf("invalid json %q: %v", out, err)
	}
	if len(times) != 3 {
		t.Fatalf("expected 3 times, got %d", len(times))
	}
	for i := 1; i < len(times); i++ {
		if d := times[i].Sub(times[i-1]); d != time.Hour {
			t.Errorf("expected 1h between runs, got %s", d)
		}
	}
}

func TestScheduleCmd_RequiresCron(t *testing.T) {
	if _, _, err := executeRoot(t, "schedule"); err == nil {
		t.Error("expected error without --cron")
	}
}

func TestScheduleCmd_InvalidSchedule(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad cron", []string{"--cron", "not a cron"}},
		{"bad timezone", []string{"--cron", "0 2 * * *", "--timezone", "Mars/Olympus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeRoot(t, append([]string{"schedule"}, tt.args...)...)
			if err == nil {
				t.Fatal("expected error")
			}
			var exitErr *ExitError
			if errors.As(err, &exitErr) {
				t.Errorf("schedule errors are not run failures, got %v", err)
			}
		})
	}
}

func TestHistoryCmd_DisabledWithoutDB(t *testing.T) {
	_, _, err := executeRoot(t, "history")
	if !errors.Is(err, ErrHistoryDisabled) {
		t.Errorf("expected ErrHistoryDisabled, got %v", err)
	}
}

func TestEventsCmd_DisabledWithoutBroker(t *testing.T) {
	_, _, err := executeRoot(t, "events")
	if !errors.Is(err, ErrEventsDisabled) {
		t.Errorf("expected ErrEventsDisabled, got %v", err)
	}
}

// fakeHistory — HistoryStore в памяти.
type fakeHistory struct {
	runs    []domain.Run
	filters []repo.RunFilter
}

func (f *fakeHistory) List(_ context.Context, filter repo.RunFilter) ([]domain.Run, error) {
	f.filters = append(f.filters, filter)
	return f.runs, nil
}

func (f *fakeHistory) GetByID(_ context.Context, id uuid.UUID) (*domain.Run, error) {
	for i := range f.runs {
		if f.runs[i].ID == id {
			return &f.runs[i], nil
		}
	}
	return nil, repo.ErrNotFound
}

func TestHistoryCmd(t *testing.T) {
	run := domain.NewRun("T1", "o", "")
	run.MarkRunning()
	now := time.Now()
	run.Steps = []domain.StepRecord{
		{Step: domain.StepLoad, Phase: domain.PhaseSetup, Status: domain.StepStatusSucceeded, StartedAt: now, FinishedAt: &now},
		{Step: domain.StepCreate, Phase: domain.PhaseSetup, Status: domain.StepStatusFailed, Error: "name taken", StartedAt: now, FinishedAt: &now},
	}
	run.MarkFailed(domain.StepCreate, "name taken")

	store := &fakeHistory{runs: []domain.Run{*run}}
	storeFn := func(context.Context) (HistoryStore, func(), error) {
		return store, func() {}, nil
	}

	newCmd := func(stdout *bytes.Buffer, args ...string) error {
		opts := &Options{SystemName: "T1"}
		cmd := NewHistoryCmd(opts, storeFn, func() *Output { return NewOutput(false, stdout) })
		cmd.SetArgs(args)
		cmd.SetOut(stdout)
		return cmd.ExecuteContext(context.Background())
	}

	t.Run("list", func(t *testing.T) {
		var out bytes.Buffer
		if err := newCmd(&out, "--status", "failed", "--limit", "5"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertInOrder(t, out.String(), "ID", "SYSTEST", "STATUS", run.ID.String(), "T1", "FAILED", "create")

		want := repo.RunFilter{SysTestName: "T1", Status: domain.RunStatusFailed, Limit: 5}
		if diff := cmp.Diff(want, store.filters[len(store.filters)-1]); diff != "" {
			t.Errorf("filter mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("all systests", func(t *testing.T) {
		var out bytes.Buffer
		if err := newCmd(&out, "--all"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := store.filters[len(store.filters)-1].SysTestName; got != "" {
			t.Errorf("expected no systest filter, got %q", got)
		}
	})

	t.Run("show", func(t *testing.T) {
		var out bytes.Buffer
		if err := newCmd(&out, run.ID.String()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		assertInOrder(t, out.String(), "STEP", "load", "SUCCEEDED", "create", "FAILED", "name taken")
	})

	t.Run("bad id", func(t *testing.T) {
		var out bytes.Buffer
		if err := newCmd(&out, "not-a-uuid"); err == nil {
			t.Error("expected error for invalid id")
		}
	})
}

func TestPrintEvent(t *testing.T) {
	msg, err := mq.NewMessage(mq.MessageTypeStepFinished, mq.StepFinishedPayload{
		SysTestName: "T1",
		Step:        domain.StepUndeploy,
		Status:      domain.StepStatusWarning,
		Error:       "timed out",
	})
	if err != nil {
		t.Fatalf("NewMessage: %v", err)
	}

	var buf bytes.Buffer
	if err := printEvent(NewOutput(false, &buf), msg); err != nil {
		t.Fatalf("printEvent: %v", err)
	}
	if !strings.Contains(buf.String(), "step.finished T1 undeploy WARNING: timed out") {
		t.Errorf("unexpected line: %q", buf.String())
	}
}
