package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shaiso/slicerun/internal/domain"
)

// scrape возвращает текст /metrics.
func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	return rec.Body.String()
}

func TestMetrics_RunLifecycle(t *testing.T) {
	m := NewMetrics()
	ctx := context.Background()
	run := domain.NewRun("T1", "owner@example.com", "spec.yaml")
	run.MarkRunning()

	m.RunStarted(ctx, run)
	if out := scrape(t, m); !strings.Contains(out, "slicerun_runs_active 1") {
		t.Errorf("expected 1 active run:\n%s", out)
	}

	finished := time.Now()
	m.StepFinished(ctx, run, domain.StepRecord{
		Step:       domain.StepCreate,
		Status:     domain.StepStatusSucceeded,
		StartedAt:  finished.Add(-time.Second),
		FinishedAt: &finished,
	}, nil)
	m.StepFinished(ctx, run, domain.StepRecord{
		Step:       domain.StepUndeploy,
		Status:     domain.StepStatusWarning,
		StartedAt:  finished,
		FinishedAt: &finished,
	}, nil)

	run.MarkSucceeded()
	m.RunFinished(ctx, run)

	out := scrape(t, m)
	for _, want := range []string{
		"slicerun_runs_active 0",
		`slicerun_runs_total{status="SUCCEEDED"} 1`,
		`slicerun_steps_total{status="SUCCEEDED",step="create"} 1`,
		`slicerun_steps_total{status="WARNING",step="undeploy"} 1`,
		`slicerun_last_run_success{systest="T1"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestMetrics_FailedRun(t *testing.T) {
	m := NewMetrics()
	run := domain.NewRun("T1", "o", "")
	run.MarkRunning()
	m.RunStarted(context.Background(), run)
	run.MarkFailed(domain.StepDeploy, "timeout")
	m.RunFinished(context.Background(), run)

	out := scrape(t, m)
	if !strings.Contains(out, `slicerun_runs_total{status="FAILED"} 1`) {
		t.Errorf("expected failed run counter in output:\n%s", out)
	}
	if !strings.Contains(out, `slicerun_last_run_success{systest="T1"} 0`) {
		t.Errorf("expected last run success=0 in output:\n%s", out)
	}
}
