package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shaiso/slicerun/internal/domain"
	"github.com/shaiso/slicerun/internal/lifecycle"
	"github.com/shaiso/slicerun/internal/slicer"
	"github.com/shaiso/slicerun/internal/topospec"
)

const ruleWidth = 70

var (
	doubleRule = strings.Repeat("=", ruleWidth)
	singleRule = strings.Repeat("-", ruleWidth)
)

// stepText — как шаг называется в выводе.
type stepText struct {
	intent  string // "Creating topology..."
	success string // "✓ Topology created successfully"
	verb    string // для "⚠ Warning: Failed to <verb> topology"
	title   string // для "❌ <Title> Error"
}

var stepTexts = map[domain.Step]stepText{
	domain.StepCreate:    {"Creating topology...", "Topology created successfully", "create", "Create"},
	domain.StepReserve:   {"Reserving topology...", "Topology reserved successfully", "reserve", "Reserve"},
	domain.StepDeploy:    {"Deploying topology...", "Topology deployment initiated successfully", "deploy", "Deploy"},
	domain.StepUndeploy:  {"Undeploying topology...", "Topology undeployed successfully", "undeploy", "Undeploy"},
	domain.StepUnreserve: {"Unreserving topology...", "Topology unreserved successfully", "unreserve", "Unreserve"},
	domain.StepDelete:    {"Deleting topology...", "Topology deleted successfully", "delete", "Delete"},
}

// Progress — lifecycle.Observer, печатающий ход run для человека.
type Progress struct {
	w         io.Writer
	serverURL string

	cleanupStarted bool
}

// NewProgress создаёт Progress. serverURL печатается в заголовке.
func NewProgress(w io.Writer, serverURL string) *Progress {
	return &Progress{w: w, serverURL: serverURL}
}

// RunStarted печатает заголовок и сервер Slicer.
func (p *Progress) RunStarted(_ context.Context, run *domain.Run) {
	p.cleanupStarted = false

	p.println(doubleRule)
	p.println("Slicer Topology Deployment")
	p.println(doubleRule)
	p.printf("\nSlicer server: %s\n", p.serverURL)
	p.printf("SysTest: %s (owner %s)\n", run.SysTestName, run.Owner)
}

// StepStarted печатает разделитель и намерение шага.
func (p *Progress) StepStarted(_ context.Context, run *domain.Run, step domain.Step) {
	if step.Phase() == domain.PhaseCleanup && !p.cleanupStarted {
		p.cleanupStarted = true
		p.println("\n" + doubleRule)
		p.println("Starting cleanup process...")
		p.println(doubleRule)
	}

	p.println("\n" + singleRule)
	if step == domain.StepLoad {
		p.printf("Using topology spec: %s\n", run.SpecPath)
		return
	}
	p.println(stepTexts[step].intent)
}

// StepFinished печатает успех шага, предупреждение или ошибку.
func (p *Progress) StepFinished(_ context.Context, _ *domain.Run, rec domain.StepRecord, err error) {
	switch {
	case err == nil:
		p.stepSucceeded(rec)
	case rec.Phase == domain.PhaseCleanup:
		p.printf("⚠ Warning: Failed to %s topology: %v\n", stepTexts[rec.Step].verb, err)
		if slicer.IsNotFound(err) {
			p.printf("  Already gone on the Slicer server, nothing to %s\n", stepTexts[rec.Step].verb)
		}
	default:
		p.printf("\n❌ %s: %v\n", errorTitle(rec.Step, err), err)
	}
}

// RunFinished завершает вывод: итог cleanup или подсказку про teardown.
func (p *Progress) RunFinished(_ context.Context, run *domain.Run) {
	if p.cleanupStarted {
		p.println("\n" + doubleRule)
		p.println("Cleanup completed!")
		p.println(doubleRule)
	}

	if run.Status == domain.RunStatusFailed {
		p.printf("\nRun failed at %s. SysTest state: %s\n", run.FailedStep, run.State)
		if run.State != domain.TopologyStateUnknown {
			p.printf("Resources may still be held; run `slicerun teardown --system %s` to release them.\n", run.SysTestName)
		}
	}
}

func (p *Progress) stepSucceeded(rec domain.StepRecord) {
	switch rec.Step {
	case domain.StepLoad:
		p.println("✓ Topology specification loaded successfully")
	case domain.StepCreate:
		p.println("✓ " + stepTexts[rec.Step].success)
		p.printf("  Topology Name: %s\n", rec.Detail["topology_name"])
	case domain.StepDeploy:
		p.println("✓ " + stepTexts[rec.Step].success)
		p.printf("  Status: %s\n", rec.Detail["deploy_status"])
		p.println("\n" + doubleRule)
		p.println("Topology deployment completed successfully!")
	default:
		p.println("✓ " + stepTexts[rec.Step].success)
	}
}

func (p *Progress) println(s string) {
	fmt.Fprintln(p.w, s)
}

func (p *Progress) printf(format string, args ...any) {
	fmt.Fprintf(p.w, format, args...)
}

// errorTitle подбирает заголовок для фатальной ошибки шага.
func errorTitle(step domain.Step, err error) string {
	switch {
	case errors.Is(err, topospec.ErrFileNotFound):
		return "File Error"
	case errors.Is(err, topospec.ErrParse):
		return "YAML Parsing Error"
	case errors.Is(err, lifecycle.ErrMissingSystemName),
		errors.Is(err, lifecycle.ErrMissingOwner),
		errors.Is(err, lifecycle.ErrMissingClient),
		errors.Is(err, lifecycle.ErrMissingLoader):
		return "Configuration Error"
	}

	if t, ok := stepTexts[step]; ok {
		return t.title + " Error"
	}
	return "Error"
}

// printSummary печатает сводку по описанию топологии.
func printSummary(w io.Writer, s topospec.Summary) {
	fmt.Fprintln(w, "\nTopology Configuration:")
	fmt.Fprintf(w, "  - Use OVS: %s\n", s.UseOVS)
	fmt.Fprintf(w, "  - Use Patch Panel: %s\n", s.UsePatchPanel)
	fmt.Fprintf(w, "  - Number of DUTs: %d\n", len(s.DUTs))
	for _, d := range s.DUTs {
		fmt.Fprintf(w, "    • %s: %s (%s)\n", d.Name, d.OSType, d.ImplType)
	}

	fmt.Fprintln(w, "\nDeploy Configuration:")
	for _, c := range s.Components {
		fmt.Fprintf(w, "  - %s: %s (%s)\n", c.Name, c.Branch, c.Build)
	}
}
