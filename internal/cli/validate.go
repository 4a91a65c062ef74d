package cli

import (
	"github.com/spf13/cobra"

	"github.com/shaiso/slicerun/internal/domain"
	"github.com/shaiso/slicerun/internal/topospec"
)

// validateResult — вывод validate в режиме --json.
type validateResult struct {
	Path    string            `json:"path"`
	Valid   bool              `json:"valid"`
	Error   string            `json:"error,omitempty"`
	Summary *topospec.Summary `json:"summary,omitempty"`
}

// NewValidateCmd создаёт команду проверки описания топологии.
// Slicer не вызывается.
func NewValidateCmd(opts *Options, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the topology spec and print its summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()
			path := opts.ResolvedSpecPath()

			spec, err := topospec.Load(path)
			if err != nil {
				if out.JSONMode() {
					_ = out.JSON(validateResult{Path: path, Error: err.Error()})
				} else {
					out.Line("❌ %s: %v", errorTitle(domain.StepLoad, err), err)
				}
				return &ExitError{Code: 1, Err: err}
			}

			summary := topospec.Summarize(spec)
			if out.JSONMode() {
				return out.JSON(validateResult{Path: path, Valid: true, Summary: &summary})
			}

			out.Line("✓ Topology specification loaded successfully: %s", path)
			printSummary(out.w, summary)
			return nil
		},
	}
}
