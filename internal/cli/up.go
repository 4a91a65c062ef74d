package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/shaiso/slicerun/internal/lifecycle"
)

// RuntimeFunc поднимает Runtime для команды. Вызывающий закрывает его.
type RuntimeFunc func(ctx context.Context) *Runtime

// NewUpCmd создаёт команду полного жизненного цикла.
func NewUpCmd(runtimeFn RuntimeFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Create, reserve and deploy the topology, then tear it down",
		Long: `Drives the SysTest through create, reserve and deploy. Any failure there
aborts the run with exit code 1 and leaves already created resources in place
(use "slicerun teardown" to release them). After a successful deploy the
topology is undeployed, unreserved and deleted; failures during that cleanup
are reported as warnings and do not change the exit code.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := runtimeFn(cmd.Context())
			defer rt.Close()

			res, err := rt.Orchestrator().Run(cmd.Context())
			return exitFromResult(res, err)
		},
	}
}

// NewTeardownCmd создаёт команду, выполняющую только cleanup.
func NewTeardownCmd(runtimeFn RuntimeFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "teardown",
		Short: "Undeploy, unreserve and delete the SysTest",
		Long: `Runs only the cleanup steps for --system. Use it after "slicerun up" failed
during setup and left the SysTest created, reserved or deployed. Each step is
attempted once even if earlier steps fail.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt := runtimeFn(cmd.Context())
			defer rt.Close()

			res, err := rt.Orchestrator().Teardown(cmd.Context())
			return exitFromResult(res, err)
		},
	}
}

// exitFromResult переводит итог run в код завершения процесса.
// Прогресс и ошибки уже напечатаны Progress.
func exitFromResult(res *lifecycle.Result, err error) error {
	if res == nil || res.ExitCode() == 0 {
		return nil
	}
	return &ExitError{Code: res.ExitCode(), Err: err}
}
