package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shaiso/slicerun/internal/telemetry"
)

// LoggerFunc возвращает логгер команды.
type LoggerFunc func() *slog.Logger

// NewRootCmd собирает дерево команд slicerun. Прогресс и данные пишутся
// в stdout, логи в stderr.
func NewRootCmd(version string, stdout, stderr io.Writer) *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:           "slicerun",
		Short:         "slicerun — drive a Slicer topology through its lifecycle",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	opts.BindFlags(rootCmd)

	var logger *slog.Logger
	loggerFn := func() *slog.Logger {
		if logger == nil {
			logger = telemetry.SetupLoggerTo(stderr)
		}
		return logger
	}
	outputFn := func() *Output { return NewOutput(opts.JSON, stdout) }
	runtimeFn := func(ctx context.Context) *Runtime {
		return NewRuntime(ctx, opts, loggerFn(), stdout)
	}

	rootCmd.AddCommand(
		NewUpCmd(runtimeFn),
		NewTeardownCmd(runtimeFn),
		NewValidateCmd(opts, outputFn),
		NewScheduleCmd(runtimeFn, loggerFn, outputFn),
		NewHistoryCmd(opts, openHistoryStore(opts), outputFn),
		NewEventsCmd(opts, loggerFn, outputFn),
	)

	return rootCmd
}
