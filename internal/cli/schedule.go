package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/slicerun/internal/lifecycle"
	"github.com/shaiso/slicerun/internal/scheduler"
)

// NewScheduleCmd создаёт команду запуска жизненного цикла по расписанию.
func NewScheduleCmd(runtimeFn RuntimeFunc, loggerFn LoggerFunc, outputFn func() *Output) *cobra.Command {
	var cronExpr string
	var timezone string
	var dryRun int

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the lifecycle on a cron schedule",
		Long: `Runs "slicerun up" on a cron schedule until interrupted. A run that is still
in progress when the next one is due causes that next run to be skipped.

Expressions: standard 5 fields ("0 2 * * *") or descriptors ("@daily", "@every 6h").`,
		Example: `  slicerun schedule --cron "0 2 * * *" --timezone Europe/Moscow
  slicerun schedule --cron "@every 6h" --next 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dryRun > 0 {
				return printNextRuns(outputFn(), cronExpr, timezone, dryRun)
			}

			// Расписание проверяется до подключения к Slicer, RabbitMQ и БД.
			var rt *Runtime
			sched, err := scheduler.New(scheduler.Config{
				CronExpr: cronExpr,
				Timezone: timezone,
				Run: func(ctx context.Context) (*lifecycle.Result, error) {
					return rt.Orchestrator().Run(ctx)
				},
				Logger: loggerFn(),
			})
			if err != nil {
				return err
			}

			rt = runtimeFn(cmd.Context())
			defer rt.Close()

			return sched.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&cronExpr, "cron", "", "Cron expression (required)")
	cmd.Flags().StringVar(&timezone, "timezone", "UTC", "Timezone for the cron expression")
	cmd.Flags().IntVar(&dryRun, "next", 0, "Print the next N run times and exit")
	_ = cmd.MarkFlagRequired("cron")

	return cmd
}

// printNextRuns печатает ближайшие count запусков без запуска расписания.
func printNextRuns(out *Output, cronExpr, timezone string, count int) error {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", timezone, err)
	}

	times := make([]time.Time, 0, count)
	from := time.Now()
	for i := 0; i < count; i++ {
		next, err := scheduler.NextRun(cronExpr, loc, from)
		if err != nil {
			return err
		}
		times = append(times, next)
		from = next
	}

	rows := make([][]string, len(times))
	for i, t := range times {
		rows[i] = []string{fmt.Sprint(i + 1), t.Format(time.RFC3339)}
	}
	return out.Print([]string{"#", "NEXT_RUN"}, rows, times)
}
