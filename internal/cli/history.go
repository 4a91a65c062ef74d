package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/slicerun/internal/domain"
	"github.com/shaiso/slicerun/internal/repo"
)

// HistoryStore — чтение истории. Реализация: repo.RunRepo.
type HistoryStore interface {
	List(ctx context.Context, filter repo.RunFilter) ([]domain.Run, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error)
}

// HistoryStoreFunc открывает HistoryStore; close освобождает соединение.
type HistoryStoreFunc func(ctx context.Context) (store HistoryStore, close func(), err error)

// NewHistoryCmd создаёт команду просмотра истории run.
func NewHistoryCmd(opts *Options, storeFn HistoryStoreFunc, outputFn func() *Output) *cobra.Command {
	var status string
	var limit int
	var all bool

	cmd := &cobra.Command{
		Use:   "history [RUN_ID]",
		Short: "List recent runs, or show one run with its steps",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeFn, err := storeFn(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			out := outputFn()

			if len(args) == 1 {
				id, err := uuid.Parse(args[0])
				if err != nil {
					return fmt.Errorf("invalid run id %q: %w", args[0], err)
				}
				run, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printRunSteps(out, run)
			}

			filter := repo.RunFilter{
				Status: domain.RunStatus(strings.ToUpper(status)),
				Limit:  limit,
			}
			if !all {
				filter.SysTestName = opts.SystemName
			}

			runs, err := store.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printRuns(out, runs)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (RUNNING, SUCCEEDED, FAILED)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs")
	cmd.Flags().BoolVar(&all, "all", false, "Show runs of all SysTests, not only --system")

	return cmd
}

func printRuns(out *Output, runs []domain.Run) error {
	headers := []string{"ID", "SYSTEST", "STATUS", "STATE", "FAILED_STEP", "DURATION", "CREATED"}
	rows := make([][]string, len(runs))
	for i, r := range runs {
		rows[i] = []string{
			r.ID.String(),
			r.SysTestName,
			string(r.Status),
			r.State.String(),
			string(r.FailedStep),
			formatDuration(r.Duration()),
			r.CreatedAt.Format(time.RFC3339),
		}
	}
	return out.Print(headers, rows, runs)
}

func printRunSteps(out *Output, run *domain.Run) error {
	headers := []string{"STEP", "PHASE", "STATUS", "DURATION", "ERROR"}
	rows := make([][]string, len(run.Steps))
	for i, s := range run.Steps {
		rows[i] = []string{
			string(s.Step),
			string(s.Phase),
			string(s.Status),
			formatDuration(s.Duration()),
			s.Error,
		}
	}
	return out.Print(headers, rows, run)
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}

// openHistoryStore — HistoryStoreFunc поверх Postgres.
func openHistoryStore(opts *Options) HistoryStoreFunc {
	return func(ctx context.Context) (HistoryStore, func(), error) {
		if opts.DatabaseURL == "" {
			return nil, nil, ErrHistoryDisabled
		}
		pool, err := repo.NewPool(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := repo.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo.NewRunRepo(pool), pool.Close, nil
	}
}
