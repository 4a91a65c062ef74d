package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/slicerun/internal/domain"
)

// uniqueViolation — SQLSTATE нарушения уникальности.
const uniqueViolation = "23505"

// RunRepo — история runs и их шагов.
type RunRepo struct {
	pool *pgxpool.Pool
}

// NewRunRepo создаёт новый RunRepo.
func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

// Create записывает новый run.
func (r *RunRepo) Create(ctx context.Context, run *domain.Run) error {
	query := `
		INSERT INTO slicer_runs (id, systest_name, owner, spec_path, status, state, started_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		run.ID,
		run.SysTestName,
		run.Owner,
		nullString(run.SpecPath),
		run.Status,
		run.State.String(),
		run.StartedAt,
		run.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Update сохраняет статус, состояние SysTest и ошибку run.
func (r *RunRepo) Update(ctx context.Context, run *domain.Run) error {
	query := `
		UPDATE slicer_runs
		SET status = $2, state = $3, failed_step = $4, error = $5, started_at = $6, finished_at = $7
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		run.ID,
		run.Status,
		run.State.String(),
		nullString(string(run.FailedStep)),
		nullString(run.Error),
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddStep записывает шаг run под порядковым номером seq.
func (r *RunRepo) AddStep(ctx context.Context, runID uuid.UUID, seq int, rec domain.StepRecord) error {
	var detail []byte
	if len(rec.Detail) > 0 {
		var err error
		if detail, err = json.Marshal(rec.Detail); err != nil {
			return fmt.Errorf("marshal detail: %w", err)
		}
	}

	query := `
		INSERT INTO slicer_run_steps (run_id, seq, step, phase, status, error, detail, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		runID,
		seq,
		rec.Step,
		rec.Phase,
		rec.Status,
		nullString(rec.Error),
		detail,
		rec.StartedAt,
		rec.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert step %s: %w", rec.Step, err)
	}
	return nil
}

// GetByID возвращает run вместе с шагами.
func (r *RunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	query := `
		SELECT ` + runColumns + `
		FROM slicer_runs
		WHERE id = $1
	`
	run, err := scanRun(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	steps, err := r.ListSteps(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Steps = steps
	return run, nil
}

// List возвращает runs, новые первыми.
func (r *RunRepo) List(ctx context.Context, filter RunFilter) ([]domain.Run, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT ` + runColumns + `
		FROM slicer_runs
		WHERE ($1::text IS NULL OR systest_name = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query,
		nullString(filter.SysTestName),
		nullString(string(filter.Status)),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// ListSteps возвращает шаги run в порядке выполнения.
func (r *RunRepo) ListSteps(ctx context.Context, runID uuid.UUID) ([]domain.StepRecord, error) {
	query := `
		SELECT step, phase, status, error, detail, started_at, finished_at
		FROM slicer_run_steps
		WHERE run_id = $1
		ORDER BY seq
	`
	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()

	var steps []domain.StepRecord
	for rows.Next() {
		var rec domain.StepRecord
		var stepErr *string
		var detail []byte

		if err := rows.Scan(&rec.Step, &rec.Phase, &rec.Status, &stepErr, &detail, &rec.StartedAt, &rec.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		if stepErr != nil {
			rec.Error = *stepErr
		}
		if detail != nil {
			if err := json.Unmarshal(detail, &rec.Detail); err != nil {
				return nil, fmt.Errorf("unmarshal detail: %w", err)
			}
		}
		steps = append(steps, rec)
	}
	return steps, rows.Err()
}

// --- Helpers ---

// RunFilter — параметры выборки истории.
type RunFilter struct {
	SysTestName string
	Status      domain.RunStatus
	Limit       int
}

const runColumns = `id, systest_name, owner, spec_path, status, state, failed_step, error,
		       started_at, finished_at, created_at`

// scanRun сканирует одну строку в Run. Подходит и для pgx.Row, и для pgx.Rows.
func scanRun(row pgx.Row) (*domain.Run, error) {
	var run domain.Run
	var specPath, failedStep, runError *string
	var state string

	err := row.Scan(
		&run.ID,
		&run.SysTestName,
		&run.Owner,
		&specPath,
		&run.Status,
		&state,
		&failedStep,
		&runError,
		&run.StartedAt,
		&run.FinishedAt,
		&run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	run.State = domain.ParseTopologyState(state)
	if specPath != nil {
		run.SpecPath = *specPath
	}
	if failedStep != nil {
		run.FailedStep = domain.Step(*failedStep)
	}
	if runError != nil {
		run.Error = *runError
	}

	return &run, nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
