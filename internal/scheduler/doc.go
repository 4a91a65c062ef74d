// Package scheduler запускает жизненный цикл топологии по расписанию.
//
// Структура:
//   - scheduler.go — Scheduler поверх robfig/cron (SkipIfStillRunning, Recover)
//   - cron.go      — парсинг cron-выражений, вычисление следующего запуска,
//     адаптер cron.Logger → slog
//
// Использование:
//
//	sched, err := scheduler.New(scheduler.Config{
//	    CronExpr: "0 2 * * *",
//	    Timezone: "Europe/Moscow",
//	    Run: func(ctx context.Context) (*lifecycle.Result, error) {
//	        return lifecycle.New(cfg).Run(ctx)
//	    },
//	    Logger: logger,
//	})
//	if err != nil {
//	    return err
//	}
//
//	// Блокируется до отмены ctx
//	return sched.Run(ctx)
//
// Один процесс — одно расписание. Параллельные run одного SysTest
// не поддерживаются, поэтому очередной запуск пропускается, пока идёт
// предыдущий.
package scheduler
