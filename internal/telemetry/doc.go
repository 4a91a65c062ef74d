// Package telemetry обеспечивает наблюдаемость slicerun.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики run и шагов
//
// Логи пишутся в stderr: stdout занят выводом прогресса для человека.
// Метрики отдаются на /metrics, если задан --metrics-addr.
package telemetry
