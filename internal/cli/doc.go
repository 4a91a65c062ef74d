// Package cli реализует команды slicerun.
//
// # Обзор
//
// CLI собирает оркестратор жизненного цикла из конфигурации (флаги и
// переменные окружения) и печатает ход run для человека. Прогресс и
// данные пишутся в stdout, логи slog в stderr.
//
// # Ключевые компоненты
//
// ## Options
//
// Persistent flags root-команды. Значения по умолчанию берутся из
// окружения: SLICER_URL, SLICER_SYSTEM, SLICER_OWNER, DB_URL,
// RABBITMQ_URL, METRICS_ADDR.
//
// ## Runtime
//
// Инфраструктура одного запуска: slicer.Client, telemetry.Metrics и,
// если заданы адреса, mq.EventPublisher и repo.Recorder. Недоступный
// брокер или БД только логируются.
//
// ## Progress
//
// lifecycle.Observer, печатающий шаги:
//
//	======================================================================
//	Slicer Topology Deployment
//	======================================================================
//	...
//	----------------------------------------------------------------------
//	Creating topology...
//	✓ Topology created successfully
//
// Предупреждения cleanup начинаются с "⚠ Warning:", фатальные ошибки
// setup с "❌".
//
// ## Output
//
// Таблицы (text/tabwriter) или JSON (--json) для validate, history,
// schedule --next и events.
//
// ## Commands
//
//   - up:       полный жизненный цикл, exit 1 при ошибке setup
//   - teardown: только cleanup для --system
//   - validate: проверка описания топологии без вызовов Slicer
//   - schedule: up по cron-расписанию
//   - history:  история run из Postgres
//   - events:   события lifecycle из RabbitMQ
//
// Код завершения передаётся в main через *ExitError.
package cli
