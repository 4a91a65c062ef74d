// Package mq публикует события lifecycle в RabbitMQ и читает их обратно.
//
// Структура:
//   - connection.go — соединение с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — конверт Message и публикация
//   - events.go     — EventPublisher: lifecycle.Observer поверх Publisher
//   - consumer.go   — чтение событий для `slicerun events`
//
// Типы событий (совпадают с routing key):
//   - run.started    — run начат
//   - step.finished  — шаг завершён (SUCCEEDED, FAILED или WARNING)
//   - run.finished   — run завершён
//
// Exchanges:
//   - slicer.lifecycle      — topic, все события
//   - slicer.lifecycle.dlq  — fanout, сообщения, которые не удалось обработать
package mq
