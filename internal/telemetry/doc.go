// Package telemetry обеспечивает наблюдаемость kovert.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики запуска, деплоя и кластера
//
// Все компоненты используют единый формат логирования,
// а HTTP verticle экспортирует метрики на /metrics endpoint.
package telemetry
