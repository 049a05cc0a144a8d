// Package verticle содержит развёртываемый HTTP unit.
//
// Структура:
//   - ready.go      — ReadySignal, одноразовый сигнал готовности
//   - router.go     — Router поверх http.ServeMux с цепочкой middleware
//   - middleware.go — middleware (logging, recovery)
//   - response.go   — JSON-ответы
//   - http.go       — HTTPVerticle: bind, serve, сигнал готовности, shutdown
//
// HTTPVerticle открывает сокет синхронно внутри Start, поэтому ошибка bind
// становится ошибкой деплоя. После успешного bind сервер обслуживает
// запросы в отдельной горутине, а unit зажигает ReadySignal.
//
// Встроенные маршруты:
//
//	GET /healthz             — liveness
//	GET /metrics             — Prometheus
//	GET /_kovert/deployment  — сведения о runtime и деплоях
package verticle
