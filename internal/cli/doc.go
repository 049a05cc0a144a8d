// Package cli реализует команды kovert.
//
// # Команды
//
//   - start   — запуск runtime и развёртывание HTTP unit
//   - members — участники кластерной группы из реестра
//   - status  — состояние запущенного узла через его HTTP API
//
// Каждая команда создаётся фабричной функцией (NewStartCmd и т.д.).
// Зависимости передаются замыканиями, чтобы создавать их лениво,
// после парсинга PersistentFlags: outputFn, clientFn, listerFn.
//
// # Client
//
// HTTP-клиент для API узла (/healthz, /_kovert/deployment).
// Не импортирует internal/verticle: типы ответов продублированы.
//
//	client := cli.NewClient("http://localhost:8080")
//	info, err := client.Deployment()
//
// # Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: kovert members --json | jq .
package cli
