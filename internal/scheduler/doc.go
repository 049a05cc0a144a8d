// Package scheduler запускает периодические задачи runtime.
//
// Используется кластерным менеджером для heartbeat участника группы.
// Расписание задаётся в формате robfig/cron: стандартное cron-выражение
// из пяти полей или дескриптор ("@every 5s", "@hourly").
package scheduler
