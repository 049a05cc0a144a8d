// Package config описывает конфигурацию runtime и её разрешение.
//
// # Обзор
//
// RuntimeConfig — неизменяемое описание того, как поднимать runtime:
// кластерный режим, имя и пароль группы, размер пула воркеров
// и настройки файлового кэша. Значения берутся из DefaultRuntimeConfig,
// затем из TOML-файла (LoadFile) и переменных окружения (ApplyEnv).
//
// Resolve превращает RuntimeConfig в Resolved: зажимает размер пула
// в допустимый диапазон, вычисляет рабочую директорию и публикует
// свойства кэша и рабочую директорию в Context.
//
// # Context
//
// Context заменяет глобальные свойства процесса. Каждое свойство
// записывается не более одного раза: первый писатель выигрывает,
// повторные записи игнорируются. Process() возвращает общий для
// процесса экземпляр.
package config
