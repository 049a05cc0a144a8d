// Package mq предоставляет шину кластерных событий поверх RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchange и очередей узлов
//   - publisher.go  — публикация событий участников группы
//   - consumer.go   — потребление событий из очереди узла
//
// Типы сообщений:
//   - member.joined     — узел вошёл в группу
//   - member.left       — узел покинул группу
//   - member.heartbeat  — узел жив
//
// Exchanges:
//   - kovert.cluster (topic) — routing key "<group>.<type>"
//
// Каждый узел получает события своей группы через собственную
// эксклюзивную очередь "kovert.cluster.<group>.<node_id>".
package mq
