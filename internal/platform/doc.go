// Package platform — runtime, на котором разворачиваются units.
//
// # Обзор
//
// Runtime — среда исполнения: идентификатор узла, пул воркеров
// для блокирующих операций и реестр развёрнутых units. Runtime бывает
// автономным (standalone) и кластерным: кластерный при получении
// вступает в группу через ClusterManager и покидает её при Close.
//
// Acquirer получает готовый Runtime:
//
//	rt, err := platform.DefaultAcquirer{}.AcquireClustered(ctx, opts, manager)
//	if err != nil {
//	    return err
//	}
//	defer rt.Close(ctx)
//
//	deploymentID, err := rt.Deploy(ctx, unit)
//
// # Unit
//
// Unit — развёртываемая единица работы. Deploy вызывает Unit.Start
// и возвращает идентификатор деплоя, когда Start вернул nil.
// Готовность unit к обслуживанию (например, открытый сокет) unit
// сообщает отдельно, своим механизмом.
//
// # Пул воркеров
//
// ExecuteBlocking ограничивает число одновременно выполняемых
// блокирующих функций значением Options.WorkerPoolSize.
package platform
