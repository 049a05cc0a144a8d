// Package orchestrator запускает runtime и разворачивает на нём unit.
//
// StartRuntime проходит три последовательные фазы:
//   - разрешение конфигурации (config.Resolve): размер пула воркеров,
//     рабочая директория, свойства кэширования
//   - получение runtime (кластерного или автономного) через Acquirer
//   - деплой unit и ожидание его сигнала готовности
//
// Результат — один future.Future[Deployment]. Он разрешается только после
// того, как деплой подтверждён и unit сообщил о готовности. Первая ошибка
// любой фазы завершает future с ошибкой; последующие попытки игнорируются.
//
//	o := orchestrator.New(orchestrator.Config{
//	    RuntimeConfig:     cfg,
//	    NewUnit:           verticle.Factory(":8080", logger),
//	    NewClusterManager: newManager,
//	})
//	dep, err := o.StartRuntime(nil, routes).Await(ctx)
//
// Классы ошибок: config.ErrConfiguration, ErrRuntimeAcquisition,
// ErrDeployment, ErrUnexpected.
package orchestrator
