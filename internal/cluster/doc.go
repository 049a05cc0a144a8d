// Package cluster управляет членством runtime в кластерной группе.
//
// # Обзор
//
// Manager — кластерный менеджер, создаваемый из имени и пароля группы.
// Кластерный runtime вызывает Join при старте и Leave при закрытии.
//
//	m := cluster.NewManager(cluster.Config{
//	    GroupName:       "edge",
//	    GroupPassphrase: "secret",
//	    Store:           repo.NewClusterRepo(pool), // опционально, иначе MemoryStore
//	    Announcer:       publisher,                 // опционально
//	    EventConn:       mqConn,                    // опционально
//	    Logger:          logger,
//	})
//
// # Группа и пароль
//
// Первый вступивший узел создаёт группу и сохраняет bcrypt-хэш пароля.
// Следующие узлы должны предъявить тот же пароль, иначе Join
// возвращает ErrInvalidPassphrase. Пустые имя или пароль дают
// ErrMissingCredentials.
//
// # Heartbeat
//
// После Join менеджер периодически (по умолчанию раз в 5 секунд)
// обновляет last_seen_at участника через scheduler. Если запись
// участника пропала, она создаётся заново.
//
// # События
//
// Если задан Announcer, менеджер публикует member.joined,
// member.heartbeat и member.left. Если задан EventConn, менеджер
// слушает события своей группы и ведёт локальное представление
// о соседях (Peers).
package cluster
