package config

import "sync"

// Ключи свойств Context.
const (
	PropDisableFileCPResolving = "kovert.disableFileCPResolving"
	PropDisableFileCaching     = "kovert.disableFileCaching"
	PropCacheDirBase           = "kovert.cacheDirBase"
	PropWorkingDir             = "kovert.cwd"
)

// Context — набор свойств окружения runtime.
//
// Каждое свойство записывается не более одного раза.
// Безопасен для конкурентного использования.
type Context struct {
	mu    sync.RWMutex
	props map[string]string
}

var process = NewContext()

// Process возвращает Context, общий для всего процесса.
func Process() *Context {
	return process
}

// NewContext создаёт пустой Context.
func NewContext() *Context {
	return &Context{props: make(map[string]string)}
}

// SetOnce записывает свойство, если оно ещё не задано.
// Возвращает true, если запись произошла.
func (c *Context) SetOnce(key, value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.props[key]; exists {
		return false
	}
	c.props[key] = value
	return true
}

// Get возвращает значение свойства.
func (c *Context) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.props[key]
	return v, ok
}

// WorkingDir возвращает опубликованную рабочую директорию.
func (c *Context) WorkingDir() (string, bool) {
	return c.Get(PropWorkingDir)
}

// FileCachingDisabled сообщает, отключён ли файловый кэш.
func (c *Context) FileCachingDisabled() bool {
	v, _ := c.Get(PropDisableFileCaching)
	return v == "true"
}

// CacheDirBase возвращает базовую директорию кэша.
func (c *Context) CacheDirBase() (string, bool) {
	return c.Get(PropCacheDirBase)
}

// Snapshot возвращает копию всех свойств.
func (c *Context) Snapshot() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]string, len(c.props))
	for k, v := range c.props {
		out[k] = v
	}
	return out
}
