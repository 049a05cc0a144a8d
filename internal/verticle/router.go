package verticle

import "net/http"

// Router — маршруты unit поверх http.ServeMux.
// Middleware из Use оборачивают весь mux.
type Router struct {
	mux         *http.ServeMux
	middlewares []Middleware
	executor    Executor
}

// NewRouter создаёт пустой Router.
func NewRouter() *Router {
	return &Router{mux: http.NewServeMux()}
}

// Use добавляет middleware в конец цепочки.
func (r *Router) Use(mw ...Middleware) {
	r.middlewares = append(r.middlewares, mw...)
}

// Handle регистрирует обработчик для pattern (синтаксис http.ServeMux).
func (r *Router) Handle(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

// HandleFunc регистрирует функцию-обработчик для pattern.
func (r *Router) HandleFunc(pattern string, fn func(http.ResponseWriter, *http.Request)) {
	r.mux.HandleFunc(pattern, fn)
}

// Handler возвращает mux, обёрнутый цепочкой middleware.
func (r *Router) Handler() http.Handler {
	return Chain(r.middlewares...)(r.mux)
}

// HandleBlocking регистрирует обработчик, выполняемый в пуле воркеров runtime.
// Вне runtime обработчик вызывается напрямую.
func (r *Router) HandleBlocking(pattern string, h http.Handler) {
	r.mux.Handle(pattern, Blocking(r.executor)(h))
}

// HandleBlockingFunc — HandleBlocking для функции-обработчика.
func (r *Router) HandleBlockingFunc(pattern string, fn func(http.ResponseWriter, *http.Request)) {
	r.HandleBlocking(pattern, http.HandlerFunc(fn))
}
