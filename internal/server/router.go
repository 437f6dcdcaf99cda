package server

import (
	"net/http"
	"slices"
	"strings"
)

// BasicRouter dispatches requests by path and method and wraps every route in its middleware stack.
//
// Paths are [http.ServeMux] patterns ("/{$}" matches only the root). Several methods may share one path;
// a request with any other method gets 405 and an Allow header listing the registered ones.
type BasicRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware
	routes      map[string]*methodSet
}

// methodSet holds the handlers registered on one path.
type methodSet struct {
	handlers map[string]http.Handler
}

func (m *methodSet) allowed() string {
	methods := make([]string, 0, len(m.handlers))
	for method := range m.handlers {
		methods = append(methods, method)
	}
	slices.Sort(methods)
	return strings.Join(methods, ", ")
}

func (m *methodSet) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	method := strings.ToUpper(req.Method)
	h, ok := m.handlers[method]
	if !ok && method == http.MethodHead {
		h, ok = m.handlers[http.MethodGet]
	}
	if !ok {
		w.Header().Set("Allow", m.allowed())
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	h.ServeHTTP(w, req)
}

// NewBasicRouter creates an empty [BasicRouter].
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{
		mux:    http.NewServeMux(),
		routes: make(map[string]*methodSet),
	}
}

// Use appends middleware. Routes registered afterwards are wrapped in the order middleware was added.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers handler for method on path.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	set, ok := r.routes[path]
	if !ok {
		set = &methodSet{handlers: make(map[string]http.Handler)}
		r.routes[path] = set
		r.mux.Handle(path, set)
	}
	set.handlers[strings.ToUpper(method)] = r.Apply(handler)
}

// Handler registers every path returned by [Handler.Routes]. Method filtering is left to the handler.
func (r *BasicRouter) Handler(handler Handler) {
	wrapped := r.Apply(handler)
	for _, route := range handler.Routes() {
		r.mux.Handle(route, wrapped)
	}
}

func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps handler so the first middleware added is the outermost.
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	wrapped := handler
	for _, mw := range slices.Backward(r.middlewares) {
		wrapped = mw(wrapped)
	}
	return wrapped
}
