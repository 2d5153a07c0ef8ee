package rest

import (
	"errors"
	"github.com/julienschmidt/httprouter"
	JSON "github.com/silktrader/usof/pkg/json-utilities"
	"github.com/sirupsen/logrus"
	"net/http"
	"strconv"
)

// Middleware decorates a handler; every gate and guard in the API has this shape.
type Middleware = func(http.Handler) http.Handler

var ErrBadId = errors.New("identifier must be a positive integer")

// Config is used to provide dependencies and configuration to the New function.
type Config struct {
	Logger logrus.FieldLogger
}

func New(cfg Config) (*Engine, error) {

	// assign a logger or fail
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}

	var engine = &Engine{
		baseLogger: cfg.Logger,
		router:     httprouter.New(),
	}

	// disables redirections such as `/foo/` to `/foo`
	engine.router.RedirectTrailingSlash = false

	// disables attempts to fix common path issues and redirects them, i.e. `/FoO` redirects to `/foo`
	engine.router.RedirectFixedPath = false

	engine.router.NotFound = http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		JSON.NotFound(writer, "Route not found")
	})
	engine.router.MethodNotAllowed = http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		JSON.Respond(writer, http.StatusMethodNotAllowed, JSON.ErrorBody{Error: "Method not allowed"})
	})

	return engine, nil
}

// Engine contains the muxer, logger and middleware.
type Engine struct {
	router *httprouter.Router

	// a middleware queue; invocation order follows insertion order
	middleware []Middleware

	// baseLogger is a logger for non-requests contexts, like goroutines or background tasks not started by a request
	baseLogger logrus.FieldLogger
}

// Handler returns the router, decorated with the request context and access log shared by every route.
func (e *Engine) Handler() http.Handler {
	return e.wrap(e.router)
}

// Handle registers the path and method to the given handler, wrapped by the global middleware first and then by the
// route's own middleware, so that both run in the order they were listed.
func (e *Engine) Handle(method string, path string, handler http.Handler, middleware ...Middleware) {

	// innermost first: the last per-route middleware wraps the handler directly
	for i := len(middleware) - 1; i >= 0; i-- {
		handler = middleware[i](handler)
	}

	// global middleware runs ahead of any route specific one
	for i := len(e.middleware) - 1; i >= 0; i-- {
		handler = e.middleware[i](handler)
	}

	// associate the final composed handler to the selected path and method pair
	e.router.Handler(method, path, handler)
}

// Use specifies one or multiple new handlers that will be evaluated for every route registered afterwards.
func (e *Engine) Use(mw ...Middleware) {
	e.middleware = append(e.middleware, mw...)
}

// LimitBody caps the size of request bodies; reads past the limit fail, which decoders report as malformed bodies.
func LimitBody(limit int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if request.Body != nil {
				request.Body = http.MaxBytesReader(writer, request.Body, limit)
			}
			next.ServeHTTP(writer, request)
		})
	}
}

// Get defines a new GET method handler for the specified path.
// The variadic arguments can include middleware that will be exclusively evaluated for the path.
func (e *Engine) Get(path string, handlerFunc http.HandlerFunc, middleware ...Middleware) {
	e.Handle(http.MethodGet, path, handlerFunc, middleware...)
}

func (e *Engine) Post(path string, handlerFunc http.HandlerFunc, middleware ...Middleware) {
	e.Handle(http.MethodPost, path, handlerFunc, middleware...)
}

func (e *Engine) Put(path string, handlerFunc http.HandlerFunc, middleware ...Middleware) {
	e.Handle(http.MethodPut, path, handlerFunc, middleware...)
}

func (e *Engine) Patch(path string, handlerFunc http.HandlerFunc, middleware ...Middleware) {
	e.Handle(http.MethodPatch, path, handlerFunc, middleware...)
}

func (e *Engine) Delete(path string, handlerFunc http.HandlerFunc, middleware ...Middleware) {
	e.Handle(http.MethodDelete, path, handlerFunc, middleware...)
}

// GetParam returns the named path parameter, or an empty string.
func GetParam(request *http.Request, name string) string {
	return httprouter.ParamsFromContext(request.Context()).ByName(name)
}

// GetIdParam parses the named path parameter as a positive integer identifier.
func GetIdParam(request *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(GetParam(request, name), 10, 64)
	if err != nil || id < 1 {
		return 0, ErrBadId
	}
	return id, nil
}
