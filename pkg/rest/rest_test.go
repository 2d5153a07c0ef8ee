package rest

import (
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newEngine(t *testing.T) (*Engine, *test.Hook) {
	logger, hook := test.NewNullLogger()
	engine, err := New(Config{Logger: logger})
	require.NoError(t, err)
	return engine, hook
}

func tracing(name string, trace *[]string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*trace = append(*trace, name)
			next.ServeHTTP(w, r)
		})
	}
}

func TestNewRequiresLogger(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestMiddlewareOrder(t *testing.T) {
	var engine, _ = newEngine(t)
	var trace []string

	engine.Use(tracing("global", &trace))
	engine.Get("/things", func(w http.ResponseWriter, r *http.Request) {
		trace = append(trace, "handler")
	}, tracing("first", &trace), tracing("second", &trace))

	engine.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/things", nil))

	assert.Equal(t, []string{"global", "first", "second", "handler"}, trace)
}

func TestLimitBody(t *testing.T) {
	var engine, _ = newEngine(t)
	var readErr error
	engine.Use(LimitBody(8))
	engine.Post("/things", func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	})

	engine.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/things", strings.NewReader("12345678")))
	assert.NoError(t, readErr)

	engine.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/things", strings.NewReader("123456789")))
	assert.Error(t, readErr)
}

func TestParamsAndRequestContext(t *testing.T) {
	var engine, hook = newEngine(t)
	var (
		id      int64
		idErr   error
		context RequestContext
		found   bool
	)

	engine.Delete("/things/:id", func(w http.ResponseWriter, r *http.Request) {
		id, idErr = GetIdParam(r, "id")
		context, found = contextOf(r)
		w.WriteHeader(http.StatusTeapot)
	})

	var handler = engine.Handler()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/things/42", nil))

	require.NoError(t, idErr)
	assert.Equal(t, int64(42), id)
	require.True(t, found)
	assert.False(t, context.ReqUUID.IsNil())

	var entry = hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, http.StatusTeapot, entry.Data["status"])
	assert.Equal(t, "/things/42", entry.Data["path"])

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/things/zero", nil))
	assert.ErrorIs(t, idErr, ErrBadId)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/things/-3", nil))
	assert.ErrorIs(t, idErr, ErrBadId)
}

func TestUnknownRoutesAnswerJSON(t *testing.T) {
	var engine, _ = newEngine(t)
	engine.Get("/things", func(w http.ResponseWriter, r *http.Request) {})

	var recorder = httptest.NewRecorder()
	engine.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/nothing", nil))
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.True(t, strings.Contains(recorder.Body.String(), `"error"`))

	recorder = httptest.NewRecorder()
	engine.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/things", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
}

func TestLoggerFallsBack(t *testing.T) {
	assert.NotNil(t, Logger(httptest.NewRequest(http.MethodGet, "/", nil)))
}
