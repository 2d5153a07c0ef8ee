package rest

import (
	"context"
	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"
	"net/http"
	"time"
)

type requestContextKey struct{}

// RequestContext is the context of the request, for request-dependent parameters
type RequestContext struct {
	// ReqUUID is the request unique ID
	ReqUUID uuid.UUID

	// Logger is a custom field logger for the request
	Logger logrus.FieldLogger
}

// wrap attaches a RequestContext to every request and logs its outcome once the handler returns.
func (e *Engine) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqUUID, err := uuid.NewV4()
		if err != nil {
			e.baseLogger.WithError(err).Error("can't generate a request UUID")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		var ctx = RequestContext{
			ReqUUID: reqUUID,
		}

		// Create a request-specific logger
		ctx.Logger = e.baseLogger.WithFields(logrus.Fields{
			"reqid":     ctx.ReqUUID.String(),
			"remote-ip": r.RemoteAddr,
		})

		var start = time.Now()
		var recorder = &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		// Call the next handler in chain (usually, the handler function for the path)
		next.ServeHTTP(recorder, r.WithContext(context.WithValue(r.Context(), requestContextKey{}, ctx)))

		ctx.Logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   recorder.status,
			"duration": time.Since(start).Truncate(time.Microsecond).String(),
		}).Info("request served")
	})
}

// contextOf returns the request's RequestContext, if the engine attached one.
func contextOf(request *http.Request) (RequestContext, bool) {
	ctx, ok := request.Context().Value(requestContextKey{}).(RequestContext)
	return ctx, ok
}

// Logger returns the request scoped logger, falling back on the standard logger outside of the engine.
func Logger(request *http.Request) logrus.FieldLogger {
	if ctx, ok := contextOf(request); ok {
		return ctx.Logger
	}
	return logrus.StandardLogger()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
