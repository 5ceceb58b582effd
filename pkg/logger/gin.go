package logger

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerRequestID = "X-Request-Id"
	ginLoggerKey    = "logger"
	ginAttrsKey     = "logger.attrs"

	maxRequestIDLen = 64
)

type middlewareConfig struct {
	quiet map[string]bool
}

type MiddlewareOption func(*middlewareConfig)

// Quiet drops the summary line for the given routes on success. Failures
// are still logged.
func Quiet(paths ...string) MiddlewareOption {
	return func(c *middlewareConfig) {
		for _, p := range paths {
			c.quiet[p] = true
		}
	}
}

// Middleware tags every request with a request id, exposes a request-scoped
// logger through both the gin and request contexts, and writes one summary
// line per request. 5xx responses log at error, 4xx at warn.
func Middleware(l *slog.Logger, opts ...MiddlewareOption) gin.HandlerFunc {
	cfg := middlewareConfig{quiet: map[string]bool{}}
	for _, o := range opts {
		o(&cfg)
	}

	return func(c *gin.Context) {
		start := time.Now()

		rid := requestID(c.GetHeader(headerRequestID))
		c.Writer.Header().Set(headerRequestID, rid)

		reqLogger := l.With("request_id", rid, "client_ip", c.ClientIP())
		c.Set(ginLoggerKey, reqLogger)
		c.Request = c.Request.WithContext(With(c.Request.Context(), reqLogger))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		if status < 400 && cfg.quiet[route] {
			return
		}

		attrs := []any{
			"method", c.Request.Method,
			"path", route,
			"status", status,
			"bytes", c.Writer.Size(),
			"duration_ms", float64(time.Since(start).Milliseconds()),
		}
		if extra, ok := c.Get(ginAttrsKey); ok {
			attrs = append(attrs, extra.([]any)...)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		switch {
		case status >= 500 || len(c.Errors) > 0:
			reqLogger.Error("request", attrs...)
		case status >= 400:
			reqLogger.Warn("request", attrs...)
		default:
			reqLogger.Info("request", attrs...)
		}
	}
}

// AddAttrs attaches key/value pairs to the request's summary line. Later
// middleware uses it to record who made the call.
func AddAttrs(c *gin.Context, kv ...any) {
	var attrs []any
	if v, ok := c.Get(ginAttrsKey); ok {
		attrs = v.([]any)
	}
	c.Set(ginAttrsKey, append(attrs, kv...))
}

// requestID accepts a caller-supplied id only when it is short and printable.
func requestID(in string) string {
	if in == "" || len(in) > maxRequestIDLen {
		return uuid.NewString()
	}
	for _, r := range in {
		if r < '!' || r > '~' {
			return uuid.NewString()
		}
	}
	return in
}

// FromGin pulls the request-scoped logger from Gin context.
func FromGin(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(ginLoggerKey); ok {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}
