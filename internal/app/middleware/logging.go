package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/docker/go-units"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/freytube/freytube/internal/core/constants"
	"github.com/freytube/freytube/internal/logger"
)

type contextKey string

const LoggerKey contextKey = "logger"

// IsCatalogRequest reports whether path is a catalog call. Those already log
// every failover attempt so the access line drops to debug.
func IsCatalogRequest(path string) bool {
	return strings.HasPrefix(path, constants.APIPathPrefix)
}

// GetLogger returns the request scoped logger, or the default one
func GetLogger(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(LoggerKey).(*slog.Logger); ok {
		return log
	}
	return slog.Default()
}

// RequestLogging attaches a request ID scoped logger to the context and logs
// each completed request. It expects chi's RequestID middleware to run first.
func RequestLogging(styledLogger *logger.StyledLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chimw.GetReqID(r.Context())
			reqLogger := styledLogger.GetUnderlying().With(constants.ContextRequestIDKey, requestID)
			ctx := context.WithValue(r.Context(), LoggerKey, reqLogger)
			if requestID != "" {
				w.Header().Set(constants.HeaderRequestID, requestID)
			}

			wrapped := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(wrapped, r.WithContext(ctx))

			status := wrapped.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"response_size", units.HumanSize(float64(wrapped.BytesWritten())),
				"remote_addr", r.RemoteAddr,
			}

			if IsCatalogRequest(r.URL.Path) && status < http.StatusInternalServerError {
				reqLogger.Debug("Request completed", fields...)
				return
			}
			reqLogger.Info("Request completed", fields...)
		})
	}
}
