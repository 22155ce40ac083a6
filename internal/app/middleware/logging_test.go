package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/freytube/freytube/internal/core/constants"
	"github.com/freytube/freytube/internal/logger"
	"github.com/freytube/freytube/theme"
)

func newBufferedLogger(buf *bytes.Buffer) *logger.StyledLogger {
	handler := slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	return logger.NewStyledLogger(slog.New(handler), theme.Default())
}

func TestRequestLogging_PropagatesRequestID(t *testing.T) {
	var buf bytes.Buffer
	var seenLogger *slog.Logger

	handler := chimw.RequestID(RequestLogging(newBufferedLogger(&buf))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seenLogger = GetLogger(r.Context())
			w.WriteHeader(http.StatusTeapot)
			_, _ = w.Write([]byte("short and stout"))
		}),
	))

	req := httptest.NewRequest(http.MethodGet, "/internal/health", nil)
	req.Header.Set(constants.HeaderRequestID, "req-123")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Errorf("Expected status 418, got %d", rr.Code)
	}
	if got := rr.Header().Get(constants.HeaderRequestID); got != "req-123" {
		t.Errorf("Expected request ID header req-123, got %q", got)
	}
	if seenLogger == nil {
		t.Fatal("Expected context logger to be available")
	}

	out := buf.String()
	for _, want := range []string{"Request completed", "request_id=req-123", "status=418", "path=/internal/health"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected log to contain %q, got:\n%s", want, out)
		}
	}
}

func TestRequestLogging_CatalogRequestsLogAtDebug(t *testing.T) {
	var buf bytes.Buffer
	handler := RequestLogging(newBufferedLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("[]"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/trending", nil))
	if buf.Len() != 0 {
		t.Errorf("Expected successful catalog request to stay below info, got:\n%s", buf.String())
	}

	failing := RequestLogging(newBufferedLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	failing.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/trending", nil))
	if !strings.Contains(buf.String(), "status=502") {
		t.Errorf("Expected failed catalog request at info, got:\n%s", buf.String())
	}
}

func TestGetLogger_DefaultsWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if GetLogger(req.Context()) != slog.Default() {
		t.Error("Expected default logger when none is attached")
	}
}

func TestIsCatalogRequest(t *testing.T) {
	cases := map[string]bool{
		"/api/trending":       true,
		"/api/streams/abc":    true,
		"/internal/health":    false,
		"/metrics":            false,
		"/internal/instances": false,
	}
	for path, want := range cases {
		if got := IsCatalogRequest(path); got != want {
			t.Errorf("IsCatalogRequest(%q) = %v, want %v", path, got, want)
		}
	}
}
